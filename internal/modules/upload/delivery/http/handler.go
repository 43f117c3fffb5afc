package handler

import (
	"net/http"

	service "campusshare.app/api/internal/modules/upload/service"
	"campusshare.app/api/pkg/response"
	"campusshare.app/api/pkg/validator"
	"github.com/gin-gonic/gin"
)

type UploadHandler struct {
	service service.Service
}

func NewUploadHandler(service service.Service) *UploadHandler {
	return &UploadHandler{service: service}
}

func (h *UploadHandler) UploadImage(c *gin.Context) {
	if _, err := response.GetUserID(c); err != nil {
		response.ResponseError(c, err)
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}

	url, err := h.service.UploadImage(c.Request.Context(), fileHeader)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"url": url})
}

type deleteImageRequest struct {
	URL string `json:"url" binding:"required,url"`
}

func (h *UploadHandler) DeleteImage(c *gin.Context) {
	if _, err := response.GetUserID(c); err != nil {
		response.ResponseError(c, err)
		return
	}

	var req deleteImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	if err := h.service.DeleteImage(c.Request.Context(), req.URL); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "image deleted"})
}
