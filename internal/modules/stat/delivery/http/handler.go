package handler

import (
	"net/http"

	service "campusshare.app/api/internal/modules/stat/service"
	"campusshare.app/api/pkg/response"
	"github.com/gin-gonic/gin"
)

type StatHandler struct {
	service service.Service
}

func NewStatHandler(service service.Service) *StatHandler {
	return &StatHandler{service: service}
}

func (h *StatHandler) GetOverview(c *gin.Context) {
	overview, err := h.service.GetOverview(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, overview)
}
