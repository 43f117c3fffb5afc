package handler

import (
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type fakeUploadService struct {
	deletedURL string
}

func (f *fakeUploadService) UploadImage(ctx context.Context, fileHeader *multipart.FileHeader) (string, error) {
	return "", nil
}

func (f *fakeUploadService) DeleteImage(ctx context.Context, fileURL string) error {
	f.deletedURL = fileURL
	return nil
}

func newDeleteRouter(svc *fakeUploadService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.DELETE("/api/upload", func(c *gin.Context) {
		c.Set("user_id", uuid.New().String())
	}, NewUploadHandler(svc).DeleteImage)
	return router
}

func TestDeleteImage(t *testing.T) {
	svc := &fakeUploadService{}
	router := newDeleteRouter(svc)

	body := `{"url":"https://res.cloudinary.com/demo/image/upload/v1/campusshare/abc.jpg"}`
	req := httptest.NewRequest(http.MethodDelete, "/api/upload", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	if svc.deletedURL != "https://res.cloudinary.com/demo/image/upload/v1/campusshare/abc.jpg" {
		t.Errorf("deleted url = %q", svc.deletedURL)
	}
}

func TestDeleteImageRequiresURL(t *testing.T) {
	svc := &fakeUploadService{}
	router := newDeleteRouter(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/upload", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if svc.deletedURL != "" {
		t.Error("service should not be called for an invalid payload")
	}
}
