package upload

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"campusshare.app/api/pkg/apperror"
	"campusshare.app/api/pkg/storage"
)

const maxImageSize = 5 << 20 // 5 MB

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

type Service interface {
	UploadImage(ctx context.Context, fileHeader *multipart.FileHeader) (string, error)
	DeleteImage(ctx context.Context, fileURL string) error
}

type service struct {
	storage storage.ImageStorage
	folder  string
}

func NewService(storage storage.ImageStorage, folder string) Service {
	return &service{
		storage: storage,
		folder:  folder,
	}
}

func (s *service) UploadImage(ctx context.Context, fileHeader *multipart.FileHeader) (string, error) {
	if s.storage == nil {
		return "", fmt.Errorf("image uploads are not configured: %w", apperror.ErrInvalidOperation)
	}

	if fileHeader.Size > maxImageSize {
		return "", fmt.Errorf("image exceeds the 5MB limit: %w", apperror.ErrInvalidInput)
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("unsupported image type %q: %w", ext, apperror.ErrInvalidInput)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	// Sniff the actual content; the extension alone is not trusted
	head := make([]byte, 512)
	n, err := file.Read(head)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read uploaded file: %w", err)
	}
	if !isImageContent(head[:n]) {
		return "", fmt.Errorf("file content is not a supported image: %w", apperror.ErrInvalidInput)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind uploaded file: %w", err)
	}

	url, err := s.storage.UploadImage(ctx, file, s.folder, fileHeader.Filename)
	if err != nil {
		return "", err
	}

	return url, nil
}

func (s *service) DeleteImage(ctx context.Context, fileURL string) error {
	if s.storage == nil {
		return fmt.Errorf("image uploads are not configured: %w", apperror.ErrInvalidOperation)
	}
	return s.storage.DeleteImage(ctx, fileURL)
}

func isImageContent(head []byte) bool {
	switch {
	case len(head) >= 3 && head[0] == 0xFF && head[1] == 0xD8 && head[2] == 0xFF: // jpeg
		return true
	case len(head) >= 8 && string(head[:8]) == "\x89PNG\r\n\x1a\n": // png
		return true
	case len(head) >= 6 && (string(head[:6]) == "GIF87a" || string(head[:6]) == "GIF89a"): // gif
		return true
	case len(head) >= 12 && string(head[:4]) == "RIFF" && string(head[8:12]) == "WEBP": // webp
		return true
	}
	return false
}
