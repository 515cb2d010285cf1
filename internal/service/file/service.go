package file

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/storage"
	"github.com/google/uuid"
)

var allowedPhotoExts = []string{".jpg", ".jpeg", ".png"}

type FileService interface {
	// UploadRegularizationPhoto stores a geo-tagged photo attached to a
	// regularization request and returns its storage key.
	UploadRegularizationPhoto(ctx context.Context, employeeID string, date time.Time, file io.Reader, filename string) (string, error)

	DeleteFile(ctx context.Context, path string) error
	GetFileURL(ctx context.Context, path string) (string, error)
}

type fileServiceImpl struct {
	storage storage.FileStorage
}

func NewFileService(storage storage.FileStorage) FileService {
	return &fileServiceImpl{
		storage: storage,
	}
}

func (s *fileServiceImpl) UploadRegularizationPhoto(ctx context.Context, employeeID string, date time.Time, file io.Reader, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	isValid := false
	for _, allowed := range allowedPhotoExts {
		if ext == allowed {
			isValid = true
			break
		}
	}
	if !isValid {
		return "", fmt.Errorf("invalid file type: only jpg, jpeg, png allowed")
	}

	// regularizations/{employee}/{yyyy-mm}/{date}-{uuid}.ext
	newFilename := fmt.Sprintf("%s-%s%s", date.Format("2006-01-02"), uuid.New().String(), ext)
	key := path.Join("regularizations", employeeID, date.Format("2006-01"), newFilename)

	contentType := "image/jpeg"
	if ext == ".png" {
		contentType = "image/png"
	}

	uploadedPath, err := s.storage.Upload(ctx, file, key, contentType)
	if err != nil {
		return "", fmt.Errorf("failed to upload regularization photo: %w", err)
	}

	return uploadedPath, nil
}

func (s *fileServiceImpl) DeleteFile(ctx context.Context, path string) error {
	return s.storage.Delete(ctx, path)
}

func (s *fileServiceImpl) GetFileURL(ctx context.Context, path string) (string, error) {
	return s.storage.GetURL(ctx, path)
}
