package services

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// StorageService defines the interface for binary blob storage.
type StorageService interface {
	// UploadFile persists the stream under a generated unique name and
	// returns a reference that can later be used to retrieve the file.
	UploadFile(file io.Reader, fileName string) (string, error)
}

// LocalStorageService stores uploaded files on the local disk and serves them
// back through a fixed public URL prefix.
type LocalStorageService struct {
	basePath     string
	publicPrefix string
}

// NewLocalStorageService creates a LocalStorageService rooted at basePath.
// The directory is created if it does not exist.
func NewLocalStorageService(basePath, publicPrefix string) (*LocalStorageService, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	return &LocalStorageService{
		basePath:     basePath,
		publicPrefix: strings.TrimSuffix(publicPrefix, "/"),
	}, nil
}

// UploadFile writes the stream to disk under a uuid-prefixed name so that
// concurrent uploads sharing an original filename never collide.
func (s *LocalStorageService) UploadFile(file io.Reader, fileName string) (string, error) {
	// Repeated MkdirAll keeps the upload path valid even if the directory
	// was removed after startup.
	if err := os.MkdirAll(s.basePath, 0o755); err != nil {
		return "", fmt.Errorf("failed to create storage directory %s: %w", s.basePath, err)
	}

	uniqueName := fmt.Sprintf("%s_%s", uuid.New().String(), sanitizeFileName(fileName))
	filePath := filepath.Join(s.basePath, uniqueName)

	dst, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create file %s: %w", filePath, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", fmt.Errorf("failed to write file %s: %w", filePath, err)
	}

	return s.publicPrefix + "/" + uniqueName, nil
}

// sanitizeFileName strips any path components from the client-supplied name
// and replaces spaces so the reference stays a clean URL segment.
func sanitizeFileName(name string) string {
	name = filepath.Base(name)
	return strings.ReplaceAll(name, " ", "_")
}
