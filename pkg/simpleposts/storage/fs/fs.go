package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/tendant/simple-posts/pkg/simpleposts"
)

// Backend is a filesystem implementation of the simpleposts.BlobStore interface
type Backend struct {
	baseDir   string
	urlPrefix string
}

// Config options for the filesystem backend
type Config struct {
	BaseDir   string // Base directory for storing files
	URLPrefix string // URL prefix under which stored files are served
}

// New creates a new filesystem storage backend
func New(config Config) (simpleposts.BlobStore, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}
	if config.URLPrefix == "" {
		return nil, errors.New("url prefix is required")
	}

	if err := os.MkdirAll(config.BaseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &Backend{
		baseDir:   config.BaseDir,
		urlPrefix: config.URLPrefix,
	}, nil
}

// Upload writes the content to disk and returns its public reference
func (b *Backend) Upload(ctx context.Context, reader io.Reader, params simpleposts.UploadParams) (string, error) {
	filePath := filepath.Join(b.baseDir, filepath.FromSlash(params.ObjectKey))

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return "", &simpleposts.StorageError{Key: params.ObjectKey, Op: "upload", Err: err}
	}

	file, err := os.Create(filePath)
	if err != nil {
		return "", &simpleposts.StorageError{Key: params.ObjectKey, Op: "upload", Err: err}
	}
	defer file.Close()

	if _, err := io.Copy(file, reader); err != nil {
		os.Remove(filePath)
		return "", &simpleposts.StorageError{Key: params.ObjectKey, Op: "upload", Err: err}
	}

	return simpleposts.MakeReference(b.urlPrefix, params.ObjectKey, params.MimeType), nil
}

// Delete removes the file, reporting false when it was already absent
func (b *Backend) Delete(ctx context.Context, objectKey string) (bool, error) {
	filePath := filepath.Join(b.baseDir, filepath.FromSlash(objectKey))

	err := os.Remove(filePath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, &simpleposts.StorageError{Key: objectKey, Op: "delete", Err: err}
	}
	return true, nil
}

// Download reads the file back directly
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	filePath := filepath.Join(b.baseDir, filepath.FromSlash(objectKey))

	file, err := os.Open(filePath)
	if os.IsNotExist(err) {
		return nil, errors.New("object not found")
	}
	if err != nil {
		return nil, &simpleposts.StorageError{Key: objectKey, Op: "download", Err: err}
	}
	return file, nil
}

// GetObjectMeta retrieves metadata for a stored file
func (b *Backend) GetObjectMeta(ctx context.Context, objectKey string) (*simpleposts.ObjectMeta, error) {
	filePath := filepath.Join(b.baseDir, filepath.FromSlash(objectKey))

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return nil, errors.New("object not found")
	} else if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	// Detect content type from the leading bytes
	contentType := "application/octet-stream"
	if file, err := os.Open(filePath); err == nil {
		defer file.Close()
		buffer := make([]byte, 512)
		if n, err := file.Read(buffer); err == nil {
			contentType = http.DetectContentType(buffer[:n])
		}
	}

	return &simpleposts.ObjectMeta{
		Key:         objectKey,
		Size:        info.Size(),
		ContentType: contentType,
		UpdatedAt:   info.ModTime(),
		Metadata:    map[string]string{"content_type": contentType},
	}, nil
}
