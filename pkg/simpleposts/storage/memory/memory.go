package memory

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"github.com/tendant/simple-posts/pkg/simpleposts"
)

// Backend is an in-memory implementation of the simpleposts.BlobStore interface
type Backend struct {
	mu              sync.RWMutex
	baseURL         string
	objects         map[string][]byte
	objectsMimeType map[string]string
}

// New creates a new in-memory storage backend. References are built under a
// synthetic base URL so they round-trip through the reference codec.
func New() simpleposts.BlobStore {
	return &Backend{
		baseURL:         "memory://blobs",
		objects:         make(map[string][]byte),
		objectsMimeType: make(map[string]string),
	}
}

// Upload stores the content in memory and returns its public reference
func (b *Backend) Upload(ctx context.Context, reader io.Reader, params simpleposts.UploadParams) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", &simpleposts.StorageError{Key: params.ObjectKey, Op: "upload", Err: err}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[params.ObjectKey] = data
	mimeType := params.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	b.objectsMimeType[params.ObjectKey] = mimeType

	return simpleposts.MakeReference(b.baseURL, params.ObjectKey, mimeType), nil
}

// Delete removes the object, reporting false when it was already absent
func (b *Backend) Delete(ctx context.Context, objectKey string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.objects[objectKey]; !exists {
		return false, nil
	}

	delete(b.objects, objectKey)
	delete(b.objectsMimeType, objectKey)
	return true, nil
}

// Download reads the object back directly
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.objects[objectKey]
	if !exists {
		return nil, errors.New("object not found")
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

// GetObjectMeta retrieves metadata for an object in memory
func (b *Backend) GetObjectMeta(ctx context.Context, objectKey string) (*simpleposts.ObjectMeta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.objects[objectKey]
	if !exists {
		return nil, errors.New("object not found")
	}

	return &simpleposts.ObjectMeta{
		Key:         objectKey,
		Size:        int64(len(data)),
		ContentType: b.objectsMimeType[objectKey],
		Metadata:    map[string]string{"mime_type": b.objectsMimeType[objectKey]},
	}, nil
}
