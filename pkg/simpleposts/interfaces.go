package simpleposts

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// BlobStore defines the interface for blob storage backends.
type BlobStore interface {
	// Upload stores the content read from reader under params.ObjectKey and
	// returns the public reference for it. The reference must be invertible
	// back to the object key by ParseIdentifier.
	Upload(ctx context.Context, reader io.Reader, params UploadParams) (string, error)

	// Delete removes the object. It returns false, with a nil error, when the
	// object was already absent: repeat deletes are not an error to the caller.
	Delete(ctx context.Context, objectKey string) (bool, error)

	// Download reads the object back directly
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// GetObjectMeta retrieves metadata for a stored object
	GetObjectMeta(ctx context.Context, objectKey string) (*ObjectMeta, error)
}

// Repository defines the interface for post and author persistence.
type Repository interface {
	CreatePost(ctx context.Context, post *Post) error
	GetPost(ctx context.Context, id uuid.UUID) (*Post, error)
	GetPostWithAuthor(ctx context.Context, id uuid.UUID) (*PostWithAuthor, error)
	UpdatePost(ctx context.Context, post *Post) error
	DeletePost(ctx context.Context, id uuid.UUID) error
	ListRecent(ctx context.Context, limit int) ([]*PostWithAuthor, error)

	// UpsertAuthor records the acting principal's display identity so that
	// read joins can resolve author names.
	UpsertAuthor(ctx context.Context, author *Author) error
}

// EventSink defines the interface for lifecycle event handling. Sink errors
// never fail the operation that fired them.
type EventSink interface {
	// PostCreated is fired when a post is created
	PostCreated(ctx context.Context, post *Post) error

	// PostUpdated is fired when a post is updated
	PostUpdated(ctx context.Context, post *Post) error

	// PostDeleted is fired when a post is deleted
	PostDeleted(ctx context.Context, postID uuid.UUID) error

	// AssetCleanup is fired after every best-effort blob delete, whatever its
	// outcome. This is the diagnostic channel for orphaned blobs.
	AssetCleanup(ctx context.Context, postID uuid.UUID, result CleanupResult) error
}

// ObjectMeta contains metadata about an object in storage
type ObjectMeta struct {
	Key         string
	Size        int64
	ContentType string
	UpdatedAt   time.Time
	ETag        string
	Metadata    map[string]string
}

// UploadParams contains parameters for uploading an object
type UploadParams struct {
	ObjectKey string
	MimeType  string
}
