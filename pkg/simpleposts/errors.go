package simpleposts

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrValidationFailed indicates a required field or the mandatory cover
	// image was missing
	ErrValidationFailed = errors.New("validation failed")

	// ErrPostNotFound indicates a post was not found
	ErrPostNotFound = errors.New("post not found")

	// ErrForbidden indicates the authenticated principal is not the post owner
	ErrForbidden = errors.New("principal is not the post owner")

	// ErrUnauthorized indicates no principal was supplied where one is required
	ErrUnauthorized = errors.New("no authenticated principal")

	// ErrUploadFailed indicates the blob store rejected or could not complete
	// an upload
	ErrUploadFailed = errors.New("upload failed")

	// ErrRecordWriteFailed indicates a record store insert/update/delete failed
	ErrRecordWriteFailed = errors.New("record write failed")
)

// PostError represents an error from a post lifecycle operation. When the
// failing step triggered a compensating blob delete, Cleanup carries its
// outcome so callers and tests can observe it.
type PostError struct {
	PostID  uuid.UUID
	Op      string
	Err     error
	Cleanup *CleanupResult
}

func (e *PostError) Error() string {
	return fmt.Sprintf("post operation %s failed for post %s: %v", e.Op, e.PostID, e.Err)
}

func (e *PostError) Unwrap() error {
	return e.Err
}

// StorageError represents an error from a blob store operation.
type StorageError struct {
	Key string
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
