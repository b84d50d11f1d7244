package simpleposts

import "github.com/google/uuid"

// Request DTOs

// CreatePostRequest contains parameters for creating a new post. A cover
// image is mandatory at creation.
type CreatePostRequest struct {
	Principal        Principal
	Title            string
	Summary          string
	Body             string
	Image            []byte
	ImageContentType string
}

// UpdatePostRequest contains parameters for replacing a post's fields. When
// Image is empty the existing cover image reference is retained and only
// metadata fields are updated.
type UpdatePostRequest struct {
	Principal        Principal
	PostID           uuid.UUID
	Title            string
	Summary          string
	Body             string
	Image            []byte
	ImageContentType string
}

// DeletePostRequest contains parameters for deleting a post.
type DeletePostRequest struct {
	Principal Principal
	PostID    uuid.UUID
}

// ListPostsRequest contains parameters for listing recent posts. Limit values
// outside (0, DefaultListLimit] are clamped to DefaultListLimit.
type ListPostsRequest struct {
	Limit int
}
