package simpleposts

import (
	"context"

	"github.com/google/uuid"
)

// DefaultListLimit is the default and maximum size of the recent-posts window.
const DefaultListLimit = 20

// Service defines the main interface for the simple-posts library.
type Service interface {
	// CreatePost uploads the cover image and then inserts the post record.
	// On insert failure the just-uploaded blob is deleted as compensation.
	CreatePost(ctx context.Context, req CreatePostRequest) (*Post, error)

	// UpdatePost replaces a post's fields. A new cover image, if present, is
	// uploaded before the record update; the previous image is deleted only
	// after the record durably points at the new one.
	UpdatePost(ctx context.Context, req UpdatePostRequest) error

	// DeletePost removes the post record, then attempts best-effort deletion
	// of its cover image.
	DeletePost(ctx context.Context, req DeletePostRequest) error

	// GetPost returns the post joined with its author's display name.
	GetPost(ctx context.Context, id uuid.UUID) (*PostWithAuthor, error)

	// ListPosts returns up to req.Limit recent posts, newest first, joined
	// with author display names.
	ListPosts(ctx context.Context, req ListPostsRequest) ([]*PostWithAuthor, error)
}
