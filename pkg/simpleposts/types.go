package simpleposts

import (
	"time"

	"github.com/google/uuid"
)

// Post represents a blog post record. ImageRef, when non-empty, is the public
// reference of the post's cover image in the blob store's namespace.
type Post struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Body      string    `json:"body"`
	AuthorID  uuid.UUID `json:"author_id"`
	ImageRef  string    `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Author is the display identity joined onto posts for read operations.
type Author struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
}

// PostWithAuthor is a post joined with its author's display name.
type PostWithAuthor struct {
	Post
	AuthorName string `json:"author_name"`
}

// Principal is the acting identity supplied by an upstream authentication
// collaborator. The service never authenticates; it only compares identities.
type Principal struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
}

// Present reports whether a principal was supplied at all.
func (p Principal) Present() bool {
	return p.ID != uuid.Nil
}
