package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/tendant/simple-posts/pkg/simpleposts"
)

// Repository implements simpleposts.Repository using in-memory storage
type Repository struct {
	mu      sync.RWMutex
	posts   map[uuid.UUID]*simpleposts.Post
	authors map[uuid.UUID]*simpleposts.Author
}

// New creates a new in-memory repository
func New() simpleposts.Repository {
	return &Repository{
		posts:   make(map[uuid.UUID]*simpleposts.Post),
		authors: make(map[uuid.UUID]*simpleposts.Author),
	}
}

func (r *Repository) CreatePost(ctx context.Context, post *simpleposts.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Store a copy to avoid external modifications
	postCopy := *post
	r.posts[post.ID] = &postCopy

	return nil
}

func (r *Repository) GetPost(ctx context.Context, id uuid.UUID) (*simpleposts.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	post, exists := r.posts[id]
	if !exists {
		return nil, simpleposts.ErrPostNotFound
	}

	postCopy := *post
	return &postCopy, nil
}

func (r *Repository) GetPostWithAuthor(ctx context.Context, id uuid.UUID) (*simpleposts.PostWithAuthor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	post, exists := r.posts[id]
	if !exists {
		return nil, simpleposts.ErrPostNotFound
	}

	return r.joinAuthor(post), nil
}

func (r *Repository) UpdatePost(ctx context.Context, post *simpleposts.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.posts[post.ID]; !exists {
		return simpleposts.ErrPostNotFound
	}

	postCopy := *post
	r.posts[post.ID] = &postCopy

	return nil
}

func (r *Repository) DeletePost(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.posts[id]; !exists {
		return simpleposts.ErrPostNotFound
	}

	delete(r.posts, id)
	return nil
}

func (r *Repository) ListRecent(ctx context.Context, limit int) ([]*simpleposts.PostWithAuthor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*simpleposts.PostWithAuthor, 0, len(r.posts))
	for _, post := range r.posts {
		result = append(result, r.joinAuthor(post))
	}

	// Sort by created_at descending
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

func (r *Repository) UpsertAuthor(ctx context.Context, author *simpleposts.Author) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	authorCopy := *author
	r.authors[author.ID] = &authorCopy

	return nil
}

// joinAuthor resolves the author display name; callers must hold r.mu.
func (r *Repository) joinAuthor(post *simpleposts.Post) *simpleposts.PostWithAuthor {
	joined := &simpleposts.PostWithAuthor{Post: *post}
	if author, exists := r.authors[post.AuthorID]; exists {
		joined.AuthorName = author.DisplayName
	}
	return joined
}
