package simpleposts

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// service implements the Service interface
type service struct {
	repository Repository
	blobStore  BlobStore
	events     EventSink
	namespace  string
	logger     *slog.Logger
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithBlobStore sets the blob storage backend for cover images
func WithBlobStore(store BlobStore) Option {
	return func(s *service) {
		s.blobStore = store
	}
}

// WithEventSink sets the event sink for the service
func WithEventSink(sink EventSink) Option {
	return func(s *service) {
		s.events = sink
	}
}

// WithNamespace overrides the blob store namespace for cover images
func WithNamespace(namespace string) Option {
	return func(s *service) {
		s.namespace = namespace
	}
}

// WithLogger sets the logger used for cleanup diagnostics
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		namespace: DefaultNamespace,
		logger:    slog.Default(),
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.blobStore == nil {
		return nil, fmt.Errorf("blob store is required")
	}

	return s, nil
}

// isOwner reports whether the principal owns the post. Both identifiers are
// normalized to canonical string form before comparing, so equivalent
// representations of the same identity always match.
func isOwner(principal Principal, post *Post) bool {
	return principal.ID.String() == post.AuthorID.String()
}

func validatePostFields(title, summary, body string) error {
	switch {
	case strings.TrimSpace(title) == "":
		return fmt.Errorf("%w: title is required", ErrValidationFailed)
	case strings.TrimSpace(summary) == "":
		return fmt.Errorf("%w: summary is required", ErrValidationFailed)
	case strings.TrimSpace(body) == "":
		return fmt.Errorf("%w: body is required", ErrValidationFailed)
	}
	return nil
}

func (s *service) CreatePost(ctx context.Context, req CreatePostRequest) (*Post, error) {
	if !req.Principal.Present() {
		return nil, ErrUnauthorized
	}
	if err := validatePostFields(req.Title, req.Summary, req.Body); err != nil {
		return nil, err
	}
	if len(req.Image) == 0 {
		return nil, fmt.Errorf("%w: cover image is required", ErrValidationFailed)
	}

	// Upload first. If it fails nothing was written anywhere.
	objectKey := NewObjectKey(s.namespace)
	reference, err := s.blobStore.Upload(ctx, bytes.NewReader(req.Image), UploadParams{
		ObjectKey: objectKey,
		MimeType:  req.ImageContentType,
	})
	if err != nil {
		return nil, &PostError{
			Op:  "create",
			Err: fmt.Errorf("%w: %v", ErrUploadFailed, err),
		}
	}

	now := time.Now().UTC()
	post := &Post{
		ID:        uuid.New(),
		Title:     req.Title,
		Summary:   req.Summary,
		Body:      req.Body,
		AuthorID:  req.Principal.ID,
		ImageRef:  reference,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.upsertAuthor(ctx, req.Principal); err != nil {
		cleanup := s.deleteBlob(ctx, post.ID, objectKey)
		return nil, &PostError{
			PostID:  post.ID,
			Op:      "create",
			Err:     fmt.Errorf("%w: %v", ErrRecordWriteFailed, err),
			Cleanup: &cleanup,
		}
	}

	if err := s.repository.CreatePost(ctx, post); err != nil {
		// Compensate: the uploaded blob must not stay referenced by nothing.
		cleanup := s.deleteBlob(ctx, post.ID, objectKey)
		return nil, &PostError{
			PostID:  post.ID,
			Op:      "create",
			Err:     fmt.Errorf("%w: %v", ErrRecordWriteFailed, err),
			Cleanup: &cleanup,
		}
	}

	if s.events != nil {
		if err := s.events.PostCreated(ctx, post); err != nil {
			s.logger.Error("post created event failed", "post_id", post.ID, "error", err)
		}
	}

	return post, nil
}

func (s *service) UpdatePost(ctx context.Context, req UpdatePostRequest) error {
	if !req.Principal.Present() {
		return ErrUnauthorized
	}
	if err := validatePostFields(req.Title, req.Summary, req.Body); err != nil {
		return err
	}

	post, err := s.repository.GetPost(ctx, req.PostID)
	if err != nil {
		return err
	}
	if !isOwner(req.Principal, post) {
		return ErrForbidden
	}

	// Write-after-new, delete-old-last: a reader must never observe the
	// record pointing at an absent blob.
	oldReference := post.ImageRef
	newObjectKey := ""
	if len(req.Image) > 0 {
		newObjectKey = NewObjectKey(s.namespace)
		reference, err := s.blobStore.Upload(ctx, bytes.NewReader(req.Image), UploadParams{
			ObjectKey: newObjectKey,
			MimeType:  req.ImageContentType,
		})
		if err != nil {
			// Record untouched, still referencing the old image.
			return &PostError{
				PostID: req.PostID,
				Op:     "update",
				Err:    fmt.Errorf("%w: %v", ErrUploadFailed, err),
			}
		}
		post.ImageRef = reference
	}

	post.Title = req.Title
	post.Summary = req.Summary
	post.Body = req.Body
	post.UpdatedAt = time.Now().UTC()

	if err := s.repository.UpdatePost(ctx, post); err != nil {
		var cleanup *CleanupResult
		if newObjectKey != "" {
			result := s.deleteBlob(ctx, req.PostID, newObjectKey)
			cleanup = &result
		}
		return &PostError{
			PostID:  req.PostID,
			Op:      "update",
			Err:     fmt.Errorf("%w: %v", ErrRecordWriteFailed, err),
			Cleanup: cleanup,
		}
	}

	// The record durably points at the new image; the old one is unreferenced
	// and can go. Failure here leaves a tolerated orphan.
	if newObjectKey != "" {
		if oldKey, ok := ParseIdentifier(oldReference, s.namespace); ok {
			s.deleteBlob(ctx, req.PostID, oldKey)
		}
	}

	if s.events != nil {
		if err := s.events.PostUpdated(ctx, post); err != nil {
			s.logger.Error("post updated event failed", "post_id", post.ID, "error", err)
		}
	}

	return nil
}

func (s *service) DeletePost(ctx context.Context, req DeletePostRequest) error {
	if !req.Principal.Present() {
		return ErrUnauthorized
	}

	post, err := s.repository.GetPost(ctx, req.PostID)
	if err != nil {
		return err
	}
	if !isOwner(req.Principal, post) {
		return ErrForbidden
	}

	// Record deletion is the authoritative step. Once it succeeds the post is
	// gone to readers regardless of how image cleanup goes.
	if err := s.repository.DeletePost(ctx, req.PostID); err != nil {
		return &PostError{
			PostID: req.PostID,
			Op:     "delete",
			Err:    fmt.Errorf("%w: %v", ErrRecordWriteFailed, err),
		}
	}

	if objectKey, ok := ParseIdentifier(post.ImageRef, s.namespace); ok {
		s.deleteBlob(ctx, req.PostID, objectKey)
	}

	if s.events != nil {
		if err := s.events.PostDeleted(ctx, req.PostID); err != nil {
			s.logger.Error("post deleted event failed", "post_id", req.PostID, "error", err)
		}
	}

	return nil
}

func (s *service) GetPost(ctx context.Context, id uuid.UUID) (*PostWithAuthor, error) {
	return s.repository.GetPostWithAuthor(ctx, id)
}

func (s *service) ListPosts(ctx context.Context, req ListPostsRequest) ([]*PostWithAuthor, error) {
	limit := req.Limit
	if limit <= 0 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}
	return s.repository.ListRecent(ctx, limit)
}

func (s *service) upsertAuthor(ctx context.Context, principal Principal) error {
	return s.repository.UpsertAuthor(ctx, &Author{
		ID:          principal.ID,
		DisplayName: principal.DisplayName,
	})
}

// deleteBlob performs one best-effort blob delete and reports its outcome to
// the logger and event sink. It never returns an error.
func (s *service) deleteBlob(ctx context.Context, postID uuid.UUID, objectKey string) CleanupResult {
	removed, err := s.blobStore.Delete(ctx, objectKey)

	var result CleanupResult
	switch {
	case err != nil:
		result = CleanupResult{ObjectKey: objectKey, Status: CleanupFailed, Err: err}
		s.logger.Error("cover image cleanup failed, blob may be orphaned",
			"post_id", postID, "object_key", objectKey, "error", err)
	case !removed:
		result = CleanupResult{ObjectKey: objectKey, Status: CleanupSkipped}
	default:
		result = CleanupResult{ObjectKey: objectKey, Status: CleanupSucceeded}
	}

	if s.events != nil {
		if err := s.events.AssetCleanup(ctx, postID, result); err != nil {
			s.logger.Error("asset cleanup event failed", "post_id", postID, "error", err)
		}
	}

	return result
}
