package simpleposts

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// NoopEventSink is a no-operation implementation of EventSink
// Useful for production when you don't need event handling or for testing
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-operation event sink
func NewNoopEventSink() EventSink {
	return &NoopEventSink{}
}

// PostCreated does nothing and returns nil
func (n *NoopEventSink) PostCreated(ctx context.Context, post *Post) error {
	return nil
}

// PostUpdated does nothing and returns nil
func (n *NoopEventSink) PostUpdated(ctx context.Context, post *Post) error {
	return nil
}

// PostDeleted does nothing and returns nil
func (n *NoopEventSink) PostDeleted(ctx context.Context, postID uuid.UUID) error {
	return nil
}

// AssetCleanup does nothing and returns nil
func (n *NoopEventSink) AssetCleanup(ctx context.Context, postID uuid.UUID, result CleanupResult) error {
	return nil
}

// LoggingEventSink is an event sink that logs events but takes no other action
// Useful for development and debugging
type LoggingEventSink struct {
	logger *slog.Logger
}

// NewLoggingEventSink creates a new logging event sink
func NewLoggingEventSink(logger *slog.Logger) EventSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingEventSink{logger: logger}
}

// PostCreated logs the post creation event
func (l *LoggingEventSink) PostCreated(ctx context.Context, post *Post) error {
	l.logger.Info("post created", "post_id", post.ID, "author_id", post.AuthorID, "title", post.Title)
	return nil
}

// PostUpdated logs the post update event
func (l *LoggingEventSink) PostUpdated(ctx context.Context, post *Post) error {
	l.logger.Info("post updated", "post_id", post.ID, "image_url", post.ImageRef)
	return nil
}

// PostDeleted logs the post deletion event
func (l *LoggingEventSink) PostDeleted(ctx context.Context, postID uuid.UUID) error {
	l.logger.Info("post deleted", "post_id", postID)
	return nil
}

// AssetCleanup logs the outcome of a best-effort blob delete
func (l *LoggingEventSink) AssetCleanup(ctx context.Context, postID uuid.UUID, result CleanupResult) error {
	if result.Orphaned() {
		l.logger.Warn("cover image cleanup left an orphaned blob",
			"post_id", postID, "object_key", result.ObjectKey, "error", result.Err)
		return nil
	}
	l.logger.Info("cover image cleanup", "post_id", postID,
		"object_key", result.ObjectKey, "status", string(result.Status))
	return nil
}
