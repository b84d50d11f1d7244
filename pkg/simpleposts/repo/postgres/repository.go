package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-posts/pkg/simpleposts"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements simpleposts.Repository using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) simpleposts.Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) simpleposts.Repository {
	return &Repository{db: pool}
}

// Error handling helper
func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			if strings.Contains(pgErr.ConstraintName, "post") {
				return fmt.Errorf("post already exists")
			}
			return fmt.Errorf("duplicate entry")
		case "23503": // foreign_key_violation
			return fmt.Errorf("referenced record not found")
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

func (r *Repository) CreatePost(ctx context.Context, post *simpleposts.Post) error {
	query := `
		INSERT INTO posts (
			id, title, summary, body, author_id, image_url, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		post.ID, post.Title, post.Summary, post.Body,
		post.AuthorID, nullableRef(post.ImageRef), post.CreatedAt, post.UpdatedAt)

	if err != nil {
		return r.handlePostgresError("create post", err)
	}

	return nil
}

func (r *Repository) GetPost(ctx context.Context, id uuid.UUID) (*simpleposts.Post, error) {
	query := `
		SELECT id, title, summary, body, author_id, image_url, created_at, updated_at
		FROM posts WHERE id = $1`

	post, err := scanPost(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, simpleposts.ErrPostNotFound
		}
		return nil, r.handlePostgresError("get post", err)
	}

	return post, nil
}

func (r *Repository) GetPostWithAuthor(ctx context.Context, id uuid.UUID) (*simpleposts.PostWithAuthor, error) {
	query := `
		SELECT p.id, p.title, p.summary, p.body, p.author_id, p.image_url,
		       p.created_at, p.updated_at, COALESCE(a.display_name, '')
		FROM posts p
		LEFT JOIN authors a ON a.id = p.author_id
		WHERE p.id = $1`

	var joined simpleposts.PostWithAuthor
	var imageRef *string
	err := r.db.QueryRow(ctx, query, id).Scan(
		&joined.ID, &joined.Title, &joined.Summary, &joined.Body,
		&joined.AuthorID, &imageRef, &joined.CreatedAt, &joined.UpdatedAt,
		&joined.AuthorName)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, simpleposts.ErrPostNotFound
		}
		return nil, r.handlePostgresError("get post with author", err)
	}

	if imageRef != nil {
		joined.ImageRef = *imageRef
	}

	return &joined, nil
}

func (r *Repository) UpdatePost(ctx context.Context, post *simpleposts.Post) error {
	query := `
		UPDATE posts SET
			title = $2, summary = $3, body = $4, image_url = $5, updated_at = $6
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		post.ID, post.Title, post.Summary, post.Body,
		nullableRef(post.ImageRef), post.UpdatedAt)

	if err != nil {
		return r.handlePostgresError("update post", err)
	}
	if tag.RowsAffected() == 0 {
		return simpleposts.ErrPostNotFound
	}

	return nil
}

func (r *Repository) DeletePost(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return r.handlePostgresError("delete post", err)
	}
	if tag.RowsAffected() == 0 {
		return simpleposts.ErrPostNotFound
	}

	return nil
}

func (r *Repository) ListRecent(ctx context.Context, limit int) ([]*simpleposts.PostWithAuthor, error) {
	query := `
		SELECT p.id, p.title, p.summary, p.body, p.author_id, p.image_url,
		       p.created_at, p.updated_at, COALESCE(a.display_name, '')
		FROM posts p
		LEFT JOIN authors a ON a.id = p.author_id
		ORDER BY p.created_at DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, r.handlePostgresError("list recent posts", err)
	}
	defer rows.Close()

	var result []*simpleposts.PostWithAuthor
	for rows.Next() {
		var joined simpleposts.PostWithAuthor
		var imageRef *string
		if err := rows.Scan(
			&joined.ID, &joined.Title, &joined.Summary, &joined.Body,
			&joined.AuthorID, &imageRef, &joined.CreatedAt, &joined.UpdatedAt,
			&joined.AuthorName); err != nil {
			return nil, r.handlePostgresError("list recent posts", err)
		}
		if imageRef != nil {
			joined.ImageRef = *imageRef
		}
		result = append(result, &joined)
	}

	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("list recent posts", err)
	}

	return result, nil
}

func (r *Repository) UpsertAuthor(ctx context.Context, author *simpleposts.Author) error {
	query := `
		INSERT INTO authors (id, display_name)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET display_name = EXCLUDED.display_name`

	if _, err := r.db.Exec(ctx, query, author.ID, author.DisplayName); err != nil {
		return r.handlePostgresError("upsert author", err)
	}

	return nil
}

func scanPost(row pgx.Row) (*simpleposts.Post, error) {
	var post simpleposts.Post
	var imageRef *string
	err := row.Scan(
		&post.ID, &post.Title, &post.Summary, &post.Body,
		&post.AuthorID, &imageRef, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if imageRef != nil {
		post.ImageRef = *imageRef
	}
	return &post, nil
}

// nullableRef maps the empty reference to SQL NULL.
func nullableRef(ref string) *string {
	if ref == "" {
		return nil
	}
	return &ref
}
