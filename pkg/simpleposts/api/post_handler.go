package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/tendant/simple-posts/pkg/simpleposts"
)

// maxImageSize caps cover image uploads at 5 MiB.
const maxImageSize = 5 << 20

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// PostHandler handles HTTP requests for posts using pkg/simpleposts
type PostHandler struct {
	service simpleposts.Service
}

// NewPostHandler creates a new post handler
func NewPostHandler(service simpleposts.Service) *PostHandler {
	return &PostHandler{service: service}
}

// Routes returns the routes for posts. Mutating routes run behind the JWT
// verifier; the service itself decides unauthorized/forbidden.
func (h *PostHandler) Routes(tokenAuth *jwtauth.JWTAuth) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListPosts)
	r.Get("/{id}", h.GetPost)

	r.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(tokenAuth))
		r.Post("/", h.CreatePost)
		r.Put("/{id}", h.UpdatePost)
		r.Delete("/{id}", h.DeletePost)
	})

	return r
}

// PostResponse is the response body for a post
type PostResponse struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Summary    string    `json:"summary"`
	Body       string    `json:"content"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name,omitempty"`
	ImageURL   string    `json:"image_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func postResponse(post *simpleposts.Post, authorName string) PostResponse {
	return PostResponse{
		ID:         post.ID.String(),
		Title:      post.Title,
		Summary:    post.Summary,
		Body:       post.Body,
		AuthorID:   post.AuthorID.String(),
		AuthorName: authorName,
		ImageURL:   post.ImageRef,
		CreatedAt:  post.CreatedAt,
		UpdatedAt:  post.UpdatedAt,
	}
}

// CreatePost creates a new post from a multipart form (title, summary,
// content, image)
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	image, contentType, err := readImageField(r, true)
	if err != nil {
		renderError(w, r, err)
		return
	}

	req := simpleposts.CreatePostRequest{
		Principal:        PrincipalFromContext(r.Context()),
		Title:            r.FormValue("title"),
		Summary:          r.FormValue("summary"),
		Body:             r.FormValue("content"),
		Image:            image,
		ImageContentType: contentType,
	}

	post, err := h.service.CreatePost(r.Context(), req)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, postResponse(post, req.Principal.DisplayName))
}

// UpdatePost replaces a post's fields; a new image is optional
func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, simpleposts.ErrPostNotFound)
		return
	}

	image, contentType, err := readImageField(r, false)
	if err != nil {
		renderError(w, r, err)
		return
	}

	req := simpleposts.UpdatePostRequest{
		Principal:        PrincipalFromContext(r.Context()),
		PostID:           id,
		Title:            r.FormValue("title"),
		Summary:          r.FormValue("summary"),
		Body:             r.FormValue("content"),
		Image:            image,
		ImageContentType: contentType,
	}

	if err := h.service.UpdatePost(r.Context(), req); err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]string{"message": "post updated"})
}

// DeletePost deletes a post and its cover image
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, simpleposts.ErrPostNotFound)
		return
	}

	req := simpleposts.DeletePostRequest{
		Principal: PrincipalFromContext(r.Context()),
		PostID:    id,
	}

	if err := h.service.DeletePost(r.Context(), req); err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]string{"message": "post deleted"})
}

// GetPost returns a post joined with its author's display name
func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, simpleposts.ErrPostNotFound)
		return
	}

	post, err := h.service.GetPost(r.Context(), id)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, postResponse(&post.Post, post.AuthorName))
}

// ListPosts returns the bounded recent-posts window, newest first
func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	posts, err := h.service.ListPosts(r.Context(), simpleposts.ListPostsRequest{Limit: limit})
	if err != nil {
		renderError(w, r, err)
		return
	}

	responses := make([]PostResponse, 0, len(posts))
	for _, post := range posts {
		responses = append(responses, postResponse(&post.Post, post.AuthorName))
	}

	render.JSON(w, r, responses)
}

// readImageField extracts the cover image from the multipart form. When
// required is false a missing image field is not an error; the existing
// image is kept.
func readImageField(r *http.Request, required bool) ([]byte, string, error) {
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		if !required && (errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary)) {
			return nil, "", nil
		}
		return nil, "", errWithStatus(simpleposts.ErrValidationFailed, "invalid multipart form")
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			if required {
				return nil, "", errWithStatus(simpleposts.ErrValidationFailed, "cover image is required")
			}
			return nil, "", nil
		}
		return nil, "", errWithStatus(simpleposts.ErrValidationFailed, "invalid image upload")
	}
	defer file.Close()

	if header.Size > maxImageSize {
		return nil, "", errWithStatus(simpleposts.ErrValidationFailed, "cover image exceeds 5MB limit")
	}

	data, err := io.ReadAll(io.LimitReader(file, maxImageSize+1))
	if err != nil {
		return nil, "", err
	}
	if len(data) > maxImageSize {
		return nil, "", errWithStatus(simpleposts.ErrValidationFailed, "cover image exceeds 5MB limit")
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	if !allowedImageTypes[contentType] {
		return nil, "", errWithStatus(simpleposts.ErrValidationFailed,
			"invalid file type, only JPG, JPEG, PNG, GIF and WEBP images are allowed")
	}

	return data, contentType, nil
}

func errWithStatus(sentinel error, message string) error {
	return &statusError{sentinel: sentinel, message: message}
}

type statusError struct {
	sentinel error
	message  string
}

func (e *statusError) Error() string { return e.message }
func (e *statusError) Unwrap() error { return e.sentinel }

// renderError maps service errors onto HTTP status semantics
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, simpleposts.ErrValidationFailed):
		status = http.StatusBadRequest
	case errors.Is(err, simpleposts.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, simpleposts.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, simpleposts.ErrPostNotFound):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}

	render.Status(r, status)
	render.JSON(w, r, map[string]string{"error": err.Error()})
}
