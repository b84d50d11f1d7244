package simpleposts_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-posts/pkg/simpleposts"
	"github.com/tendant/simple-posts/pkg/simpleposts/repo/memory"
	memorystorage "github.com/tendant/simple-posts/pkg/simpleposts/storage/memory"
)

var imgBytes = []byte("\xff\xd8\xff\xe0fake-jpeg-payload")

// failingRepository wraps a real repository and fails selected writes.
type failingRepository struct {
	simpleposts.Repository
	failCreate bool
	failUpdate bool
}

func (r *failingRepository) CreatePost(ctx context.Context, post *simpleposts.Post) error {
	if r.failCreate {
		return errors.New("insert rejected")
	}
	return r.Repository.CreatePost(ctx, post)
}

func (r *failingRepository) UpdatePost(ctx context.Context, post *simpleposts.Post) error {
	if r.failUpdate {
		return errors.New("update rejected")
	}
	return r.Repository.UpdatePost(ctx, post)
}

// failingBlobStore wraps a real blob store and fails selected operations.
type failingBlobStore struct {
	simpleposts.BlobStore
	failUpload bool
	failDelete bool
}

func (b *failingBlobStore) Upload(ctx context.Context, reader io.Reader, params simpleposts.UploadParams) (string, error) {
	if b.failUpload {
		return "", errors.New("upload rejected")
	}
	return b.BlobStore.Upload(ctx, reader, params)
}

func (b *failingBlobStore) Delete(ctx context.Context, objectKey string) (bool, error) {
	if b.failDelete {
		return false, errors.New("delete rejected")
	}
	return b.BlobStore.Delete(ctx, objectKey)
}

// recordingSink captures fired events for assertions.
type recordingSink struct {
	created  []uuid.UUID
	updated  []uuid.UUID
	deleted  []uuid.UUID
	cleanups []simpleposts.CleanupResult
}

func (s *recordingSink) PostCreated(ctx context.Context, post *simpleposts.Post) error {
	s.created = append(s.created, post.ID)
	return nil
}

func (s *recordingSink) PostUpdated(ctx context.Context, post *simpleposts.Post) error {
	s.updated = append(s.updated, post.ID)
	return nil
}

func (s *recordingSink) PostDeleted(ctx context.Context, postID uuid.UUID) error {
	s.deleted = append(s.deleted, postID)
	return nil
}

func (s *recordingSink) AssetCleanup(ctx context.Context, postID uuid.UUID, result simpleposts.CleanupResult) error {
	s.cleanups = append(s.cleanups, result)
	return nil
}

type testEnv struct {
	svc   simpleposts.Service
	repo  *failingRepository
	store *failingBlobStore
	sink  *recordingSink
}

func setupTestService(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		repo:  &failingRepository{Repository: memory.New()},
		store: &failingBlobStore{BlobStore: memorystorage.New()},
		sink:  &recordingSink{},
	}

	svc, err := simpleposts.New(
		simpleposts.WithRepository(env.repo),
		simpleposts.WithBlobStore(env.store),
		simpleposts.WithEventSink(env.sink),
	)
	require.NoError(t, err)
	require.NotNil(t, svc)

	env.svc = svc
	return env
}

// blobPresent reports whether the blob a reference points at exists.
func blobPresent(t *testing.T, store simpleposts.BlobStore, reference string) bool {
	t.Helper()

	key, ok := simpleposts.ParseIdentifier(reference, simpleposts.DefaultNamespace)
	require.True(t, ok, "reference %q must parse back to an object key", reference)

	_, err := store.GetObjectMeta(context.Background(), key)
	return err == nil
}

func createPost(t *testing.T, env *testEnv, principal simpleposts.Principal) *simpleposts.Post {
	t.Helper()

	post, err := env.svc.CreatePost(context.Background(), simpleposts.CreatePostRequest{
		Principal:        principal,
		Title:            "A",
		Summary:          "B",
		Body:             "C",
		Image:            imgBytes,
		ImageContentType: "image/jpeg",
	})
	require.NoError(t, err)
	return post
}

func TestServiceCreation(t *testing.T) {
	tests := []struct {
		name        string
		options     []simpleposts.Option
		expectError bool
	}{
		{
			name:        "no options should fail",
			options:     []simpleposts.Option{},
			expectError: true,
		},
		{
			name: "repository only should fail",
			options: []simpleposts.Option{
				simpleposts.WithRepository(memory.New()),
			},
			expectError: true,
		},
		{
			name: "with repository and blob store should succeed",
			options: []simpleposts.Option{
				simpleposts.WithRepository(memory.New()),
				simpleposts.WithBlobStore(memorystorage.New()),
			},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := simpleposts.New(tt.options...)

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, svc)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, svc)
			}
		})
	}
}

func TestCreatePost(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		env := setupTestService(t)
		author := simpleposts.Principal{ID: uuid.New(), DisplayName: "U1"}

		post, err := env.svc.CreatePost(ctx, simpleposts.CreatePostRequest{
			Principal:        author,
			Title:            "A",
			Summary:          "B",
			Body:             "C",
			Image:            imgBytes,
			ImageContentType: "image/jpeg",
		})
		require.NoError(t, err)
		require.NotNil(t, post)

		assert.Equal(t, author.ID, post.AuthorID)
		assert.NotEmpty(t, post.ImageRef)
		assert.False(t, post.CreatedAt.IsZero())
		assert.True(t, blobPresent(t, env.store, post.ImageRef), "image must be live when create returns")

		retrieved, err := env.svc.GetPost(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, "U1", retrieved.AuthorName)
		assert.Equal(t, post.ImageRef, retrieved.ImageRef)

		assert.Equal(t, []uuid.UUID{post.ID}, env.sink.created)
	})

	t.Run("ValidationFailures", func(t *testing.T) {
		env := setupTestService(t)
		author := simpleposts.Principal{ID: uuid.New(), DisplayName: "U1"}

		tests := []struct {
			name string
			req  simpleposts.CreatePostRequest
		}{
			{"missing title", simpleposts.CreatePostRequest{Principal: author, Summary: "B", Body: "C", Image: imgBytes}},
			{"missing summary", simpleposts.CreatePostRequest{Principal: author, Title: "A", Body: "C", Image: imgBytes}},
			{"missing body", simpleposts.CreatePostRequest{Principal: author, Title: "A", Summary: "B", Image: imgBytes}},
			{"missing image", simpleposts.CreatePostRequest{Principal: author, Title: "A", Summary: "B", Body: "C"}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				post, err := env.svc.CreatePost(ctx, tt.req)
				assert.ErrorIs(t, err, simpleposts.ErrValidationFailed)
				assert.Nil(t, post)
			})
		}

		// No store mutation on validation failure
		posts, err := env.svc.ListPosts(ctx, simpleposts.ListPostsRequest{})
		require.NoError(t, err)
		assert.Empty(t, posts)
	})

	t.Run("NoPrincipal", func(t *testing.T) {
		env := setupTestService(t)

		_, err := env.svc.CreatePost(ctx, simpleposts.CreatePostRequest{
			Title: "A", Summary: "B", Body: "C", Image: imgBytes,
		})
		assert.ErrorIs(t, err, simpleposts.ErrUnauthorized)
	})

	t.Run("UploadFailure_RecordStoreUntouched", func(t *testing.T) {
		env := setupTestService(t)
		env.store.failUpload = true

		post, err := env.svc.CreatePost(ctx, simpleposts.CreatePostRequest{
			Principal:        simpleposts.Principal{ID: uuid.New(), DisplayName: "U1"},
			Title:            "A",
			Summary:          "B",
			Body:             "C",
			Image:            imgBytes,
			ImageContentType: "image/jpeg",
		})
		assert.ErrorIs(t, err, simpleposts.ErrUploadFailed)
		assert.Nil(t, post)

		posts, listErr := env.svc.ListPosts(ctx, simpleposts.ListPostsRequest{})
		require.NoError(t, listErr)
		assert.Empty(t, posts, "no record may exist after a failed upload")
	})

	t.Run("InsertFailure_CompensatesUpload", func(t *testing.T) {
		env := setupTestService(t)
		env.repo.failCreate = true

		_, err := env.svc.CreatePost(ctx, simpleposts.CreatePostRequest{
			Principal:        simpleposts.Principal{ID: uuid.New(), DisplayName: "U1"},
			Title:            "A",
			Summary:          "B",
			Body:             "C",
			Image:            imgBytes,
			ImageContentType: "image/jpeg",
		})
		assert.ErrorIs(t, err, simpleposts.ErrRecordWriteFailed)

		var postErr *simpleposts.PostError
		require.ErrorAs(t, err, &postErr)
		require.NotNil(t, postErr.Cleanup)
		assert.Equal(t, simpleposts.CleanupSucceeded, postErr.Cleanup.Status)

		// The compensating delete removed the just-uploaded blob
		_, metaErr := env.store.GetObjectMeta(ctx, postErr.Cleanup.ObjectKey)
		assert.Error(t, metaErr, "compensated blob must be absent")
	})

	t.Run("InsertFailure_CompensationItselfFails", func(t *testing.T) {
		env := setupTestService(t)
		env.repo.failCreate = true
		env.store.failDelete = true

		_, err := env.svc.CreatePost(ctx, simpleposts.CreatePostRequest{
			Principal:        simpleposts.Principal{ID: uuid.New(), DisplayName: "U1"},
			Title:            "A",
			Summary:          "B",
			Body:             "C",
			Image:            imgBytes,
			ImageContentType: "image/jpeg",
		})
		// Cleanup failure never changes the error kind returned to the caller
		assert.ErrorIs(t, err, simpleposts.ErrRecordWriteFailed)

		var postErr *simpleposts.PostError
		require.ErrorAs(t, err, &postErr)
		require.NotNil(t, postErr.Cleanup)
		assert.Equal(t, simpleposts.CleanupFailed, postErr.Cleanup.Status)
		assert.True(t, postErr.Cleanup.Orphaned())

		require.Len(t, env.sink.cleanups, 1)
		assert.Equal(t, simpleposts.CleanupFailed, env.sink.cleanups[0].Status)
	})
}

func TestUpdatePost(t *testing.T) {
	ctx := context.Background()
	img2 := []byte("\x89PNG\r\nfake-png-payload")

	t.Run("ReplaceImage_OldDeletedNewPresent", func(t *testing.T) {
		env := setupTestService(t)
		author := simpleposts.Principal{ID: uuid.New(), DisplayName: "U1"}
		post := createPost(t, env, author)
		oldRef := post.ImageRef

		err := env.svc.UpdatePost(ctx, simpleposts.UpdatePostRequest{
			Principal:        author,
			PostID:           post.ID,
			Title:            "A2",
			Summary:          "B2",
			Body:             "C2",
			Image:            img2,
			ImageContentType: "image/png",
		})
		require.NoError(t, err)

		updated, err := env.svc.GetPost(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, "A2", updated.Title)
		assert.NotEqual(t, oldRef, updated.ImageRef)
		assert.True(t, blobPresent(t, env.store, updated.ImageRef), "new image must be present")
		assert.False(t, blobPresent(t, env.store, oldRef), "old image must be deleted")

		require.Len(t, env.sink.cleanups, 1)
		assert.Equal(t, simpleposts.CleanupSucceeded, env.sink.cleanups[0].Status)
	})

	t.Run("MetadataOnly_KeepsExistingImage", func(t *testing.T) {
		env := setupTestService(t)
		author := simpleposts.Principal{ID: uuid.New(), DisplayName: "U1"}
		post := createPost(t, env, author)

		err := env.svc.UpdatePost(ctx, simpleposts.UpdatePostRequest{
			Principal: author,
			PostID:    post.ID,
			Title:     "A2",
			Summary:   "B2",
			Body:      "C2",
		})
		require.NoError(t, err)

		updated, err := env.svc.GetPost(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, post.ImageRef, updated.ImageRef)
		assert.True(t, blobPresent(t, env.store, updated.ImageRef))
		assert.Empty(t, env.sink.cleanups, "no blob delete on metadata-only update")
	})

	t.Run("NotOwner_ForbiddenNoMutation", func(t *testing.T) {
		env := setupTestService(t)
		author := simpleposts.Principal{ID: uuid.New(), DisplayName: "U1"}
		post := createPost(t, env, author)

		err := env.svc.UpdatePost(ctx, simpleposts.UpdatePostRequest{
			Principal: simpleposts.Principal{ID: uuid.New(), DisplayName: "U2"},
			PostID:    post.ID,
			Title:     "hijacked",
			Summary:   "x",
			Body:      "y",
			Image:     img2,
		})
		assert.ErrorIs(t, err, simpleposts.ErrForbidden)

		unchanged, getErr := env.svc.GetPost(ctx, post.ID)
		require.NoError(t, getErr)
		assert.Equal(t, "A", unchanged.Title)
		assert.Equal(t, post.ImageRef, unchanged.ImageRef)
		assert.True(t, blobPresent(t, env.store, unchanged.ImageRef))
	})

	t.Run("OwnerIDRepresentation_ComparesCanonically", func(t *testing.T) {
		env := setupTestService(t)
		author := simpleposts.Principal{ID: uuid.New(), DisplayName: "U1"}
		post := createPost(t, env, author)

		// Same identity, re-parsed from its uppercase string form
		reparsed, err := uuid.Parse(fmt.Sprintf("%X", [16]byte(author.ID)))
		require.NoError(t, err)

		err = env.svc.UpdatePost(ctx, simpleposts.UpdatePostRequest{
			Principal: simpleposts.Principal{ID: reparsed, DisplayName: "U1"},
			PostID:    post.ID,
			Title:     "A2",
			Summary:   "B2",
			Body:      "C2",
		})
		assert.NoError(t, err, "equivalent identifier representations must satisfy the owner check")
	})

	t.Run("NotFound", func(t *testing.T) {
		env := setupTestService(t)

		err := env.svc.UpdatePost(ctx, simpleposts.UpdatePostRequest{
			Principal: simpleposts.Principal{ID: uuid.New()},
			PostID:    uuid.New(),
			Title:     "A", Summary: "B", Body: "C",
		})
		assert.ErrorIs(t, err, simpleposts.ErrPostNotFound)
	})

	t.Run("UploadFailure_RecordKeepsOldImage", func(t *testing.T) {
		env := setupTestService(t)
		author := simpleposts.Principal{ID: uuid.New(), DisplayName: "U1"}
		post := createPost(t, env, author)
		env.store.failUpload = true

		err := env.svc.UpdatePost(ctx, simpleposts.UpdatePostRequest{
			Principal:        author,
			PostID:           post.ID,
			Title:            "A2",
			Summary:          "B2",
			Body:             "C2",
			Image:            img2,
			ImageContentType: "image/png",
		})
		assert.ErrorIs(t, err, simpleposts.ErrUploadFailed)

		unchanged, getErr := env.svc.GetPost(ctx, post.ID)
		require.NoError(t, getErr)
		assert.Equal(t, "A", unchanged.Title, "record must be untouched after failed upload")
		assert.Equal(t, post.ImageRef, unchanged.ImageRef)
		assert.True(t, blobPresent(t, env.store, unchanged.ImageRef))
	})

	t.Run("RecordWriteFailure_RollsBackNewImage", func(t *testing.T) {
		env := setupTestService(t)
		author := simpleposts.Principal{ID: uuid.New(), DisplayName: "U1"}
		post := createPost(t, env, author)
		env.repo.failUpdate = true

		err := env.svc.UpdatePost(ctx, simpleposts.UpdatePostRequest{
			Principal:        author,
			PostID:           post.ID,
			Title:            "A2",
			Summary:          "B2",
			Body:             "C2",
			Image:            img2,
			ImageContentType: "image/png",
		})
		assert.ErrorIs(t, err, simpleposts.ErrRecordWriteFailed)

		var postErr *simpleposts.PostError
		require.ErrorAs(t, err, &postErr)
		require.NotNil(t, postErr.Cleanup)
		assert.Equal(t, simpleposts.CleanupSucceeded, postErr.Cleanup.Status)

		// Old image still present and referenced; new one rolled back
		unchanged, getErr := env.svc.GetPost(ctx, post.ID)
		require.NoError(t, getErr)
		assert.Equal(t, "A", unchanged.Title)
		assert.Equal(t, post.ImageRef, unchanged.ImageRef)
		assert.True(t, blobPresent(t, env.store, unchanged.ImageRef))

		_, metaErr := env.store.GetObjectMeta(ctx, postErr.Cleanup.ObjectKey)
		assert.Error(t, metaErr, "rolled-back blob must be absent")
	})
}

func TestDeletePost(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_RecordAndBlobGone", func(t *testing.T) {
		env := setupTestService(t)
		author := simpleposts.Principal{ID: uuid.New(), DisplayName: "U1"}
		post := createPost(t, env, author)

		err := env.svc.DeletePost(ctx, simpleposts.DeletePostRequest{
			Principal: author,
			PostID:    post.ID,
		})
		require.NoError(t, err)

		_, getErr := env.svc.GetPost(ctx, post.ID)
		assert.ErrorIs(t, getErr, simpleposts.ErrPostNotFound)
		assert.False(t, blobPresent(t, env.store, post.ImageRef))
		assert.Equal(t, []uuid.UUID{post.ID}, env.sink.deleted)
	})

	t.Run("BlobDeleteFailure_RecordStillGone", func(t *testing.T) {
		env := setupTestService(t)
		author := simpleposts.Principal{ID: uuid.New(), DisplayName: "U1"}
		post := createPost(t, env, author)
		env.store.failDelete = true

		err := env.svc.DeletePost(ctx, simpleposts.DeletePostRequest{
			Principal: author,
			PostID:    post.ID,
		})
		require.NoError(t, err, "asset cleanup failure must not fail the delete")

		_, getErr := env.svc.GetPost(ctx, post.ID)
		assert.ErrorIs(t, getErr, simpleposts.ErrPostNotFound)

		require.Len(t, env.sink.cleanups, 1)
		assert.Equal(t, simpleposts.CleanupFailed, env.sink.cleanups[0].Status)
	})

	t.Run("NoPrincipal_Unauthorized", func(t *testing.T) {
		env := setupTestService(t)
		author := simpleposts.Principal{ID: uuid.New(), DisplayName: "U1"}
		post := createPost(t, env, author)

		err := env.svc.DeletePost(ctx, simpleposts.DeletePostRequest{PostID: post.ID})
		assert.ErrorIs(t, err, simpleposts.ErrUnauthorized)

		_, getErr := env.svc.GetPost(ctx, post.ID)
		assert.NoError(t, getErr)
	})

	t.Run("NotOwner_Forbidden", func(t *testing.T) {
		env := setupTestService(t)
		author := simpleposts.Principal{ID: uuid.New(), DisplayName: "U1"}
		post := createPost(t, env, author)

		err := env.svc.DeletePost(ctx, simpleposts.DeletePostRequest{
			Principal: simpleposts.Principal{ID: uuid.New(), DisplayName: "U2"},
			PostID:    post.ID,
		})
		assert.ErrorIs(t, err, simpleposts.ErrForbidden)

		_, getErr := env.svc.GetPost(ctx, post.ID)
		assert.NoError(t, getErr)
	})

	t.Run("NotFound", func(t *testing.T) {
		env := setupTestService(t)

		err := env.svc.DeletePost(ctx, simpleposts.DeletePostRequest{
			Principal: simpleposts.Principal{ID: uuid.New()},
			PostID:    uuid.New(),
		})
		assert.ErrorIs(t, err, simpleposts.ErrPostNotFound)
	})
}

func TestListPosts(t *testing.T) {
	ctx := context.Background()

	t.Run("NewestFirstWithAuthorNames", func(t *testing.T) {
		env := setupTestService(t)
		author := simpleposts.Principal{ID: uuid.New(), DisplayName: "U1"}

		var ids []uuid.UUID
		for i := 0; i < 3; i++ {
			post, err := env.svc.CreatePost(ctx, simpleposts.CreatePostRequest{
				Principal:        author,
				Title:            fmt.Sprintf("Post %d", i+1),
				Summary:          "B",
				Body:             "C",
				Image:            imgBytes,
				ImageContentType: "image/jpeg",
			})
			require.NoError(t, err)
			ids = append(ids, post.ID)
			time.Sleep(time.Millisecond)
		}

		posts, err := env.svc.ListPosts(ctx, simpleposts.ListPostsRequest{})
		require.NoError(t, err)
		require.Len(t, posts, 3)

		assert.Equal(t, ids[2], posts[0].ID, "newest post first")
		assert.Equal(t, ids[0], posts[2].ID)
		for _, post := range posts {
			assert.Equal(t, "U1", post.AuthorName)
		}
	})

	t.Run("LimitClampedToWindow", func(t *testing.T) {
		env := setupTestService(t)
		author := simpleposts.Principal{ID: uuid.New(), DisplayName: "U1"}

		for i := 0; i < simpleposts.DefaultListLimit+5; i++ {
			createPost(t, env, author)
		}

		posts, err := env.svc.ListPosts(ctx, simpleposts.ListPostsRequest{Limit: 1000})
		require.NoError(t, err)
		assert.Len(t, posts, simpleposts.DefaultListLimit)

		posts, err = env.svc.ListPosts(ctx, simpleposts.ListPostsRequest{Limit: 5})
		require.NoError(t, err)
		assert.Len(t, posts, 5)
	})
}
