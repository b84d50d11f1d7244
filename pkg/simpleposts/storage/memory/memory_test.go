package memory

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-posts/pkg/simpleposts"
)

func TestUploadDownload(t *testing.T) {
	ctx := context.Background()
	backend := New()

	key := simpleposts.NewObjectKey(simpleposts.DefaultNamespace)
	content := []byte("cover image bytes")

	reference, err := backend.Upload(ctx, bytes.NewReader(content), simpleposts.UploadParams{
		ObjectKey: key,
		MimeType:  "image/png",
	})
	require.NoError(t, err)

	// The returned reference parses back to the key it was built from
	parsed, ok := simpleposts.ParseIdentifier(reference, simpleposts.DefaultNamespace)
	require.True(t, ok)
	assert.Equal(t, key, parsed)

	reader, err := backend.Download(ctx, key)
	require.NoError(t, err)
	defer reader.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, content, data)

	meta, err := backend.GetObjectMeta(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), meta.Size)
	assert.Equal(t, "image/png", meta.ContentType)
}

func TestDeleteIdempotent(t *testing.T) {
	ctx := context.Background()
	backend := New()

	key := simpleposts.NewObjectKey(simpleposts.DefaultNamespace)
	_, err := backend.Upload(ctx, bytes.NewReader([]byte("x")), simpleposts.UploadParams{
		ObjectKey: key,
		MimeType:  "image/jpeg",
	})
	require.NoError(t, err)

	deleted, err := backend.Delete(ctx, key)
	require.NoError(t, err)
	assert.True(t, deleted)

	// Second delete reports not-found without error
	deleted, err = backend.Delete(ctx, key)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = backend.GetObjectMeta(ctx, key)
	assert.Error(t, err)
}
