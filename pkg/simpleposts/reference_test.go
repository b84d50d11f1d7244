package simpleposts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferenceRoundTrip(t *testing.T) {
	baseURLs := []string{
		"https://bucket.s3.us-east-1.amazonaws.com",
		"https://cdn.example.com/media/",
		"memory://blobs",
		"/media",
	}
	contentTypes := []string{"image/jpeg", "image/png", "image/gif", "image/webp", "application/octet-stream"}

	for _, baseURL := range baseURLs {
		for _, contentType := range contentTypes {
			key := NewObjectKey(DefaultNamespace)
			reference := MakeReference(baseURL, key, contentType)

			parsed, ok := ParseIdentifier(reference, DefaultNamespace)
			require.True(t, ok, "reference %q must parse", reference)
			assert.Equal(t, key, parsed, "round trip must recover the key for base %q type %q", baseURL, contentType)
		}
	}
}

func TestNewObjectKey(t *testing.T) {
	key := NewObjectKey(DefaultNamespace)

	assert.True(t, strings.HasPrefix(key, DefaultNamespace+"/"))
	assert.NotContains(t, key[len(DefaultNamespace)+1:], "/", "key has a single name segment")
	assert.NotContains(t, key, ".", "keys carry no extension")

	assert.NotEqual(t, key, NewObjectKey(DefaultNamespace), "keys are unique")
}

func TestMakeReference(t *testing.T) {
	ref := MakeReference("https://cdn.example.com/", "blog-posts/abc-123", "image/png")
	assert.Equal(t, "https://cdn.example.com/blog-posts/abc-123.png", ref)

	ref = MakeReference("https://cdn.example.com", "blog-posts/abc-123", "text/plain")
	assert.Equal(t, "https://cdn.example.com/blog-posts/abc-123.bin", ref)
}

func TestParseIdentifier(t *testing.T) {
	tests := []struct {
		name      string
		reference string
		wantKey   string
		wantOK    bool
	}{
		{
			name:      "reference inside namespace",
			reference: "https://cdn.example.com/blog-posts/abc-123.jpg",
			wantKey:   "blog-posts/abc-123",
			wantOK:    true,
		},
		{
			name:      "no extension",
			reference: "https://cdn.example.com/blog-posts/abc-123",
			wantKey:   "blog-posts/abc-123",
			wantOK:    true,
		},
		{
			name:      "dotted name keeps only the stem",
			reference: "https://cdn.example.com/blog-posts/abc.tar.gz",
			wantKey:   "blog-posts/abc",
			wantOK:    true,
		},
		{
			name:      "outside namespace",
			reference: "https://cdn.example.com/avatars/abc-123.jpg",
			wantOK:    false,
		},
		{
			name:      "external reference",
			reference: "https://example.com/image.jpg",
			wantOK:    false,
		},
		{
			name:      "empty reference",
			reference: "",
			wantOK:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, ok := ParseIdentifier(tt.reference, DefaultNamespace)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantKey, key)
			}
		})
	}
}
