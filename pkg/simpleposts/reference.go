package simpleposts

import (
	"strings"

	"github.com/google/uuid"
)

// DefaultNamespace is the blob store folder holding post cover images.
const DefaultNamespace = "blog-posts"

// NewObjectKey returns a fresh blob identifier under namespace. Keys carry no
// file extension; extensions appear only in public references.
func NewObjectKey(namespace string) string {
	return namespace + "/" + uuid.NewString()
}

// MakeReference builds the public reference for an object key. It is the
// inverse of ParseIdentifier: the reference ends with the key's last segment
// plus a content-type derived extension, preceded by the namespace segment.
func MakeReference(baseURL, objectKey, contentType string) string {
	return strings.TrimRight(baseURL, "/") + "/" + objectKey + extensionFor(contentType)
}

// ParseIdentifier recovers the object key from a public reference by taking
// the last path segment, stripping its extension, and qualifying it with the
// namespace. It returns false when the reference does not point into the
// namespace, in which case no blob delete should be attempted.
func ParseIdentifier(reference, namespace string) (string, bool) {
	if reference == "" {
		return "", false
	}
	segments := strings.Split(strings.TrimRight(reference, "/"), "/")
	if len(segments) < 2 || segments[len(segments)-2] != namespace {
		return "", false
	}
	name := strings.SplitN(segments[len(segments)-1], ".", 2)[0]
	if name == "" {
		return "", false
	}
	return namespace + "/" + name, true
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}
