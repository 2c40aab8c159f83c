package datastore

import (
	"fmt"
	"strings"
)

// CollectionPath joins path segments with "/".
func CollectionPath(segments ...string) string {
	return strings.Join(segments, "/")
}

// DocPath returns the path of document id inside collection.
func DocPath(collection, id string) string {
	return collection + "/" + id
}

// SplitDocPath splits a document path into its collection path and document id.
func SplitDocPath(docPath string) (collection, id string) {
	i := strings.LastIndexByte(docPath, '/')
	if i < 0 {
		return "", docPath
	}
	return docPath[:i], docPath[i+1:]
}

// ValidateCollectionPath checks that path names a collection.
func ValidateCollectionPath(path string) error {
	segments := strings.Split(path, "/")
	if len(segments)%2 != 1 || hasEmptySegment(segments) {
		return fmt.Errorf("%w: %q is not a collection path", ErrInvalidPath, path)
	}
	return nil
}

// ValidateDocPath checks that path names a document.
func ValidateDocPath(path string) error {
	segments := strings.Split(path, "/")
	if len(segments)%2 != 0 || hasEmptySegment(segments) {
		return fmt.Errorf("%w: %q is not a document path", ErrInvalidPath, path)
	}
	return nil
}

func hasEmptySegment(segments []string) bool {
	for _, s := range segments {
		if s == "" {
			return true
		}
	}
	return false
}
