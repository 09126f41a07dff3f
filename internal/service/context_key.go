package service

import (
	"fmt"
	"strings"
)

const (
	KindListing = "listing"
	KindProject = "project"
)

// ParseContextKey splits "listing:123" into its kind and id.
func ParseContextKey(key string) (kind, id string, err error) {
	kind, id, ok := strings.Cut(strings.TrimSpace(key), ":")
	if !ok || id == "" || strings.ContainsAny(id, ":/ ") {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidContextKey, key)
	}
	switch kind {
	case KindListing, KindProject:
		return kind, id, nil
	default:
		return "", "", fmt.Errorf("%w: %q", ErrInvalidContextKey, key)
	}
}
