// Package storage provides object storage for uploaded files such as signature images.
package storage

import (
	"context"
	"errors"
)

// ErrObjectNotFound is returned when a key does not exist in the store
var ErrObjectNotFound = errors.New("object not found")

// ErrKeyRequired is returned for operations called with an empty key
var ErrKeyRequired = errors.New("storage key is required")

// ObjectStorage stores small binary objects by key
type ObjectStorage interface {
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) error
	Download(ctx context.Context, storageKey string) ([]byte, error)
	DeleteObject(ctx context.Context, storageKey string) error
	ObjectExists(ctx context.Context, storageKey string) (bool, error)
}
