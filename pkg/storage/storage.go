// Package storage is a small key-value blob abstraction. Subscription
// repositories sit on top of it, so the server can keep its data on the local
// disk, in S3, or only in memory.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested path does not exist in storage.
var ErrNotFound = errors.New("not found")

type Storage interface {
	Read(ctx context.Context, path string) ([]byte, error)
	Write(ctx context.Context, path string, data []byte) error
	Delete(ctx context.Context, path string) error
	// List returns the paths directly under prefix. Nested prefixes are not
	// descended into.
	List(ctx context.Context, prefix string) ([]string, error)
	Exists(ctx context.Context, path string) (bool, error)
}

const (
	TypeLocal  = "local"
	TypeS3     = "s3"
	TypeMemory = "memory"
)
