package cerr

import (
	"context"
	"errors"
	"fmt"

	"github.com/kazz187/messmate-push/pkg/storage"
)

// WrapStorageReadError maps a repository read failure on target to a client
// facing error. Missing objects become NotFound, cancelled requests keep
// their context code, everything else is Internal.
func WrapStorageReadError(target string, err error) error {
	return wrapStorage("read", target, err)
}

func WrapStorageWriteError(target string, err error) error {
	return wrapStorage("write", target, err)
}

func WrapStorageDeleteError(target string, err error) error {
	return wrapStorage("delete", target, err)
}

func wrapStorage(op, target string, err error) error {
	switch {
	case op != "write" && errors.Is(err, storage.ErrNotFound):
		return NewError(NotFound, fmt.Sprintf("%s not found", target), err)
	case errors.Is(err, context.Canceled):
		return NewError(Canceled, "request canceled", err)
	case errors.Is(err, context.DeadlineExceeded):
		return NewError(DeadlineExceeded, "storage timed out", fmt.Errorf("failed to %s %s: %w", op, target, err))
	}
	return NewError(Internal, "server error", fmt.Errorf("failed to %s %s: %w", op, target, err))
}
