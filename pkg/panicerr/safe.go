// Package panicerr converts panics raised by event handlers into errors so a
// single bad event does not take down the loop dispatching it.
package panicerr

import (
	"context"

	"github.com/sourcegraph/conc/panics"
)

// Catch runs fn and returns its error, or the recovered panic as an error.
func Catch(fn func() error) error {
	var (
		catcher panics.Catcher
		err     error
	)
	catcher.Try(func() {
		err = fn()
	})
	if r := catcher.Recovered(); r != nil {
		return r.AsError()
	}
	return err
}

// CatchContext is Catch for functions taking a context.
func CatchContext(ctx context.Context, fn func(context.Context) error) error {
	return Catch(func() error { return fn(ctx) })
}

// Safe wraps fn so that every call goes through Catch.
func Safe(fn func() error) func() error {
	return func() error { return Catch(fn) }
}
