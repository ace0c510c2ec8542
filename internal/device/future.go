package device

import (
	"context"
	"errors"
)

// ErrUnresolved is returned by Await on a nil Future.
var ErrUnresolved = errors.New("device id unresolved")

// Identity is the outcome of resolving the current device.
type Identity struct {
	ID string
	// Issued reports that the id was created for this request and the
	// client has not stored it yet.
	Issued bool
}

// Future is a device identity that is resolved once, in the background, and
// awaited by whoever needs it.
type Future struct {
	done chan struct{}
	id   Identity
	err  error
}

// Go starts resolving the identity with fn and returns immediately.
func Go(ctx context.Context, fn func(context.Context) (Identity, error)) *Future {
	f := &Future{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.id, f.err = fn(ctx)
	}()
	return f
}

// Resolved returns a Future that already holds id.
func Resolved(id string) *Future {
	f := &Future{done: make(chan struct{}), id: Identity{ID: id}}
	close(f.done)
	return f
}

// Identity blocks until the future settles or ctx is done.
func (f *Future) Identity(ctx context.Context) (Identity, error) {
	if f == nil {
		return Identity{}, ErrUnresolved
	}
	select {
	case <-f.done:
		return f.id, f.err
	case <-ctx.Done():
		return Identity{}, ctx.Err()
	}
}

// Await blocks until the device id is known. An empty id is reported as
// ErrUnresolved.
func (f *Future) Await(ctx context.Context) (string, error) {
	id, err := f.Identity(ctx)
	if err != nil {
		return "", err
	}
	if id.ID == "" {
		return "", ErrUnresolved
	}
	return id.ID, nil
}

type contextKey struct{}

func WithFuture(ctx context.Context, f *Future) context.Context {
	return context.WithValue(ctx, contextKey{}, f)
}

// FromContext returns the request's device future, or nil if the device
// middleware did not run.
func FromContext(ctx context.Context) *Future {
	f, _ := ctx.Value(contextKey{}).(*Future)
	return f
}
