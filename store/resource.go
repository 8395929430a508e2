// Package store keeps the last loaded value of each dashboard resource
// together with its loading flag and the error of the last load.
package store

import (
	"context"
	"fmt"
	"sync"

	qyhttp "github.com/qyquant/qyquant-client/http"
	"github.com/qyquant/qyquant-client/logger"
)

// Loader fetches a fresh value.
type Loader[T any] func(ctx context.Context) (T, error)

// State is a consistent view of a Resource.
type State[T any] struct {
	Value   T
	Loaded  bool
	Loading bool
	Err     *qyhttp.NormalizedError
}

// Resource is safe for concurrent use. A failed load keeps the previous
// value and records the error; a successful load clears it. When loads
// overlap, Loading stays true until the last one returns and only the most
// recently started load may update the value or the error.
type Resource[T any] struct {
	name   string
	load   Loader[T]
	logger logger.Logger

	mu       sync.RWMutex
	state    State[T]
	inFlight int
	gen      uint64
}

// NewResource creates an empty resource. name is used in logs and in the
// fallback error message.
func NewResource[T any](name string, load Loader[T], log logger.Logger) *Resource[T] {
	if log == nil {
		log = logger.Nop()
	}
	return &Resource[T]{name: name, load: load, logger: log}
}

// Name returns the resource name.
func (r *Resource[T]) Name() string {
	return r.name
}

// Load runs the loader. Loading is true for the duration of the call and is
// reset even when the loader panics. A load superseded by a newer one
// returns its own error but leaves the state alone.
func (r *Resource[T]) Load(ctx context.Context) error {
	r.mu.Lock()
	r.gen++
	gen := r.gen
	r.inFlight++
	r.state.Loading = true
	r.state.Err = nil
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.inFlight--
		r.state.Loading = r.inFlight > 0
		r.mu.Unlock()
	}()

	value, loadErr := r.load(ctx)

	var nerr *qyhttp.NormalizedError
	if loadErr != nil {
		nerr = qyhttp.Normalize(loadErr)
		if nerr.Message == qyhttp.UnknownErrorMessage {
			named := *nerr
			named.Message = fmt.Sprintf("Failed to load %s", r.name)
			nerr = &named
		}
		r.logger.Warn().
			Str("resource", r.name).
			Str("kind", string(nerr.Kind)).
			Int("status", nerr.StatusCode).
			Msg(nerr.Message)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen {
		r.logger.Debug().Str("resource", r.name).Msg("Discarding superseded load")
	} else if nerr != nil {
		r.state.Err = nerr
	} else {
		r.state.Value = value
		r.state.Loaded = true
	}

	if nerr != nil {
		return nerr
	}
	return nil
}

// Snapshot returns the current state.
func (r *Resource[T]) Snapshot() State[T] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Value returns the last loaded value and whether any load succeeded.
func (r *Resource[T]) Value() (T, bool) {
	s := r.Snapshot()
	return s.Value, s.Loaded
}

func (r *Resource[T]) Loading() bool {
	return r.Snapshot().Loading
}

// Err returns the error of the last load, or nil.
func (r *Resource[T]) Err() *qyhttp.NormalizedError {
	return r.Snapshot().Err
}
