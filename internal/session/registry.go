package session

import (
	"errors"
	"sync"
)

// ErrSessionNotFound is returned when a session is not in the registry
var ErrSessionNotFound = errors.New("session not found")

// Registry tracks live sessions. All methods are safe for concurrent
// use; a sync.Map keeps lookups across many sessions contention-free.
type Registry struct {
	sessions sync.Map
}

// NewRegistry creates an empty session registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Get retrieves a session by ID
func (r *Registry) Get(id string) (*Context, error) {
	value, ok := r.sessions.Load(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return value.(*Context), nil
}

// Put stores a session, replacing any previous session with the same ID
func (r *Registry) Put(ctx *Context) {
	r.sessions.Store(ctx.SessionID, ctx)
}

// Delete removes a session. Removing an absent session is a no-op.
func (r *Registry) Delete(id string) {
	r.sessions.Delete(id)
}

// Count returns the number of live sessions
func (r *Registry) Count() int {
	count := 0
	r.sessions.Range(func(key, value interface{}) bool {
		count++
		return true
	})
	return count
}

// Range calls fn for each live session until fn returns false
func (r *Registry) Range(fn func(*Context) bool) {
	r.sessions.Range(func(key, value interface{}) bool {
		return fn(value.(*Context))
	})
}
