// Package services implements the external service layer scripts reach
// through Call statements. Handlers are total: failures of any kind come
// back as {"error": ...} values, never as raised errors, so a misbehaving
// service can never take down a session.
package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Handler dispatches a service call by name. Implementations never
// return an error; failures are encoded in the returned value.
type Handler interface {
	Call(ctx context.Context, name string, args []interface{}) interface{}
}

// Func is a registered service implementation. A returned error is
// converted into an {"error": ...} result by the registry.
type Func func(ctx context.Context, args []interface{}) (interface{}, error)

// Registry maps service names to implementations. Safe for concurrent
// registration and dispatch.
type Registry struct {
	mu       sync.RWMutex
	services map[string]Func
}

// NewRegistry creates an empty service registry
func NewRegistry() *Registry {
	return &Registry{
		services: make(map[string]Func),
	}
}

// NewDefaultRegistry creates a registry preloaded with the built-in
// demo scenario services
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	registerBuiltins(r)
	return r
}

// Register adds or replaces a service implementation
func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.services[name] = fn
}

// Names returns the registered service names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.services))
	for name := range r.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call dispatches to the named service. Unknown names, returned errors,
// and panics all become {"error": ...} results.
func (r *Registry) Call(ctx context.Context, name string, args []interface{}) (result interface{}) {
	r.mu.RLock()
	fn, ok := r.services[name]
	r.mu.RUnlock()

	if !ok {
		return errResult(fmt.Sprintf("unknown service: %s", name))
	}

	defer func() {
		if rec := recover(); rec != nil {
			result = errResult(fmt.Sprintf("service %s panicked: %v", name, rec))
		}
	}()

	value, err := fn(ctx, args)
	if err != nil {
		return errResult(err.Error())
	}
	return value
}

// errResult encodes a failure as a value the interpreter can store
func errResult(message string) map[string]interface{} {
	return map[string]interface{}{"error": message}
}

// argAt returns the i-th argument or nil when absent
func argAt(args []interface{}, i int) interface{} {
	if i < 0 || i >= len(args) {
		return nil
	}
	return args[i]
}

// argString renders the i-th argument as a string, "" when absent
func argString(args []interface{}, i int) string {
	v := argAt(args, i)
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

