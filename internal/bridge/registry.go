package bridge

import (
	"context"
	"errors"
	"fmt"
)

var ErrInvalidBinding = errors.New("invalid method binding")

// Handler implements one method. args holds the positional arguments chosen by the
// dispatcher from the request parameters; handlers validate them themselves.
type Handler func(ctx context.Context, args []any) (any, error)

// Registry maps methods to handlers. It is built once and never modified afterwards.
type Registry struct {
	handlers map[Method]Handler
}

// NewRegistry builds a registry from a fixed set of bindings. The map is copied, so later
// changes to bindings do not affect the registry.
func NewRegistry(bindings map[Method]Handler) (*Registry, error) {
	handlers := make(map[Method]Handler, len(bindings))
	for method, handler := range bindings {
		if !method.Valid() {
			return nil, fmt.Errorf("%w: unknown method %s", ErrInvalidBinding, method)
		}
		if handler == nil {
			return nil, fmt.Errorf("%w: nil handler for %s", ErrInvalidBinding, method)
		}
		handlers[method] = handler
	}

	return &Registry{handlers: handlers}, nil
}

// Lookup retrieves the handler bound to a method
func (r *Registry) Lookup(method Method) (Handler, error) {
	handler, exists := r.handlers[method]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrMethodNotFound, method)
	}
	return handler, nil
}

// LookupName resolves a wire name and retrieves its handler.
func (r *Registry) LookupName(name string) (Method, Handler, error) {
	method, err := ParseMethod(name)
	if err != nil {
		return 0, nil, err
	}

	handler, err := r.Lookup(method)
	if err != nil {
		return 0, nil, err
	}
	return method, handler, nil
}

// Methods returns the bound methods in declaration order.
func (r *Registry) Methods() []Method {
	methods := make([]Method, 0, len(r.handlers))
	for _, method := range Methods() {
		if _, ok := r.handlers[method]; ok {
			methods = append(methods, method)
		}
	}
	return methods
}
