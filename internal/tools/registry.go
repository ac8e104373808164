// Package tools holds the functions the language model may call. Tools are
// registered explicitly at startup and handed to the assistant shell.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/sashabaranov/go-openai/jsonschema"
)

var (
	ErrToolNotFound     = errors.New("tool not found")
	ErrInvalidArguments = errors.New("invalid tool arguments")
	ErrInvalidTool      = errors.New("invalid tool")
	ErrDuplicateTool    = errors.New("tool already registered")
)

// InvokeFunc runs a tool with the raw JSON arguments chosen by the model.
type InvokeFunc func(ctx context.Context, args json.RawMessage) (string, error)

type Tool struct {
	Name        string
	Description string
	Parameters  jsonschema.Definition
	Invoke      InvokeFunc
}

// CallObserver is notified after every invocation.
type CallObserver interface {
	ObserveToolCall(tool string, err error)
}

// Registry maps tool names to their schema and implementation.
type Registry struct {
	mu       sync.RWMutex
	tools    map[string]Tool
	order    []string
	observer CallObserver
}

func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// WithObserver sets the observer used for subsequent invocations.
func (r *Registry) WithObserver(o CallObserver) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observer = o
	return r
}

func (r *Registry) Register(t Tool) error {
	if t.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidTool)
	}
	if t.Invoke == nil {
		return fmt.Errorf("%w: %s has no implementation", ErrInvalidTool, t.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tools[t.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, t.Name)
	}
	r.tools[t.Name] = t
	r.order = append(r.order, t.Name)
	return nil
}

func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// List returns the tools in registration order.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Invoke runs the named tool. Empty args are treated as an empty object.
func (r *Registry) Invoke(ctx context.Context, name string, args json.RawMessage) (string, error) {
	t, ok := r.Get(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}

	out, err := t.Invoke(ctx, args)

	r.mu.RLock()
	obs := r.observer
	r.mu.RUnlock()
	if obs != nil {
		obs.ObserveToolCall(name, err)
	}

	return out, err
}
