package registry

import (
	"sort"
	"sync"

	"github.com/MELON-27AF/Project-5g/internal/alloc"
	"github.com/MELON-27AF/Project-5g/internal/deploy"
	"github.com/MELON-27AF/Project-5g/internal/render"
	"github.com/MELON-27AF/Project-5g/internal/result"
	"github.com/MELON-27AF/Project-5g/internal/topology"
)

// FunctionHandler is the interface each node function handler must
// implement. Handlers are stateless; all run state travels through the
// pool, record set and image binding.
type FunctionHandler interface {
	Function() string
	Validate(inst topology.Instance) []result.Issue
	Allocate(pool *alloc.Pool, inst topology.Instance) (*alloc.Record, []result.Issue, error)
	Images(inst topology.Instance) []string
	Render(inst topology.Instance, rec *alloc.Record, set *alloc.Set) ([]render.Artifact, error)
	Steps(inst topology.Instance, rec *alloc.Record, image string) []deploy.Step
}

// Default is the global handler registry. Handlers register themselves
// from init functions in the handler package.
var Default = New()

// Registry holds function handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]FunctionHandler
}

// New returns a new empty registry.
func New() *Registry {
	return &Registry{handlers: make(map[string]FunctionHandler)}
}

// Register adds a handler for the given function.
func (r *Registry) Register(h FunctionHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[h.Function()] = h
}

// Get returns the handler for the function, or nil and false.
func (r *Registry) Get(function string) (FunctionHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[function]
	return h, ok
}

// Functions returns all registered function names, sorted.
func (r *Registry) Functions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fns := make([]string, 0, len(r.handlers))
	for f := range r.handlers {
		fns = append(fns, f)
	}
	sort.Strings(fns)
	return fns
}
