// Package render turns allocation records into per-node configuration
// artifacts. Every value flows through a Resolver so explicit overrides,
// allocator-computed values and profile defaults layer predictably.
package render

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Artifact is one rendered configuration file.
type Artifact struct {
	Name string
	Data []byte
}

// Unresolved reports configuration keys that had no value on any layer.
// The instance it names is excluded from the deployment script; the rest
// of the topology still compiles.
type Unresolved struct {
	Entity string
	Keys   []string
}

func (e *Unresolved) Error() string {
	return fmt.Sprintf("%s: no value for %s", e.Entity, strings.Join(e.Keys, ", "))
}

// Resolver answers config lookups through a three-layer chain: explicit
// per-instance overrides win, then allocator-computed values, then the
// function's defaults. Missing keys are collected rather than failing
// fast so one render pass reports every gap at once.
type Resolver struct {
	override map[string]any
	computed map[string]any
	defaults map[string]any
	missing  map[string]bool
}

// NewResolver builds a resolver over the three lookup layers. Any layer
// may be nil.
func NewResolver(override, computed, defaults map[string]any) *Resolver {
	return &Resolver{
		override: override,
		computed: computed,
		defaults: defaults,
		missing:  make(map[string]bool),
	}
}

func (r *Resolver) lookup(key string) (any, bool) {
	for _, layer := range []map[string]any{r.override, r.computed, r.defaults} {
		if layer == nil {
			continue
		}
		if v, ok := layer[key]; ok {
			return v, true
		}
	}
	return nil, false
}

// Str resolves a string value for key, recording the key as missing when
// no layer provides one.
func (r *Resolver) Str(key string) string {
	v, ok := r.lookup(key)
	if !ok {
		r.missing[key] = true
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case int:
		return strconv.Itoa(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// Int resolves an integer value for key, accepting numeric strings.
func (r *Resolver) Int(key string) int {
	v, ok := r.lookup(key)
	if !ok {
		r.missing[key] = true
		return 0
	}
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	case string:
		if i, err := strconv.Atoi(n); err == nil {
			return i
		}
	}
	r.missing[key] = true
	return 0
}

// Err returns an Unresolved error naming every key that failed to
// resolve, or nil when the render was complete.
func (r *Resolver) Err(entity string) error {
	if len(r.missing) == 0 {
		return nil
	}
	keys := make([]string, 0, len(r.missing))
	for k := range r.missing {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return &Unresolved{Entity: entity, Keys: keys}
}
