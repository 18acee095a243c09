// Package agency routes directives to registered work-groups and fans
// their sub-tasks out to the owning execution coordinator.
package agency

import (
	"fmt"
	"sync"
)

// Member binds a sub-agent to a role within a work-group.
type Member struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// WorkGroup is a registrable routable unit. Immutable once registered;
// changes require a registry reload.
type WorkGroup struct {
	Name         string   `json:"name"`
	Keywords     []string `json:"keywords"`
	Capabilities []string `json:"capabilities"`
	Purpose      string   `json:"purpose"`
	Members      []Member `json:"members,omitempty"`
}

// Validate checks the invariants required before registration.
func (w WorkGroup) Validate() error {
	if w.Name == "" {
		return fmt.Errorf("work-group name is required")
	}
	return nil
}

// DuplicateNameError is returned when registering a name that exists.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("work-group %q already registered", e.Name)
}

// Registry is the process-wide work-group catalog. Same concurrency rules
// as the backend registry: lock-free reads against an immutable snapshot,
// copy-on-write replacement on reload.
type Registry struct {
	mu   sync.RWMutex
	snap *groupSnapshot
}

type groupSnapshot struct {
	byName map[string]WorkGroup
	order  []string
}

// NewRegistry creates an empty work-group registry.
func NewRegistry() *Registry {
	return &Registry{snap: &groupSnapshot{byName: map[string]WorkGroup{}}}
}

// Register validates and adds a work-group, preserving registration order.
func (r *Registry) Register(w WorkGroup) error {
	if err := w.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.snap.byName[w.Name]; exists {
		return &DuplicateNameError{Name: w.Name}
	}

	next := &groupSnapshot{
		byName: make(map[string]WorkGroup, len(r.snap.byName)+1),
		order:  make([]string, len(r.snap.order), len(r.snap.order)+1),
	}
	for name, g := range r.snap.byName {
		next.byName[name] = g
	}
	copy(next.order, r.snap.order)
	next.byName[w.Name] = w
	next.order = append(next.order, w.Name)
	r.snap = next
	return nil
}

// Get returns the work-group for name.
func (r *Registry) Get(name string) (WorkGroup, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.snap.byName[name]
	return g, ok
}

// All returns the work-groups in registration order.
func (r *Registry) All() []WorkGroup {
	r.mu.RLock()
	snap := r.snap
	r.mu.RUnlock()

	out := make([]WorkGroup, 0, len(snap.order))
	for _, name := range snap.order {
		out = append(out, snap.byName[name])
	}
	return out
}

// Replace swaps the whole catalog copy-on-write.
func (r *Registry) Replace(groups []WorkGroup) error {
	next := &groupSnapshot{byName: make(map[string]WorkGroup, len(groups))}
	for _, g := range groups {
		if err := g.Validate(); err != nil {
			return err
		}
		if _, exists := next.byName[g.Name]; exists {
			return &DuplicateNameError{Name: g.Name}
		}
		next.byName[g.Name] = g
		next.order = append(next.order, g.Name)
	}

	r.mu.Lock()
	r.snap = next
	r.mu.Unlock()
	return nil
}
