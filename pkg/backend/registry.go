package backend

import (
	"fmt"
	"sync"
)

// DuplicateIDError is returned when registering an id that already exists.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("backend %q already registered", e.ID)
}

// NotFoundError is returned when looking up an unknown backend id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("backend %q not registered", e.ID)
}

// Snapshot is an immutable, insertion-ordered view of the registry.
// Readers hold a snapshot across a whole scoring pass so a concurrent
// reload can never produce a partially updated ranking.
type Snapshot struct {
	byID  map[string]Backend
	order []string
}

// Len returns the number of backends in the snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Get returns the backend for id.
func (s *Snapshot) Get(id string) (Backend, bool) {
	if s == nil {
		return Backend{}, false
	}
	b, ok := s.byID[id]
	return b, ok
}

// All returns the backends in registration order. The slice is a copy.
func (s *Snapshot) All() []Backend {
	if s == nil {
		return nil
	}
	out := make([]Backend, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// Registry is the process-wide backend catalog. Reads are lock-free against
// an immutable snapshot; Register and Replace swap the snapshot wholesale.
type Registry struct {
	mu   sync.RWMutex
	snap *Snapshot
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{snap: &Snapshot{byID: map[string]Backend{}}}
}

// Register validates and adds a backend. Registration order is preserved
// and serves as the scoring tie-break order.
func (r *Registry) Register(b Backend) error {
	if err := b.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.snap.byID[b.ID]; exists {
		return &DuplicateIDError{ID: b.ID}
	}

	next := cloneSnapshot(r.snap)
	next.byID[b.ID] = b
	next.order = append(next.order, b.ID)
	r.snap = next
	return nil
}

// Get returns the backend for id or a NotFoundError.
func (r *Registry) Get(id string) (Backend, error) {
	b, ok := r.Snapshot().Get(id)
	if !ok {
		return Backend{}, &NotFoundError{ID: id}
	}
	return b, nil
}

// All returns a stable, insertion-ordered copy of the registered backends.
func (r *Registry) All() []Backend {
	return r.Snapshot().All()
}

// Snapshot returns the current immutable view.
func (r *Registry) Snapshot() *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snap
}

// Replace swaps the whole catalog in one step. Either every backend
// validates and the new snapshot becomes visible, or the old snapshot stays.
func (r *Registry) Replace(backends []Backend) error {
	next := &Snapshot{byID: make(map[string]Backend, len(backends))}
	for _, b := range backends {
		if err := b.Validate(); err != nil {
			return err
		}
		if _, exists := next.byID[b.ID]; exists {
			return &DuplicateIDError{ID: b.ID}
		}
		next.byID[b.ID] = b
		next.order = append(next.order, b.ID)
	}

	r.mu.Lock()
	r.snap = next
	r.mu.Unlock()
	return nil
}

func cloneSnapshot(s *Snapshot) *Snapshot {
	next := &Snapshot{
		byID:  make(map[string]Backend, len(s.byID)+1),
		order: make([]string, len(s.order), len(s.order)+1),
	}
	for id, b := range s.byID {
		next.byID[id] = b
	}
	copy(next.order, s.order)
	return next
}
