package depgraph

import "sync"

// DependencyTable (C2) is the append-only, dep_idx-indexed log of every
// Dependency discovered during a run: the project's own direct dependencies
// seeded at index 0..n, followed by every transitive dependency appended as
// the BFS discovers it. A dep_idx is valid for the lifetime of the table and
// is never reused.
type DependencyTable struct {
	mu   sync.RWMutex
	deps []Dependency
}

// NewDependencyTable preallocates capacity slots, matching C11's lifecycle
// rule of sizing the table to project.deps + project.build_deps up front.
func NewDependencyTable(capacity int) *DependencyTable {
	return &DependencyTable{deps: make([]Dependency, 0, capacity)}
}

// Append adds dep and returns its newly assigned dep_idx.
func (t *DependencyTable) Append(dep Dependency) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.deps = append(t.deps, dep)
	return len(t.deps) - 1
}

// Get returns the Dependency at idx.
func (t *DependencyTable) Get(idx int) Dependency {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.deps[idx]
}

// Len returns the current number of entries.
func (t *DependencyTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.deps)
}
