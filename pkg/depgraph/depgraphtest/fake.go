// Package depgraphtest provides an in-memory fake implementing the
// depgraph.Driver contract, so engine tests (BFS batching, reconciliation
// outcomes, diamond dependency dedup, lockfile round-trips) run without any
// real network or filesystem access.
package depgraphtest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/depforge/depforge/pkg/depgraph"
	"github.com/depforge/depforge/pkg/ferrors"
)

// Package describes one fake package's identity and transitive dependencies,
// keyed by name+version.
type Package struct {
	Name    string
	Version string
	Deps    []depgraph.Dependency
}

func (p Package) key() string { return p.Name + "@" + p.Version }

// Driver is a depgraph.Driver backed by an in-memory registry of Packages.
// FetchCount records how many times DedupeResolveAndFetch actually ran the
// "fetch" branch (OutcomeNewEntry or OutcomeFillResolution), for asserting
// dedup behavior in tests.
type Driver struct {
	mu       sync.Mutex
	kind     depgraph.SourceKind
	registry map[string]Package
	fetches  int
	fail     map[string]error // key -> error to return instead of resolving
}

// New returns a Driver with no registered packages, identifying itself as
// the pkg source kind (the only one its lockfile tag and descriptor parsing
// need to agree with the engine's fixed SourceKinds iteration order).
func New() *Driver {
	return &Driver{kind: depgraph.SourcePkg, registry: make(map[string]Package), fail: make(map[string]error)}
}

// Register adds a fake package to the registry.
func (d *Driver) Register(pkgs ...Package) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range pkgs {
		d.registry[p.key()] = p
	}
}

// FailOn makes any fetch for name@version return err (wrapped as Explained
// if it isn't already) instead of resolving normally.
func (d *Driver) FailOn(name, version string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fail[name+"@"+version] = err
}

// FetchCount returns how many rows actually ran a fetch (as opposed to
// being satisfied by ReplaceMe/CopyDeps).
func (d *Driver) FetchCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fetches
}

func (d *Driver) Name() depgraph.SourceKind { return d.kind }

func (d *Driver) DeserializeLockfileEntry(fields []string) (depgraph.ResolutionEntry, error) {
	if len(fields) < 2 {
		return depgraph.ResolutionEntry{}, fmt.Errorf("fake: expected name+version, got %v", fields)
	}
	return depgraph.ResolutionEntry{
		Source: depgraph.SourceDescriptor{Kind: d.Name(), Name: fields[0], Version: fields[1]},
		Path:   "/fake/" + fields[0] + "-" + fields[1],
	}, nil
}

func (d *Driver) SerializeResolution(entry depgraph.ResolutionEntry) string {
	return fmt.Sprintf("%s %s %s", d.Name(), entry.Source.Name, entry.Source.Version)
}

func (d *Driver) FindResolution(desc depgraph.SourceDescriptor, entries []depgraph.ResolutionEntry) (int, bool) {
	for i, e := range entries {
		if e.Source.Name == desc.Name && e.Source.Version == desc.Version {
			return i, true
		}
	}
	return -1, false
}

func (d *Driver) DedupeResolveAndFetch(ctx context.Context, dep depgraph.Dependency, entries []depgraph.ResolutionEntry) depgraph.RowResult {
	d.mu.Lock()
	if err, ok := d.fail[dep.Source.Name+"@"+dep.Source.Version]; ok {
		d.mu.Unlock()
		if !ferrors.Explained(err) {
			err = ferrors.AsExplained(err)
		}
		return depgraph.RowResult{Outcome: depgraph.OutcomeErr, Err: err}
	}
	d.mu.Unlock()

	if idx, ok := d.FindResolution(dep.Source, entries); ok {
		entry := entries[idx]
		if entry.DepIdx != nil {
			return depgraph.RowResult{Outcome: depgraph.OutcomeCopyDeps, ResIdx: idx}
		}
		d.mu.Lock()
		d.fetches++
		d.mu.Unlock()
		pkg, found := d.lookup(dep.Source.Name, dep.Source.Version)
		if !found {
			return depgraph.RowResult{Outcome: depgraph.OutcomeErr, Err: fmt.Errorf("fake: %s@%s not in registry", dep.Source.Name, dep.Source.Version)}
		}
		return depgraph.RowResult{
			Outcome:   depgraph.OutcomeFillResolution,
			ResIdx:    idx,
			Path:      "/fake/" + pkg.key(),
			ChildDeps: pkg.Deps,
		}
	}

	d.mu.Lock()
	d.fetches++
	d.mu.Unlock()
	pkg, found := d.lookup(dep.Source.Name, dep.Source.Version)
	if !found {
		return depgraph.RowResult{Outcome: depgraph.OutcomeErr, Err: fmt.Errorf("fake: %s@%s not in registry", dep.Source.Name, dep.Source.Version)}
	}
	return depgraph.RowResult{
		Outcome: depgraph.OutcomeNewEntry,
		Entry:   depgraph.ResolutionEntry{Source: dep.Source},
		Path:    "/fake/" + pkg.key(),
		ChildDeps: pkg.Deps,
	}
}

func (d *Driver) ResolutionToCachePath(entry depgraph.ResolutionEntry) (string, bool) {
	if entry.Path == "" {
		return "", false
	}
	return entry.Path, true
}

func (d *Driver) lookup(name, version string) (Package, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.registry[strings.TrimSpace(name)+"@"+strings.TrimSpace(version)]
	return p, ok
}

var _ depgraph.Driver = (*Driver)(nil)
