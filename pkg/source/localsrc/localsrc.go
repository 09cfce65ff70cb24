// Package localsrc implements the "local" source driver: a dependency that
// is just a path on disk, relative to the project root. There is nothing to
// fetch — resolution is a filesystem stat plus a manifest read for the
// dependency's own transitive dependencies, if it declares any.
package localsrc

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/depforge/depforge/pkg/depgraph"
	"github.com/depforge/depforge/pkg/ferrors"
)

// manifestFile is the name of the per-package manifest localsrc reads for
// child dependencies, if present.
const manifestFile = "depforge.local.json"

type localManifest struct {
	Dependencies []struct {
		Alias string `json:"alias"`
		Path  string `json:"path"`
	} `json:"dependencies"`
}

// Driver implements depgraph.Driver for the local source kind. Root is the
// project's own root directory; every local dependency's path is resolved
// relative to it.
type Driver struct {
	Root string
}

// NewDriver returns a localsrc.Driver rooted at root.
func NewDriver(root string) *Driver {
	return &Driver{Root: root}
}

func (d *Driver) Name() depgraph.SourceKind { return depgraph.SourceLocal }

func (d *Driver) DeserializeLockfileEntry(fields []string) (depgraph.ResolutionEntry, error) {
	if len(fields) != 1 {
		return depgraph.ResolutionEntry{}, fmt.Errorf("local: expected a single path, got %d fields", len(fields))
	}
	return depgraph.ResolutionEntry{Source: depgraph.SourceDescriptor{Kind: depgraph.SourceLocal, Path: fields[0]}}, nil
}

func (d *Driver) SerializeResolution(entry depgraph.ResolutionEntry) string {
	return fmt.Sprintf("local %s", entry.Source.Path)
}

func (d *Driver) FindResolution(desc depgraph.SourceDescriptor, entries []depgraph.ResolutionEntry) (int, bool) {
	for i, e := range entries {
		if e.Source.Path == desc.Path {
			return i, true
		}
	}
	return -1, false
}

func (d *Driver) DedupeResolveAndFetch(ctx context.Context, dep depgraph.Dependency, entries []depgraph.ResolutionEntry) depgraph.RowResult {
	if err := ferrors.ValidatePath(dep.Source.Path); err != nil {
		return depgraph.RowResult{Outcome: depgraph.OutcomeErr, Err: ferrors.AsExplained(err)}
	}

	if idx, ok := d.FindResolution(dep.Source, entries); ok {
		entry := entries[idx]
		if entry.DepIdx != nil {
			return depgraph.RowResult{Outcome: depgraph.OutcomeCopyDeps, ResIdx: idx}
		}
		children, err := d.loadChildren(dep.Source.Path)
		if err != nil {
			return depgraph.RowResult{Outcome: depgraph.OutcomeErr, Err: err}
		}
		return depgraph.RowResult{Outcome: depgraph.OutcomeFillResolution, ResIdx: idx, Path: d.absPath(dep.Source.Path), ChildDeps: children}
	}

	children, err := d.loadChildren(dep.Source.Path)
	if err != nil {
		return depgraph.RowResult{Outcome: depgraph.OutcomeErr, Err: err}
	}
	return depgraph.RowResult{
		Outcome:   depgraph.OutcomeNewEntry,
		Entry:     depgraph.ResolutionEntry{Source: dep.Source},
		Path:      d.absPath(dep.Source.Path),
		ChildDeps: children,
	}
}

func (d *Driver) absPath(path string) string {
	return filepath.Join(d.Root, path)
}

func (d *Driver) loadChildren(path string) ([]depgraph.Dependency, error) {
	full := d.absPath(path)
	if _, err := os.Stat(full); err != nil {
		if os.IsNotExist(err) {
			return nil, ferrors.AsExplained(ferrors.New(ferrors.ErrCodeInvalidPath, "local dependency path does not exist: %s", full))
		}
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(full, manifestFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var m localManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, ferrors.AsExplained(ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "invalid %s at %s", manifestFile, full))
	}

	deps := make([]depgraph.Dependency, 0, len(m.Dependencies))
	for _, child := range m.Dependencies {
		deps = append(deps, depgraph.Dependency{
			Alias:  child.Alias,
			Source: depgraph.SourceDescriptor{Kind: depgraph.SourceLocal, Path: filepath.Join(path, child.Path)},
		})
	}
	return deps, nil
}

func (d *Driver) ResolutionToCachePath(entry depgraph.ResolutionEntry) (string, bool) {
	// Local dependencies live in the project tree, not the cache directory;
	// GC never touches them.
	return "", false
}

var _ depgraph.Driver = (*Driver)(nil)
