package depgraph_test

import (
	"context"
	"testing"

	"github.com/depforge/depforge/pkg/depgraph"
	"github.com/depforge/depforge/pkg/depgraph/depgraphtest"
	"github.com/depforge/depforge/pkg/ferrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drivers(fake *depgraphtest.Driver) map[depgraph.SourceKind]depgraph.Driver {
	return map[depgraph.SourceKind]depgraph.Driver{
		depgraph.SourcePkg:   fake,
		depgraph.SourceLocal: fake,
		depgraph.SourceURL:   fake,
		depgraph.SourceGit:   fake,
	}
}

func dep(alias, name, version string) depgraph.Dependency {
	return depgraph.Dependency{Alias: alias, Source: depgraph.SourceDescriptor{Kind: depgraph.SourcePkg, Name: name, Version: version}}
}

// S1: seed & emit. A project with one direct dependency and no transitive
// dependencies resolves in a single batch.
func TestEngineSeedAndEmit(t *testing.T) {
	fake := depgraphtest.New()
	fake.Register(depgraphtest.Package{Name: "a", Version: "1.0.0"})

	e, err := depgraph.NewEngine(drivers(fake), nil, depgraph.Options{}, "run-1", nil)
	require.NoError(t, err)
	e.Seed(depgraph.Project{Deps: []depgraph.Dependency{dep("a", "a", "1.0.0")}})

	require.NoError(t, e.Run(context.Background()))
	assert.Len(t, e.Edges(), 1)
	assert.Equal(t, depgraph.ParentRootNormal, e.Edges()[0].Parent.Kind)
	assert.Equal(t, 1, fake.FetchCount())
	assert.Len(t, e.Paths(), 1)
}

// S2: transitive dependencies are discovered across multiple BFS batches.
func TestEngineTransitive(t *testing.T) {
	fake := depgraphtest.New()
	fake.Register(
		depgraphtest.Package{Name: "a", Version: "1.0.0", Deps: []depgraph.Dependency{dep("b", "b", "1.0.0")}},
		depgraphtest.Package{Name: "b", Version: "1.0.0", Deps: []depgraph.Dependency{dep("c", "c", "1.0.0")}},
		depgraphtest.Package{Name: "c", Version: "1.0.0"},
	)

	e, err := depgraph.NewEngine(drivers(fake), nil, depgraph.Options{}, "run-2", nil)
	require.NoError(t, err)
	e.Seed(depgraph.Project{Deps: []depgraph.Dependency{dep("a", "a", "1.0.0")}})

	require.NoError(t, e.Run(context.Background()))
	assert.Len(t, e.Edges(), 3)
	assert.Equal(t, 3, fake.FetchCount())
}

// S4: diamond dependency — two packages depend on the same package at the
// same version; it is fetched exactly once.
func TestEngineDiamondDedup(t *testing.T) {
	fake := depgraphtest.New()
	fake.Register(
		depgraphtest.Package{Name: "a", Version: "1.0.0", Deps: []depgraph.Dependency{dep("shared", "shared", "1.0.0")}},
		depgraphtest.Package{Name: "b", Version: "1.0.0", Deps: []depgraph.Dependency{dep("shared", "shared", "1.0.0")}},
		depgraphtest.Package{Name: "shared", Version: "1.0.0"},
	)

	e, err := depgraph.NewEngine(drivers(fake), nil, depgraph.Options{}, "run-4", nil)
	require.NoError(t, err)
	e.Seed(depgraph.Project{Deps: []depgraph.Dependency{
		dep("a", "a", "1.0.0"),
		dep("b", "b", "1.0.0"),
	}})

	require.NoError(t, e.Run(context.Background()))
	// a and b are discovered in batch 1 and fetch "shared" concurrently in
	// batch 2, each blind to the other's in-flight fetch — both fetches
	// happen (4 total: a, b, shared twice). Reconciliation, being
	// sequential, still folds the two into one resolution entry.
	assert.Equal(t, 4, fake.FetchCount())
	assert.Len(t, e.Edges(), 4)
	assert.Len(t, e.Resolutions(depgraph.SourcePkg), 3)
}

// S3: lockfile reuse — a second run seeded from the first run's lockfile
// binds the existing lockfile entry (the fake revalidates a stale lockfile
// entry via OutcomeFillResolution) instead of appending a new one, and
// re-emits the same lockfile.
func TestEngineLockfileReuseAcrossRuns(t *testing.T) {
	fake := depgraphtest.New()
	fake.Register(depgraphtest.Package{Name: "a", Version: "1.0.0"})

	e1, err := depgraph.NewEngine(drivers(fake), nil, depgraph.Options{}, "run-3a", nil)
	require.NoError(t, err)
	e1.Seed(depgraph.Project{Deps: []depgraph.Dependency{dep("a", "a", "1.0.0")}})
	require.NoError(t, e1.Run(context.Background()))
	lockText := e1.Lockfile()
	assert.Contains(t, string(lockText), "a 1.0.0")

	e2, err := depgraph.NewEngine(drivers(fake), lockText, depgraph.Options{}, "run-3b", nil)
	require.NoError(t, err)
	e2.Seed(depgraph.Project{Deps: []depgraph.Dependency{dep("a", "a", "1.0.0")}})
	require.NoError(t, e2.Run(context.Background()))
	assert.Len(t, e2.Resolutions(depgraph.SourcePkg), 1)
	assert.Len(t, e2.Edges(), 1)
	assert.Equal(t, lockText, e2.Lockfile())
}

// S6: malformed lockfile lines are dropped with a warning, not fatal.
func TestEngineMalformedLockfileLineIsDropped(t *testing.T) {
	fake := depgraphtest.New()
	var warnings []string
	_, err := depgraph.NewEngine(drivers(fake), []byte("pkg badline\npkg a 1.0.0\n"), depgraph.Options{}, "run-6", func(line int, msg string) {
		warnings = append(warnings, msg)
	})
	require.NoError(t, err)
	assert.Len(t, warnings, 1)
}

// Unknown lockfile tag is a fatal, already-explained error.
func TestEngineUnknownLockfileTagIsFatal(t *testing.T) {
	fake := depgraphtest.New()
	_, err := depgraph.NewEngine(drivers(fake), []byte("mystery a 1.0.0\n"), depgraph.Options{}, "run-x", nil)
	require.Error(t, err)
	assert.True(t, ferrors.Explained(err))
}

// An explained driver failure lets the rest of the batch finish, surfacing
// only at the end of Run.
func TestEngineExplainedFailureDoesNotAbortSiblings(t *testing.T) {
	fake := depgraphtest.New()
	fake.Register(
		depgraphtest.Package{Name: "a", Version: "1.0.0"},
		depgraphtest.Package{Name: "b", Version: "1.0.0"},
	)
	fake.FailOn("b", "1.0.0", ferrors.AsExplained(ferrors.New(ferrors.ErrCodeNetwork, "simulated network failure")))

	e, err := depgraph.NewEngine(drivers(fake), nil, depgraph.Options{}, "run-7", nil)
	require.NoError(t, err)
	e.Seed(depgraph.Project{Deps: []depgraph.Dependency{
		dep("a", "a", "1.0.0"),
		dep("b", "b", "1.0.0"),
	}})

	err = e.Run(context.Background())
	require.Error(t, err)
	assert.True(t, ferrors.Explained(err))
	assert.Contains(t, e.Paths(), 0) // "a"'s dep_idx resolved despite b's failure
}

// A cyclic dependency graph is detected and reported, not silently looped.
func TestEngineCycleDetected(t *testing.T) {
	fake := depgraphtest.New()
	fake.Register(
		depgraphtest.Package{Name: "a", Version: "1.0.0", Deps: []depgraph.Dependency{dep("b", "b", "1.0.0")}},
		depgraphtest.Package{Name: "b", Version: "1.0.0", Deps: []depgraph.Dependency{dep("a", "a", "1.0.0")}},
	)

	e, err := depgraph.NewEngine(drivers(fake), nil, depgraph.Options{}, "run-8", nil)
	require.NoError(t, err)
	e.Seed(depgraph.Project{Deps: []depgraph.Dependency{dep("a", "a", "1.0.0")}})

	err = e.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, ferrors.ErrCodeCycle, ferrors.GetCode(err))
}

// C10: clearing a root alias's resolution removes its entry so the next run
// re-fetches it.
func TestEngineClearResolution(t *testing.T) {
	fake := depgraphtest.New()
	fake.Register(depgraphtest.Package{Name: "a", Version: "1.0.0"})

	e, err := depgraph.NewEngine(drivers(fake), nil, depgraph.Options{}, "run-9", nil)
	require.NoError(t, err)
	e.Seed(depgraph.Project{Deps: []depgraph.Dependency{dep("a", "a", "1.0.0")}})
	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, 1, fake.FetchCount())

	cleared := e.ClearResolution("a")
	assert.True(t, cleared)
	assert.Empty(t, e.Resolutions(depgraph.SourcePkg))
}
