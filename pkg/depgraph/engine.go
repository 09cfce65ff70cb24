package depgraph

import (
	"context"
	"os"
	"runtime"
	"time"

	"github.com/depforge/depforge/pkg/ferrors"
	"github.com/depforge/depforge/pkg/observability"
)

// Engine (C7, C11) owns the full lifecycle of one resolution run: the
// dependency table, the per-source resolution stores loaded from a prior
// lockfile, the BFS queue, and the accumulated edge list and paths map the
// build-graph emitter consumes afterward.
type Engine struct {
	drivers     map[SourceKind]Driver
	depTable    *DependencyTable
	resolutions *ResolutionsStore
	queue       *Queue
	arena       Arena
	opts        Options
	runID       string

	edges             []Edge
	paths             map[int]string
	explainedFailures bool
}

// NewEngine constructs an Engine over the given drivers (one per source
// kind; all four must be present) and loads lockfileText into the
// resolution store. runID is a caller-supplied identifier threaded through
// observability hooks.
func NewEngine(drivers map[SourceKind]Driver, lockfileText []byte, opts Options, runID string, onWarn func(line int, msg string)) (*Engine, error) {
	e := &Engine{
		drivers:     drivers,
		resolutions: NewResolutionsStore(),
		queue:       NewQueue(),
		arena:       NewArena(4096),
		opts:        opts.WithDefaults(),
		runID:       runID,
		paths:       make(map[int]string),
	}
	if err := e.resolutions.Load(drivers, lockfileText, onWarn); err != nil {
		return nil, err
	}
	return e, nil
}

// Seed (C11 init) preallocates the dependency table to the project's total
// direct dependency count and enqueues one root edge per direct dependency,
// in declaration order: normal dependencies first (ParentRootNormal), then
// build dependencies (ParentRootBuild).
func (e *Engine) Seed(project Project) {
	e.depTable = NewDependencyTable(len(project.Deps) + len(project.BuildDeps))
	for _, dep := range project.Deps {
		idx := e.depTable.Append(dep)
		edge := Edge{Parent: Parent{Kind: ParentRootNormal}, To: idx, Alias: dep.Alias}
		e.edges = append(e.edges, edge)
		e.queue.Append(dep.Source.Kind, edge)
	}
	for _, dep := range project.BuildDeps {
		idx := e.depTable.Append(dep)
		edge := Edge{Parent: Parent{Kind: ParentRootBuild}, To: idx, Alias: dep.Alias}
		e.edges = append(e.edges, edge)
		e.queue.Append(dep.Source.Kind, edge)
	}
}

// Run (C7) drives the BFS loop: while the queue holds work, fetch the whole
// batch in parallel, reconcile it sequentially, and load the next batch from
// whatever children were discovered. It terminates when a batch discovers
// nothing new. An explained failure anywhere during the run is remembered
// and returned once the crawl otherwise completes successfully, so one bad
// dependency doesn't stop its siblings from resolving.
func (e *Engine) Run(ctx context.Context) error {
	batch := 0
	for !e.queue.Empty() {
		observability.Engine().OnBatchStart(ctx, e.runID, batch, e.queue.RowCount())
		start := time.Now()

		if err := e.fetchBatch(ctx); err != nil {
			observability.Engine().OnBatchComplete(ctx, e.runID, batch, time.Since(start), err)
			return err
		}

		next := NewNextBuffer()
		if err := e.reconcileBatch(ctx, next); err != nil {
			observability.Engine().OnBatchComplete(ctx, e.runID, batch, time.Since(start), err)
			return err
		}
		observability.Engine().OnBatchComplete(ctx, e.runID, batch, time.Since(start), nil)

		e.queue.ClearAndLoad(next)
		batch++
	}

	if err := detectCycles(e.edges, e.depTable); err != nil {
		return err
	}
	if e.explainedFailures {
		return ferrors.AsExplained(ferrors.New(ferrors.ErrCodeDriver, "one or more dependencies failed to resolve; see warnings above"))
	}
	return nil
}

// Edges returns the accumulated, BFS-ordered edge list, for the build-graph
// emitter.
func (e *Engine) Edges() []Edge { return e.edges }

// Paths returns the dep_idx to cache/filesystem path map populated during
// reconciliation.
func (e *Engine) Paths() map[int]string { return e.paths }

// DepTable exposes the dependency table for callers (the build-graph
// emitter needs alias lookups by dep_idx).
func (e *Engine) DepTable() *DependencyTable { return e.depTable }

// Lockfile renders the current resolution store back to lockfile text.
func (e *Engine) Lockfile() []byte {
	return e.resolutions.Emit(e.drivers)
}

// Resolutions returns the live resolution entries for kind, for inspection
// by callers (the CLI's clear command, tests).
func (e *Engine) Resolutions(kind SourceKind) []ResolutionEntry {
	return e.resolutions.Entries(kind)
}

// gcSkippedOS is the platform known to hold open file handles on
// memory-mapped or recently-closed cache entries long enough that a
// recursive delete of the cache directory intermittently fails with "access
// denied". GC is skipped there rather than papering over sporadic failures
// with retries (see spec's Windows cache GC open question, resolved as a
// Non-goal).
const gcSkippedOS = "windows"

// GC (C7 post-loop) removes every cache entry under cacheDir that no
// resolution entry in the store references, across every driver that
// reports a cache path. Returns the number of entries removed.
func (e *Engine) GC(ctx context.Context, cacheDir string) (int, error) {
	start := time.Now()
	if runtime.GOOS == gcSkippedOS {
		return 0, nil
	}
	referenced := make(map[string]struct{})
	for _, kind := range SourceKinds {
		driver := e.drivers[kind]
		for _, entry := range e.resolutions.Entries(kind) {
			if path, ok := driver.ResolutionToCachePath(entry); ok {
				referenced[path] = struct{}{}
			}
		}
	}

	entries, err := os.ReadDir(cacheDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	removed := 0
	for _, entry := range entries {
		full := cacheDir + string(os.PathSeparator) + entry.Name()
		if _, ok := referenced[full]; ok {
			continue
		}
		if err := os.RemoveAll(full); err != nil {
			observability.Engine().OnGCComplete(ctx, e.runID, removed, time.Since(start))
			return removed, err
		}
		removed++
	}
	observability.Engine().OnGCComplete(ctx, e.runID, removed, time.Since(start))
	return removed, nil
}

// Teardown (C11) releases the run's in-memory state. Go's garbage collector
// reclaims the underlying memory once the Engine itself is no longer
// referenced; Teardown exists for symmetry with Seed/Run and to make the
// arena's scratch buffer reusable if the caller holds onto the Engine for a
// second run.
func (e *Engine) Teardown() {
	e.arena.Reset()
	e.queue = NewQueue()
}
