package depgraph

import "context"

// ResolutionEntry is one row of a source's resolution table: a concrete,
// resolved descriptor (pulled from the lockfile or freshly fetched) plus the
// bookkeeping the reconciler and build-graph emitter need.
//
// DepIdx is nil for entries loaded from the lockfile that have not yet been
// claimed by a dependency in this run (a stale lockfile entry). It is set the
// moment the reconciler binds the entry to a dep_idx.
type ResolutionEntry struct {
	Source    SourceDescriptor
	DepIdx    *int
	Path      string
	ChildDeps []Dependency
}

// Outcome is the result kind a driver's worker reports for one queue row.
type Outcome int

const (
	// OutcomeReplaceMe: an existing resolution at ResIdx already describes
	// this exact dependency; the row reuses its path, no fetch performed.
	OutcomeReplaceMe Outcome = iota
	// OutcomeFillResolution: a stale lockfile entry at ResIdx matches this
	// dependency's descriptor; the driver revalidated and is filling in the
	// dep_idx/path/children that the lockfile row didn't carry.
	OutcomeFillResolution
	// OutcomeCopyDeps: like FillResolution, but the entry at ResIdx was
	// already bound to a dep_idx in an earlier batch of this run (a diamond
	// dependency); reuse its already-fetched children instead of fetching
	// again.
	OutcomeCopyDeps
	// OutcomeNewEntry: no matching resolution exists; Entry is the freshly
	// fetched row to append to the source's resolution table.
	OutcomeNewEntry
	// OutcomeErr: the fetch failed. Err carries the reason; if
	// ferrors.Explained(Err) the failure has already been reported to the
	// user and the batch should continue past it.
	OutcomeErr
)

// RowResult is what a driver's worker writes back for a single queue row.
// Exactly one of the fields relevant to Outcome is populated.
type RowResult struct {
	Outcome   Outcome
	ResIdx    int
	Entry     ResolutionEntry
	Path      string
	ChildDeps []Dependency
	Err       error
}

// Driver is the capability contract a concrete source (pkg, local, url, git)
// implements. The engine is driver-agnostic: every BFS batch, reconciliation
// pass, and lockfile round-trip is expressed purely in terms of this
// interface.
type Driver interface {
	// Name returns the fixed source kind this driver handles.
	Name() SourceKind

	// DeserializeLockfileEntry parses the tag-stripped fields of one
	// lockfile line into a resolution entry. Fields is whitespace-tokenized;
	// the leading source tag has already been consumed by the caller.
	DeserializeLockfileEntry(fields []string) (ResolutionEntry, error)

	// SerializeResolution renders one resolution entry as a full lockfile
	// line, including its leading source tag.
	SerializeResolution(entry ResolutionEntry) string

	// FindResolution returns the index of the entry in entries whose
	// descriptor identifies the same package as desc, if any.
	FindResolution(desc SourceDescriptor, entries []ResolutionEntry) (int, bool)

	// DedupeResolveAndFetch is the worker body run once per queue row. It
	// must write only to its own row's result — no shared state, no
	// suspending on another row — and must never return a Go error: every
	// failure is reported in-band via RowResult.Err with OutcomeErr.
	DedupeResolveAndFetch(ctx context.Context, dep Dependency, entries []ResolutionEntry) RowResult

	// ResolutionToCachePath returns the on-disk cache path an entry
	// occupies, for garbage collection. Drivers with no on-disk footprint
	// (e.g. local) return ok=false.
	ResolutionToCachePath(entry ResolutionEntry) (path string, ok bool)
}
