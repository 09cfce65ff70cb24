package depgraph

import (
	"context"

	"github.com/depforge/depforge/pkg/ferrors"
	"github.com/depforge/depforge/pkg/observability"
)

// outcomeName renders an Outcome for observability hooks, matching the
// lowercase result-kind names used throughout spec.md §4.4.
func outcomeName(o Outcome) string {
	switch o {
	case OutcomeReplaceMe:
		return "replace_me"
	case OutcomeFillResolution:
		return "fill_resolution"
	case OutcomeCopyDeps:
		return "copy_deps"
	case OutcomeNewEntry:
		return "new_entry"
	case OutcomeErr:
		return "err"
	default:
		return "unknown"
	}
}

// reconcileBatch (C6) is the single-threaded fold over one batch's completed
// rows. Reconciliation happens strictly after every worker in the batch has
// returned, one source at a time in the fixed SourceKinds order, so its
// effects (resolution table mutation, paths-map insertion, edge
// accumulation, child discovery into next) are fully deterministic
// regardless of how the workers finished racing each other.
//
// A row's Outcome dispatches to one of five branches:
//
//   - OutcomeReplaceMe: the dependency is identical to an already-resolved
//     entry; reuse its path, no table mutation.
//   - OutcomeFillResolution: a stale lockfile entry matches; the driver
//     revalidated it this batch, so bind it to this row's dep_idx.
//   - OutcomeCopyDeps: a diamond dependency — another row bound this entry
//     in an earlier batch of this run. Reuse its already-discovered children
//     instead of fetching them again.
//   - OutcomeNewEntry: no match anywhere; append a fresh resolution entry.
//   - OutcomeErr: record an explained failure and continue, or abort the run
//     on an unexplained one.
//
// Any successful outcome with a non-empty path is recorded in the paths map;
// inserting the same dep_idx twice is an invariant violation (distinct rows
// never share a dep_idx) and is a hard assertion failure, not a recoverable
// error.
func (e *Engine) reconcileBatch(ctx context.Context, next *NextBuffer) error {
	for _, kind := range SourceKinds {
		store := e.resolutions.sources[kind]
		driver := e.drivers[kind]
		rows := e.queue.rows[kind]

		for _, row := range rows {
			res := row.Result
			observability.Engine().OnReconcile(ctx, e.runID, row.Edge.Alias, outcomeName(res.Outcome))
			var path string
			var children []Dependency

			switch res.Outcome {
			case OutcomeReplaceMe:
				entry := store.entries[res.ResIdx]
				path = entry.Path
				children = entry.ChildDeps

			case OutcomeFillResolution:
				idx := row.Edge.To
				entry := store.entries[res.ResIdx]
				entry.DepIdx = &idx
				entry.Path = res.Path
				entry.ChildDeps = res.ChildDeps
				store.entries[res.ResIdx] = entry
				path = res.Path
				children = res.ChildDeps

			case OutcomeCopyDeps:
				entry := store.entries[res.ResIdx]
				path = entry.Path
				children = entry.ChildDeps

			case OutcomeNewEntry:
				// Two rows can race to fetch the very same package within
				// one batch (a diamond dependency discovered at the same
				// BFS depth): each worker fetched independently since
				// workers never suspend on each other, but reconciliation
				// is sequential, so by the time the second row is folded in
				// the first one's entry already exists here. Fold onto it
				// rather than appending a second resolution for the same
				// package.
				if existingIdx, ok := driver.FindResolution(res.Entry.Source, store.entries); ok {
					existing := store.entries[existingIdx]
					path = existing.Path
					children = existing.ChildDeps
				} else {
					idx := row.Edge.To
					entry := res.Entry
					entry.DepIdx = &idx
					entry.Path = res.Path
					entry.ChildDeps = res.ChildDeps
					store.append(entry)
					path = res.Path
					children = res.ChildDeps
				}

			case OutcomeErr:
				if ferrors.Explained(res.Err) {
					e.explainedFailures = true
					if row.Edge.Parent.Kind == ParentDep {
						e.edges = append(e.edges, row.Edge)
					}
					continue
				}
				return res.Err
			}

			if path != "" {
				if _, exists := e.paths[row.Edge.To]; exists {
					panic("depgraph: duplicate paths-map insertion for dep_idx")
				}
				e.paths[row.Edge.To] = path
			}

			// Root edges (ParentRootNormal/ParentRootBuild) are already in
			// e.edges from Seed; only child edges discovered during
			// reconciliation are new here.
			if row.Edge.Parent.Kind == ParentDep {
				e.edges = append(e.edges, row.Edge)
			}

			childDepth := row.Edge.Depth + 1
			if len(children) > 0 && childDepth > e.opts.MaxDepth {
				// A genuine cycle keeps rediscovering "new" dep_idx nodes
				// forever since every dep_idx is unique even when the
				// package it names repeats (see cycles.go). MaxDepth is the
				// backstop that guarantees the BFS loop itself terminates;
				// detectCycles then turns this into a precise diagnosis
				// once Run's loop exits.
				continue
			}
			for _, child := range children {
				if e.depTable.Len() >= e.opts.MaxNodes {
					return ferrors.New(ferrors.ErrCodeDriver, "dependency table reached the limit of %d entries", e.opts.MaxNodes)
				}
				childIdx := e.depTable.Append(child)
				next.Append(child.Source.Kind, Edge{
					Parent: Parent{Kind: ParentDep, DepIdx: row.Edge.To},
					To:     childIdx,
					Alias:  child.Alias,
					Depth:  childDepth,
				})
			}
		}
	}

	return nil
}
