package depgraph

import (
	"context"

	"github.com/depforge/depforge/pkg/ferrors"
	"golang.org/x/sync/errgroup"
)

// fetchBatch (C5) spawns one goroutine per queue row, grouped by source, and
// waits for all of them. Each worker writes only its own row's Result —
// never another row's — and never returns a Go error of its own: every
// fetch failure is reported in-band via RowResult.Err so one bad dependency
// never aborts a sibling's fetch. errgroup is used purely for the
// host-level join and for turning a worker panic into a recorded error
// instead of crashing the whole run, mirroring the crawler's join discipline
// in pkg/deps/resolver.go.
func (e *Engine) fetchBatch(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, kind := range SourceKinds {
		kind := kind
		driver := e.drivers[kind]
		rows := e.queue.rows[kind]
		entries := e.resolutions.Entries(kind)
		for i := range rows {
			i := i
			row := rows[i]
			g.Go(func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						rows[i].Result = RowResult{Outcome: OutcomeErr, Err: ferrors.New(ferrors.ErrCodeInternal, "worker panic: %v", r)}
					}
				}()
				dep := e.depTable.Get(row.Edge.To)
				rows[i].Result = driver.DedupeResolveAndFetch(gctx, dep, entries)
				return nil
			})
		}
	}
	return g.Wait()
}
