package depgraph

// ClearResolution (C10) forgets the resolution for one root-level alias, so
// the next Run re-fetches it instead of reusing the lockfile entry. It scans
// the accumulated root edges (either flavor) for the matching alias, looks
// up each one's dependency descriptor, and — if the descriptor's source
// still matches a resolution in that source's table — ordered-removes it.
//
// Removal is ordered (not swap-remove) so any res_idx a concurrent reader
// might be holding for a lower index stays valid; depgraph.Engine never
// holds res_idx references across a ClearResolution call, but drivers
// embedding one in external state are protected by the same guarantee.
func (e *Engine) ClearResolution(alias string) (cleared bool) {
	for _, edge := range e.edges {
		if edge.Parent.Kind != ParentRootNormal && edge.Parent.Kind != ParentRootBuild {
			continue
		}
		if edge.Alias != alias {
			continue
		}
		dep := e.depTable.Get(edge.To)
		driver := e.drivers[dep.Source.Kind]
		store := e.resolutions.sources[dep.Source.Kind]
		if idx, ok := driver.FindResolution(dep.Source, store.entries); ok {
			store.removeAt(idx)
			cleared = true
		}
	}
	return cleared
}
