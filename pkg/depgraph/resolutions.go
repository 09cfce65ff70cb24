package depgraph

import (
	"fmt"

	"github.com/depforge/depforge/pkg/ferrors"
	"github.com/depforge/depforge/pkg/lockfile"
)

// sourceResolutions is one source's ordered resolution entry list (C3).
type sourceResolutions struct {
	entries []ResolutionEntry
}

func (s *sourceResolutions) append(entry ResolutionEntry) int {
	s.entries = append(s.entries, entry)
	return len(s.entries) - 1
}

// removeAt performs an ordered remove, preserving the relative order of the
// surviving entries (required so stable res_idx references taken earlier in
// the same pass, for lower indices, stay valid).
func (s *sourceResolutions) removeAt(idx int) {
	s.entries = append(s.entries[:idx], s.entries[idx+1:]...)
}

// ResolutionsStore (C3) holds, per source kind, the ordered list of resolved
// package entries: the reconciliation target every BFS batch folds into, and
// the thing the lockfile codec reads and writes.
type ResolutionsStore struct {
	sources map[SourceKind]*sourceResolutions
}

// NewResolutionsStore returns an empty store with one slot per known source.
func NewResolutionsStore() *ResolutionsStore {
	s := &ResolutionsStore{sources: make(map[SourceKind]*sourceResolutions, len(SourceKinds))}
	for _, kind := range SourceKinds {
		s.sources[kind] = &sourceResolutions{}
	}
	return s
}

// Entries returns the live entry slice for kind. Callers must not retain it
// across a reconciliation pass, which may append or remove entries.
func (s *ResolutionsStore) Entries(kind SourceKind) []ResolutionEntry {
	return s.sources[kind].entries
}

// Load parses lockfile text and populates the store, dispatching each line
// to the driver matching its leading tag. Unknown tags are a fatal,
// already-explained error (the lockfile is corrupt or from a newer version).
// Lines a driver rejects during parsing are dropped with a warning — the
// lockfile is a cache, not a source of truth, so one bad line costs a
// re-fetch, not the whole run.
func (s *ResolutionsStore) Load(drivers map[SourceKind]Driver, data []byte, onWarn func(line int, msg string)) error {
	for _, line := range lockfile.Parse(data) {
		kind := SourceKind(line.Tag)
		driver, ok := drivers[kind]
		if !ok {
			return ferrors.AsExplained(ferrors.New(ferrors.ErrCodeInvalidLockfileLine,
				"lockfile line %d: unknown source tag %q", line.Number, line.Tag))
		}
		entry, err := driver.DeserializeLockfileEntry(line.Fields)
		if err != nil {
			if onWarn != nil {
				onWarn(line.Number, fmt.Sprintf("%s: %v (line: %q)", ferrors.ErrCodeInvalidLockfileLine, err, line.Raw))
			}
			continue
		}
		s.sources[kind].append(entry)
	}
	return nil
}

// Emit renders the full resolution store back to lockfile text, iterating
// sources in the fixed SourceKinds order for a stable, diff-friendly file.
func (s *ResolutionsStore) Emit(drivers map[SourceKind]Driver) []byte {
	var lines []string
	for _, kind := range SourceKinds {
		driver := drivers[kind]
		for _, entry := range s.sources[kind].entries {
			lines = append(lines, driver.SerializeResolution(entry))
		}
	}
	return lockfile.Emit(lines)
}

func (s *ResolutionsStore) String() string {
	return fmt.Sprintf("ResolutionsStore{pkg:%d local:%d url:%d git:%d}",
		len(s.sources[SourcePkg].entries), len(s.sources[SourceLocal].entries),
		len(s.sources[SourceURL].entries), len(s.sources[SourceGit].entries))
}
