// Package depgraph implements the dependency resolution and fetch engine:
// a breadth-first crawl that pulls a project's direct dependencies and their
// transitive closure through one worker pool per source kind, reconciling
// results against a prior lockfile so unchanged dependencies are never
// re-fetched.
//
// The shape is the same one pkg/deps/resolver.go in the wider codebase uses
// for a single concurrent registry (jobs channel, workers, results channel,
// visited-set dedup) generalized to four distinct source kinds that must be
// reconciled deterministically against a reusable lockfile.
package depgraph

import "fmt"

// SourceKind is the closed set of dependency source variants the engine
// understands. New kinds are not pluggable at runtime: the reconciler and
// lockfile emission both iterate the fixed SourceKinds list below.
type SourceKind string

const (
	SourcePkg   SourceKind = "pkg"
	SourceLocal SourceKind = "local"
	SourceURL   SourceKind = "url"
	SourceGit   SourceKind = "git"
)

// SourceKinds lists the fixed source order used wherever per-source
// determinism matters (reconciliation, edge accumulation, lockfile emission).
var SourceKinds = []SourceKind{SourcePkg, SourceLocal, SourceURL, SourceGit}

// SourceDescriptor is a tagged variant over the four source kinds. Only the
// fields relevant to Kind are meaningful; the rest are zero.
type SourceDescriptor struct {
	Kind SourceKind

	// pkg
	User    string
	Name    string
	Version string

	// local
	Path string

	// url
	URL       string
	Integrity string

	// git
	Repo string
	Ref  string
}

func (d SourceDescriptor) String() string {
	switch d.Kind {
	case SourcePkg:
		return fmt.Sprintf("pkg:%s/%s@%s", d.User, d.Name, d.Version)
	case SourceLocal:
		return fmt.Sprintf("local:%s", d.Path)
	case SourceURL:
		return fmt.Sprintf("url:%s", d.URL)
	case SourceGit:
		return fmt.Sprintf("git:%s@%s", d.Repo, d.Ref)
	default:
		return fmt.Sprintf("unknown:%s", d.Kind)
	}
}

// Dependency is a declared requirement on another package: an alias (unique
// only within its parent's own dependency list) plus the source that names
// it.
type Dependency struct {
	Alias  string
	Source SourceDescriptor
}

// ParentKind distinguishes the three possible parents an Edge can have.
type ParentKind int

const (
	ParentRootNormal ParentKind = iota
	ParentRootBuild
	ParentDep
)

// Parent identifies an Edge's origin: either the project root (in one of its
// two dependency flavors) or another dependency already in the table.
type Parent struct {
	Kind   ParentKind
	DepIdx int // meaningful only when Kind == ParentDep
}

// Edge is a parent to child relation in the dependency graph. The child is
// always a dep_idx into the DependencyTable. Edges are appended in
// breadth-first discovery order, which the build-graph emitter depends on.
type Edge struct {
	Parent Parent
	To     int
	Alias  string
	Depth  int // 0 for root edges, parent's Depth+1 otherwise
}

// Options bounds a run: depth/node limits mirror the crawler's own Options
// pattern, generalized from a single registry to four source kinds.
type Options struct {
	MaxDepth int
	MaxNodes int
	Refresh  bool
}

const (
	DefaultMaxDepth = 50
	DefaultMaxNodes = 5000
)

// WithDefaults fills zero-valued fields with sane defaults.
func (o Options) WithDefaults() Options {
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.MaxNodes <= 0 {
		o.MaxNodes = DefaultMaxNodes
	}
	return o
}

// Project is the seed input to a run: its declared normal and build-time
// direct dependencies, and (for the build-graph emitter) any sub-packages it
// exports.
type Project struct {
	Deps      []Dependency
	BuildDeps []Dependency
	Exports   []Export
}

// Export is a sub-package the project makes available to downstream
// consumers of the generated build graph.
type Export struct {
	Name string
	Path string // empty means buildgraph.DefaultExportPath (".")
}
