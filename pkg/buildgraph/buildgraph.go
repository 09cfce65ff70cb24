// Package buildgraph implements the build-graph emitter (C9): it turns the
// engine's accumulated edge list and paths map into a generated Go source
// file describing the resolved package tree, plus an in-memory tree for
// callers that want the structure without round-tripping through a file.
package buildgraph

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/depforge/depforge/pkg/depgraph"
)

// Resolver answers the two questions the emitter needs about a dep_idx: its
// declared alias (used as a Go identifier) and its resolved on-disk path.
type Resolver interface {
	Alias(depIdx int) string
	Path(depIdx int) string
}

type mapResolver struct {
	depTable *depgraph.DependencyTable
	paths    map[int]string
}

// NewResolver builds a Resolver over an Engine's dependency table and paths
// map — the shape depgraph.Engine exposes once Run has completed.
func NewResolver(depTable *depgraph.DependencyTable, paths map[int]string) Resolver {
	return mapResolver{depTable: depTable, paths: paths}
}

func (r mapResolver) Alias(depIdx int) string { return r.depTable.Get(depIdx).Alias }
func (r mapResolver) Path(depIdx int) string  { return r.paths[depIdx] }

// childrenIndex groups edges by their parent dep_idx, in encounter order —
// edges already arrive in BFS discovery order, so grouping preserves the
// order a depth-first walk needs to reproduce deterministic output.
func childrenIndex(edges []depgraph.Edge) map[int][]depgraph.Edge {
	idx := make(map[int][]depgraph.Edge)
	for _, e := range edges {
		if e.Parent.Kind != depgraph.ParentDep {
			continue
		}
		idx[e.Parent.DepIdx] = append(idx[e.Parent.DepIdx], e)
	}
	return idx
}

func rootEdges(edges []depgraph.Edge, kind depgraph.ParentKind) []depgraph.Edge {
	var out []depgraph.Edge
	for _, e := range edges {
		if e.Parent.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// indentFor computes the explicit-stack DFS indentation level (in 4-space
// units) for a node at the given depth from its root (depth 0 is the root
// itself). The first descent from a root adds two levels instead of one;
// every descent after that adds three. The resulting formula is exact:
// indentFor(0) = 1, indentFor(d>=1) = 3*d.
func indentFor(depth int) int {
	if depth == 0 {
		return 1
	}
	return 3 * depth
}

func pad(depth int) string {
	return strings.Repeat("    ", indentFor(depth))
}

// escapeIdent turns an arbitrary alias into a valid Go identifier, upper-casing
// its first character (a result that starts with "_" stays unexported).
func escapeIdent(alias string) string {
	var b strings.Builder
	for i, r := range alias {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			b.WriteRune(r)
		case r >= '0' && r <= '9' && i > 0:
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := b.String()
	if out == "" {
		return "_"
	}
	if out[0] >= '0' && out[0] <= '9' {
		out = "_" + out
	}
	return strings.ToUpper(out[:1]) + out[1:]
}

// escapePath renders path as a Go string literal, which doubles backslashes
// and escapes quotes for us — the Go-native equivalent of the separator
// pre-processing a hand-rolled emitter would otherwise need.
func escapePath(path string) string {
	return strconv.Quote(path)
}

// EmitNormal (4.9.1) renders the nested package literal plus an AddAllTo
// function, covering the root-as-normal-dependency edges and their full
// transitive closure. It walks the edge tree with an explicit stack (a
// recursive walk in this implementation, since Go's own call stack plays
// that role without needing a hand-rolled one) rather than precomputing a
// flattened list, because the indentation depends on path position, not
// just each node in isolation.
func EmitNormal(edges []depgraph.Edge, resolver Resolver) string {
	roots := rootEdges(edges, depgraph.ParentRootNormal)
	children := childrenIndex(edges)

	var sb strings.Builder
	sb.WriteString("var Pkgs = struct {\n")
	for _, root := range roots {
		fmt.Fprintf(&sb, "    %s Pkg\n", escapeIdent(root.Alias))
	}
	sb.WriteString("}{\n")
	for _, root := range roots {
		writeField(&sb, root, children, resolver, 0)
	}
	sb.WriteString("}\n\n")

	sb.WriteString("func AddAllTo(artifact *BuildArtifact) {\n")
	for _, root := range roots {
		fmt.Fprintf(&sb, "    artifact.AddPackage(Pkgs.%s)\n", escapeIdent(root.Alias))
	}
	sb.WriteString("}\n")
	return sb.String()
}

func writeField(sb *strings.Builder, edge depgraph.Edge, children map[int][]depgraph.Edge, resolver Resolver, depth int) {
	p := pad(depth)
	fmt.Fprintf(sb, "%s%s: Pkg{\n", p, escapeIdent(edge.Alias))
	fmt.Fprintf(sb, "%s    Name: %s,\n", p, strconv.Quote(edge.Alias))
	fmt.Fprintf(sb, "%s    Path: FileSource{Path: %s},\n", p, escapePath(resolver.Path(edge.To)))

	kids := children[edge.To]
	if len(kids) > 0 {
		fmt.Fprintf(sb, "%s    Dependencies: []Pkg{\n", p)
		for _, child := range kids {
			writeDependencyEntry(sb, child, children, resolver, depth+1)
		}
		fmt.Fprintf(sb, "%s    },\n", p)
	}
	fmt.Fprintf(sb, "%s},\n", p)
}

// writeDependencyEntry is writeField without the leading "alias:" key, since
// slice elements of []Pkg are positional, not keyed.
func writeDependencyEntry(sb *strings.Builder, edge depgraph.Edge, children map[int][]depgraph.Edge, resolver Resolver, depth int) {
	p := pad(depth)
	fmt.Fprintf(sb, "%sPkg{\n", p)
	fmt.Fprintf(sb, "%s    Name: %s,\n", p, strconv.Quote(edge.Alias))
	fmt.Fprintf(sb, "%s    Path: FileSource{Path: %s},\n", p, escapePath(resolver.Path(edge.To)))

	kids := children[edge.To]
	if len(kids) > 0 {
		fmt.Fprintf(sb, "%s    Dependencies: []Pkg{\n", p)
		for _, child := range kids {
			writeDependencyEntry(sb, child, children, resolver, depth+1)
		}
		fmt.Fprintf(sb, "%s    },\n", p)
	}
	fmt.Fprintf(sb, "%s},\n", p)
}

// DefaultExportPath is used for an Export with no explicit Path.
const DefaultExportPath = "."

// EmitExports (4.9.2) renders the optional exports block: one named Pkg per
// exported sub-package, each depending on the full root-as-normal alias
// list. Returns "" when there are no exports, so callers can omit the block
// entirely rather than emit an empty one.
func EmitExports(exports []depgraph.Export, edges []depgraph.Edge) string {
	if len(exports) == 0 {
		return ""
	}
	roots := rootEdges(edges, depgraph.ParentRootNormal)

	var sb strings.Builder
	sb.WriteString("var Exports = struct {\n")
	for _, ex := range exports {
		fmt.Fprintf(&sb, "    %s Pkg\n", escapeIdent(ex.Name))
	}
	sb.WriteString("}{\n")
	for _, ex := range exports {
		path := ex.Path
		if path == "" {
			path = DefaultExportPath
		}
		fmt.Fprintf(&sb, "    %s: Pkg{\n", escapeIdent(ex.Name))
		fmt.Fprintf(&sb, "        Name: %s,\n", strconv.Quote(ex.Name))
		fmt.Fprintf(&sb, "        Path: FileSource{Path: %s},\n", escapePath(path))
		sb.WriteString("        Dependencies: []Pkg{\n")
		for _, root := range roots {
			fmt.Fprintf(&sb, "            Pkgs.%s,\n", escapeIdent(root.Alias))
		}
		sb.WriteString("        },\n")
		sb.WriteString("    },\n")
	}
	sb.WriteString("}\n")
	return sb.String()
}
