package buildgraph

import (
	"encoding/json"

	"github.com/depforge/depforge/pkg/depgraph"
)

// BuildDepNode is one node of the in-memory build-deps tree (4.9.3): the
// same shape EmitNormal would render textually, but kept as Go values for
// callers that drive a build directly instead of generating source.
type BuildDepNode struct {
	Name         string
	Path         string
	Dependencies []BuildDepNode
}

// BuildBuildDepsTree (4.9.3) walks the root-as-build edges and their
// transitive closure with the same stack discipline as EmitNormal, returning
// (name, path, dependencies) records in a newly allocated slice instead of
// emitting text.
func BuildBuildDepsTree(edges []depgraph.Edge, resolver Resolver) []BuildDepNode {
	children := childrenIndex(edges)
	roots := rootEdges(edges, depgraph.ParentRootBuild)

	nodes := make([]BuildDepNode, 0, len(roots))
	for _, root := range roots {
		nodes = append(nodes, buildNode(root, children, resolver))
	}
	return nodes
}

func buildNode(edge depgraph.Edge, children map[int][]depgraph.Edge, resolver Resolver) BuildDepNode {
	node := BuildDepNode{
		Name: edge.Alias,
		Path: resolver.Path(edge.To),
	}
	for _, child := range children[edge.To] {
		node.Dependencies = append(node.Dependencies, buildNode(child, children, resolver))
	}
	return node
}

// EmitBuildDepsJSON renders a build-deps tree as pretty-printed JSON, for
// build systems that want to drive a build step directly from data instead
// of importing the generated Go source file (host build tools invoked as
// external processes, for instance, have no access to the Pkgs literal).
func EmitBuildDepsJSON(nodes []BuildDepNode) ([]byte, error) {
	return json.MarshalIndent(nodes, "", "  ")
}
