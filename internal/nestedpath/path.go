// Package nestedpath implements the dotted-path codec every importer and
// exporter shares (spec.md §4.3): the shared rules for flattening nested
// record/struct/array-of-struct shapes into a flat, ordered column list
// whose names carry a dot-separated path, and for reconstructing the
// nested tree back out of that flat list on export.
//
// Nesting is deliberately represented as a flat list with dotted paths
// instead of a tree (spec.md §9): it round-trips trivially to flat
// storage, sidesteps cyclic references, and makes column-name uniqueness
// a simple set check.
package nestedpath

import (
	"strings"

	"contractkit/internal/core"
)

// Node is a source-format-independent nested shape: a named field that is
// either a scalar leaf, an object with children, or an array whose
// element is a scalar or an object with children. Each format's importer
// builds a []*Node tree from its own AST/document shape; Flatten turns it
// into the canonical flat column list every format shares from there on.
type Node struct {
	// Name is this node's own segment, not its full dotted path.
	Name     string
	DataType core.DataType
	Nullable bool
	// Children holds nested fields when DataType is DataTypeObject,
	// DataTypeStruct, or an array<...> of those; nil for scalar leaves
	// and for array<scalar>.
	Children []*Node
}

// FlatColumn is one entry of the shared flat representation.
type FlatColumn struct {
	Name     string
	DataType core.DataType
	Nullable bool
}

// isNested reports whether dt carries children in the flat list: a bare
// object/struct, or an array whose element type is one of those.
func isNested(dt core.DataType) bool {
	if dt == core.DataTypeObject || dt == core.DataTypeStruct {
		return true
	}
	if elem, ok := core.IsArray(dt); ok {
		return elem == string(core.DataTypeObject) || elem == string(core.DataTypeStruct)
	}
	return false
}

// Flatten walks a forest of root Nodes (a table's top-level fields) and
// produces the ordered flat column list, applying the §4.3 rules:
//   - leaves keep their scalar type;
//   - a parent keeps its own DataType (object, struct, or an array of
//     those) and its children are attached positionally right after it;
//   - array<scalar> collapses with no children;
//   - order is depth-first, first-appearance order, matching the order
//     Children were built in.
//   - a column whose Name contains a dot is never itself a root: callers
//     must only pass true top-level fields as roots.
func Flatten(roots []*Node) []FlatColumn {
	var out []FlatColumn
	for _, n := range roots {
		flattenInto(&out, "", n)
	}
	return out
}

func flattenInto(out *[]FlatColumn, prefix string, n *Node) {
	full := n.Name
	if prefix != "" {
		full = prefix + "." + n.Name
	}
	*out = append(*out, FlatColumn{Name: full, DataType: n.DataType, Nullable: n.Nullable})
	if !isNested(n.DataType) {
		return
	}
	for _, child := range n.Children {
		flattenInto(out, full, child)
	}
}

// Unflatten reconstructs the root-level forest of Nodes from a flat
// column list, inverting Flatten. Column order at each nesting level is
// preserved as the order of first appearance in cols (spec.md §4.3).
func Unflatten(cols []FlatColumn) []*Node {
	index := make(map[string]*Node, len(cols))
	var roots []*Node

	for _, c := range cols {
		node := &Node{DataType: c.DataType, Nullable: c.Nullable}
		segments := strings.Split(c.Name, ".")
		node.Name = segments[len(segments)-1]
		index[c.Name] = node

		if len(segments) == 1 {
			roots = append(roots, node)
			continue
		}
		parentPath := strings.Join(segments[:len(segments)-1], ".")
		parent, ok := index[parentPath]
		if !ok {
			// Orphaned path (no column closure); attach as a synthetic
			// root rather than dropping the field, since the parent was
			// never declared in cols.
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}
	return roots
}
