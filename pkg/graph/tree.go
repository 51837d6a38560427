package graph

import (
	"sort"
	"strings"

	"github.com/goliatone/go-qbe/pkg/registry"
)

// Branch is one undirected tree edge: SourceField on the owning node joins
// TargetField on Node.
type Branch struct {
	SourceField string
	Node        string
	TargetField string
}

// Tree is an undirected join tree keyed by node.
type Tree map[string][]Branch

// JoinTree explores the graph from root and returns the tree spanning the
// requested nodes, pruned of leaf nodes outside that set. The second result
// reports whether every requested node was reached.
func JoinTree(g registry.Graph, nodes []string, root string) (Tree, bool) {
	remaining := append([]string(nil), nodes...)
	if root == "" && len(remaining) > 0 {
		root = remaining[0]
	}

	type visit struct {
		parent      string
		parentField string
		node        string
		nodeField   string
	}

	tree := make(Tree)
	visited := make(map[string]struct{})
	stack := []visit{{node: root}}

	for len(stack) > 0 && len(remaining) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		remaining = removeNode(remaining, current.node)
		edges := g[current.node]
		if _, seen := visited[current.node]; seen || len(edges) <= 1 {
			continue
		}
		visited[current.node] = struct{}{}

		if current.parent != "" && current.parentField != "" && current.nodeField != "" {
			appendBranch(tree, current.parent, Branch{
				SourceField: current.parentField,
				Node:        current.node,
				TargetField: current.nodeField,
			})
			appendBranch(tree, current.node, Branch{
				SourceField: current.nodeField,
				Node:        current.parent,
				TargetField: current.parentField,
			})
		}

		for _, edge := range edges {
			stack = append(stack, visit{
				parent:      current.node,
				parentField: edge.SourceField,
				node:        edge.Target,
				nodeField:   edge.TargetField,
			})
		}
	}

	PruneLeafs(tree, nodes)
	return tree, len(remaining) == 0
}

// PruneLeafs repeatedly removes tree leaves that are not part of the node
// set, so the final tree only keeps intermediate models a join needs.
func PruneLeafs(tree Tree, keep []string) {
	protected := make(map[string]struct{}, len(keep))
	for _, node := range keep {
		protected[node] = struct{}{}
	}
	for {
		var leafs []string
		for node, branches := range tree {
			if _, ok := protected[node]; ok {
				continue
			}
			if len(branches) < 2 {
				leafs = append(leafs, node)
			}
		}
		if len(leafs) == 0 {
			return
		}
		for _, leaf := range leafs {
			for node, branches := range tree {
				filtered := branches[:0]
				for _, branch := range branches {
					if branch.Node != leaf {
						filtered = append(filtered, branch)
					}
				}
				tree[node] = filtered
			}
			delete(tree, leaf)
		}
	}
}

// Forest builds a join tree from every graph node as root and keeps the ones
// covering all requested nodes, deduplicated and sorted by size.
func Forest(g registry.Graph, nodes []string) []Tree {
	roots := make([]string, 0, len(g))
	for node := range g {
		roots = append(roots, node)
	}
	sort.Strings(roots)

	var forest []Tree
	seen := make(map[string]struct{})
	for _, root := range roots {
		tree, coversAll := JoinTree(g, nodes, root)
		if !coversAll || len(tree) == 0 {
			continue
		}
		key := treeKey(tree)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		forest = append(forest, tree)
	}
	sort.Slice(forest, func(i, j int) bool {
		if len(forest[i]) != len(forest[j]) {
			return len(forest[i]) < len(forest[j])
		}
		return treeKey(forest[i]) < treeKey(forest[j])
	})
	return forest
}

func appendBranch(tree Tree, node string, branch Branch) {
	for _, existing := range tree[node] {
		if existing == branch {
			return
		}
	}
	tree[node] = append(tree[node], branch)
}

func removeNode(nodes []string, node string) []string {
	for i, existing := range nodes {
		if existing == node {
			return append(nodes[:i], nodes[i+1:]...)
		}
	}
	return nodes
}

func treeKey(tree Tree) string {
	nodes := make([]string, 0, len(tree))
	for node := range tree {
		nodes = append(nodes, node)
	}
	sort.Strings(nodes)
	var builder strings.Builder
	for _, node := range nodes {
		branches := append([]Branch(nil), tree[node]...)
		sort.Slice(branches, func(i, j int) bool {
			if branches[i].Node != branches[j].Node {
				return branches[i].Node < branches[j].Node
			}
			return branches[i].SourceField < branches[j].SourceField
		})
		builder.WriteString(node)
		builder.WriteByte('{')
		for _, branch := range branches {
			builder.WriteString(branch.SourceField)
			builder.WriteByte('>')
			builder.WriteString(branch.Node)
			builder.WriteByte('.')
			builder.WriteString(branch.TargetField)
			builder.WriteByte(';')
		}
		builder.WriteByte('}')
	}
	return builder.String()
}
