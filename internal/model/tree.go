package model

// TurnNode is a turn with its children, rebuilt from parent references
type TurnNode struct {
	Turn     Turn
	Children []*TurnNode
}

// BuildTree rebuilds the deliberation forest from an ordered turn list.
// Turns whose parent is missing from the list are treated as roots.
// Children keep the order of the input slice.
func BuildTree(turns []Turn) []*TurnNode {
	nodes := make(map[string]*TurnNode, len(turns))
	for _, t := range turns {
		nodes[t.ID] = &TurnNode{Turn: t}
	}

	var roots []*TurnNode
	for _, t := range turns {
		node := nodes[t.ID]
		if parent, ok := nodes[t.ParentID]; ok && t.ParentID != "" {
			parent.Children = append(parent.Children, node)
			continue
		}
		roots = append(roots, node)
	}
	return roots
}

// Walk visits every node depth-first with its depth
func Walk(roots []*TurnNode, fn func(node *TurnNode, depth int)) {
	var visit func(n *TurnNode, depth int)
	visit = func(n *TurnNode, depth int) {
		fn(n, depth)
		for _, child := range n.Children {
			visit(child, depth+1)
		}
	}
	for _, root := range roots {
		visit(root, 0)
	}
}

// Paths returns every root-to-leaf path in the forest
func Paths(roots []*TurnNode) [][]Turn {
	var paths [][]Turn
	var visit func(n *TurnNode, prefix []Turn)
	visit = func(n *TurnNode, prefix []Turn) {
		path := append(append([]Turn{}, prefix...), n.Turn)
		if len(n.Children) == 0 {
			paths = append(paths, path)
			return
		}
		for _, child := range n.Children {
			visit(child, path)
		}
	}
	for _, root := range roots {
		visit(root, nil)
	}
	return paths
}
