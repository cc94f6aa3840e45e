package jsonld

import "iter"

// Walk returns every node reachable from root, root included, in pre-order
// depth-first order. Object fields are visited in document order. Scalars
// have no children. The sequence can be ranged over any number of times.
//
// Graphs from decoded documents are trees; nesting beyond maxDepth is not
// descended into.
func Walk(root Node) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		walk(root, 0, yield)
	}
}

func walk(n Node, depth int, yield func(Node) bool) bool {
	if n == nil {
		return true
	}
	if !yield(n) {
		return false
	}
	if depth >= maxDepth {
		return true
	}

	var children []Node
	switch v := n.(type) {
	case *Object:
		children = v.Values()
	case Array:
		children = v
	}

	for _, child := range children {
		if !walk(child, depth+1, yield) {
			return false
		}
	}
	return true
}

// WalkAll walks each block in order
func WalkAll(blocks []Node) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		for _, b := range blocks {
			if !walk(b, 0, yield) {
				return
			}
		}
	}
}
