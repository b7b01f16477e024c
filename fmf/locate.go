package fmf

// FindRecords searches document tree in preorder for the first record
// container. At every mapping candidate keys are tried in priority order: a
// repeated key yields the whole sequence, a single mapping yields one record,
// scalar values do not count. When nothing matches at the node, children are
// searched in document order and the first non-empty result wins. Empty result
// is not an error.
func FindRecords(root *Node, keys []string) []*Node {
	if !root.IsMapping() {
		return nil
	}

	for _, key := range keys {
		nodes, ok := root.Get(key)
		if !ok {
			continue
		}
		if len(nodes) > 1 {
			return append([]*Node(nil), nodes...)
		}
		if nodes[0].IsMapping() {
			return []*Node{nodes[0]}
		}
	}

	var found []*Node
	root.each(func(_ string, child *Node) bool {
		found = FindRecords(child, keys)
		return len(found) == 0
	})
	return found
}
