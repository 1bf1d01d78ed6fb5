package forums

import "collabiora-client/internal/models"

// BuildTree nests a flat reply list into the thread's reply tree. Children
// are attached under the node named by ParentReplyID; replies whose parent
// is missing from the batch are kept at the root instead of being dropped.
// Sibling order follows the input order, which the backend returns sorted
// by creation time.
func BuildTree(replies []*models.ReplyNode) []*models.ReplyNode {
	byID := make(map[string]*models.ReplyNode, len(replies))
	for _, reply := range replies {
		reply.Children = make([]*models.ReplyNode, 0)
		byID[reply.ID] = reply
	}

	roots := make([]*models.ReplyNode, 0)
	for _, reply := range replies {
		if reply.ParentReplyID == nil {
			roots = append(roots, reply)
			continue
		}
		parent, ok := byID[*reply.ParentReplyID]
		if !ok {
			// Orphan: parent was deleted or paged out server-side.
			roots = append(roots, reply)
			continue
		}
		parent.Children = append(parent.Children, reply)
	}
	return roots
}

// WalkFunc receives each node with its depth (roots are depth 0).
type WalkFunc func(node *models.ReplyNode, depth int)

type walkFrame struct {
	node  *models.ReplyNode
	depth int
}

// Walk visits the tree depth-first with an explicit stack, so arbitrarily
// deep reply chains cannot grow the call stack. Children are visited in
// order at depth+1, which is the rendering rule for indentation.
func Walk(roots []*models.ReplyNode, fn WalkFunc) {
	stack := make([]walkFrame, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, walkFrame{node: roots[i], depth: 0})
	}

	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		fn(frame.node, frame.depth)

		for i := len(frame.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, walkFrame{node: frame.node.Children[i], depth: frame.depth + 1})
		}
	}
}

// PatchVoteScore finds the node with the given id anywhere in the tree and
// replaces only its VoteScore, leaving all other fields and the tree shape
// untouched. Returns false if the node is not present.
func PatchVoteScore(roots []*models.ReplyNode, replyID string, score int) bool {
	patched := false
	Walk(roots, func(node *models.ReplyNode, _ int) {
		if node.ID == replyID {
			node.VoteScore = score
			patched = true
		}
	})
	return patched
}

type cloneFrame struct {
	src    *models.ReplyNode
	parent *models.ReplyNode
}

// CloneTree returns a structurally identical copy sharing no nodes with the
// input. The forum actor patches vote scores on cached trees in place, so
// every tree handed outside the actor must be detached first. Explicit stack
// for the same depth reason as Walk.
func CloneTree(roots []*models.ReplyNode) []*models.ReplyNode {
	out := make([]*models.ReplyNode, 0, len(roots))
	stack := make([]cloneFrame, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, cloneFrame{src: roots[i]})
	}

	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		clone := *frame.src
		clone.Children = make([]*models.ReplyNode, 0, len(frame.src.Children))
		if frame.parent == nil {
			out = append(out, &clone)
		} else {
			frame.parent.Children = append(frame.parent.Children, &clone)
		}

		for i := len(frame.src.Children) - 1; i >= 0; i-- {
			stack = append(stack, cloneFrame{src: frame.src.Children[i], parent: &clone})
		}
	}
	return out
}

// CountNodes returns the total number of replies in the tree.
func CountNodes(roots []*models.ReplyNode) int {
	count := 0
	Walk(roots, func(*models.ReplyNode, int) { count++ })
	return count
}

// Flatten returns the nodes in render order paired with their depths. The
// bridge serves this to the UI so indentation is a lookup, not a client-side
// recursion.
type FlatReply struct {
	Node  *models.ReplyNode `json:"node"`
	Depth int               `json:"depth"`
}

func Flatten(roots []*models.ReplyNode) []FlatReply {
	flat := make([]FlatReply, 0)
	Walk(roots, func(node *models.ReplyNode, depth int) {
		flat = append(flat, FlatReply{Node: node, Depth: depth})
	})
	return flat
}
