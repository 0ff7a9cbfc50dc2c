package comments

import "github.com/pageturn/backend/internal/models"

// BuildForest reconstructs parent/child nesting from flat comment rows.
// Input order is preserved within each sibling group, so rows should arrive
// sorted by creation time. One indexing pass plus one attachment pass, O(n);
// no recursion, so arbitrarily deep chains are fine.
func BuildForest(rows []models.Comment) []*models.CommentNode {
	nodes := make(map[string]*models.CommentNode, len(rows))
	for i := range rows {
		nodes[rows[i].ID] = &models.CommentNode{
			Comment: rows[i],
			Replies: []*models.CommentNode{},
		}
	}

	roots := make([]*models.CommentNode, 0, len(rows))
	for i := range rows {
		node := nodes[rows[i].ID]
		if rows[i].ParentID == nil {
			roots = append(roots, node)
			continue
		}
		parent, ok := nodes[*rows[i].ParentID]
		if !ok {
			// Dangling parent reference. Cascade delete keeps these out of
			// the store; promote to root rather than drop the subtree.
			roots = append(roots, node)
			continue
		}
		parent.Replies = append(parent.Replies, node)
	}

	return roots
}
