package cms

import (
	"context"
	"sort"
)

// The marketing site is a fixed 3-level hierarchy: hub pages contain
// categories, categories contain service pages. Navigation visibility and
// publish status are independent axes: a published service can be hidden from
// the nav, and a nav-visible page can still be a draft.

type TreeNode struct {
	Page     Page
	Children []*TreeNode
}

type treePage struct {
	Page
	Level    string `json:"level"` // hub | category | service
	ParentID string `json:"parent_id"`
}

// Tree fetches the marketing pages and arranges them hub → category →
// service. Expand/collapse of categories is caller-side view state and is
// never persisted.
func (c *Client) Tree(ctx context.Context) ([]*TreeNode, error) {
	var out struct {
		Pages []treePage `json:"pages"`
	}
	if err := c.HTTP.GetJSON(ctx, "fetch page tree", "/admin/cms/pages?view=tree", &out); err != nil {
		return nil, err
	}
	return buildTree(out.Pages), nil
}

func buildTree(pages []treePage) []*TreeNode {
	nodes := make(map[string]*TreeNode, len(pages))
	for _, p := range pages {
		nodes[p.ID] = &TreeNode{Page: p.Page}
	}

	var hubs []*TreeNode
	for _, p := range pages {
		node := nodes[p.ID]
		if p.Level == "hub" || p.ParentID == "" {
			hubs = append(hubs, node)
			continue
		}
		parent, ok := nodes[p.ParentID]
		if !ok {
			// Orphan: surface at the top rather than dropping it.
			hubs = append(hubs, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}

	sortTree(hubs)
	return hubs
}

func sortTree(nodes []*TreeNode) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Page.Slug < nodes[j].Page.Slug })
	for _, n := range nodes {
		sortTree(n.Children)
	}
}
