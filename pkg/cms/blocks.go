package cms

import (
	"context"
	"fmt"
	"net/http"
	"sort"
)

// Block is one content block on a page draft.
type Block struct {
	ID      string                 `json:"id"`
	Type    string                 `json:"type"`
	Order   int                    `json:"order"`
	Content map[string]interface{} `json:"content"`
}

type BlockInput struct {
	Type    string                 `json:"type"`
	Content map[string]interface{} `json:"content"`
}

func (c *Client) CreateBlock(ctx context.Context, pageID string, in BlockInput) (*Block, error) {
	var b Block
	if err := c.HTTP.SendJSON(ctx, "create block", http.MethodPost, "/admin/cms/pages/"+pageID+"/blocks", in, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *Client) UpdateBlock(ctx context.Context, pageID, blockID string, in BlockInput) error {
	return c.HTTP.SendJSON(ctx, "update block", http.MethodPut, "/admin/cms/pages/"+pageID+"/blocks/"+blockID, in, nil)
}

// DeleteBlock removes a block from the draft. Destructive; confirmation-gated
// by callers.
func (c *Client) DeleteBlock(ctx context.Context, pageID, blockID string) error {
	return c.HTTP.SendJSON(ctx, "delete block", http.MethodDelete, "/admin/cms/pages/"+pageID+"/blocks/"+blockID, nil, nil)
}

// MoveBlock shifts blockID up (delta -1) or down (delta +1) by swapping the
// order values of the affected pair, then persists the FULL resulting order in
// one reorder call. Partial positional patches are deliberately avoided: two
// editors racing on partial patches can interleave into colliding orders,
// while a full-order write is at worst last-write-wins.
func (c *Client) MoveBlock(ctx context.Context, pageID string, blocks []Block, blockID string, delta int) error {
	if delta != -1 && delta != 1 {
		return fmt.Errorf("move block: delta must be -1 or 1")
	}

	ordered := make([]Block, len(blocks))
	copy(ordered, blocks)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	idx := -1
	for i, b := range ordered {
		if b.ID == blockID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("move block: block %s not on page", blockID)
	}
	other := idx + delta
	if other < 0 || other >= len(ordered) {
		// Already at the edge; nothing to persist.
		return nil
	}

	ordered[idx].Order, ordered[other].Order = ordered[other].Order, ordered[idx].Order
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	ids := make([]string, len(ordered))
	for i, b := range ordered {
		ids[i] = b.ID
	}
	return c.ReorderBlocks(ctx, pageID, ids)
}

// ReorderBlocks persists the complete block order for a page draft.
func (c *Client) ReorderBlocks(ctx context.Context, pageID string, orderedIDs []string) error {
	body := struct {
		BlockIDs []string `json:"block_ids"`
	}{BlockIDs: orderedIDs}
	return c.HTTP.SendJSON(ctx, "reorder blocks", http.MethodPut, "/admin/cms/pages/"+pageID+"/blocks/reorder", body, nil)
}
