// Package cms is the admin client for the site-builder surface: page
// lifecycle with immutable publish revisions, block editing, media library and
// the marketing page tree.
package cms

import (
	"context"
	"net/http"

	"github.com/complypoint/complyctl/pkg/whttp"
)

// Page lifecycle statuses.
const (
	StatusDraft     = "DRAFT"
	StatusPublished = "PUBLISHED"
	StatusArchived  = "ARCHIVED"
)

// Page is one CMS page. Block edits mutate the current draft only; published
// revisions are immutable history.
type Page struct {
	ID             string  `json:"id"`
	Slug           string  `json:"slug"`
	Title          string  `json:"title"`
	Status         string  `json:"status"`
	CurrentVersion int     `json:"current_version"`
	VisibleInNav   bool    `json:"visible_in_nav"`
	Blocks         []Block `json:"blocks"`
}

// Revision is an immutable snapshot taken at publish time.
type Revision struct {
	Version     int    `json:"version"`
	PublishedAt string `json:"published_at"`
	PublishedBy string `json:"published_by"`
}

type Client struct {
	HTTP *whttp.Client
}

func (c *Client) Pages(ctx context.Context) ([]Page, error) {
	var out struct {
		Pages []Page `json:"pages"`
	}
	if err := c.HTTP.GetJSON(ctx, "list pages", "/admin/cms/pages", &out); err != nil {
		return nil, err
	}
	return out.Pages, nil
}

func (c *Client) Page(ctx context.Context, id string) (*Page, error) {
	var p Page
	if err := c.HTTP.GetJSON(ctx, "get page", "/admin/cms/pages/"+id, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

type PageInput struct {
	Slug         string `json:"slug"`
	Title        string `json:"title"`
	VisibleInNav bool   `json:"visible_in_nav"`
}

func (c *Client) CreatePage(ctx context.Context, in PageInput) (*Page, error) {
	var p Page
	if err := c.HTTP.SendJSON(ctx, "create page", http.MethodPost, "/admin/cms/pages", in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) UpdatePage(ctx context.Context, id string, in PageInput) error {
	return c.HTTP.SendJSON(ctx, "update page", http.MethodPut, "/admin/cms/pages/"+id, in, nil)
}

// DeletePage archives or removes a page. Destructive; confirmation-gated by
// callers.
func (c *Client) DeletePage(ctx context.Context, id string) error {
	return c.HTTP.SendJSON(ctx, "delete page", http.MethodDelete, "/admin/cms/pages/"+id, nil, nil)
}

// Publish promotes the current draft: the backend increments current_version
// and appends an immutable revision record.
func (c *Client) Publish(ctx context.Context, id string) (*Page, error) {
	var p Page
	if err := c.HTTP.SendJSON(ctx, "publish page", http.MethodPost, "/admin/cms/pages/"+id+"/publish", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Revisions lists a page's publish history, newest first.
func (c *Client) Revisions(ctx context.Context, id string) ([]Revision, error) {
	var out struct {
		Revisions []Revision `json:"revisions"`
	}
	if err := c.HTTP.GetJSON(ctx, "list revisions", "/admin/cms/pages/"+id+"/revisions", &out); err != nil {
		return nil, err
	}
	return out.Revisions, nil
}

// Rollback produces a new DRAFT equal to the given revision's content. History
// is never rewritten; rolling back adds state, it does not remove any.
func (c *Client) Rollback(ctx context.Context, id string, version int) (*Page, error) {
	body := struct {
		Version int `json:"version"`
	}{Version: version}
	var p Page
	if err := c.HTTP.SendJSON(ctx, "rollback page", http.MethodPost, "/admin/cms/pages/"+id+"/rollback", body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
