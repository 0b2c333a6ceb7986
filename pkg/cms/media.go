package cms

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// MediaItem is one uploaded asset. Every upload is a new opaque resource;
// there is no dedup or content addressing.
type MediaItem struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

func (c *Client) Media(ctx context.Context) ([]MediaItem, error) {
	var out struct {
		Media []MediaItem `json:"media"`
	}
	if err := c.HTTP.GetJSON(ctx, "list media", "/admin/cms/media", &out); err != nil {
		return nil, err
	}
	return out.Media, nil
}

// UploadMedia uploads a single image. Content type is derived from the file
// extension and must be image/*; anything else is rejected before any bytes
// leave the client.
func (c *Client) UploadMedia(ctx context.Context, fileName string, content []byte) (*MediaItem, error) {
	contentType := mime.TypeByExtension(filepath.Ext(fileName))
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("upload media: only image files are accepted, got %q", filepath.Ext(fileName))
	}

	var item MediaItem
	err := c.HTTP.UploadFile(ctx, "upload media", "/admin/cms/media", "file", filepath.Base(fileName), contentType, content, &item)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteMedia removes an asset. Destructive; confirmation-gated by callers.
func (c *Client) DeleteMedia(ctx context.Context, id string) error {
	return c.HTTP.SendJSON(ctx, "delete media", http.MethodDelete, "/admin/cms/media/"+id, nil, nil)
}
