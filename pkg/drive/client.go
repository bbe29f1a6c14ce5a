// Package drive lists folders on the user's cloud drive.
package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"basal-backend-go/internal/config"
)

// File is one entry of a folder listing.
type File struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
}

const folderMimeType = "application/vnd.google-apps.folder"

// Client lists drive folders on behalf of a user-supplied bearer token.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a drive client.
func NewClient(cfg config.DriveConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		client:  &http.Client{},
	}
}

// ListFolder returns the non-folder entries of the given folder. Sub-folders
// are dropped here; mime-type allow-listing is the caller's concern.
func (c *Client) ListFolder(ctx context.Context, folderID, bearerToken string) ([]File, error) {
	q := url.Values{}
	q.Set("q", fmt.Sprintf("'%s' in parents and trashed=false", folderID))
	q.Set("fields", "files(id, name, mimeType)")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/files?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+bearerToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call drive api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("drive api returned non-200 status: %s", resp.Status)
	}

	var body struct {
		Files []File `json:"files"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode drive response: %w", err)
	}

	files := make([]File, 0, len(body.Files))
	for _, f := range body.Files {
		if f.MimeType == folderMimeType {
			continue
		}
		files = append(files, f)
	}
	return files, nil
}
