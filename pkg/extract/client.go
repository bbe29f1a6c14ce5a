// Package extract talks to the text-extraction sidecar (an Apache Tika
// compatible server) used to pre-fill job descriptions from uploads.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"basal-backend-go/internal/config"
)

// Client extracts plain text from uploaded documents.
type Client struct {
	serverURL string
	client    *http.Client
}

// NewClient creates an extraction client.
func NewClient(cfg config.ExtractConfig) *Client {
	return &Client{serverURL: cfg.ServerURL, client: &http.Client{}}
}

// Text sends the file body and returns the extracted plain text. The MIME
// type is inferred from the filename extension.
func (c *Client) Text(ctx context.Context, fileReader io.Reader, fileName string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.serverURL+"/tika", fileReader)
	if err != nil {
		return "", fmt.Errorf("failed to create extract request: %w", err)
	}
	req.Header.Set("Accept", "text/plain")
	req.Header.Set("Content-Type", detectMimeType(fileName))

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call extract server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("extract server returned %d: %s", resp.StatusCode, string(body))
	}

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, resp.Body); err != nil {
		return "", fmt.Errorf("failed to read extract response: %w", err)
	}
	return buf.String(), nil
}

func detectMimeType(fileName string) string {
	ext := filepath.Ext(fileName)
	if ext == "" {
		return "application/octet-stream"
	}
	mimeType := mime.TypeByExtension(ext)
	if mimeType == "" {
		return "application/octet-stream"
	}
	return mimeType
}
