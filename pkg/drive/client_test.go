package drive

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"basal-backend-go/internal/config"
)

func TestListFolder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/files", r.URL.Path)
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
		assert.Contains(t, r.URL.Query().Get("q"), "'folder123' in parents")

		json.NewEncoder(w).Encode(map[string]interface{}{
			"files": []map[string]string{
				{"id": "1", "name": "cv.pdf", "mimeType": "application/pdf"},
				{"id": "2", "name": "sub", "mimeType": "application/vnd.google-apps.folder"},
				{"id": "3", "name": "notes.txt", "mimeType": "text/plain"},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(config.DriveConfig{BaseURL: srv.URL})

	files, err := c.ListFolder(context.Background(), "folder123", "user-token")
	require.NoError(t, err)

	// Sub-folders are dropped from the listing.
	require.Len(t, files, 2)
	assert.Equal(t, "cv.pdf", files[0].Name)
	assert.Equal(t, "notes.txt", files[1].Name)
}

func TestListFolderUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(config.DriveConfig{BaseURL: srv.URL})

	_, err := c.ListFolder(context.Background(), "folder123", "bad-token")
	assert.Error(t, err)
}
