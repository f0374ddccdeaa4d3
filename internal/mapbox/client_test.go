package mapbox

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shenikar/police_alert_watcher/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fakePNG = []byte("\x89PNG fake image bytes")

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, string) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	imageDir := t.TempDir()
	client := NewClient("test-token", imageDir, time.Second, logger)
	client.baseURL = server.URL
	return client, imageDir
}

func TestResolve_FetchesAndSaves(t *testing.T) {
	var requests int
	client, imageDir := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, "test-token", r.URL.Query().Get("access_token"))
		// The marker overlay sits slightly north of the centered point.
		assert.Contains(t, r.URL.Path, "url-")
		assert.Contains(t, r.URL.Path, "12.050000,49.000500")
		assert.Contains(t, r.URL.Path, "12.050000,49.000000,15")
		w.Write(fakePNG)
	})

	alert := models.Alert{ID: "p1", X: 12.05, Y: 49.0}
	path, err := client.Resolve(context.Background(), alert)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(imageDir, "p1.png"), path)
	assert.Equal(t, 1, requests)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, fakePNG, data)
}

func TestResolve_ReusesCachedSnapshot(t *testing.T) {
	var requests int
	client, imageDir := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write(fakePNG)
	})

	require.NoError(t, os.WriteFile(filepath.Join(imageDir, "p1.png"), fakePNG, 0o644))

	alert := models.Alert{ID: "p1", X: 12.05, Y: 49.0}
	path, err := client.Resolve(context.Background(), alert)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(imageDir, "p1.png"), path)
	assert.Equal(t, 0, requests, "cached snapshot must not trigger a network call")
}

func TestResolve_ServerError(t *testing.T) {
	client, imageDir := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.Resolve(context.Background(), models.Alert{ID: "p1", X: 12.05, Y: 49.0})

	require.Error(t, err)
	assert.ErrorContains(t, err, "status 401")

	entries, readErr := os.ReadDir(imageDir)
	require.NoError(t, readErr)
	assert.Empty(t, entries, "no file may be cached for a failed fetch")
}

func TestRemove_DeletesSnapshot(t *testing.T) {
	client, imageDir := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	path := filepath.Join(imageDir, "p1.png")
	require.NoError(t, os.WriteFile(path, fakePNG, 0o644))

	require.NoError(t, client.Remove(path))
	assert.NoFileExists(t, path)

	// Removing an already absent file is not an error.
	require.NoError(t, client.Remove(path))
}

func TestCleanupAll_EmptiesImageDirectory(t *testing.T) {
	client, imageDir := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	require.NoError(t, os.WriteFile(filepath.Join(imageDir, "p1.png"), fakePNG, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(imageDir, "p2.png"), fakePNG, 0o644))

	client.CleanupAll()

	entries, err := os.ReadDir(imageDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCleanupAll_MissingDirectoryIsQuiet(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	client := NewClient("test-token", filepath.Join(t.TempDir(), "nope"), time.Second, logger)

	client.CleanupAll()
}
