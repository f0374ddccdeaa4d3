package mapbox

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/shenikar/police_alert_watcher/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	defaultBaseURL = "https://api.mapbox.com/styles/v1/mapbox/streets-v11/static"

	// markerIconURL is the pin rendered on top of the snapshot.
	markerIconURL = "https://www.waze.com/livemap/assets/police-marker.png"

	// markerLatOffset shifts the pin slightly north so its tip points at
	// the reported position.
	markerLatOffset = 0.0005

	snapshotZoom   = 15
	snapshotWidth  = 600
	snapshotHeight = 400
)

// Client resolves a static map snapshot per alert and caches it on disk,
// one PNG per alert id.
type Client struct {
	baseURL     string
	accessToken string
	imageDir    string
	httpClient  *http.Client
	logger      *logrus.Logger
}

// NewClient creates a snapshot client writing images below imageDir. A zero
// timeout leaves requests unbounded.
func NewClient(accessToken, imageDir string, timeout time.Duration, logger *logrus.Logger) *Client {
	return &Client{
		baseURL:     defaultBaseURL,
		accessToken: accessToken,
		imageDir:    imageDir,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger,
	}
}

// Resolve returns the local snapshot path for an alert. An already cached
// file is reused without a network call; otherwise the snapshot is fetched
// and saved under the alert id.
func (c *Client) Resolve(ctx context.Context, alert models.Alert) (string, error) {
	log := c.logger.WithFields(logrus.Fields{
		"client":   "mapbox",
		"method":   "Resolve",
		"alert_id": alert.ID,
	})

	path := filepath.Join(c.imageDir, alert.ID+".png")
	if _, err := os.Stat(path); err == nil {
		log.Debug("Reusing cached map snapshot")
		return path, nil
	}

	if err := os.MkdirAll(c.imageDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create image directory: %w", err)
	}

	reqURL := c.buildURL(alert.Latitude(), alert.Longitude())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create snapshot request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch map snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("map api returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read snapshot body: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to save snapshot: %w", err)
	}

	log.Debug("Fetched map snapshot")
	return path, nil
}

// Remove deletes the cached snapshot of one alert.
func (c *Client) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove snapshot: %w", err)
	}
	return nil
}

// CleanupAll deletes every cached snapshot in the image directory. It is
// invoked by the shutdown hook.
func (c *Client) CleanupAll() {
	entries, err := os.ReadDir(c.imageDir)
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.WithError(err).Warn("Failed to read image directory for cleanup")
		}
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(c.imageDir, entry.Name())
		if err := os.Remove(path); err != nil {
			c.logger.WithError(err).WithField("path", path).Warn("Failed to remove cached snapshot")
		}
	}
}

func (c *Client) buildURL(lat, lon float64) string {
	marker := fmt.Sprintf("url-%s(%f,%f)", url.QueryEscape(markerIconURL), lon, lat+markerLatOffset)
	return fmt.Sprintf("%s/%s/%f,%f,%d/%dx%d?access_token=%s&logo=false&attribution=false",
		c.baseURL, marker, lon, lat, snapshotZoom, snapshotWidth, snapshotHeight, c.accessToken)
}
