package waze

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shenikar/police_alert_watcher/internal/models"
	"github.com/sirupsen/logrus"
)

const defaultBaseURL = "https://www.waze.com/live-map/api/georss"

// alertTypePolice is the report type this watcher cares about.
const alertTypePolice = "POLICE"

// BoundingBox is the four-corner geographic rectangle alerts are queried
// within, in decimal degrees.
type BoundingBox struct {
	Top    float64
	Bottom float64
	Left   float64
	Right  float64
}

// rawAlert mirrors a single record of the georss response.
type rawAlert struct {
	Type     string `json:"type"`
	UUID     string `json:"uuid"`
	Location struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	} `json:"location"`
	NThumbsUp int    `json:"nThumbsUp"`
	ReportBy  string `json:"reportBy"`
	Street    string `json:"street"`
	PubMillis int64  `json:"pubMillis"`
}

// rawResponse mirrors the georss response envelope.
type rawResponse struct {
	Alerts []rawAlert `json:"alerts"`
}

// Client fetches live-map alerts for a bounding box.
type Client struct {
	baseURL    string
	bbox       BoundingBox
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a live-map client. A zero timeout leaves requests
// unbounded.
func NewClient(bbox BoundingBox, timeout time.Duration, logger *logrus.Logger) *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		bbox:       bbox,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// FetchPoliceAlerts retrieves the current alerts for the configured
// bounding box and returns the POLICE reports normalized to models.Alert,
// preserving the response order.
func (c *Client) FetchPoliceAlerts(ctx context.Context) ([]models.Alert, error) {
	log := c.logger.WithFields(logrus.Fields{
		"client": "waze",
		"method": "FetchPoliceAlerts",
	})

	reqURL, err := c.buildURL()
	if err != nil {
		return nil, fmt.Errorf("failed to build georss url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create georss request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch alerts: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("alert api returned status %d", resp.StatusCode)
	}

	var decoded rawResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode alert response: %w", err)
	}

	alerts := make([]models.Alert, 0, len(decoded.Alerts))
	for _, raw := range decoded.Alerts {
		if raw.Type != alertTypePolice {
			continue
		}
		alerts = append(alerts, models.Alert{
			ID:        raw.UUID,
			X:         raw.Location.X,
			Y:         raw.Location.Y,
			NThumbsUp: raw.NThumbsUp,
			ReportBy:  raw.ReportBy,
			Street:    raw.Street,
			Since:     raw.PubMillis,
		})
	}

	log.WithFields(logrus.Fields{
		"total":  len(decoded.Alerts),
		"police": len(alerts),
	}).Debug("Fetched live-map alerts")

	return alerts, nil
}

func (c *Client) buildURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("top", formatCoord(c.bbox.Top))
	q.Set("bottom", formatCoord(c.bbox.Bottom))
	q.Set("left", formatCoord(c.bbox.Left))
	q.Set("right", formatCoord(c.bbox.Right))
	q.Set("env", "row")
	q.Set("types", "alerts")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
