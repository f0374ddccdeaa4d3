package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/shenikar/police_alert_watcher/internal/models"
	"github.com/sirupsen/logrus"
)

// embedColor is the red used for police report embeds.
const embedColor = 15158332

type embedImage struct {
	URL string `json:"url"`
}

type embedFooter struct {
	Text string `json:"text"`
}

type embed struct {
	Title     string      `json:"title"`
	Color     int         `json:"color"`
	Footer    embedFooter `json:"footer"`
	Timestamp string      `json:"timestamp"`
	Image     embedImage  `json:"image"`
}

type webhookPayload struct {
	Content string  `json:"content"`
	Embeds  []embed `json:"embeds"`
}

// Notifier posts one alert per request to a Discord webhook, attaching the
// map snapshot as a multipart file.
type Notifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewNotifier creates a webhook notifier. A zero timeout leaves requests
// unbounded.
func NewNotifier(webhookURL string, timeout time.Duration, logger *logrus.Logger) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Notify sends the formatted alert with its snapshot attached. The caller
// owns the image file; it is not deleted here.
func (n *Notifier) Notify(ctx context.Context, alert models.Alert) error {
	log := n.logger.WithFields(logrus.Fields{
		"client":   "discord",
		"method":   "Notify",
		"alert_id": alert.ID,
	})

	body, contentType, err := n.buildBody(alert)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, body)
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	log.Info("Alert notification delivered")
	return nil
}

func (n *Notifier) buildBody(alert models.Alert) (*bytes.Buffer, string, error) {
	attachmentName := filepath.Base(alert.Image)

	street := alert.Street
	if street == "" {
		street = "unknown location"
	}

	payload := webhookPayload{
		Content: fmt.Sprintf("🚨 Police reported at %s", street),
		Embeds: []embed{
			{
				Title:     street,
				Color:     embedColor,
				Footer:    embedFooter{Text: fmt.Sprintf("Alert ID: %s · 👍 %d", alert.ID, alert.NThumbsUp)},
				Timestamp: alert.ReportedAt().UTC().Format(time.RFC3339),
				Image:     embedImage{URL: "attachment://" + attachmentName},
			},
		},
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	img, err := os.Open(alert.Image)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open snapshot for upload: %w", err)
	}
	defer img.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("payload_json", string(payloadJSON)); err != nil {
		return nil, "", fmt.Errorf("failed to write payload field: %w", err)
	}

	part, err := writer.CreateFormFile("file", attachmentName)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := io.Copy(part, img); err != nil {
		return nil, "", fmt.Errorf("failed to copy snapshot into request: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	return body, writer.FormDataContentType(), nil
}
