package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shenikar/police_alert_watcher/internal/models"
	"github.com/shenikar/police_alert_watcher/internal/service"
)

// FileAlertStore keeps the alert batch in a single JSON document on disk.
type FileAlertStore struct {
	path string
}

// NewFileAlertStore creates a store backed by the given file path.
func NewFileAlertStore(path string) service.AlertStore {
	return &FileAlertStore{path: path}
}

// Load reads the persisted batch. A missing file is not an error; it means
// no cycle has completed yet.
func (s *FileAlertStore) Load(_ context.Context) ([]models.Alert, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.Alert{}, nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	alerts := make([]models.Alert, 0)
	if err := json.Unmarshal(data, &alerts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state file: %w", err)
	}
	return alerts, nil
}

// Save overwrites the persisted batch. The document is written to a temp
// file first and renamed into place so a crash mid-write cannot leave a
// truncated state file behind.
func (s *FileAlertStore) Save(_ context.Context, alerts []models.Alert) error {
	if alerts == nil {
		alerts = []models.Alert{}
	}
	data, err := json.Marshal(alerts)
	if err != nil {
		return fmt.Errorf("failed to marshal alert batch: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp state file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}
