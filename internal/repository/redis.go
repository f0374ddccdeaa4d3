package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/shenikar/police_alert_watcher/internal/models"
	"github.com/shenikar/police_alert_watcher/internal/service"
)

const alertBatchKey = "police_alerts:last_batch"

// RedisAlertStore keeps the alert batch as a JSON document under a single
// Redis key.
type RedisAlertStore struct {
	client *redis.Client
}

// NewRedisAlertStore creates a store backed by the given Redis client.
func NewRedisAlertStore(client *redis.Client) service.AlertStore {
	return &RedisAlertStore{client: client}
}

// Load reads the persisted batch. An absent key means no cycle has
// completed yet and yields an empty batch.
func (s *RedisAlertStore) Load(ctx context.Context) ([]models.Alert, error) {
	data, err := s.client.Get(ctx, alertBatchKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []models.Alert{}, nil
		}
		return nil, fmt.Errorf("failed to get alert batch from redis: %w", err)
	}

	alerts := make([]models.Alert, 0)
	if err := json.Unmarshal(data, &alerts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal alert batch from redis: %w", err)
	}
	return alerts, nil
}

// Save overwrites the persisted batch. The key carries no expiration: the
// batch stays valid until the next cycle replaces it.
func (s *RedisAlertStore) Save(ctx context.Context, alerts []models.Alert) error {
	if alerts == nil {
		alerts = []models.Alert{}
	}
	data, err := json.Marshal(alerts)
	if err != nil {
		return fmt.Errorf("failed to marshal alert batch: %w", err)
	}
	if err := s.client.Set(ctx, alertBatchKey, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set alert batch in redis: %w", err)
	}
	return nil
}
