package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shenikar/police_alert_watcher/internal/models"
	"github.com/shenikar/police_alert_watcher/internal/service"
)

// PostgresAlertStore keeps the alert batch in the alerts table. Each Save
// replaces the whole table content inside one transaction, mirroring the
// overwrite semantics of the file store.
type PostgresAlertStore struct {
	db *pgxpool.Pool
}

// NewPostgresAlertStore creates a store backed by the given connection pool.
func NewPostgresAlertStore(db *pgxpool.Pool) service.AlertStore {
	return &PostgresAlertStore{db: db}
}

// Load reads the persisted batch in original report order.
func (s *PostgresAlertStore) Load(ctx context.Context) ([]models.Alert, error) {
	query := `
		SELECT id, x, y, n_thumbs_up, report_by, street, since
		FROM alerts
		ORDER BY position;
	`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load alert batch: %w", err)
	}
	defer rows.Close()

	alerts := make([]models.Alert, 0)
	for rows.Next() {
		var alert models.Alert
		err := rows.Scan(
			&alert.ID,
			&alert.X,
			&alert.Y,
			&alert.NThumbsUp,
			&alert.ReportBy,
			&alert.Street,
			&alert.Since,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert row: %w", err)
		}
		alerts = append(alerts, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alert rows: %w", err)
	}
	return alerts, nil
}

// Save overwrites the persisted batch.
func (s *PostgresAlertStore) Save(ctx context.Context, alerts []models.Alert) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `TRUNCATE alerts;`); err != nil {
		return fmt.Errorf("failed to truncate alerts: %w", err)
	}

	query := `
		INSERT INTO alerts (id, x, y, n_thumbs_up, report_by, street, since, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	for i, alert := range alerts {
		_, err := tx.Exec(ctx, query,
			alert.ID,
			alert.X,
			alert.Y,
			alert.NThumbsUp,
			alert.ReportBy,
			alert.Street,
			alert.Since,
			i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert alert %s: %w", alert.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit alert batch: %w", err)
	}
	return nil
}
