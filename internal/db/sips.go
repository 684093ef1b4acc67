package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sipsmart/sipstream/internal/models"
)

// RecordSip persists one finalized sip event, assigning an ID if the
// caller left it empty, and returns the stored event.
func (db *DB) RecordSip(ev models.SipEvent) (models.SipEvent, error) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}

	_, err := db.ExecContext(context.Background(),
		`INSERT INTO sips (id, started_at, ended_at, volume_ml) VALUES (?, ?, ?, ?)`,
		ev.ID, ev.StartedAt.UTC().Format(time.RFC3339Nano), ev.EndedAt.UTC().Format(time.RFC3339Nano), ev.VolumeML,
	)
	if err != nil {
		return models.SipEvent{}, fmt.Errorf("failed to record sip: %w", err)
	}
	return ev, nil
}

// ListSips returns up to limit sips, newest first. A non-positive limit
// returns everything.
func (db *DB) ListSips(limit int) ([]models.SipEvent, error) {
	query := `SELECT id, started_at, ended_at, volume_ml FROM sips ORDER BY ended_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.QueryContext(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sips: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sips []models.SipEvent
	for rows.Next() {
		var ev models.SipEvent
		var started, ended string
		if err := rows.Scan(&ev.ID, &started, &ended, &ev.VolumeML); err != nil {
			return nil, fmt.Errorf("failed to scan sip: %w", err)
		}
		if ev.StartedAt, err = parseStoredTime(started); err != nil {
			return nil, err
		}
		if ev.EndedAt, err = parseStoredTime(ended); err != nil {
			return nil, err
		}
		sips = append(sips, ev)
	}
	return sips, rows.Err()
}

// SessionStats aggregates the recorded sips.
func (db *DB) SessionStats() (models.SessionStats, error) {
	var stats models.SessionStats
	var first, last *string

	row := db.QueryRowContext(context.Background(), `
		SELECT COUNT(*),
		       COALESCE(SUM(volume_ml), 0),
		       COALESCE(MAX(volume_ml), 0),
		       MIN(started_at),
		       MAX(ended_at)
		FROM sips`)
	if err := row.Scan(&stats.SipCount, &stats.TotalML, &stats.LargestML, &first, &last); err != nil {
		return models.SessionStats{}, fmt.Errorf("failed to read session stats: %w", err)
	}

	if stats.SipCount > 0 {
		stats.AverageML = stats.TotalML / float64(stats.SipCount)
	}
	var err error
	if first != nil {
		if stats.FirstSipAt, err = parseStoredTime(*first); err != nil {
			return models.SessionStats{}, err
		}
	}
	if last != nil {
		if stats.LastSipAt, err = parseStoredTime(*last); err != nil {
			return models.SessionStats{}, err
		}
	}
	return stats, nil
}

// Clear wipes the sip history.
func (db *DB) Clear() error {
	if _, err := db.ExecContext(context.Background(), `DELETE FROM sips`); err != nil {
		return fmt.Errorf("failed to clear sips: %w", err)
	}
	return nil
}

func parseStoredTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse stored time %q: %w", s, err)
	}
	return t.Local(), nil
}
