package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/liliang-cn/doc0/internal/domain"
)

// QuotaRepository persists quota records as JSON values in the key/value table
type QuotaRepository struct {
	db *DB
}

// NewQuotaRepository creates a new quota repository
func NewQuotaRepository(db *DB) *QuotaRepository {
	return &QuotaRepository{db: db}
}

// quotaValue is the stored shape: {"count": n, "nextAllowedTime": "<ISO-8601>"}
type quotaValue struct {
	Count           int    `json:"count"`
	NextAllowedTime string `json:"nextAllowedTime"`
}

// Load returns the record stored under key, or nil when none exists
func (r *QuotaRepository) Load(ctx context.Context, key string) (*domain.QuotaRecord, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var v quotaValue
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("decode quota record %q: %w", key, err)
	}
	next, err := time.Parse(time.RFC3339Nano, v.NextAllowedTime)
	if err != nil {
		return nil, fmt.Errorf("decode quota record %q: %w", key, err)
	}

	return &domain.QuotaRecord{Count: v.Count, NextAllowedTime: next}, nil
}

// Save upserts the record under key
func (r *QuotaRepository) Save(ctx context.Context, key string, record domain.QuotaRecord) error {
	data, err := json.Marshal(quotaValue{
		Count:           record.Count,
		NextAllowedTime: record.NextAllowedTime.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, string(data), time.Now())

	return err
}
