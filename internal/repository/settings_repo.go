package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"greenguile/internal/models"
)

// SettingsSQLite stores the settings document as JSON in a single row.
type SettingsSQLite struct {
	db *sql.DB
}

func NewSettingsSQLite(db *sql.DB) *SettingsSQLite {
	return &SettingsSQLite{db: db}
}

const (
	settingsRowID = 1

	upsertSettingsSQL = `
		INSERT INTO device_settings (id, document, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document=excluded.document,
			updated_at=excluded.updated_at
	`

	selectSettingsSQL = `SELECT document FROM device_settings WHERE id=?`
)

// Save writes the whole document, replacing the previous one.
func (r *SettingsSQLite) Save(ctx context.Context, s models.Settings) error {
	b, err := json.Marshal(s.Document())
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, upsertSettingsSQL, settingsRowID, string(b), time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}

// Load returns models.ErrSettingsNotFound when nothing was saved yet.
func (r *SettingsSQLite) Load(ctx context.Context) (models.Settings, error) {
	var doc string
	if err := r.db.QueryRowContext(ctx, selectSettingsSQL, settingsRowID).Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Settings{}, models.ErrSettingsNotFound
		}
		return models.Settings{}, fmt.Errorf("select settings: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(doc), &raw); err != nil {
		return models.Settings{}, fmt.Errorf("decode settings document: %w", err)
	}
	return models.SettingsFromDocument(raw)
}
