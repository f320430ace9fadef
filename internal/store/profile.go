// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"
	"time"

	"folio/internal/models"
)

// ProfileStore manages the site-owner profile settings (key/value rows
// backing the portfolio hero section, social links, and similar display
// fields).
type ProfileStore struct {
	db *sql.DB
}

// NewProfileStore returns a new ProfileStore backed by the given database.
func NewProfileStore(db *sql.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

// All returns every profile setting as a convenience map.
func (s *ProfileStore) All() (models.ProfileSettings, error) {
	rows, err := s.db.Query(`SELECT key, value FROM profile_settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list profile settings: %w", err)
	}
	defer rows.Close()

	settings := make(models.ProfileSettings)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan profile setting: %w", err)
		}
		settings[k] = v
	}
	return settings, rows.Err()
}

// Get returns a single setting by key, or the fallback if not found.
func (s *ProfileStore) Get(key, fallback string) (string, error) {
	var val string
	err := s.db.QueryRow(`SELECT value FROM profile_settings WHERE key = $1`, key).Scan(&val)
	if err == sql.ErrNoRows {
		return fallback, nil
	}
	if err != nil {
		return fallback, err
	}
	if val == "" {
		return fallback, nil
	}
	return val, nil
}

// SetMany upserts multiple settings in a single transaction.
func (s *ProfileStore) SetMany(settings map[string]string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin profile update: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO profile_settings (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return fmt.Errorf("prepare profile update: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for k, v := range settings {
		if _, err := stmt.Exec(k, v, now); err != nil {
			return fmt.Errorf("set profile key %q: %w", k, err)
		}
	}

	return tx.Commit()
}
