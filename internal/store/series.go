// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"folio/internal/apperr"
	"folio/internal/models"
)

// SeriesStore manages post series in the database. Series membership and
// ordering live on the posts table (series_id, series_order); this store
// owns the series rows and the reorder operation.
type SeriesStore struct {
	db *sql.DB
}

// NewSeriesStore returns a new SeriesStore.
func NewSeriesStore(db *sql.DB) *SeriesStore {
	return &SeriesStore{db: db}
}

const seriesColumns = `id, title, slug, description, color, icon, difficulty, created_at, updated_at`

// scanSeries scans a row into a Series struct.
func scanSeries(scanner interface{ Scan(...any) error }) (*models.Series, error) {
	var sr models.Series
	err := scanner.Scan(
		&sr.ID, &sr.Title, &sr.Slug, &sr.Description, &sr.Color,
		&sr.Icon, &sr.Difficulty, &sr.CreatedAt, &sr.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sr, nil
}

// List returns all series ordered by title, each annotated with its
// current member-post count (computed, not stored incrementally).
func (s *SeriesStore) List() ([]models.Series, error) {
	rows, err := s.db.Query(`
		SELECT sr.id, sr.title, sr.slug, sr.description, sr.color, sr.icon,
		       sr.difficulty, sr.created_at, sr.updated_at,
		       COUNT(p.id) AS post_count
		FROM series sr
		LEFT JOIN posts p ON p.series_id = sr.id
		GROUP BY sr.id
		ORDER BY sr.title
	`)
	if err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}
	defer rows.Close()

	var items []models.Series
	for rows.Next() {
		var sr models.Series
		err := rows.Scan(
			&sr.ID, &sr.Title, &sr.Slug, &sr.Description, &sr.Color,
			&sr.Icon, &sr.Difficulty, &sr.CreatedAt, &sr.UpdatedAt,
			&sr.PostCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scan series: %w", err)
		}
		items = append(items, sr)
	}
	return items, rows.Err()
}

// FindByID retrieves a series by ID. Returns nil if not found.
func (s *SeriesStore) FindByID(id uuid.UUID) (*models.Series, error) {
	row := s.db.QueryRow(`SELECT `+seriesColumns+` FROM series WHERE id = $1`, id)
	sr, err := scanSeries(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find series by id: %w", err)
	}
	return sr, nil
}

// FindBySlug retrieves a series by slug. Returns nil if not found.
func (s *SeriesStore) FindBySlug(slug string) (*models.Series, error) {
	row := s.db.QueryRow(`SELECT `+seriesColumns+` FROM series WHERE slug = $1`, slug)
	sr, err := scanSeries(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find series by slug: %w", err)
	}
	return sr, nil
}

// Create inserts a new series and returns it. A newly created series has
// zero member posts. A colliding slug is reported as a conflict.
func (s *SeriesStore) Create(sr *models.Series) (*models.Series, error) {
	row := s.db.QueryRow(`
		INSERT INTO series (title, slug, description, color, icon, difficulty)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+seriesColumns,
		sr.Title, sr.Slug, sr.Description, sr.Color, sr.Icon, sr.Difficulty,
	)
	result, err := scanSeries(row)
	if err != nil {
		err = classify(err,
			"a series with this slug already exists",
			"invalid series reference")
		return nil, fmt.Errorf("create series: %w", err)
	}
	return result, nil
}

// Update modifies an existing series.
func (s *SeriesStore) Update(sr *models.Series) error {
	_, err := s.db.Exec(`
		UPDATE series SET
			title = $1, slug = $2, description = $3, color = $4, icon = $5,
			difficulty = $6, updated_at = NOW()
		WHERE id = $7
	`, sr.Title, sr.Slug, sr.Description, sr.Color, sr.Icon, sr.Difficulty, sr.ID)
	if err != nil {
		err = classify(err,
			"a series with this slug already exists",
			"invalid series reference")
		return fmt.Errorf("update series: %w", err)
	}
	return nil
}

// Delete removes a series by ID. Member posts keep existing with
// series_id cleared (ON DELETE SET NULL).
func (s *SeriesStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM series WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete series: %w", err)
	}
	return nil
}

// MemberCount returns the number of posts currently in a series. Used by
// the editing workflow to place a newly joined post at the end.
func (s *SeriesStore) MemberCount(id uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM posts WHERE series_id = $1`, id).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("series member count: %w", err)
	}
	return count, nil
}

// Reorder moves a member post to newPosition (1-based) within its series
// and shifts the other members to keep the sequence contiguous. The whole
// move runs in one transaction so concurrent edits can't interleave
// half-shifted orderings.
func (s *SeriesStore) Reorder(seriesID, postID uuid.UUID, newPosition int) error {
	if newPosition < 1 {
		return apperr.Validation("position must be at least 1")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin reorder: %w", err)
	}
	defer tx.Rollback()

	// Lock the member rows so two reorders of the same series serialize.
	rows, err := tx.Query(`
		SELECT id FROM posts
		WHERE series_id = $1
		ORDER BY series_order ASC NULLS LAST, created_at ASC
		FOR UPDATE
	`, seriesID)
	if err != nil {
		return fmt.Errorf("lock series members: %w", err)
	}

	var members []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("scan series member: %w", err)
		}
		members = append(members, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate series members: %w", err)
	}

	// Remove the moving post from the sequence, then reinsert at the
	// requested position (clamped to the end).
	idx := -1
	for i, id := range members {
		if id == postID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return apperr.NotFound("post is not a member of this series")
	}
	members = append(members[:idx], members[idx+1:]...)

	pos := newPosition - 1
	if pos > len(members) {
		pos = len(members)
	}
	members = append(members[:pos], append([]uuid.UUID{postID}, members[pos:]...)...)

	stmt, err := tx.Prepare(`UPDATE posts SET series_order = $1, updated_at = NOW() WHERE id = $2`)
	if err != nil {
		return fmt.Errorf("prepare reorder: %w", err)
	}
	defer stmt.Close()

	for i, id := range members {
		if _, err := stmt.Exec(i+1, id); err != nil {
			return fmt.Errorf("reorder post %s: %w", id, err)
		}
	}

	return tx.Commit()
}
