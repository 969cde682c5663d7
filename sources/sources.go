// Package sources is the SQLite media registry: the persisted list of
// harvested sites and their activation state.
package sources

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pevans/mediascan"
	"github.com/pevans/mediascan/scraper"
)

var (
	ErrMediaNotFound = errors.New("media not found")
	ErrDuplicateURL  = errors.New("media with this URL already exists")
)

// MediaStore manages media records using SQLite.
type MediaStore struct {
	db *sql.DB
}

// MediaUpdate holds the fields to change on a media record. Nil fields are
// left alone.
type MediaUpdate struct {
	Name   *string
	URL    *string
	Active *bool
}

// MediaFilter represents filtering options for listing media.
type MediaFilter struct {
	Active *bool
	Limit  int
	Offset int
}

// NewMediaStore opens or creates the registry database.
func NewMediaStore(dbPath string) (*MediaStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &MediaStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *MediaStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS media (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		url TEXT NOT NULL UNIQUE,
		active INTEGER NOT NULL DEFAULT 1,
		deactivated_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *MediaStore) Close() error {
	return s.db.Close()
}

// CreateMedia inserts a media record.
func (s *MediaStore) CreateMedia(ctx context.Context, name, url string, active bool) (*mediascan.Media, error) {
	now := time.Now().Truncate(0)
	media := &mediascan.Media{
		Name:      name,
		URL:       url,
		Active:    active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if !active {
		media.DeactivatedAt = &now
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO media (name, url, active, deactivated_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, media.Name, media.URL, media.Active, formatTime(media.DeactivatedAt), formatTime(&now), formatTime(&now))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateURL
		}
		return nil, fmt.Errorf("failed to insert media: %w", err)
	}

	media.ID, err = result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read media ID: %w", err)
	}
	return media, nil
}

const selectMedia = `
	SELECT id, name, url, active, deactivated_at, created_at, updated_at
	FROM media
`

// GetMedia retrieves a media record by ID.
func (s *MediaStore) GetMedia(ctx context.Context, id int64) (*mediascan.Media, error) {
	row := s.db.QueryRowContext(ctx, selectMedia+" WHERE id = ?", id)
	media, err := scanMedia(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMediaNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query media: %w", err)
	}
	return media, nil
}

// ListMedia lists media records ordered by ID.
func (s *MediaStore) ListMedia(ctx context.Context, filter MediaFilter) ([]mediascan.Media, error) {
	query := selectMedia
	var args []any

	if filter.Active != nil {
		query += " WHERE active = ?"
		args = append(args, *filter.Active)
	}

	query += " ORDER BY id ASC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query media: %w", err)
	}
	defer rows.Close()

	var list []mediascan.Media
	for rows.Next() {
		media, err := scanMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan media: %w", err)
		}
		list = append(list, *media)
	}
	return list, rows.Err()
}

// ActiveMedia returns every active media record.
func (s *MediaStore) ActiveMedia(ctx context.Context) ([]mediascan.Media, error) {
	active := true
	return s.ListMedia(ctx, MediaFilter{Active: &active})
}

// UpdateMedia applies update to the media record.
func (s *MediaStore) UpdateMedia(ctx context.Context, id int64, update MediaUpdate) error {
	now := time.Now()
	setClauses := []string{"updated_at = ?"}
	args := []any{formatTime(&now)}

	if update.Name != nil {
		setClauses = append(setClauses, "name = ?")
		args = append(args, *update.Name)
	}
	if update.URL != nil {
		setClauses = append(setClauses, "url = ?")
		args = append(args, *update.URL)
	}
	if update.Active != nil {
		setClauses = append(setClauses, "active = ?")
		args = append(args, *update.Active)
		if *update.Active {
			setClauses = append(setClauses, "deactivated_at = NULL")
		} else {
			setClauses = append(setClauses, "deactivated_at = ?")
			args = append(args, formatTime(&now))
		}
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE media SET %s WHERE id = ?", strings.Join(setClauses, ", "))

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateURL
		}
		return fmt.Errorf("failed to update media: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrMediaNotFound
	}
	return nil
}

// SetActive activates or deactivates a media record.
func (s *MediaStore) SetActive(ctx context.Context, id int64, active bool) error {
	return s.UpdateMedia(ctx, id, MediaUpdate{Active: &active})
}

// Deactivate marks a media record inactive. It reports false when no
// record has the ID.
func (s *MediaStore) Deactivate(ctx context.Context, id int64) (bool, error) {
	err := s.SetActive(ctx, id, false)
	if errors.Is(err, ErrMediaNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// DeleteMedia deletes a media record.
func (s *MediaStore) DeleteMedia(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM media WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete media: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrMediaNotFound
	}
	return nil
}

// Seed creates an active media record for every roster entry whose URL is
// not registered yet and returns how many were created. Existing records,
// including deactivated ones, are left untouched.
func (s *MediaStore) Seed(ctx context.Context, roster scraper.Roster) (int, error) {
	created := 0
	for _, cfg := range roster {
		_, err := s.CreateMedia(ctx, cfg.Name, cfg.Key, true)
		if errors.Is(err, ErrDuplicateURL) {
			continue
		}
		if err != nil {
			return created, fmt.Errorf("failed to seed %s: %w", cfg.Key, err)
		}
		created++
	}
	return created, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMedia(row rowScanner) (*mediascan.Media, error) {
	var (
		media                mediascan.Media
		createdAt, updatedAt string
		deactivatedAt        sql.NullString
	)
	if err := row.Scan(&media.ID, &media.Name, &media.URL, &media.Active, &deactivatedAt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	media.CreatedAt = parseTime(createdAt)
	media.UpdatedAt = parseTime(updatedAt)
	if deactivatedAt.Valid {
		t := parseTime(deactivatedAt.String)
		media.DeactivatedAt = &t
	}
	return &media, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint") ||
		strings.Contains(err.Error(), "unique constraint")
}

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	// Strip monotonic clock for consistent storage and comparisons
	return t.Truncate(0).Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t.Truncate(0)
}
