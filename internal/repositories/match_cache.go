package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/melodymind/internal/shared"
)

// MatchCacheRepository remembers the destination id chosen for a source track.
//
// Keys are the normalized title and artist, so case and padding differences share an entry.
type MatchCacheRepository struct {
	db *sql.DB
}

// NewMatchCacheRepository creates a new MatchCacheRepository with the given database connection
func NewMatchCacheRepository(db *sql.DB) *MatchCacheRepository {
	return &MatchCacheRepository{db: db}
}

// Lookup returns the cached destination id for a track.
func (r *MatchCacheRepository) Lookup(ctx context.Context, title, artist string) (string, bool, error) {
	var id string
	err := r.db.QueryRowContext(ctx,
		`SELECT external_id FROM track_matches WHERE title_key = ? AND artist_key = ?`,
		shared.NormalizeArtist(title), shared.NormalizeArtist(artist),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to look up match: %w", err)
	}
	return id, true, nil
}

// Save stores or replaces the destination id for a track.
func (r *MatchCacheRepository) Save(ctx context.Context, title, artist, externalID string) error {
	if externalID == "" {
		return fmt.Errorf("%w: external id is required", shared.ErrInvalidInput)
	}

	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO track_matches (title_key, artist_key, external_id, title, artist, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (title_key, artist_key) DO UPDATE SET
			external_id = excluded.external_id,
			updated_at = excluded.updated_at
	`, shared.NormalizeArtist(title), shared.NormalizeArtist(artist), externalID, title, artist, now, now)
	if err != nil {
		return fmt.Errorf("failed to save match: %w", err)
	}
	return nil
}

// Count returns the number of cached matches.
func (r *MatchCacheRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM track_matches`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count matches: %w", err)
	}
	return n, nil
}
