package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/desertthunder/melodymind/internal/models"
)

// scanner is satisfied by both [sql.Row] and [sql.Rows].
type scanner interface {
	Scan(dest ...any) error
}

// NextSequence atomically increments and returns the next sequence number for the given table.
//
// Sequence numbers give transfers a stable, human-readable order (transfer #42) independent of UUIDs.
func NextSequence(ctx context.Context, db *sql.DB, table string) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequenceTable := table + "_sequence"

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("UPDATE %s SET value = value + 1 WHERE id = 1", sequenceTable)); err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	var sequence int
	if err := tx.QueryRowContext(ctx, fmt.Sprintf("SELECT value FROM %s WHERE id = 1", sequenceTable)).Scan(&sequence); err != nil {
		return 0, fmt.Errorf("failed to get sequence value: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit sequence transaction: %w", err)
	}

	return sequence, nil
}

// chunkWhere renders a chunk filter as a WHERE clause.
func chunkWhere(f models.ChunkFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if f.SongTitle != "" {
		clauses = append(clauses, "song_title = ?")
		args = append(args, f.SongTitle)
	}
	if f.Artist != "" {
		clauses = append(clauses, "artist = ?")
		args = append(args, f.Artist)
	}
	if f.ExcludeSongTitle != "" {
		clauses = append(clauses, "song_title != ?")
		args = append(args, f.ExcludeSongTitle)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
