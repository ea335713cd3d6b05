package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/melodymind/internal/models"
	"github.com/desertthunder/melodymind/internal/shared"
)

const transferColumns = `
	id, sequence, session_id, playlist_name, destination_playlist_id, status,
	tracks_total, tracks_matched, tracks_skipped, error_message, started_at, completed_at
`

// TransferRepository persists transfer outcomes.
type TransferRepository struct {
	db *sql.DB
}

// NewTransferRepository creates a new TransferRepository with the given database connection
func NewTransferRepository(db *sql.DB) *TransferRepository {
	return &TransferRepository{db: db}
}

// Record inserts a transfer with a generated ID and sequence.
func (r *TransferRepository) Record(ctx context.Context, rec *models.TransferRecord) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	sequence, err := NextSequence(ctx, r.db, "transfers")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	if rec.ID == "" {
		rec.ID = shared.GenerateID()
	}
	rec.Sequence = sequence

	_, err = r.db.ExecContext(ctx, `INSERT INTO transfers (`+transferColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.Sequence,
		rec.SessionID,
		rec.PlaylistName,
		nullable(rec.DestinationPlaylistID),
		string(rec.Status),
		rec.TracksTotal,
		rec.TracksMatched,
		rec.TracksSkipped,
		nullable(rec.ErrorMessage),
		rec.StartedAt,
		rec.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transfer: %w", err)
	}

	return nil
}

// Get retrieves a transfer by ID.
func (r *TransferRepository) Get(ctx context.Context, id string) (*models.TransferRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+transferColumns+` FROM transfers WHERE id = ?`, id)
	rec, err := scanTransfer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrTransferNotFound, id)
	}
	return rec, err
}

// List returns transfers newest first, optionally restricted to one session. limit <= 0 returns all.
func (r *TransferRepository) List(ctx context.Context, sessionID string, limit int) ([]*models.TransferRecord, error) {
	query := `SELECT ` + transferColumns + ` FROM transfers`
	var args []any
	if sessionID != "" {
		query += " WHERE session_id = ?"
		args = append(args, sessionID)
	}
	query += " ORDER BY sequence DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transfers: %w", err)
	}
	defer rows.Close()

	var out []*models.TransferRecord
	for rows.Next() {
		rec, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}

func scanTransfer(s scanner) (*models.TransferRecord, error) {
	var (
		rec         models.TransferRecord
		status      string
		destID      sql.NullString
		errorMsg    sql.NullString
		completedAt sql.NullTime
	)

	err := s.Scan(
		&rec.ID, &rec.Sequence, &rec.SessionID, &rec.PlaylistName, &destID, &status,
		&rec.TracksTotal, &rec.TracksMatched, &rec.TracksSkipped, &errorMsg, &rec.StartedAt, &completedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan transfer: %w", err)
	}

	rec.Status = models.StatusKind(status)
	rec.DestinationPlaylistID = destID.String
	rec.ErrorMessage = errorMsg.String
	if completedAt.Valid {
		t := completedAt.Time
		rec.CompletedAt = &t
	}
	return &rec, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
