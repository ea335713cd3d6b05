package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/melodymind/internal/lyrics"
	"github.com/desertthunder/melodymind/internal/models"
	"github.com/desertthunder/melodymind/internal/shared"
)

var _ lyrics.Remover = (*ChunkRepository)(nil)

// ChunkRepository implements [lyrics.Store] on the lyric_chunks table.
type ChunkRepository struct {
	db *sql.DB
}

// NewChunkRepository creates a new ChunkRepository with the given database connection
func NewChunkRepository(db *sql.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

// Upsert writes all chunks in a single transaction, replacing rows with the same id.
func (r *ChunkRepository) Upsert(ctx context.Context, chunks []models.LyricChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO lyric_chunks (id, song_title, artist, line_offset, body, dimensions, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			song_title = excluded.song_title,
			artist = excluded.artist,
			line_offset = excluded.line_offset,
			body = excluded.body,
			dimensions = excluded.dimensions,
			embedding = excluded.embedding
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		if c.ID == "" {
			return fmt.Errorf("%w: chunk without id", shared.ErrInvalidInput)
		}
		if _, err := stmt.ExecContext(ctx,
			c.ID, c.SongTitle, c.Artist, c.Offset, c.Text, len(c.Embedding), shared.EncodeVector(c.Embedding),
		); err != nil {
			return fmt.Errorf("failed to upsert chunk %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chunks: %w", err)
	}
	return nil
}

// Get returns chunks passing filter in insertion order. limit <= 0 returns all.
func (r *ChunkRepository) Get(ctx context.Context, filter models.ChunkFilter, limit int) ([]models.LyricChunk, error) {
	where, args := chunkWhere(filter)
	query := "SELECT id, song_title, artist, line_offset, body, embedding FROM lyric_chunks" + where + " ORDER BY rowid"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []models.LyricChunk
	for rows.Next() {
		c, err := r.scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return chunks, nil
}

// Query scores every chunk passing filter against embedding and returns the k best.
func (r *ChunkRepository) Query(ctx context.Context, embedding []float32, k int, filter models.ChunkFilter) ([]models.ScoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}

	chunks, err := r.Get(ctx, filter, 0)
	if err != nil {
		return nil, err
	}

	hits := make([]models.ScoredChunk, 0, len(chunks))
	for _, c := range chunks {
		score, err := shared.CosineSimilarity(embedding, c.Embedding)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", c.ID, err)
		}
		hits = append(hits, models.ScoredChunk{Chunk: c, Score: score})
	}

	return lyrics.TopK(hits, k), nil
}

// Count returns the number of stored chunks.
func (r *ChunkRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM lyric_chunks").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return n, nil
}

// DeleteSong removes every chunk of one song. It implements [lyrics.Remover].
func (r *ChunkRepository) DeleteSong(ctx context.Context, title, artist string) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM lyric_chunks WHERE song_title = ? AND artist = ?", title, artist)
	if err != nil {
		return 0, fmt.Errorf("failed to delete chunks: %w", err)
	}
	return res.RowsAffected()
}

func (r *ChunkRepository) scanChunk(s scanner) (models.LyricChunk, error) {
	var (
		c    models.LyricChunk
		blob []byte
	)
	if err := s.Scan(&c.ID, &c.SongTitle, &c.Artist, &c.Offset, &c.Text, &blob); err != nil {
		return c, fmt.Errorf("failed to scan chunk: %w", err)
	}

	vec, err := shared.DecodeVector(blob)
	if err != nil {
		return c, fmt.Errorf("chunk %s: %w", c.ID, err)
	}
	c.Embedding = vec
	return c, nil
}
