package repositories

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/desertthunder/melodymind/internal/lyrics"
	"github.com/desertthunder/melodymind/internal/models"
	"github.com/desertthunder/melodymind/internal/shared"
	tu "github.com/desertthunder/melodymind/internal/testing"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func chunk(id, title, artist string, vec ...float32) models.LyricChunk {
	return models.LyricChunk{ID: id, Text: id + " text", SongTitle: title, Artist: artist, Embedding: vec}
}

func TestChunkRepository(t *testing.T) {
	ctx := context.Background()
	var _ lyrics.Store = (*ChunkRepository)(nil)

	t.Run("Upsert and Get", func(t *testing.T) {
		repo := NewChunkRepository(setupTestDB(t))
		in := []models.LyricChunk{
			chunk("a", "Hey Jude", "The Beatles", 1, 0, 0),
			chunk("b", "Hey Jude", "The Beatles", 0, 1, 0),
		}
		if err := repo.Upsert(ctx, in); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}

		got, err := repo.Get(ctx, models.ChunkFilter{SongTitle: "Hey Jude", Artist: "The Beatles"}, 0)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !reflect.DeepEqual(got, in) {
			t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, in)
		}

		limited, _ := repo.Get(ctx, models.ChunkFilter{}, 1)
		if len(limited) != 1 {
			t.Errorf("expected limit to apply, got %d", len(limited))
		}
	})

	t.Run("Upsert overwrites", func(t *testing.T) {
		repo := NewChunkRepository(setupTestDB(t))
		c := chunk("a", "S", "A", 1, 1)
		repo.Upsert(ctx, []models.LyricChunk{c})
		c.Text = "replaced"
		repo.Upsert(ctx, []models.LyricChunk{c})

		n, _ := repo.Count(ctx)
		if n != 1 {
			t.Errorf("expected 1 row, got %d", n)
		}
		got, _ := repo.Get(ctx, models.ChunkFilter{}, 0)
		if got[0].Text != "replaced" {
			t.Errorf("expected overwritten text, got %q", got[0].Text)
		}
	})

	t.Run("Upsert is atomic", func(t *testing.T) {
		repo := NewChunkRepository(setupTestDB(t))
		err := repo.Upsert(ctx, []models.LyricChunk{chunk("ok", "S", "A", 1), {Text: "no id"}})
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
		if n, _ := repo.Count(ctx); n != 0 {
			t.Errorf("expected rollback to leave 0 rows, got %d", n)
		}
	})

	t.Run("Query excludes song and ranks", func(t *testing.T) {
		repo := NewChunkRepository(setupTestDB(t))
		repo.Upsert(ctx, []models.LyricChunk{
			chunk("anchor", "Anchor", "X", 1, 0),
			chunk("near", "Near", "Y", 0.8, 0.2),
			chunk("far", "Far", "Z", -1, 0),
		})

		hits, err := repo.Query(ctx, []float32{1, 0}, 5, models.ChunkFilter{ExcludeSongTitle: "Anchor"})
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		if len(hits) != 2 || hits[0].Chunk.ID != "near" || hits[1].Chunk.ID != "far" {
			t.Errorf("unexpected hits %+v", hits)
		}
		if hits[0].Score <= hits[1].Score {
			t.Error("hits should be ordered by descending score")
		}
	})

	t.Run("DeleteSong", func(t *testing.T) {
		repo := NewChunkRepository(setupTestDB(t))
		repo.Upsert(ctx, []models.LyricChunk{chunk("a", "S", "A", 1), chunk("b", "T", "A", 1)})
		n, err := repo.DeleteSong(ctx, "S", "A")
		if err != nil || n != 1 {
			t.Errorf("DeleteSong() = %d, %v", n, err)
		}
	})

	t.Run("ingestion pipeline over sqlite", func(t *testing.T) {
		repo := NewChunkRepository(setupTestDB(t))
		ing := lyrics.NewIngester(repo, tu.NewFakeLyrics(map[string]string{"Song|Band": tu.Lyrics("x", 9)}), &tu.FakeEmbedder{Dim: 6}, nil)

		for range 2 {
			ok, err := ing.Ingest(ctx, "Band", "Song")
			if err != nil || !ok {
				t.Fatalf("Ingest() = %v, %v", ok, err)
			}
		}
		if n, _ := repo.Count(ctx); n != 3 {
			t.Errorf("expected 3 chunks after two ingests, got %d", n)
		}
	})
}

func TestTransferRepository(t *testing.T) {
	ctx := context.Background()

	newRecord := func(session string, status models.StatusKind) *models.TransferRecord {
		done := time.Now().UTC().Truncate(time.Second)
		return &models.TransferRecord{
			SessionID:     session,
			PlaylistName:  "Road Trip",
			Status:        status,
			TracksTotal:   3,
			TracksMatched: 2,
			TracksSkipped: 1,
			StartedAt:     done.Add(-time.Minute),
			CompletedAt:   &done,
		}
	}

	t.Run("Record and Get", func(t *testing.T) {
		repo := NewTransferRepository(setupTestDB(t))
		rec := newRecord("default", models.StatusCompleted)
		rec.DestinationPlaylistID = "PL123"

		if err := repo.Record(ctx, rec); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
		if rec.ID == "" || rec.Sequence != 1 {
			t.Errorf("expected id and sequence 1, got %q %d", rec.ID, rec.Sequence)
		}

		got, err := repo.Get(ctx, rec.ID)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.DestinationPlaylistID != "PL123" || got.Status != models.StatusCompleted || got.TracksMatched != 2 {
			t.Errorf("unexpected record %+v", got)
		}
		if got.CompletedAt == nil {
			t.Error("expected completed_at to round trip")
		}
	})

	t.Run("Get missing", func(t *testing.T) {
		repo := NewTransferRepository(setupTestDB(t))
		if _, err := repo.Get(ctx, "nope"); !errors.Is(err, shared.ErrTransferNotFound) {
			t.Errorf("expected ErrTransferNotFound, got %v", err)
		}
	})

	t.Run("Record rejects invalid", func(t *testing.T) {
		repo := NewTransferRepository(setupTestDB(t))
		if err := repo.Record(ctx, &models.TransferRecord{Status: models.StatusCompleted}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("List newest first by session", func(t *testing.T) {
		repo := NewTransferRepository(setupTestDB(t))
		failed := newRecord("a", models.StatusError)
		failed.ErrorMessage = "AUTH_EXPIRED"
		for _, rec := range []*models.TransferRecord{newRecord("a", models.StatusCompleted), newRecord("b", models.StatusCompleted), failed} {
			if err := repo.Record(ctx, rec); err != nil {
				t.Fatal(err)
			}
		}

		list, err := repo.List(ctx, "a", 0)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(list) != 2 {
			t.Fatalf("expected 2 records, got %d", len(list))
		}
		if list[0].Sequence != 3 || list[0].ErrorMessage != "AUTH_EXPIRED" {
			t.Errorf("expected newest failed record first, got %+v", list[0])
		}

		all, _ := repo.List(ctx, "", 2)
		if len(all) != 2 {
			t.Errorf("expected limit 2, got %d", len(all))
		}
	})
}

func TestMatchCacheRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("miss then hit", func(t *testing.T) {
		repo := NewMatchCacheRepository(setupTestDB(t))
		if _, ok, err := repo.Lookup(ctx, "Yellow", "Coldplay"); err != nil || ok {
			t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
		}
		if err := repo.Save(ctx, "Yellow", "Coldplay", "vid-1"); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		id, ok, err := repo.Lookup(ctx, "yellow", "  COLDPLAY ")
		if err != nil || !ok || id != "vid-1" {
			t.Errorf("expected normalized hit vid-1, got %q %v %v", id, ok, err)
		}
	})

	t.Run("save replaces", func(t *testing.T) {
		repo := NewMatchCacheRepository(setupTestDB(t))
		repo.Save(ctx, "Yellow", "Coldplay", "vid-1")
		repo.Save(ctx, "Yellow", "Coldplay", "vid-2")

		id, _, _ := repo.Lookup(ctx, "Yellow", "Coldplay")
		if id != "vid-2" {
			t.Errorf("expected vid-2, got %q", id)
		}
		if n, _ := repo.Count(ctx); n != 1 {
			t.Errorf("expected 1 entry, got %d", n)
		}
	})

	t.Run("empty id rejected", func(t *testing.T) {
		repo := NewMatchCacheRepository(setupTestDB(t))
		if err := repo.Save(ctx, "Yellow", "Coldplay", ""); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}
