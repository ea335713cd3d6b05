package lyrics

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/desertthunder/melodymind/internal/models"
	"github.com/desertthunder/melodymind/internal/shared"
)

// Store persists lyric chunks and answers similarity queries over their embeddings.
type Store interface {
	// Upsert writes chunks as one set, overwriting existing ids.
	Upsert(ctx context.Context, chunks []models.LyricChunk) error

	// Get returns chunks passing filter in insertion order. limit <= 0 returns all.
	Get(ctx context.Context, filter models.ChunkFilter, limit int) ([]models.LyricChunk, error)

	// Query returns up to k chunks passing filter, nearest to embedding first.
	Query(ctx context.Context, embedding []float32, k int, filter models.ChunkFilter) ([]models.ScoredChunk, error)
}

// Remover is a [Store] that can drop every chunk of a song.
type Remover interface {
	DeleteSong(ctx context.Context, title, artist string) (int64, error)
}

// HasSong reports whether any chunk exists for the exact (title, artist) pair.
func HasSong(ctx context.Context, s Store, title, artist string) (bool, error) {
	found, err := s.Get(ctx, models.ChunkFilter{SongTitle: title, Artist: artist}, 1)
	if err != nil {
		return false, err
	}
	return len(found) > 0, nil
}

// MemoryStore is an in-process [Store].
type MemoryStore struct {
	mu     sync.RWMutex
	chunks map[string]models.LyricChunk
	order  []string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{chunks: make(map[string]models.LyricChunk)}
}

// Upsert implements [Store].
func (m *MemoryStore) Upsert(_ context.Context, chunks []models.LyricChunk) error {
	for _, c := range chunks {
		if c.ID == "" {
			return fmt.Errorf("%w: chunk without id", shared.ErrInvalidInput)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range chunks {
		if _, ok := m.chunks[c.ID]; !ok {
			m.order = append(m.order, c.ID)
		}
		c.Embedding = append([]float32(nil), c.Embedding...)
		m.chunks[c.ID] = c
	}
	return nil
}

// Get implements [Store].
func (m *MemoryStore) Get(_ context.Context, filter models.ChunkFilter, limit int) ([]models.LyricChunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.LyricChunk
	for _, id := range m.order {
		c := m.chunks[id]
		if !filter.Matches(c) {
			continue
		}
		out = append(out, c)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Query implements [Store] with a linear scan.
func (m *MemoryStore) Query(_ context.Context, embedding []float32, k int, filter models.ChunkFilter) ([]models.ScoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var scored []models.ScoredChunk
	for _, id := range m.order {
		c := m.chunks[id]
		if !filter.Matches(c) {
			continue
		}
		score, err := shared.CosineSimilarity(embedding, c.Embedding)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", c.ID, err)
		}
		scored = append(scored, models.ScoredChunk{Chunk: c, Score: score})
	}

	return TopK(scored, k), nil
}

// Len returns the number of stored chunks.
// DeleteSong implements [Remover].
func (m *MemoryStore) DeleteSong(_ context.Context, title, artist string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	filter := models.ChunkFilter{SongTitle: title, Artist: artist}
	var n int64
	kept := m.order[:0]
	for _, id := range m.order {
		if filter.Matches(m.chunks[id]) {
			delete(m.chunks, id)
			n++
			continue
		}
		kept = append(kept, id)
	}
	m.order = kept
	return n, nil
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks)
}

// TopK sorts hits by descending score (stable on ties) and truncates to k.
func TopK(hits []models.ScoredChunk, k int) []models.ScoredChunk {
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}
