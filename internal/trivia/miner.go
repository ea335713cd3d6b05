package trivia

import (
	"context"
	"fmt"

	"github.com/desertthunder/melodymind/internal/lyrics"
	"github.com/desertthunder/melodymind/internal/models"
	"github.com/desertthunder/melodymind/internal/shared"
)

// DistractorCount is the number of wrong options on a Hard question.
const DistractorCount = 3

// PlaceholderDistractor pads Hard questions when the store cannot supply enough distinct artists.
const PlaceholderDistractor = "Generic Song by Random Artist"

// Miner finds hard negatives: chunks from other songs that sit close to the anchor in embedding space.
type Miner struct {
	store lyrics.Store
}

// NewMiner creates a miner over store.
func NewMiner(store lyrics.Store) *Miner {
	return &Miner{store: store}
}

// Mine returns exactly k distractor labels for anchor.
//
// Neighbours from anchor.Title are excluded and at most one label is kept per artist, never the
// anchor's own. Missing slots are filled with [PlaceholderDistractor].
func (m *Miner) Mine(ctx context.Context, embedding []float32, anchor models.TrackRef, k int) ([]string, error) {
	if k <= 0 {
		k = DistractorCount
	}

	hits, err := m.store.Query(ctx, embedding, max(k*3, 10), models.ChunkFilter{ExcludeSongTitle: anchor.Title})
	if err != nil {
		return nil, fmt.Errorf("%w: nearest neighbours: %v", shared.ErrStoreUnavailable, err)
	}

	seen := map[string]bool{shared.NormalizeArtist(anchor.Artist): true}
	out := make([]string, 0, k)
	for _, h := range hits {
		if len(out) == k {
			break
		}
		artist := shared.NormalizeArtist(h.Chunk.Artist)
		if seen[artist] {
			continue
		}
		seen[artist] = true
		out = append(out, h.Chunk.Track().Label())
	}

	for len(out) < k {
		out = append(out, PlaceholderDistractor)
	}
	return out, nil
}
