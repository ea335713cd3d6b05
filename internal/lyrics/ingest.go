package lyrics

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/melodymind/internal/models"
	"github.com/desertthunder/melodymind/internal/shared"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// Provider fetches raw lyrics. Implementations return an error wrapping
// [shared.ErrLyricsNotFound] when the song is unknown.
type Provider interface {
	SearchSong(ctx context.Context, title, artist string) (string, error)
}

// Embedder turns texts into fixed-length vectors, one per input, deterministically.
type Embedder interface {
	Encode(ctx context.Context, texts []string) ([][]float32, error)
}

// Ingester runs the fetch, chunk, embed, upsert pipeline.
type Ingester struct {
	store    Store
	provider Provider
	embedder Embedder
	logger   *log.Logger
}

// NewIngester wires an ingestion pipeline.
func NewIngester(store Store, provider Provider, embedder Embedder, logger *log.Logger) *Ingester {
	return &Ingester{
		store:    store,
		provider: provider,
		embedder: embedder,
		logger:   shared.WithLogger(logger, "component", "ingest"),
	}
}

// Ingest stores the chunks of one song and reports whether the song is now available.
//
// A song already present is a successful no-op. Missing or empty lyrics return false with an
// error wrapping [shared.ErrLyricsNotFound]; embedding failures wrap [shared.ErrEmbeddingFailure].
// Nothing is written unless every chunk was embedded.
func (i *Ingester) Ingest(ctx context.Context, artist, title string) (bool, error) {
	return i.ingest(ctx, artist, title, false)
}

// Reingest fetches and embeds a song again and replaces its stored chunks.
//
// The old chunks are removed only once the new ones are ready, so a failed refresh keeps them.
// The store must implement [Remover].
func (i *Ingester) Reingest(ctx context.Context, artist, title string) (bool, error) {
	if _, ok := i.store.(Remover); !ok {
		return false, fmt.Errorf("%w: store cannot remove songs", shared.ErrInvalidArgument)
	}
	return i.ingest(ctx, artist, title, true)
}

func (i *Ingester) ingest(ctx context.Context, artist, title string, replace bool) (bool, error) {
	artist, title = strings.TrimSpace(artist), strings.TrimSpace(title)
	if artist == "" || title == "" {
		return false, fmt.Errorf("%w: artist and title are required", shared.ErrInvalidArgument)
	}

	if !replace {
		exists, err := HasSong(ctx, i.store, title, artist)
		if err != nil {
			return false, fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
		}
		if exists {
			i.logger.Debug("song already ingested", "title", title, "artist", artist)
			return true, nil
		}
	}

	text, err := i.provider.SearchSong(ctx, title, artist)
	if err != nil {
		i.logger.Warn("lyrics unavailable", "title", title, "artist", artist, "error", err)
		return false, err
	}

	chunks := BuildChunks(artist, title, text)
	if len(chunks) == 0 {
		return false, fmt.Errorf("%w: %s has no lyric lines", shared.ErrLyricsNotFound, shared.SongLabel(title, artist))
	}

	texts := make([]string, len(chunks))
	for n, c := range chunks {
		texts[n] = c.Text
	}

	vectors, err := i.embedder.Encode(ctx, texts)
	if err != nil {
		return false, fmt.Errorf("%w: %v", shared.ErrEmbeddingFailure, err)
	}
	if len(vectors) != len(chunks) {
		return false, fmt.Errorf("%w: got %d vectors for %d chunks", shared.ErrEmbeddingFailure, len(vectors), len(chunks))
	}
	for n := range chunks {
		chunks[n].Embedding = vectors[n]
	}

	if replace {
		removed, err := i.store.(Remover).DeleteSong(ctx, title, artist)
		if err != nil {
			return false, fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
		}
		i.logger.Debug("replacing song", "title", title, "artist", artist, "removed", removed)
	}

	if err := i.store.Upsert(ctx, chunks); err != nil {
		return false, fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
	}

	i.logger.Info("ingested song", "title", title, "artist", artist, "chunks", len(chunks))
	return true, nil
}

// SplitLines returns the non-empty lines of text with surrounding whitespace removed.
func SplitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// BuildChunks groups the lines of text into windows of [models.ChunkSize] lines.
// The final window may be shorter.
func BuildChunks(artist, title, text string) []models.LyricChunk {
	lines := SplitLines(text)

	var chunks []models.LyricChunk
	for offset := 0; offset < len(lines); offset += models.ChunkSize {
		end := min(offset+models.ChunkSize, len(lines))
		chunks = append(chunks, models.LyricChunk{
			ID:        ChunkID(artist, title, offset),
			Text:      strings.Join(lines[offset:end], "\n"),
			SongTitle: title,
			Artist:    artist,
			Offset:    offset,
		})
	}
	return chunks
}

// ChunkID derives a stable id from artist, title and line offset.
//
// The slugs keep ids readable; the name-based UUID prefix of the exact artist and title keeps songs
// that slug alike ("Help" and "Help!") apart.
func ChunkID(artist, title string, offset int) string {
	song := uuid.NewSHA1(uuid.NameSpaceOID, []byte(artist+"\x00"+title))
	return fmt.Sprintf("%s_%s_%s_%d", slug.Make(artist), slug.Make(title), song.String()[:8], offset)
}
