package trivia

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/melodymind/internal/lyrics"
	"github.com/desertthunder/melodymind/internal/models"
	"github.com/desertthunder/melodymind/internal/services"
	"github.com/desertthunder/melodymind/internal/shared"
	"golang.org/x/sync/errgroup"
)

// QuizEngine prepares quizzes for source playlists.
type QuizEngine struct {
	source   services.Source
	ingester *lyrics.Ingester
	batch    *Orchestrator
	cfg      shared.QuizConfig
	logger   *log.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewQuizEngine creates an engine. Zero config values fall back to the defaults.
func NewQuizEngine(source services.Source, ingester *lyrics.Ingester, batch *Orchestrator, cfg shared.QuizConfig, logger *log.Logger) *QuizEngine {
	def := shared.DefaultConfig().Quiz
	if cfg.Questions <= 0 {
		cfg.Questions = def.Questions
	}
	if cfg.PlaylistLimit <= 0 {
		cfg.PlaylistLimit = def.PlaylistLimit
	}
	if cfg.SampleTracks <= 0 {
		cfg.SampleTracks = def.SampleTracks
	}
	if cfg.IngestWorkers <= 0 {
		cfg.IngestWorkers = def.IngestWorkers
	}
	return &QuizEngine{
		source:   source,
		ingester: ingester,
		batch:    batch,
		cfg:      cfg,
		logger:   shared.WithLogger(logger, "component", "quiz_engine"),
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// Sample returns up to k tracks chosen uniformly without replacement.
func (e *QuizEngine) Sample(tracks []models.TrackRef, k int) []models.TrackRef {
	if k >= len(tracks) {
		return append([]models.TrackRef(nil), tracks...)
	}
	e.mu.Lock()
	idx := e.rng.Perm(len(tracks))[:k]
	e.mu.Unlock()

	out := make([]models.TrackRef, k)
	for i, j := range idx {
		out[i] = tracks[j]
	}
	return out
}

// PrepareQuiz lists the first tracks of a playlist, ingests a sample of them and generates questions.
// Ingestion failures are logged and skipped; the batch uses whatever the store holds.
func (e *QuizEngine) PrepareQuiz(ctx context.Context, playlistID string) ([]models.QuizQuestion, []models.TrackRef, error) {
	return e.PrepareQuizFrom(ctx, e.source, playlistID)
}

// PrepareQuizFrom is [QuizEngine.PrepareQuiz] against a caller-supplied source.
func (e *QuizEngine) PrepareQuizFrom(ctx context.Context, source services.Source, playlistID string) ([]models.QuizQuestion, []models.TrackRef, error) {
	if source == nil {
		return nil, nil, fmt.Errorf("%w: no playlist source", shared.ErrNotAuthenticated)
	}
	if playlistID == "" {
		return nil, nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	items, err := source.ListPlaylistItems(ctx, playlistID, e.cfg.PlaylistLimit)
	if err != nil {
		return nil, nil, err
	}

	sample := e.Sample(items, e.cfg.SampleTracks)
	e.logger.Info("preparing quiz", "playlist", playlistID, "tracks", len(items), "sampled", len(sample))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.IngestWorkers)
	for _, tr := range sample {
		g.Go(func() error {
			ok, err := e.ingester.Ingest(gctx, tr.Artist, tr.Title)
			if err != nil || !ok {
				e.logger.Warn("ingest failed", "track", tr.Label(), "error", err)
			}
			return nil
		})
	}
	g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, items, err
	}

	questions, err := e.batch.GenerateBatch(ctx, e.cfg.Questions, sample)
	if err != nil {
		return nil, items, err
	}
	return questions, items, nil
}
