package trivia

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/melodymind/internal/lyrics"
	"github.com/desertthunder/melodymind/internal/models"
	"github.com/desertthunder/melodymind/internal/shared"
)

// Orchestrator drives the synthesizer across a batch of question slots.
type Orchestrator struct {
	store  lyrics.Store
	miner  *Miner
	synth  *Synthesizer
	logger *log.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures an [Orchestrator].
type Option func(*Orchestrator)

// WithRand fixes the random source used for anchor selection and option shuffling.
func WithRand(rng *rand.Rand) Option {
	return func(o *Orchestrator) { o.rng = rng }
}

// WithLogger sets the orchestrator logger.
func WithLogger(l *log.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// NewOrchestrator wires a miner and synthesizer over store and gen.
func NewOrchestrator(store lyrics.Store, gen Generator, opts ...Option) *Orchestrator {
	o := &Orchestrator{store: store}
	for _, opt := range opts {
		opt(o)
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	o.logger = shared.WithLogger(o.logger, "component", "quiz")
	o.miner = NewMiner(store)
	o.synth = NewSynthesizer(gen, rand.New(rand.NewPCG(o.rng.Uint64(), o.rng.Uint64())), o.logger)
	return o
}

// HardStart returns the first Hard slot index for a batch of n: floor(0.8*n).
func HardStart(n int) int {
	return n * 4 / 5
}

// DifficultyAt reports the tier of slot i in a batch of n.
func DifficultyAt(i, n int) models.Difficulty {
	if i >= HardStart(n) {
		return models.Hard
	}
	return models.Normal
}

// GenerateBatch produces up to n questions from random anchors in the store.
//
// Anchors are drawn uniformly with replacement from the whole store. tracks names the songs the
// caller just ingested and is only logged. An empty store yields an empty result; a failed slot is
// dropped rather than failing the batch.
func (o *Orchestrator) GenerateBatch(ctx context.Context, n int, tracks []models.TrackRef) ([]models.QuizQuestion, error) {
	if n <= 0 {
		return []models.QuizQuestion{}, nil
	}

	snapshot, err := o.store.Get(ctx, models.ChunkFilter{}, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: snapshot: %v", shared.ErrStoreUnavailable, err)
	}
	if len(snapshot) == 0 {
		o.logger.Warn("lyrics store is empty, no questions generated", "tracks", len(tracks))
		return []models.QuizQuestion{}, nil
	}

	o.logger.Info("generating quiz", "questions", n, "hard_from", HardStart(n), "chunks", len(snapshot), "tracks", len(tracks))

	questions := make([]models.QuizQuestion, 0, n)
	for i := range n {
		if err := ctx.Err(); err != nil {
			return questions, err
		}

		anchor := snapshot[o.pick(len(snapshot))]
		difficulty := DifficultyAt(i, n)

		q, err := o.slot(ctx, anchor, difficulty)
		if err != nil {
			o.logger.Warn("dropping question", "slot", i, "difficulty", difficulty, "song", anchor.Track().Label(), "error", err)
			continue
		}
		questions = append(questions, *q)
	}
	return questions, nil
}

func (o *Orchestrator) slot(ctx context.Context, anchor models.LyricChunk, difficulty models.Difficulty) (*models.QuizQuestion, error) {
	var distractors []string
	if difficulty == models.Hard {
		var err error
		distractors, err = o.miner.Mine(ctx, anchor.Embedding, anchor.Track(), DistractorCount)
		if err != nil {
			return nil, err
		}
	}
	return o.synth.Synthesize(ctx, anchor, difficulty, distractors)
}

func (o *Orchestrator) pick(n int) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.rng.IntN(n)
}
