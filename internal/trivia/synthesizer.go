package trivia

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/melodymind/internal/models"
	"github.com/desertthunder/melodymind/internal/shared"
)

// HardQuestionStem is the mandated question text for Hard questions.
const HardQuestionStem = "Which song contains these lyrics?"

const schemaSuffix = "\nOutput strictly in JSON compatible with QuizQuestion schema."

// Synthesizer prompts the generator and validates what comes back.
type Synthesizer struct {
	gen    Generator
	logger *log.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSynthesizer creates a synthesizer. A nil rng uses a randomly seeded source.
func NewSynthesizer(gen Generator, rng *rand.Rand, logger *log.Logger) *Synthesizer {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Synthesizer{gen: gen, rng: rng, logger: shared.WithLogger(logger, "component", "synthesizer")}
}

// Synthesize builds one question around chunk.
//
// Hard questions need distractors; their stem, options and correct answer are fixed here and only
// the explanation is taken from the model. Errors wrap [shared.ErrSynthesisParse] when the output
// is unusable.
func (s *Synthesizer) Synthesize(ctx context.Context, chunk models.LyricChunk, difficulty models.Difficulty, distractors []string) (*models.QuizQuestion, error) {
	var prompt string
	var options []string
	correct := chunk.Track().Label()

	switch difficulty {
	case models.Hard:
		if len(distractors) != DistractorCount {
			return nil, fmt.Errorf("%w: hard question needs %d distractors, got %d",
				shared.ErrInvalidArgument, DistractorCount, len(distractors))
		}
		options = s.shuffle(append(append([]string(nil), distractors...), correct))
		prompt = hardPrompt(chunk.Text, correct, distractors)
	case models.Normal:
		prompt = normalPrompt(chunk)
	default:
		return nil, fmt.Errorf("%w: difficulty %q", shared.ErrInvalidArgument, difficulty)
	}

	raw, err := s.gen.Generate(ctx, prompt+schemaSuffix, QuestionSchema())
	if err != nil {
		return nil, err
	}

	q, err := parseQuestion(raw)
	if err != nil {
		return nil, err
	}
	q.Difficulty = difficulty

	if difficulty == models.Hard {
		q.Question = HardQuestionStem
		q.Options = options
		q.CorrectAnswer = correct
	}

	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrSynthesisParse, err)
	}
	return q, nil
}

func (s *Synthesizer) shuffle(options []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
	return options
}

// parseQuestion decodes model output, tolerating a fenced code block around the JSON.
func parseQuestion(raw string) (*models.QuizQuestion, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var q models.QuizQuestion
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &q); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrSynthesisParse, err)
	}
	return &q, nil
}

func normalPrompt(chunk models.LyricChunk) string {
	return fmt.Sprintf(`You are a music trivia generator. I will provide you with a segment of lyrics from the song %q by %q.

LYRIC SEGMENT:
%q

TASK:
Generate a multiple-choice question based specifically on these lyrics.
You can ask about the meaning, the metaphor used, or complete the line.
Provide exactly 4 options. The correct_answer must be copied verbatim from the options.

OUTPUT FORMAT (Strict JSON):
{
    "question": "The text of the question",
    "options": ["Option A", "Option B", "Option C", "Option D"],
    "correct_answer": "Option A",
    "explanation": "Brief explanation of why it is correct."
}`, chunk.SongTitle, chunk.Artist, chunk.Text)
}

func hardPrompt(lyric, correct string, distractors []string) string {
	wrong, _ := json.Marshal(distractors)
	return fmt.Sprintf(`You are a quiz master. Create a multiple-choice question based on this lyric.

LYRIC SEGMENT:
%q

THE CORRECT ANSWER IS:
%q

THE WRONG OPTIONS (DISTRACTORS) MUST BE:
%s

RULES:
1. The question should be: %q
2. You must use the provided options. Do not make up new ones.
3. Output purely in JSON format.

OUTPUT JSON:
{
    "question": %q,
    "options": ["Option A", "Option B", "Option C", "Option D"],
    "correct_answer": %q,
    "explanation": "Briefly mention why the lyrics fit the correct song's theme vs the others."
}`, lyric, correct, wrong, HardQuestionStem, HardQuestionStem, correct)
}
