package matcher

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/agnivade/levenshtein"
	"github.com/desertthunder/melodymind/internal/shared"
	"github.com/hbollon/go-edlib"
	"github.com/pmezard/go-difflib/difflib"
)

// Scorer rates how similar a candidate string is to a target, in [0, 1].
type Scorer interface {
	Score(target, candidate string) float64
}

// ScorerFunc adapts a plain function to [Scorer].
type ScorerFunc func(target, candidate string) float64

func (f ScorerFunc) Score(target, candidate string) float64 { return f(target, candidate) }

// Strategy names accepted by [NewScorer].
const (
	StrategyRatio       = "ratio"
	StrategyJaroWinkler = "jaro-winkler"
	StrategyLevenshtein = "levenshtein"
	StrategyLCS         = "lcs"
)

// NewScorer returns the scorer registered under name. Empty selects the ratio scorer.
func NewScorer(name string) (Scorer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", StrategyRatio:
		return RatioScorer{}, nil
	case StrategyJaroWinkler:
		return JaroWinklerScorer{}, nil
	case StrategyLevenshtein:
		return LevenshteinScorer{}, nil
	case StrategyLCS:
		return LCSScorer{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown match strategy %q", shared.ErrInvalidArgument, name)
	}
}

// RatioScorer is the sequence-matcher ratio: 2*M/T, where M is the number of characters in the
// matching blocks found by longest-common-substring alignment and T the combined length.
type RatioScorer struct{}

func (RatioScorer) Score(target, candidate string) float64 {
	if target == "" && candidate == "" {
		return 1
	}
	m := difflib.NewMatcher(strings.Split(target, ""), strings.Split(candidate, ""))
	return m.Ratio()
}

// JaroWinklerScorer favours strings sharing a common prefix.
type JaroWinklerScorer struct{}

func (JaroWinklerScorer) Score(target, candidate string) float64 {
	return strutil.Similarity(target, candidate, metrics.NewJaroWinkler())
}

// LevenshteinScorer normalises edit distance by the longer string.
type LevenshteinScorer struct{}

func (LevenshteinScorer) Score(target, candidate string) float64 {
	longest := max(utf8.RuneCountInString(target), utf8.RuneCountInString(candidate))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(target, candidate))/float64(longest)
}

// LCSScorer uses longest-common-subsequence similarity.
type LCSScorer struct{}

func (LCSScorer) Score(target, candidate string) float64 {
	sim, err := edlib.StringsSimilarity(target, candidate, edlib.Lcs)
	if err != nil {
		return 0
	}
	return float64(sim)
}
