// Package matcher picks the destination catalog entry that best corresponds to a source track.
//
// A candidate is accepted when one of its artists contains, or is contained in, the target artist
// (case-insensitive) and its title scores above the threshold under the configured [Scorer].
// Only the first Window ranked candidates are examined. When none qualifies the top-ranked
// candidate is returned anyway.
package matcher

import (
	"fmt"
	"strings"

	"github.com/desertthunder/melodymind/internal/models"
	"github.com/desertthunder/melodymind/internal/shared"
)

const (
	DefaultThreshold = 0.7
	DefaultWindow    = 5
)

// Matcher resolves search results to a single external id.
type Matcher struct {
	scorer    Scorer
	threshold float64
	window    int
}

// Option configures a [Matcher].
type Option func(*Matcher)

// WithThreshold sets the exclusive title similarity threshold.
func WithThreshold(t float64) Option {
	return func(m *Matcher) {
		if t > 0 {
			m.threshold = t
		}
	}
}

// WithWindow sets how many ranked candidates are examined.
func WithWindow(n int) Option {
	return func(m *Matcher) {
		if n > 0 {
			m.window = n
		}
	}
}

// New creates a matcher. A nil scorer selects [RatioScorer].
func New(scorer Scorer, opts ...Option) *Matcher {
	if scorer == nil {
		scorer = RatioScorer{}
	}
	m := &Matcher{scorer: scorer, threshold: DefaultThreshold, window: DefaultWindow}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// BestMatch returns the external id of the first candidate matching both artist and title,
// falling back to the first candidate. An empty list wraps [shared.ErrNoMatchFound].
func (m *Matcher) BestMatch(candidates []models.MatchCandidate, title, artist string) (string, error) {
	if len(candidates) == 0 {
		return "", fmt.Errorf("%w: %s", shared.ErrNoMatchFound, shared.SongLabel(title, artist))
	}

	targetTitle := strings.ToLower(title)
	targetArtist := strings.ToLower(artist)

	for _, c := range candidates[:min(m.window, len(candidates))] {
		if !ArtistMatches(targetArtist, c.Artists) {
			continue
		}
		if m.scorer.Score(targetTitle, strings.ToLower(c.Title)) > m.threshold {
			return c.ExternalID, nil
		}
	}

	return candidates[0].ExternalID, nil
}

// ArtistMatches reports symmetric, case-insensitive containment between target and any name.
// An empty string is contained in every name, so an empty target or name matches; no names never does.
func ArtistMatches(target string, names []string) bool {
	target = strings.ToLower(target)
	for _, name := range names {
		name = strings.ToLower(name)
		if strings.Contains(name, target) || strings.Contains(target, name) {
			return true
		}
	}
	return false
}
