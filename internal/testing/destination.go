package testing

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/melodymind/internal/models"
	"github.com/desertthunder/melodymind/internal/services"
	"github.com/desertthunder/melodymind/internal/shared"
	"golang.org/x/oauth2"
)

// FakeDestination records every destination call made by a transfer.
//
// Results maps a search query to its ranked candidates. SearchErrs fails individual queries.
type FakeDestination struct {
	mu sync.Mutex

	AuthErr     error
	ProbeErr    error
	CreateErr   error
	AddErr      error
	Results     map[string][]models.MatchCandidate
	SearchErrs  map[string]error
	OnSearch    func(query string)
	PlaylistID  string
	Created     []string
	Queries     []string
	AddBatches  [][]string
	Filters     []string
	ProbeCalled bool
}

func (f *FakeDestination) Authenticate(_ context.Context, token *oauth2.Token) (services.DestinationSession, error) {
	if token == nil {
		return nil, fmt.Errorf("%w: no destination token", shared.ErrNotAuthenticated)
	}
	if f.AuthErr != nil {
		return nil, f.AuthErr
	}
	return &fakeSession{f}, nil
}

// Batches returns the sizes of every add-items call.
func (f *FakeDestination) Batches() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	sizes := make([]int, len(f.AddBatches))
	for i, b := range f.AddBatches {
		sizes[i] = len(b)
	}
	return sizes
}

// SearchCount returns how many searches were issued.
func (f *FakeDestination) SearchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Queries)
}

type fakeSession struct{ f *FakeDestination }

func (s *fakeSession) Probe(context.Context) error {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	s.f.ProbeCalled = true
	return s.f.ProbeErr
}

func (s *fakeSession) CreatePlaylist(_ context.Context, title, _ string) (string, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	if s.f.CreateErr != nil {
		return "", s.f.CreateErr
	}
	s.f.Created = append(s.f.Created, title)
	if s.f.PlaylistID == "" {
		return "PL-fake", nil
	}
	return s.f.PlaylistID, nil
}

func (s *fakeSession) Search(_ context.Context, query, filter string) ([]models.MatchCandidate, error) {
	s.f.mu.Lock()
	s.f.Queries = append(s.f.Queries, query)
	s.f.Filters = append(s.f.Filters, filter)
	hook := s.f.OnSearch
	err := s.f.SearchErrs[query]
	results := s.f.Results[query]
	s.f.mu.Unlock()

	if hook != nil {
		hook(query)
	}
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *fakeSession) AddItems(_ context.Context, _ string, ids []string) error {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	if s.f.AddErr != nil {
		return s.f.AddErr
	}
	s.f.AddBatches = append(s.f.AddBatches, append([]string(nil), ids...))
	return nil
}

// MemoryTokens is an in-memory services.TokenStore.
type MemoryTokens struct {
	mu     sync.Mutex
	tokens map[string]*oauth2.Token
}

func NewMemoryTokens() *MemoryTokens {
	return &MemoryTokens{tokens: make(map[string]*oauth2.Token)}
}

func (m *MemoryTokens) Load(session string) (*oauth2.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tok, ok := m.tokens[session]
	if !ok {
		return nil, fmt.Errorf("%w: no token for session %s", shared.ErrNotAuthenticated, session)
	}
	return tok, nil
}

func (m *MemoryTokens) Save(session string, tok *oauth2.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[session] = tok
	return nil
}
