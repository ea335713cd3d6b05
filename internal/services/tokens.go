package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/desertthunder/melodymind/internal/shared"
	"golang.org/x/oauth2"
)

// FileTokenStore persists token bundles per session in a single JSON file.
type FileTokenStore struct {
	mu   sync.Mutex
	path string
}

// NewFileTokenStore creates a store at path. The file is created on first save.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// Path returns the backing file location.
func (s *FileTokenStore) Path() string {
	return s.path
}

// Load returns the token for session or an error wrapping [shared.ErrNotAuthenticated].
func (s *FileTokenStore) Load(session string) (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.read()
	if err != nil {
		return nil, err
	}
	tok, ok := tokens[session]
	if !ok || tok == nil {
		return nil, fmt.Errorf("%w: no destination token for session %q", shared.ErrNotAuthenticated, session)
	}
	return tok, nil
}

// Save stores token for session, replacing any previous one.
func (s *FileTokenStore) Save(session string, token *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.read()
	if err != nil {
		return err
	}
	tokens[session] = token

	data, err := shared.MarshalJSON(tokens, true)
	if err != nil {
		return fmt.Errorf("failed to encode tokens: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write tokens: %w", err)
	}
	return os.Rename(tmp, s.path)
}

func (s *FileTokenStore) read() (map[string]*oauth2.Token, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]*oauth2.Token{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read tokens: %w", err)
	}

	tokens := map[string]*oauth2.Token{}
	if len(data) == 0 {
		return tokens, nil
	}
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("%w: token file %s: %v", shared.ErrInvalidConfig, s.path, err)
	}
	return tokens, nil
}
