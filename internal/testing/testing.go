// package testing contains shared testing utilities and fakes for external collaborators
package testing

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/melodymind/internal/models"
	"github.com/desertthunder/melodymind/internal/shared"
	"github.com/google/generative-ai-go/genai"
)

// FakeLyrics serves lyrics from a map keyed by "title|artist".
type FakeLyrics struct {
	mu    sync.Mutex
	Songs map[string]string
	Err   error
	calls int
}

func NewFakeLyrics(songs map[string]string) *FakeLyrics {
	return &FakeLyrics{Songs: songs}
}

func (f *FakeLyrics) SearchSong(_ context.Context, title, artist string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.Err != nil {
		return "", f.Err
	}
	text, ok := f.Songs[title+"|"+artist]
	if !ok {
		return "", fmt.Errorf("%w: %s", shared.ErrLyricsNotFound, shared.SongLabel(title, artist))
	}
	return text, nil
}

// Calls returns how many lookups were made.
func (f *FakeLyrics) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// FakeEmbedder derives deterministic vectors from text hashes.
//
// Vectors overrides the derived value for exact texts.
type FakeEmbedder struct {
	Dim     int
	Vectors map[string][]float32
	Err     error
}

func (f *FakeEmbedder) Encode(_ context.Context, texts []string) ([][]float32, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	dim := f.Dim
	if dim <= 0 {
		dim = 8
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if v, ok := f.Vectors[text]; ok {
			out[i] = v
			continue
		}
		out[i] = HashVector(text, dim)
	}
	return out, nil
}

// HashVector maps text onto a dim-length vector in [-1, 1).
func HashVector(text string, dim int) []float32 {
	v := make([]float32, dim)
	for d := range v {
		h := fnv.New32a()
		fmt.Fprintf(h, "%d:%s", d, text)
		v[d] = float32(h.Sum32()%2000)/1000 - 1
	}
	return v
}

// FakeGenerator returns canned or computed model output and records prompts.
type FakeGenerator struct {
	mu      sync.Mutex
	Fn      func(prompt string) (string, error)
	prompts []string
}

func (f *FakeGenerator) Generate(_ context.Context, prompt string, _ *genai.Schema) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.Fn == nil {
		return "", errors.New("no generator configured")
	}
	return f.Fn(prompt)
}

// Prompts returns every prompt seen so far.
func (f *FakeGenerator) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

// FakeSource is an in-memory playlist source.
type FakeSource struct {
	Playlists map[string][]models.TrackRef
	Summaries []models.PlaylistSummary
	Err       error
}

func (f *FakeSource) ListPlaylistItems(_ context.Context, playlistID string, limit int) ([]models.TrackRef, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	items, ok := f.Playlists[playlistID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return append([]models.TrackRef(nil), items...), nil
}

func (f *FakeSource) ListPlaylists(_ context.Context, limit int) ([]models.PlaylistSummary, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	out := f.Summaries
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites int, target io.Writer) *LimitedWriter {
	return &LimitedWriter{maxWrites: maxWrites, target: target}
}

// Lyrics builds n numbered lyric lines.
func Lyrics(prefix string, n int) string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("%s line %d", prefix, i+1)
	}
	return strings.Join(lines, "\n")
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if err == nil && !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}
