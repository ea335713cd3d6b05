package models

import (
	"fmt"
	"slices"
	"time"
)

// ChunkSize is the number of consecutive non-empty lyric lines in one chunk.
const ChunkSize = 4

// LyricChunk is an immutable window of lyric lines plus its embedding.
type LyricChunk struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	SongTitle string    `json:"song_title"`
	Artist    string    `json:"artist"`
	Offset    int       `json:"offset"`
	Embedding []float32 `json:"embedding,omitempty"`
}

// Track returns the song identity of the chunk.
func (c LyricChunk) Track() TrackRef {
	return TrackRef{Title: c.SongTitle, Artist: c.Artist}
}

// ChunkFilter narrows store reads. Empty fields match everything.
type ChunkFilter struct {
	SongTitle        string
	Artist           string
	ExcludeSongTitle string
}

// Matches reports whether c passes the filter.
func (f ChunkFilter) Matches(c LyricChunk) bool {
	if f.SongTitle != "" && c.SongTitle != f.SongTitle {
		return false
	}
	if f.Artist != "" && c.Artist != f.Artist {
		return false
	}
	if f.ExcludeSongTitle != "" && c.SongTitle == f.ExcludeSongTitle {
		return false
	}
	return true
}

// ScoredChunk is a nearest-neighbour hit ordered by descending similarity.
type ScoredChunk struct {
	Chunk LyricChunk
	Score float64
}

// TrackRef identifies a song by title and primary (first credited) artist.
type TrackRef struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

// Label renders "{title} by {artist}".
func (t TrackRef) Label() string {
	return t.Title + " by " + t.Artist
}

// Difficulty tiers a quiz question.
type Difficulty string

const (
	Normal Difficulty = "Normal"
	Hard   Difficulty = "Hard"
)

// OptionCount is the fixed number of answer options per question.
const OptionCount = 4

// QuizQuestion is one multiple-choice question.
type QuizQuestion struct {
	Question      string     `json:"question"`
	Options       []string   `json:"options"`
	CorrectAnswer string     `json:"correct_answer"`
	Explanation   string     `json:"explanation"`
	Difficulty    Difficulty `json:"difficulty"`
}

// Validate enforces exactly four options with the correct answer among them.
func (q QuizQuestion) Validate() error {
	if q.Question == "" {
		return fmt.Errorf("question text is empty")
	}
	if len(q.Options) != OptionCount {
		return fmt.Errorf("expected %d options, got %d", OptionCount, len(q.Options))
	}
	if !slices.Contains(q.Options, q.CorrectAnswer) {
		return fmt.Errorf("correct answer %q is not among the options", q.CorrectAnswer)
	}
	return nil
}

// MatchCandidate is one ranked result from a destination catalog search.
type MatchCandidate struct {
	ExternalID string   `json:"external_id"`
	Title      string   `json:"title"`
	Artists    []string `json:"artists"`
}

// PlaylistSummary is a source playlist as listed to the user.
type PlaylistSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// StatusKind is the coarse, client-visible transfer status.
type StatusKind string

const (
	StatusIdle       StatusKind = "idle"
	StatusProcessing StatusKind = "processing"
	StatusCompleted  StatusKind = "completed"
	StatusError      StatusKind = "error"
)

// Terminal reports whether no further updates will follow.
func (s StatusKind) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// TransferState is the fine-grained state machine position of a transfer.
type TransferState string

const (
	StateIdle            TransferState = "idle"
	StateAuthenticating  TransferState = "authenticating"
	StatePlaylistCreated TransferState = "playlist_created"
	StateMatching        TransferState = "matching"
	StateBatchAdding     TransferState = "batch_adding"
	StateCompleted       TransferState = "completed"
	StateError           TransferState = "error"
)

// TransferStatus is the per-session progress record read by pollers.
type TransferStatus struct {
	Status      StatusKind    `json:"status"`
	State       TransferState `json:"state,omitempty"`
	CurrentSong string        `json:"current_song,omitempty"`
	Progress    int           `json:"progress"`
	Total       int           `json:"total"`
	Error       *string       `json:"error,omitempty"`
	UpdatedAt   time.Time     `json:"updated_at,omitzero"`
}

// IdleStatus is the record reported before any transfer starts.
func IdleStatus() TransferStatus {
	return TransferStatus{Status: StatusIdle, State: StateIdle}
}

// ErrorMessage returns the error text or "".
func (s TransferStatus) ErrorMessage() string {
	if s.Error == nil {
		return ""
	}
	return *s.Error
}

// TransferRecord is the persisted outcome of one transfer.
type TransferRecord struct {
	ID                    string
	Sequence              int
	SessionID             string
	PlaylistName          string
	DestinationPlaylistID string
	Status                StatusKind
	TracksTotal           int
	TracksMatched         int
	TracksSkipped         int
	ErrorMessage          string
	StartedAt             time.Time
	CompletedAt           *time.Time
}

// Validate checks required fields before persistence.
func (r *TransferRecord) Validate() error {
	if r.SessionID == "" {
		return fmt.Errorf("session id is required")
	}
	if r.PlaylistName == "" {
		return fmt.Errorf("playlist name is required")
	}
	switch r.Status {
	case StatusProcessing, StatusCompleted, StatusError:
	default:
		return fmt.Errorf("invalid status %q", r.Status)
	}
	if r.TracksMatched+r.TracksSkipped > r.TracksTotal {
		return fmt.Errorf("matched (%d) + skipped (%d) exceeds total (%d)", r.TracksMatched, r.TracksSkipped, r.TracksTotal)
	}
	return nil
}
