package tasks

import (
	"fmt"

	"github.com/desertthunder/melodymind/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	Authenticate Phase = iota
	CreatePlaylist
	SearchTracks
	AddTracks
	Complete
	Failed
)

func (p Phase) String() string {
	switch p {
	case Authenticate:
		return "authenticate"
	case CreatePlaylist:
		return "create_playlist"
	case SearchTracks:
		return "search_tracks"
	case AddTracks:
		return "add_tracks"
	case Complete:
		return "complete"
	case Failed:
		return "failed"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func authenticateUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Authenticate,
		Step:    0,
		Total:   total,
		Message: "Checking YouTube Music login...",
	}
}

func createPlaylistUpdate(name, id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist created: %s (ID: %s)", name, id),
		Data:    id,
	}
}

func searchTrackUpdate(step, total int, tr models.TrackRef, matched bool) ProgressUpdate {
	mark := "✓"
	if !matched {
		mark = "✗"
	}
	return ProgressUpdate{
		Phase:   SearchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s - %s", step, total, mark, tr.Artist, tr.Title),
		Data:    tr,
	}
}

func addTracksUpdate(step, total, size int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Adding %d tracks...", step, total, size),
	}
}

func completeUpdate(result *Result) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Complete,
		Step:    result.Matched,
		Total:   result.Total,
		Message: fmt.Sprintf("Transferred %d of %d tracks (%d skipped)", result.Matched, result.Total, result.Skipped),
		Data:    result,
	}
}

func failedUpdate(err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Failed,
		Message: fmt.Sprintf("Transfer failed: %v", err),
	}
}
