package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/melodymind/internal/matcher"
	"github.com/desertthunder/melodymind/internal/models"
	"github.com/desertthunder/melodymind/internal/services"
	"github.com/desertthunder/melodymind/internal/shared"
	"golang.org/x/time/rate"
)

const (
	// DefaultBatchSize is the most ids sent in one add-items call.
	DefaultBatchSize = 50

	DefaultDescription = "Transferred by MelodyMind"

	// AuthExpiredCode is the status error reported when the destination login is missing or stale.
	AuthExpiredCode = "AUTH_EXPIRED"

	msgInitializing = "Initializing..."
	msgFinalizing   = "Finalizing playlist..."
	msgDone         = "All songs added!"
)

// Request describes one transfer.
type Request struct {
	Session      string
	PlaylistName string
	Tracks       []models.TrackRef
}

// Result is the outcome of a finished transfer.
type Result struct {
	PlaylistID string
	Total      int
	Matched    int
	Skipped    int
	Status     models.TransferStatus
	StartedAt  time.Time
	FinishedAt time.Time
}

// MatchCache remembers destination ids of tracks resolved by earlier transfers.
type MatchCache interface {
	Lookup(ctx context.Context, title, artist string) (string, bool, error)
	Save(ctx context.Context, title, artist, externalID string) error
}

// Transferer runs the transfer state machine against a destination service.
type Transferer struct {
	dest      services.Destination
	tokens    services.TokenStore
	matcher   *matcher.Matcher
	limiter   *rate.Limiter
	cache     MatchCache
	batchSize int
	desc      string
	logger    *log.Logger
}

// NewTransferer creates a transferer. searchRate is in searches per second; zero or less disables limiting.
func NewTransferer(dest services.Destination, tokens services.TokenStore, m *matcher.Matcher, cfg shared.TransferConfig, logger *log.Logger) *Transferer {
	if m == nil {
		m = matcher.New(nil)
	}
	limit := rate.Inf
	if cfg.SearchRate > 0 {
		limit = rate.Limit(cfg.SearchRate)
	}
	t := &Transferer{
		dest:      dest,
		tokens:    tokens,
		matcher:   m,
		limiter:   rate.NewLimiter(limit, 1),
		batchSize: cfg.BatchSize,
		desc:      cfg.Description,
		logger:    shared.WithLogger(logger, "component", "transfer"),
	}
	if t.batchSize <= 0 {
		t.batchSize = DefaultBatchSize
	}
	if t.desc == "" {
		t.desc = DefaultDescription
	}
	return t
}

// WithMatchCache makes t consult and fill c before searching. Cache failures only log.
func (t *Transferer) WithMatchCache(c MatchCache) *Transferer {
	t.cache = c
	return t
}

// InitialStatus is the record published when a transfer of total tracks is accepted.
func InitialStatus(total int) models.TransferStatus {
	return models.TransferStatus{
		Status:      models.StatusProcessing,
		State:       models.StateAuthenticating,
		CurrentSong: msgInitializing,
		Progress:    0,
		Total:       total,
	}
}

// Run executes one transfer, publishing every transition to status.
//
// The returned error is nil only when the transfer completed. The result is always non-nil and
// carries the final status.
func (t *Transferer) Run(ctx context.Context, status StatusStore, req Request, progress chan<- ProgressUpdate) (*Result, error) {
	total := len(req.Tracks)
	res := &Result{Total: total, StartedAt: time.Now()}
	logger := shared.WithLogger(t.logger, "session", req.Session, "playlist", req.PlaylistName)

	// Status writes outlive cancellation so the terminal state is always published.
	statusCtx := context.WithoutCancel(ctx)

	fail := func(code string, cause error) (*Result, error) {
		res.FinishedAt = time.Now()
		err := status.Update(statusCtx, req.Session, func(s *models.TransferStatus) {
			s.Status = models.StatusError
			s.State = models.StateError
			s.Error = &code
		})
		if err != nil {
			logger.Error("failed to publish error status", "error", err)
		}
		res.Status, _ = status.Get(statusCtx, req.Session)
		logger.Error("transfer failed", "error", cause)
		sendProgress(progress, failedUpdate(cause))
		return res, cause
	}

	if err := status.Set(statusCtx, req.Session, InitialStatus(total)); err != nil {
		return res, err
	}
	sendProgress(progress, authenticateUpdate(total))

	sess, err := t.authenticate(ctx, req.Session)
	if err != nil {
		return fail(AuthExpiredCode, err)
	}

	playlistID, err := sess.CreatePlaylist(ctx, req.PlaylistName, t.desc)
	if err != nil {
		return fail(errorCode(err), err)
	}
	res.PlaylistID = playlistID
	logger.Info("playlist created", "id", playlistID, "tracks", total)
	sendProgress(progress, createPlaylistUpdate(req.PlaylistName, playlistID))

	if err := t.transition(statusCtx, status, req.Session, models.StatePlaylistCreated, ""); err != nil {
		return fail(errorCode(err), err)
	}

	ids := make([]string, 0, total)
	if total > 0 {
		if err := t.transition(statusCtx, status, req.Session, models.StateMatching, ""); err != nil {
			return fail(errorCode(err), err)
		}
	}

	for i, tr := range req.Tracks {
		if err := ctx.Err(); err != nil {
			return fail(shared.ErrTransferCancelled.Error(), fmt.Errorf("%w: %v", shared.ErrTransferCancelled, err))
		}

		id, err := t.resolve(ctx, sess, tr)
		if err != nil {
			if ctx.Err() != nil {
				return fail(shared.ErrTransferCancelled.Error(), fmt.Errorf("%w: %v", shared.ErrTransferCancelled, ctx.Err()))
			}
			res.Skipped++
			logger.Warn("skipping track", "track", tr.Label(), "error", err)
		} else {
			ids = append(ids, id)
			res.Matched++
			logger.Debug("matched track", "track", tr.Label(), "id", id)
		}
		sendProgress(progress, searchTrackUpdate(i+1, total, tr, err == nil))

		err = status.Update(statusCtx, req.Session, func(s *models.TransferStatus) {
			s.CurrentSong = tr.Label()
			s.Progress = i + 1
		})
		if err != nil {
			return fail(errorCode(err), err)
		}
	}

	if err := t.transition(statusCtx, status, req.Session, models.StateBatchAdding, msgFinalizing); err != nil {
		return fail(errorCode(err), err)
	}

	batches := Batch(ids, t.batchSize)
	for n, b := range batches {
		sendProgress(progress, addTracksUpdate(n+1, len(batches), len(b)))
		if err := sess.AddItems(ctx, playlistID, b); err != nil {
			return fail(errorCode(err), fmt.Errorf("add batch %d/%d: %w", n+1, len(batches), err))
		}
	}

	err = status.Update(statusCtx, req.Session, func(s *models.TransferStatus) {
		s.Status = models.StatusCompleted
		s.State = models.StateCompleted
		s.CurrentSong = msgDone
		s.Progress = total
		s.Error = nil
	})
	if err != nil {
		return fail(errorCode(err), err)
	}

	res.FinishedAt = time.Now()
	res.Status, _ = status.Get(statusCtx, req.Session)
	logger.Info("transfer completed", "matched", res.Matched, "skipped", res.Skipped, "batches", len(batches))
	sendProgress(progress, completeUpdate(res))
	return res, nil
}

func (t *Transferer) authenticate(ctx context.Context, session string) (services.DestinationSession, error) {
	tok, err := t.tokens.Load(session)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthExpired, err)
	}
	sess, err := t.dest.Authenticate(ctx, tok)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthExpired, err)
	}
	if err := sess.Probe(ctx); err != nil {
		if errors.Is(err, shared.ErrAuthExpired) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthExpired, err)
	}
	return sess, nil
}

// resolve searches for one track and picks a candidate.
func (t *Transferer) resolve(ctx context.Context, sess services.DestinationSession, tr models.TrackRef) (string, error) {
	if t.cache != nil {
		id, ok, err := t.cache.Lookup(ctx, tr.Title, tr.Artist)
		if err != nil {
			t.logger.Warn("match cache lookup failed", "track", tr.Label(), "error", err)
		} else if ok {
			return id, nil
		}
	}

	if err := t.limiter.Wait(ctx); err != nil {
		return "", err
	}
	candidates, err := sess.Search(ctx, tr.Label(), services.SearchFilterSongs)
	if err != nil {
		return "", err
	}
	id, err := t.matcher.BestMatch(candidates, tr.Title, tr.Artist)
	if err != nil {
		return "", err
	}

	if t.cache != nil {
		if err := t.cache.Save(ctx, tr.Title, tr.Artist, id); err != nil {
			t.logger.Warn("match cache save failed", "track", tr.Label(), "error", err)
		}
	}
	return id, nil
}

func (t *Transferer) transition(ctx context.Context, status StatusStore, session string, state models.TransferState, song string) error {
	t.logger.Info("transfer state", "session", session, "state", state)
	return status.Update(ctx, session, func(s *models.TransferStatus) {
		s.State = state
		if song != "" {
			s.CurrentSong = song
		}
	})
}

// Batch splits ids into consecutive chunks of at most size.
func Batch(ids []string, size int) [][]string {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var out [][]string
	for start := 0; start < len(ids); start += size {
		out = append(out, ids[start:min(start+size, len(ids))])
	}
	return out
}

func errorCode(err error) string {
	if errors.Is(err, shared.ErrAuthExpired) {
		return AuthExpiredCode
	}
	return err.Error()
}
