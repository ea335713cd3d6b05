package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/melodymind/internal/models"
	"github.com/desertthunder/melodymind/internal/shared"
	"github.com/google/uuid"
)

// Recorder persists finished transfers.
type Recorder interface {
	Record(ctx context.Context, rec *models.TransferRecord) error
}

// Task is a running or finished transfer.
type Task struct {
	ID      string
	Session string

	cancel context.CancelFunc
	done   chan struct{}
	result *Result
	err    error
}

// Done is closed when the transfer has finished.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Result returns the outcome once [Task.Done] is closed, or nil and [shared.ErrTransferInProgress] before.
func (t *Task) Result() (*Result, error) {
	select {
	case <-t.done:
		return t.result, t.err
	default:
		return nil, shared.ErrTransferInProgress
	}
}

// Wait blocks until the transfer finishes or ctx ends.
func (t *Task) Wait(ctx context.Context) (*Result, error) {
	select {
	case <-t.done:
		return t.result, t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Cancel asks the transfer to stop before its next track.
func (t *Task) Cancel() {
	t.cancel()
}

func (t *Task) running() bool {
	select {
	case <-t.done:
		return false
	default:
		return true
	}
}

// Supervisor owns background transfers, one per session.
type Supervisor struct {
	engine   *Transferer
	status   StatusStore
	recorder Recorder
	logger   *log.Logger

	mu    sync.Mutex
	tasks map[string]*Task
	wg    sync.WaitGroup
}

// NewSupervisor creates a supervisor. recorder may be nil.
func NewSupervisor(engine *Transferer, status StatusStore, recorder Recorder, logger *log.Logger) *Supervisor {
	return &Supervisor{
		engine:   engine,
		status:   status,
		recorder: recorder,
		logger:   shared.WithLogger(logger, "component", "supervisor"),
		tasks:    make(map[string]*Task),
	}
}

// Start launches a transfer for req.Session and returns immediately.
//
// The transfer outlives ctx's cancellation but keeps its values. The status is processing
// before Start returns. A session with a running transfer gets [shared.ErrTransferInProgress].
func (s *Supervisor) Start(ctx context.Context, req Request, progress chan<- ProgressUpdate) (*Task, error) {
	if req.PlaylistName == "" {
		return nil, fmt.Errorf("%w: playlist name", shared.ErrMissingArgument)
	}
	if req.Session == "" {
		req.Session = "default"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.tasks[req.Session]; ok && prev.running() {
		return nil, fmt.Errorf("%w: session %s", shared.ErrTransferInProgress, req.Session)
	}

	if err := s.status.Set(ctx, req.Session, InitialStatus(len(req.Tracks))); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	task := &Task{
		ID:      uuid.NewString(),
		Session: req.Session,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	s.tasks[req.Session] = task

	s.logger.Info("starting transfer", "task", task.ID, "session", req.Session, "tracks", len(req.Tracks))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()

		res, err := s.engine.Run(runCtx, s.status, req, progress)
		s.record(task, req, res, err)

		task.result, task.err = res, err
		close(task.done)
	}()

	return task, nil
}

// Status returns the session's current status.
func (s *Supervisor) Status(ctx context.Context, session string) (models.TransferStatus, error) {
	return s.status.Get(ctx, session)
}

// Task returns the most recent task for session.
func (s *Supervisor) Task(session string) (*Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[session]
	return t, ok
}

// Running reports whether session has a transfer in flight.
func (s *Supervisor) Running(session string) bool {
	t, ok := s.Task(session)
	return ok && t.running()
}

// Cancel stops the running transfer for session.
func (s *Supervisor) Cancel(session string) error {
	t, ok := s.Task(session)
	if !ok || !t.running() {
		return fmt.Errorf("%w: no running transfer for session %s", shared.ErrTransferNotFound, session)
	}
	t.Cancel()
	return nil
}

// Wait blocks until every started transfer has finished.
func (s *Supervisor) Wait() {
	s.wg.Wait()
}

// Shutdown cancels all transfers and waits for them, up to ctx.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	for _, t := range s.tasks {
		t.Cancel()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Supervisor) record(task *Task, req Request, res *Result, runErr error) {
	if s.recorder == nil || res == nil {
		return
	}

	finished := res.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	rec := &models.TransferRecord{
		ID:                    task.ID,
		SessionID:             req.Session,
		PlaylistName:          req.PlaylistName,
		DestinationPlaylistID: res.PlaylistID,
		Status:                models.StatusCompleted,
		TracksTotal:           res.Total,
		TracksMatched:         res.Matched,
		TracksSkipped:         res.Skipped,
		StartedAt:             res.StartedAt,
		CompletedAt:           &finished,
	}
	if runErr != nil {
		rec.Status = models.StatusError
		rec.ErrorMessage = runErr.Error()
		if errors.Is(runErr, shared.ErrAuthExpired) {
			rec.ErrorMessage = AuthExpiredCode
		}
	}

	if err := s.recorder.Record(context.Background(), rec); err != nil {
		s.logger.Error("failed to record transfer", "task", task.ID, "error", err)
	}
}
