package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/melodymind/internal/models"
	"github.com/desertthunder/melodymind/internal/services"
	"github.com/desertthunder/melodymind/internal/shared"
	"github.com/desertthunder/melodymind/internal/tasks"
	"github.com/thanhpk/randstr"
	"golang.org/x/oauth2"
)

// PlaylistsLimit caps the playlists listed by GET /playlists.
const PlaylistsLimit = 30

// SourceAuth runs the OAuth flow of the source service and opens clients for its tokens.
type SourceAuth interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	Source(ctx context.Context, token *oauth2.Token) services.Source
}

// QuizPreparer ingests a playlist sample and builds a question batch.
type QuizPreparer interface {
	PrepareQuizFrom(ctx context.Context, source services.Source, playlistID string) ([]models.QuizQuestion, []models.TrackRef, error)
}

// APIConfig collects the collaborators of [API].
type APIConfig struct {
	SourceAuth   SourceAuth
	Google       *oauth2.Config
	SourceTokens services.TokenStore
	DestTokens   services.TokenStore
	Quiz         QuizPreparer
	Transfers    *tasks.Supervisor
	Logger       *log.Logger
}

// API serves the browser-facing JSON endpoints.
type API struct {
	APIConfig

	mu     sync.Mutex
	states map[string]string
}

type playlistRequest struct {
	PlaylistID   string `json:"playlist_id"`
	PlaylistName string `json:"playlist_name"`
}

type quizResponse struct {
	Quiz       []models.QuizQuestion `json:"quiz"`
	Mode       string                `json:"mode"`
	TransferID string                `json:"transfer_id,omitempty"`
}

type errorBody struct {
	Detail string `json:"detail"`
}

// NewAPI creates an [API]. Nil token stores fall back to in-memory maps.
func NewAPI(cfg APIConfig) *API {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.SourceTokens == nil {
		cfg.SourceTokens = newMemoryTokens()
	}
	if cfg.DestTokens == nil {
		cfg.DestTokens = newMemoryTokens()
	}
	return &API{APIConfig: cfg, states: make(map[string]string)}
}

// Register adds every endpoint to r.
func (a *API) Register(r Router) {
	r.Handle(http.MethodGet, "/login", http.HandlerFunc(a.login))
	r.Handle(http.MethodGet, "/callback", http.HandlerFunc(a.callback))
	r.Handle(http.MethodGet, "/login_google", http.HandlerFunc(a.loginGoogle))
	r.Handle(http.MethodGet, "/google_callback", http.HandlerFunc(a.googleCallback))
	r.Handle(http.MethodGet, "/playlists", http.HandlerFunc(a.playlists))
	r.Handle(http.MethodPost, "/start_transfer", http.HandlerFunc(a.startTransfer))
	r.Handle(http.MethodPost, "/start_trivia", http.HandlerFunc(a.startTrivia))
	r.Handle(http.MethodGet, "/transfer_status", http.HandlerFunc(a.transferStatus))
	r.Handle(http.MethodPost, "/transfer_cancel", http.HandlerFunc(a.transferCancel))
}

// NewRouter builds the full middleware stack around a.
func NewRouter(a *API, origins []string) *BasicRouter {
	r := NewBasicRouter()
	r.Use(Recover(a.Logger), Logging(a.Logger), CORS(origins), Sessions())
	a.Register(r)
	return r
}

func (a *API) newState(session string) string {
	state := randState()
	a.mu.Lock()
	a.states[state] = session
	a.mu.Unlock()
	return state
}

func randState() string {
	return randstr.Hex(16)
}

// takeState consumes state and returns the session that issued it.
func (a *API) takeState(state string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	session, ok := a.states[state]
	if ok {
		delete(a.states, state)
	}
	return session, ok
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	if a.SourceAuth == nil {
		writeError(w, fmt.Errorf("%w: spotify", shared.ErrMissingCredentials))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": a.SourceAuth.AuthURL(a.newState(Session(r.Context())))})
}

func (a *API) callback(w http.ResponseWriter, r *http.Request) {
	if a.SourceAuth == nil {
		writeError(w, fmt.Errorf("%w: spotify", shared.ErrMissingCredentials))
		return
	}
	session, code, err := a.callbackParams(r)
	if err != nil {
		writeError(w, err)
		return
	}
	tok, err := a.SourceAuth.Exchange(r.Context(), code)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := a.SourceTokens.Save(session, tok); err != nil {
		writeError(w, err)
		return
	}
	a.Logger.Info("spotify login", "session", session)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Login successful. Close this window."})
}

func (a *API) loginGoogle(w http.ResponseWriter, r *http.Request) {
	if a.Google == nil {
		writeError(w, fmt.Errorf("%w: google", shared.ErrMissingCredentials))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": services.GoogleAuthURL(a.Google, a.newState(Session(r.Context())))})
}

func (a *API) googleCallback(w http.ResponseWriter, r *http.Request) {
	if a.Google == nil {
		writeError(w, fmt.Errorf("%w: google", shared.ErrMissingCredentials))
		return
	}
	session, code, err := a.callbackParams(r)
	if err != nil {
		writeError(w, err)
		return
	}
	tok, err := a.Google.Exchange(r.Context(), code)
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err))
		return
	}
	if err := a.DestTokens.Save(session, tok); err != nil {
		writeError(w, err)
		return
	}
	a.Logger.Info("google login", "session", session)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, closePopupPage)
}

func (a *API) callbackParams(r *http.Request) (session, code string, err error) {
	q := r.URL.Query()
	session, ok := a.takeState(q.Get("state"))
	if !ok {
		return "", "", fmt.Errorf("%w: unknown state", shared.ErrInvalidArgument)
	}
	code = q.Get("code")
	if code == "" {
		return "", "", fmt.Errorf("%w: %s %s", shared.ErrAuthFailed, q.Get("error"), q.Get("error_description"))
	}
	return session, code, nil
}

// source opens a source client for the request's session.
func (a *API) source(r *http.Request) (services.Source, error) {
	if a.SourceAuth == nil {
		return nil, fmt.Errorf("%w: spotify", shared.ErrMissingCredentials)
	}
	tok, err := a.SourceTokens.Load(Session(r.Context()))
	if err != nil {
		return nil, err
	}
	return a.SourceAuth.Source(r.Context(), tok), nil
}

func (a *API) playlists(w http.ResponseWriter, r *http.Request) {
	src, err := a.source(r)
	if err != nil {
		writeError(w, err)
		return
	}
	lists, err := src.ListPlaylists(r.Context(), PlaylistsLimit)
	if err != nil {
		writeError(w, err)
		return
	}
	if lists == nil {
		lists = []models.PlaylistSummary{}
	}
	writeJSON(w, http.StatusOK, lists)
}

func (a *API) prepare(r *http.Request, needName bool) (services.Source, playlistRequest, []models.QuizQuestion, error) {
	var req playlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, req, nil, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	req.PlaylistID = strings.TrimSpace(req.PlaylistID)
	if req.PlaylistID == "" {
		return nil, req, nil, fmt.Errorf("%w: playlist_id", shared.ErrMissingArgument)
	}
	if needName && strings.TrimSpace(req.PlaylistName) == "" {
		return nil, req, nil, fmt.Errorf("%w: playlist_name", shared.ErrMissingArgument)
	}
	if a.Quiz == nil {
		return nil, req, nil, fmt.Errorf("%w: quiz engine", shared.ErrServiceUnavailable)
	}
	src, err := a.source(r)
	if err != nil {
		return nil, req, nil, err
	}
	quiz, _, err := a.Quiz.PrepareQuizFrom(r.Context(), src, req.PlaylistID)
	if err != nil {
		return nil, req, nil, err
	}
	if quiz == nil {
		quiz = []models.QuizQuestion{}
	}
	return src, req, quiz, nil
}

func (a *API) startTrivia(w http.ResponseWriter, r *http.Request) {
	_, _, quiz, err := a.prepare(r, false)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quizResponse{Quiz: quiz, Mode: "trivia"})
}

func (a *API) startTransfer(w http.ResponseWriter, r *http.Request) {
	if a.Transfers == nil {
		writeError(w, fmt.Errorf("%w: transfers disabled", shared.ErrServiceUnavailable))
		return
	}
	if session := Session(r.Context()); a.Transfers.Running(session) {
		writeError(w, fmt.Errorf("%w: session %s", shared.ErrTransferInProgress, session))
		return
	}
	src, req, quiz, err := a.prepare(r, true)
	if err != nil {
		writeError(w, err)
		return
	}
	tracks, err := src.ListPlaylistItems(r.Context(), req.PlaylistID, 0)
	if err != nil {
		writeError(w, err)
		return
	}
	task, err := a.Transfers.Start(r.Context(), tasks.Request{
		Session:      Session(r.Context()),
		PlaylistName: req.PlaylistName,
		Tracks:       tracks,
	}, nil)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quizResponse{Quiz: quiz, Mode: "transfer", TransferID: task.ID})
}

func (a *API) transferStatus(w http.ResponseWriter, r *http.Request) {
	if a.Transfers == nil {
		writeJSON(w, http.StatusOK, models.IdleStatus())
		return
	}
	status, err := a.Transfers.Status(r.Context(), Session(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (a *API) transferCancel(w http.ResponseWriter, r *http.Request) {
	if a.Transfers == nil {
		writeError(w, fmt.Errorf("%w: transfers disabled", shared.ErrTransferNotFound))
		return
	}
	if err := a.Transfers.Cancel(Session(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Transfer cancelled."})
}

// StatusCode maps a domain error to an HTTP status.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, shared.ErrNotAuthenticated), errors.Is(err, shared.ErrAuthExpired), errors.Is(err, shared.ErrAuthFailed):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrMissingArgument), errors.Is(err, shared.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrPlaylistNotFound), errors.Is(err, shared.ErrTransferNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrTransferInProgress):
		return http.StatusConflict
	case errors.Is(err, shared.ErrMissingCredentials), errors.Is(err, shared.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, shared.ErrAPIRequest):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, StatusCode(err), errorBody{Detail: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type memoryTokens struct {
	mu     sync.Mutex
	tokens map[string]*oauth2.Token
}

func newMemoryTokens() *memoryTokens {
	return &memoryTokens{tokens: make(map[string]*oauth2.Token)}
}

func (m *memoryTokens) Load(session string) (*oauth2.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tok, ok := m.tokens[session]
	if !ok {
		return nil, fmt.Errorf("%w: session %q", shared.ErrNotAuthenticated, session)
	}
	return tok, nil
}

func (m *memoryTokens) Save(session string, token *oauth2.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[session] = token
	return nil
}

const closePopupPage = `<!DOCTYPE html>
<html>
<head><title>MelodyMind</title></head>
<body>
<p>Login successful. You can close this window.</p>
<script>window.close();</script>
</body>
</html>
`
