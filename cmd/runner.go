package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/melodymind/internal/lyrics"
	"github.com/desertthunder/melodymind/internal/matcher"
	"github.com/desertthunder/melodymind/internal/repositories"
	"github.com/desertthunder/melodymind/internal/services"
	"github.com/desertthunder/melodymind/internal/shared"
	"github.com/desertthunder/melodymind/internal/tasks"
	"github.com/desertthunder/melodymind/internal/trivia"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// DefaultSession is the session CLI commands act on unless --session is given.
const DefaultSession = "default"

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Collaborators left nil in [RunnerOpts] are built from the config on first use.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer

	source       services.Source
	destination  services.Destination
	provider     lyrics.Provider
	embedder     lyrics.Embedder
	generator    trivia.Generator
	store        lyrics.Store
	sourceTokens services.TokenStore
	destTokens   services.TokenStore
	status       tasks.StatusStore

	mu      sync.Mutex
	db      *sql.DB
	gemini  *services.GeminiClient
	closers []func() error
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer

	Source       services.Source
	Destination  services.Destination
	Provider     lyrics.Provider
	Embedder     lyrics.Embedder
	Generator    trivia.Generator
	Store        lyrics.Store
	SourceTokens services.TokenStore
	DestTokens   services.TokenStore
	Status       tasks.StatusStore
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:       opts.Config,
		configPath:   opts.ConfigPath,
		httpClient:   opts.HTTPClient,
		logger:       opts.Logger,
		output:       opts.Output,
		source:       opts.Source,
		destination:  opts.Destination,
		provider:     opts.Provider,
		embedder:     opts.Embedder,
		generator:    opts.Generator,
		store:        opts.Store,
		sourceTokens: opts.SourceTokens,
		destTokens:   opts.DestTokens,
		status:       opts.Status,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand, ingestCommand, quizCommand, transferCommand, authCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Close releases everything the runner opened.
func (r *Runner) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var first error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	r.closers = nil
	return first
}

func (r *Runner) onClose(fn func() error) {
	r.closers = append(r.closers, fn)
}

// database opens the configured database once.
func (r *Runner) database() (*sql.DB, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.db != nil {
		return r.db, nil
	}
	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, err
	}
	r.db = db
	r.onClose(db.Close)
	return db, nil
}

func (r *Runner) lyricStore() (lyrics.Store, error) {
	if r.store != nil {
		return r.store, nil
	}
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	r.store = repositories.NewChunkRepository(db)
	return r.store, nil
}

func (r *Runner) geminiClient(ctx context.Context) (*services.GeminiClient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.gemini != nil {
		return r.gemini, nil
	}
	client, err := services.NewGeminiClient(ctx, r.config.Credentials.Gemini, r.logger)
	if err != nil {
		return nil, err
	}
	r.gemini = client
	r.onClose(client.Close)
	return client, nil
}

func (r *Runner) lyricsEmbedder(ctx context.Context) (lyrics.Embedder, error) {
	if r.embedder != nil {
		return r.embedder, nil
	}
	client, err := r.geminiClient(ctx)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (r *Runner) questionGenerator(ctx context.Context) (trivia.Generator, error) {
	if r.generator != nil {
		return r.generator, nil
	}
	client, err := r.geminiClient(ctx)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (r *Runner) lyricsProvider() (lyrics.Provider, error) {
	if r.provider != nil {
		return r.provider, nil
	}
	token := r.config.Credentials.Genius.Token
	if token == "" {
		return nil, fmt.Errorf("%w: genius token (GENIUS_TOKEN)", shared.ErrMissingCredentials)
	}
	return services.NewGeniusProvider(token, "", r.httpClient), nil
}

func (r *Runner) ingester(ctx context.Context) (*lyrics.Ingester, error) {
	store, err := r.lyricStore()
	if err != nil {
		return nil, err
	}
	provider, err := r.lyricsProvider()
	if err != nil {
		return nil, err
	}
	embedder, err := r.lyricsEmbedder(ctx)
	if err != nil {
		return nil, err
	}
	return lyrics.NewIngester(store, provider, embedder, r.logger), nil
}

// quizEngine wires ingestion and batch generation for the given question count.
func (r *Runner) quizEngine(ctx context.Context, source services.Source, questions int) (*trivia.QuizEngine, error) {
	ing, err := r.ingester(ctx)
	if err != nil {
		return nil, err
	}
	gen, err := r.questionGenerator(ctx)
	if err != nil {
		return nil, err
	}
	store, err := r.lyricStore()
	if err != nil {
		return nil, err
	}

	cfg := r.config.Quiz
	if questions > 0 {
		cfg.Questions = questions
	}
	batch := trivia.NewOrchestrator(store, gen, trivia.WithLogger(r.logger))
	return trivia.NewQuizEngine(source, ing, batch, cfg, r.logger), nil
}

func (r *Runner) spotifyAuth() (*services.SpotifyAuth, error) {
	return services.NewSpotifyAuth(r.config.Credentials.Spotify)
}

func (r *Runner) sourceTokenStore() (services.TokenStore, error) {
	if r.sourceTokens != nil {
		return r.sourceTokens, nil
	}
	path, err := r.config.SpotifyTokenPath()
	if err != nil {
		return nil, err
	}
	r.sourceTokens = services.NewFileTokenStore(path)
	return r.sourceTokens, nil
}

func (r *Runner) destTokenStore() (services.TokenStore, error) {
	if r.destTokens != nil {
		return r.destTokens, nil
	}
	path, err := r.config.TokenPath()
	if err != nil {
		return nil, err
	}
	r.destTokens = services.NewFileTokenStore(path)
	return r.destTokens, nil
}

// sourceFor opens the source service with the session's stored token.
func (r *Runner) sourceFor(ctx context.Context, session string) (services.Source, error) {
	if r.source != nil {
		return r.source, nil
	}
	auth, err := r.spotifyAuth()
	if err != nil {
		return nil, err
	}
	tokens, err := r.sourceTokenStore()
	if err != nil {
		return nil, err
	}
	tok, err := tokens.Load(session)
	if err != nil {
		return nil, fmt.Errorf("%w: run 'melodymind auth spotify' first", err)
	}
	return auth.Source(ctx, tok), nil
}

func (r *Runner) googleOAuth() (*oauth2.Config, error) {
	return services.GoogleOAuthConfig(r.config.Credentials.Google)
}

func (r *Runner) dest() (services.Destination, error) {
	if r.destination != nil {
		return r.destination, nil
	}
	oauth, err := r.googleOAuth()
	if err != nil {
		return nil, err
	}
	r.destination = services.NewYouTubeMusic(r.config.YouTube.ProxyURL, oauth)
	return r.destination, nil
}

// statusStore returns the configured status backend.
func (r *Runner) statusStore(ctx context.Context) (tasks.StatusStore, error) {
	if r.status != nil {
		return r.status, nil
	}
	switch r.config.Status.Backend {
	case "", "memory":
		r.status = tasks.NewMemoryStatusStore()
	case "redis":
		store, err := tasks.DialRedisStatusStore(ctx, r.config.Status)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.onClose(store.Close)
		r.mu.Unlock()
		r.status = store
	default:
		return nil, fmt.Errorf("%w: status backend %q", shared.ErrInvalidConfig, r.config.Status.Backend)
	}
	return r.status, nil
}

func (r *Runner) matcher() (*matcher.Matcher, error) {
	scorer, err := matcher.NewScorer(r.config.Transfer.Strategy)
	if err != nil {
		return nil, err
	}
	return matcher.New(scorer,
		matcher.WithThreshold(r.config.Transfer.Threshold),
		matcher.WithWindow(r.config.Transfer.Window),
	), nil
}

// supervisor builds the transfer supervisor. History and the match cache need the database.
func (r *Runner) supervisor(ctx context.Context) (*tasks.Supervisor, error) {
	dest, err := r.dest()
	if err != nil {
		return nil, err
	}
	tokens, err := r.destTokenStore()
	if err != nil {
		return nil, err
	}
	m, err := r.matcher()
	if err != nil {
		return nil, err
	}
	status, err := r.statusStore(ctx)
	if err != nil {
		return nil, err
	}

	engine := tasks.NewTransferer(dest, tokens, m, r.config.Transfer, r.logger)

	var recorder tasks.Recorder
	if db, err := r.database(); err != nil {
		r.logger.Warn("transfer history disabled", "error", err)
	} else {
		recorder = repositories.NewTransferRepository(db)
		engine.WithMatchCache(repositories.NewMatchCacheRepository(db))
	}

	return tasks.NewSupervisor(engine, status, recorder, r.logger), nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
