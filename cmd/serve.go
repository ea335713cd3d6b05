package main

import (
	"context"
	"time"

	"github.com/desertthunder/melodymind/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP API until interrupted.
//
// Collaborators whose credentials are missing are left out and their endpoints answer 503.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Server
	if host := cmd.String("host"); host != "" {
		cfg.Host = host
	}
	if port := cmd.Int("port"); port > 0 {
		cfg.Port = port
	}

	api, err := r.buildAPI(ctx)
	if err != nil {
		return err
	}
	if api.Transfers != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()
			if err := api.Transfers.Shutdown(shutdownCtx); err != nil {
				r.logger.Warn("transfers still running at shutdown", "error", err)
			}
		}()
	}

	srv := server.NewHTTPServer(cfg, server.NewRouter(api, cfg.AllowedOrigins))
	return server.ListenAndServe(ctx, srv, r.logger)
}

func (r *Runner) buildAPI(ctx context.Context) (*server.API, error) {
	sourceTokens, err := r.sourceTokenStore()
	if err != nil {
		return nil, err
	}
	destTokens, err := r.destTokenStore()
	if err != nil {
		return nil, err
	}

	cfg := server.APIConfig{
		SourceTokens: sourceTokens,
		DestTokens:   destTokens,
		Logger:       r.logger,
	}

	if auth, err := r.spotifyAuth(); err != nil {
		r.logger.Warn("spotify login disabled", "error", err)
	} else {
		cfg.SourceAuth = auth
	}

	if google, err := r.googleOAuth(); err != nil {
		r.logger.Warn("google login disabled", "error", err)
	} else {
		cfg.Google = google
	}

	if sup, err := r.supervisor(ctx); err != nil {
		r.logger.Warn("transfers disabled", "error", err)
	} else {
		cfg.Transfers = sup
	}

	if engine, err := r.quizEngine(ctx, nil, 0); err != nil {
		r.logger.Warn("quiz generation disabled", "error", err)
	} else {
		cfg.Quiz = engine
	}

	return server.NewAPI(cfg), nil
}
