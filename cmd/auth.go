package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/desertthunder/melodymind/internal/server"
	"github.com/desertthunder/melodymind/internal/services"
	"github.com/desertthunder/melodymind/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const authTimeout = 2 * time.Minute

// AuthGoogle runs the Google consent flow and stores the destination token bundle.
func (r *Runner) AuthGoogle(ctx context.Context, cmd *cli.Command) error {
	session := cmd.String("session")

	oauth, err := r.googleOAuth()
	if err != nil {
		return err
	}
	tokens, err := r.destTokenStore()
	if err != nil {
		return err
	}

	exchange := func(ctx context.Context, code string) (*oauth2.Token, error) {
		return oauth.Exchange(ctx, code)
	}
	state := server.NewState()
	token, err := r.doOAuth(ctx, "YouTube Music", oauth.RedirectURL, services.GoogleAuthURL(oauth, state), state, exchange)
	if err != nil {
		return err
	}
	if err := tokens.Save(session, token); err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ YouTube Music token saved for session %s\n\n", session)
	r.writePlain("You can now use: melodymind transfer run --playlist <id> --name <title>\n")
	return nil
}

// AuthSpotify runs the Spotify consent flow and stores the source token.
func (r *Runner) AuthSpotify(ctx context.Context, cmd *cli.Command) error {
	session := cmd.String("session")

	auth, err := r.spotifyAuth()
	if err != nil {
		return err
	}
	tokens, err := r.sourceTokenStore()
	if err != nil {
		return err
	}

	state := server.NewState()
	token, err := r.doOAuth(ctx, "Spotify", r.config.Credentials.Spotify.RedirectURI, auth.AuthURL(state), state, auth.Exchange)
	if err != nil {
		return err
	}
	if err := tokens.Save(session, token); err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Spotify token saved for session %s\n\n", session)
	r.writePlain("You can now use: melodymind quiz --playlist <id>\n")
	return nil
}

// doOAuth serves the redirect URI locally, opens the consent page and waits for the callback.
func (r *Runner) doOAuth(ctx context.Context, service, redirectURI, authURL, state string, exchange server.ExchangeFunc) (*oauth2.Token, error) {
	redirect, err := url.Parse(redirectURI)
	if err != nil || redirect.Host == "" {
		return nil, fmt.Errorf("%w: redirect uri %q", shared.ErrInvalidConfig, redirectURI)
	}

	handler := server.NewOAuthHandler(redirect.Path, state, exchange)
	router := server.NewBasicRouter()
	router.Use(server.Recover(r.logger))
	router.Handler(handler)

	httpServer := &http.Server{
		Addr:              redirect.Host,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth server for %s at %v", service, httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	r.writePlain("→ Opening browser for %s authorization...\n", service)
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	waitCtx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	type outcome struct {
		token *oauth2.Token
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		tok, err := handler.Await(waitCtx)
		done <- outcome{tok, err}
	}()

	select {
	case err := <-serverErrors:
		return nil, fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	case out := <-done:
		return out.token, out.err
	}
}
