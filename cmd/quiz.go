package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/melodymind/internal/formatter"
	"github.com/desertthunder/melodymind/internal/models"
	"github.com/desertthunder/melodymind/internal/services"
	"github.com/urfave/cli/v3"
)

// Quiz prepares a trivia quiz for a playlist and exports it.
func (r *Runner) Quiz(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.String("playlist")
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	source, err := r.sourceFor(ctx, cmd.String("session"))
	if err != nil {
		return err
	}
	engine, err := r.quizEngine(ctx, source, cmd.Int("questions"))
	if err != nil {
		return err
	}

	r.logger.Info("preparing quiz", "playlist", playlistID)
	questions, tracks, err := engine.PrepareQuiz(ctx, playlistID)
	if err != nil {
		return err
	}

	quiz := &formatter.Quiz{PlaylistID: playlistID, Tracks: tracks, Questions: questions}
	if summary, ok := r.findPlaylist(ctx, source, playlistID); ok {
		quiz.PlaylistName, quiz.Image = summary.Name, summary.Image
	}

	if len(questions) == 0 {
		r.logger.Warn("no questions generated", "playlist", playlistID, "tracks", len(tracks))
	}

	if cmd.Bool("print") {
		data, err := formatter.Render(format, quiz)
		if err != nil {
			return err
		}
		if _, err := r.output.Write(data); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	if format == formatter.Markdown && quiz.Image != "" {
		res, err := formatter.WriteMarkdownExport(quiz, cmd.String("output"), r.output)
		if err != nil {
			return err
		}
		r.writePlain("✓ %d questions written to %s\n", len(questions), res.Directory)
		for _, f := range res.Files {
			r.writePlain("  %s\n", f)
		}
		return nil
	}

	path, err := formatter.WriteExport(quiz, format, cmd.String("output"))
	if err != nil {
		return err
	}
	return r.writePlain("✓ %d questions written to %s\n", len(questions), path)
}

// findPlaylist looks up a playlist's display data among the user's playlists.
func (r *Runner) findPlaylist(ctx context.Context, source services.Source, id string) (models.PlaylistSummary, bool) {
	lists, err := source.ListPlaylists(ctx, 50)
	if err != nil {
		r.logger.Debug("playlist lookup failed", "error", err)
		return models.PlaylistSummary{}, false
	}
	for _, p := range lists {
		if p.ID == id {
			return p, true
		}
	}
	return models.PlaylistSummary{}, false
}
