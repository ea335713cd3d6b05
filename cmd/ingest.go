package main

import (
	"context"
	"errors"

	"github.com/desertthunder/melodymind/internal/shared"
	"github.com/urfave/cli/v3"
)

// Ingest adds one song's lyrics to the lyric store.
func (r *Runner) Ingest(ctx context.Context, cmd *cli.Command) error {
	artist, title := cmd.String("artist"), cmd.String("title")

	ing, err := r.ingester(ctx)
	if err != nil {
		return err
	}

	r.logger.Info("ingesting song", "artist", artist, "title", title, "force", cmd.Bool("force"))
	ingest := ing.Ingest
	if cmd.Bool("force") {
		ingest = ing.Reingest
	}
	added, err := ingest(ctx, artist, title)
	switch {
	case errors.Is(err, shared.ErrLyricsNotFound):
		return r.writePlain("✗ No lyrics found for %s\n", shared.SongLabel(title, artist))
	case err != nil:
		return err
	case !added:
		return r.writePlain("✗ %s was not ingested\n", shared.SongLabel(title, artist))
	}
	return r.writePlain("✓ Ingested %s\n", shared.SongLabel(title, artist))
}
