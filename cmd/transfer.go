package main

import (
	"context"
	"sync"

	"github.com/desertthunder/melodymind/internal/models"
	"github.com/desertthunder/melodymind/internal/repositories"
	"github.com/desertthunder/melodymind/internal/tasks"
	"github.com/urfave/cli/v3"
)

// TransferRun copies a Spotify playlist into a new YouTube Music playlist.
func (r *Runner) TransferRun(ctx context.Context, cmd *cli.Command) error {
	session := cmd.String("session")
	playlistID := cmd.String("playlist")
	name := cmd.String("name")

	source, err := r.sourceFor(ctx, session)
	if err != nil {
		return err
	}
	sup, err := r.supervisor(ctx)
	if err != nil {
		return err
	}

	tracks, err := source.ListPlaylistItems(ctx, playlistID, 0)
	if err != nil {
		return err
	}

	r.logger.Info("starting transfer", "playlist", playlistID, "name", name, "tracks", len(tracks))
	r.writePlain("Starting playlist transfer...\n")
	r.writePlain("Source: %s (%d tracks)\n", playlistID, len(tracks))
	r.writePlain("Destination: %s\n\n", name)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progressCh {
			switch update.Phase {
			case tasks.Authenticate:
				r.writePlain("🔑 %s\n", update.Message)
			case tasks.CreatePlaylist:
				r.writePlain("📝 %s\n", update.Message)
			case tasks.SearchTracks:
				r.writePlain("   %s\n", update.Message)
			case tasks.AddTracks:
				r.writePlain("➕ %s\n", update.Message)
			case tasks.Failed:
				r.writePlain("✗ %s\n", update.Message)
			}
		}
	}()

	task, err := sup.Start(ctx, tasks.Request{Session: session, PlaylistName: name, Tracks: tracks}, progressCh)
	if err != nil {
		close(progressCh)
		wg.Wait()
		return err
	}

	result, err := task.Wait(ctx)
	if err != nil && ctx.Err() != nil {
		r.logger.Warn("interrupted, cancelling transfer", "task", task.ID)
		task.Cancel()
		result, err = task.Wait(context.WithoutCancel(ctx))
	}
	close(progressCh)
	wg.Wait()
	sup.Wait()

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Transfer Complete!")
	r.writePlain("Playlist: %s (ID: %s)\n", name, result.PlaylistID)
	r.writePlain("Matched: %d/%d", result.Matched, result.Total)
	if result.Total > 0 {
		r.writePlain(" (%.1f%%)", float64(result.Matched)*100/float64(result.Total))
	}
	r.writePlain("\n")
	if result.Skipped > 0 {
		r.writePlain("Skipped: %d tracks with no confident match\n", result.Skipped)
	}
	return nil
}

// TransferStatus prints the stored status record of a session.
func (r *Runner) TransferStatus(ctx context.Context, cmd *cli.Command) error {
	store, err := r.statusStore(ctx)
	if err != nil {
		return err
	}
	status, err := store.Get(ctx, cmd.String("session"))
	if err != nil {
		return err
	}
	return r.writeJSON(status, cmd.Bool("pretty"))
}

// TransferHistory lists recorded transfers, newest first.
func (r *Runner) TransferHistory(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return err
	}
	records, err := repositories.NewTransferRepository(db).List(ctx, cmd.String("session"), cmd.Int("limit"))
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return r.writePlain("No transfers recorded.\n")
	}

	r.writePlain("Found %d transfers:\n\n", len(records))
	for i, rec := range records {
		r.writePlain("%d. %s [%s]\n", i+1, rec.PlaylistName, rec.Status)
		r.writePlain("   ID: %s\n", rec.ID)
		r.writePlain("   Session: %s\n", rec.SessionID)
		r.writePlain("   Tracks: %d matched, %d skipped of %d\n", rec.TracksMatched, rec.TracksSkipped, rec.TracksTotal)
		if rec.DestinationPlaylistID != "" {
			r.writePlain("   Playlist ID: %s\n", rec.DestinationPlaylistID)
		}
		if rec.Status == models.StatusError && rec.ErrorMessage != "" {
			r.writePlain("   Error: %s\n", rec.ErrorMessage)
		}
		r.writePlain("   Started: %s\n", rec.StartedAt.Format("2006-01-02 15:04:05"))
		r.writePlain("\n")
	}
	return nil
}
