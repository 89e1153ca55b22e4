package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/foxhole/internal/services"
	"github.com/desertthunder/foxhole/internal/shared"
	"github.com/desertthunder/foxhole/internal/tasks"
	"github.com/desertthunder/foxhole/internal/ui"
	"github.com/urfave/cli/v3"
)

// track starts a progress printer and returns the channel to hand to the engine plus a func
// that closes it and waits for the printer to drain.
func (r *Runner) track() (chan tasks.ProgressUpdate, func()) {
	progress := make(chan tasks.ProgressUpdate, 32)
	done := make(chan struct{})
	go r.printProgress(progress, ui.RenderProgress, done)
	return progress, func() {
		close(progress)
		<-done
	}
}

// Update runs one update cycle over the cached channels.
func (r *Runner) Update(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.playlistEngine(ctx)
	if err != nil {
		return err
	}

	opts := tasks.UpdateOptions{ChannelIDs: cmd.StringSlice("channel-ids")}
	if days := int(cmd.Int("days")); days < 0 {
		return fmt.Errorf("%w: --days must be positive", shared.ErrInvalidArgument)
	} else if days > 0 {
		opts.Window = time.Duration(days) * 24 * time.Hour
	}

	progress, wait := r.track()
	result, err := engine.Update(ctx, progress, opts)
	wait()

	r.writePlainln("%s", ui.RenderUpdate(result, err))
	return err
}

// Create builds playlists for the given channels.
func (r *Runner) Create(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.StringSlice("channel-ids")
	if len(ids) == 0 {
		return fmt.Errorf("%w: --channel-ids", shared.ErrMissingArgument)
	}
	return r.create(ctx, ids)
}

func (r *Runner) create(ctx context.Context, channelIDs []string) error {
	engine, err := r.playlistEngine(ctx)
	if err != nil {
		return err
	}

	progress, wait := r.track()
	result, err := engine.CreatePlaylists(ctx, progress, channelIDs)
	wait()

	r.writePlainln("%s", ui.RenderCreate(result, err))
	return err
}

// Discover searches for new channels and optionally creates their playlists right away.
func (r *Runner) Discover(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.playlistEngine(ctx)
	if err != nil {
		return err
	}

	progress, wait := r.track()
	hits, err := engine.Discover(ctx, progress, int(cmd.Int("max-results")), cmd.StringSlice("additional-query")...)
	wait()
	if err != nil {
		return err
	}

	r.writePlainln("%s", ui.RenderDiscover(hits))
	if !cmd.Bool("create") || len(hits) == 0 {
		return nil
	}
	return r.create(ctx, channelIDs(hits))
}

func channelIDs(hits []services.ChannelHit) []string {
	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.ChannelID)
	}
	return ids
}
