package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/foxhole/internal/formatter"
	"github.com/desertthunder/foxhole/internal/models"
	"github.com/desertthunder/foxhole/internal/shared"
	"github.com/urfave/cli/v3"
)

// Channels lists cached channel records in the requested format.
func (r *Runner) Channels(ctx context.Context, cmd *cli.Command) error {
	store, err := r.channelStore()
	if err != nil {
		return err
	}
	records, err := store.All()
	if err != nil {
		return err
	}

	format := strings.ToLower(cmd.String("format"))
	data, err := formatter.FormatChannels(format, records)
	if err != nil {
		return err
	}

	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteExport(shared.ExpandPath(path), data); err != nil {
			return err
		}
		r.logger.Info("exported channels", "path", path, "format", format, "count", len(records))
		return nil
	}
	return r.writePlain("%s", data)
}

// Reject adds a video to the rejected list, removes it with --remove, or prints the list with --list.
func (r *Runner) Reject(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.rejectionRepository()
	if err != nil {
		return err
	}

	if cmd.Bool("list") {
		rejections, err := repo.List()
		if err != nil {
			return err
		}
		return r.writePlain("%s", formatter.RejectionsToText(rejections))
	}

	videoID := strings.TrimSpace(cmd.StringArg("video-id"))
	if videoID == "" {
		return fmt.Errorf("%w: video-id", shared.ErrMissingArgument)
	}

	if cmd.Bool("remove") {
		removed, err := repo.Remove(videoID)
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("%w: video %s is not rejected", shared.ErrNotFound, videoID)
		}
		return r.writePlain("Removed %s from the rejected list\n", videoID)
	}

	already, err := repo.IsRejected(videoID)
	if err != nil {
		return err
	}
	if err := repo.Reject(videoID, cmd.String("reason"), time.Now().UTC()); err != nil {
		return err
	}
	if already {
		return r.writePlain("%s was already rejected; reason updated\n", videoID)
	}
	return r.writePlain("Rejected %s; it will not be added to any playlist\n", videoID)
}

// Runs prints the most recent update and create runs.
func (r *Runner) Runs(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.runRepository()
	if err != nil {
		return err
	}

	if id := cmd.String("id"); id != "" {
		run, err := repo.Get(id)
		if err != nil {
			return err
		}
		if cmd.Bool("json") {
			return r.writeJSON(run, true)
		}
		return r.writePlain("%s", formatter.RunsToText([]*models.Run{run}))
	}

	limit := int(cmd.Int("limit"))
	if limit <= 0 {
		return fmt.Errorf("%w: --limit must be positive", shared.ErrInvalidArgument)
	}

	runs, err := repo.Recent(limit)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(runs, true)
	}
	return r.writePlain("%s", formatter.RunsToText(runs))
}
