package tasks

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/desertthunder/foxhole/internal/shared"
)

// UpdateOptions narrows an update cycle.
type UpdateOptions struct {
	ChannelIDs []string      // check exactly these channels
	Window     time.Duration // overrides Options.Window when positive
}

// ChannelFailure is a channel whose update was abandoned while the run continued.
type ChannelFailure struct {
	ChannelID string
	Err       error
}

// UpdateResult summarises an update cycle.
type UpdateResult struct {
	Selected         int
	Checked          int
	Skipped          int // within the update cooldown
	Updated          int
	VideosAdded      int
	Pages            int
	UpdatedPlaylists []string
	Failures         []ChannelFailure
	Section          []string // last membership written to the active section
}

// Update checks the scheduled channels for new uploads and appends them to their playlists.
//
// The worklist is processed in pages. After each page that changed at least one playlist, the active
// playlists section is curated with that page's playlists. A channel-level failure is recorded and skipped;
// quota exhaustion, storage failures and unexpected errors stop the cycle and are returned with the partial result.
func (e *PlaylistEngine) Update(ctx context.Context, progress chan<- ProgressUpdate, opts UpdateOptions) (*UpdateResult, error) {
	run := e.startRun("update")
	result, err := e.update(ctx, progress, opts)
	run.ChannelsChecked = result.Checked
	run.ChannelsUpdated = result.Updated
	run.VideosAdded = result.VideosAdded
	e.finishRun(run, err)
	return result, err
}

func (e *PlaylistEngine) update(ctx context.Context, progress chan<- ProgressUpdate, opts UpdateOptions) (*UpdateResult, error) {
	result := &UpdateResult{}
	now := e.now()
	window := e.opts.Window
	if opts.Window > 0 {
		window = opts.Window
	}

	items, err := e.scheduler.Select(ctx, now, window, opts.ChannelIDs)
	if err != nil {
		return result, fmt.Errorf("select channels: %w", err)
	}
	result.Selected = len(items)
	e.sendProgress(progress, selectedUpdate(len(items)))

	pages := (len(items) + e.opts.PageSize - 1) / e.opts.PageSize
	step := 0
	for page := range slices.Chunk(items, e.opts.PageSize) {
		result.Pages++
		e.logger.Info("updating page", "page", result.Pages, "pages", pages, "channels", len(page))

		var updated []string
		for _, item := range page {
			step++
			if err := ctx.Err(); err != nil {
				return result, err
			}

			r := item.Record
			if r.UpdatedWithin(now, e.opts.Cooldown) {
				e.logger.Warn("updated recently, skipping", "channel", r.ChannelTitle, "channel_id", r.ChannelID, "last_updated_at", r.LastUpdatedAt)
				e.sendProgress(progress, cooldownUpdate(step, len(items), r))
				result.Skipped++
				continue
			}

			result.Checked++
			e.sendProgress(progress, checkChannelUpdate(step, len(items), r))

			added, touched, err := e.updateChannel(ctx, item, now)
			if touched {
				result.Updated++
				result.VideosAdded += added
				updated = append(updated, r.PlaylistID)
				e.sendProgress(progress, appendedUpdate(step, len(items), r, added, len(r.Videos)))
			}
			if err != nil {
				if !channelLevel(err) {
					result.UpdatedPlaylists = append(result.UpdatedPlaylists, updated...)
					return result, err
				}
				e.logger.Error("channel update failed, continuing", "channel_id", r.ChannelID, "err", err)
				e.sendProgress(progress, channelFailedUpdate(step, len(items), r.ChannelID, err))
				result.Failures = append(result.Failures, ChannelFailure{ChannelID: r.ChannelID, Err: err})
			}
		}

		result.UpdatedPlaylists = append(result.UpdatedPlaylists, updated...)
		if len(updated) == 0 || e.curator == nil {
			e.logger.Debug("active section not updated", "page", result.Pages, "updated", len(updated))
			continue
		}

		e.sendProgress(progress, curateUpdate(result.Pages, pages, updated))
		section, err := e.curator.Curate(ctx, updated)
		if err != nil {
			if !channelLevel(err) {
				return result, err
			}
			e.logger.Error("active section update failed, continuing", "err", err)
			continue
		}
		result.Section = section
	}

	e.logger.Info("update complete",
		"selected", result.Selected,
		"checked", result.Checked,
		"skipped", result.Skipped,
		"updated", result.Updated,
		"videos_added", result.VideosAdded,
		"failures", len(result.Failures),
	)
	return result, nil
}

// updateChannel merges and appends one channel's new videos and persists the record.
// touched is false when there was nothing new, in which case the record is left alone.
// A quota error after some videos were appended comes back with touched set, once the record is saved.
func (e *PlaylistEngine) updateChannel(ctx context.Context, item WorkItem, now time.Time) (added int, touched bool, err error) {
	r := item.Record
	fresh, err := e.merger.NewVideos(ctx, item.Watermark, r)
	if err != nil {
		return 0, false, fmt.Errorf("channel %s: %w", r.ChannelID, err)
	}
	if len(fresh) == 0 {
		e.logger.Info("no new videos", "channel", r.ChannelTitle, "channel_id", r.ChannelID)
		return 0, false, nil
	}

	// Videos added before the quota ran out are already in the playlist and must be recorded.
	appended, err := e.writer.Append(ctx, r.PlaylistID, fresh)
	if err != nil && (!errors.Is(err, shared.ErrQuotaExhausted) || len(appended) == 0) {
		return 0, false, fmt.Errorf("channel %s: append: %w", r.ChannelID, err)
	}
	quotaErr := err

	added = r.AppendVideos(appended)
	r.Touch(now)
	if err := e.store.Save(r); err != nil {
		return added, false, fmt.Errorf("channel %s: %w", r.ChannelID, err)
	}

	e.logger.Info("updated playlist", "channel", r.ChannelTitle, "playlist_id", r.PlaylistID, "added", added, "new", len(fresh))
	if quotaErr != nil {
		return added, true, fmt.Errorf("channel %s: append: %w", r.ChannelID, quotaErr)
	}
	return added, true, nil
}

// Failed reports whether any channel was abandoned.
func (r *UpdateResult) Failed() bool {
	return len(r.Failures) > 0
}

// FailedChannels lists the abandoned channel ids.
func (r *UpdateResult) FailedChannels() []string {
	ids := make([]string, len(r.Failures))
	for i, f := range r.Failures {
		ids[i] = f.ChannelID
	}
	return ids
}
