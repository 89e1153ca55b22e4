package tasks

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/foxhole/internal/models"
	"github.com/desertthunder/foxhole/internal/services"
	"github.com/desertthunder/foxhole/internal/shared"
)

const maxSearchPasses = 5

// CreateResult summarises a create run.
type CreateResult struct {
	Created  []*models.ChannelRecord
	Skipped  int // ignored or already cached
	Failures []ChannelFailure
}

// ProcessChannel creates the playlist for a channel that has no record yet and persists the new record.
//
// Ignored and already cached channels are skipped with a nil item and nil error.
// A channel without qualifying videos fails with [shared.ErrNoVideos] rather than getting an empty playlist.
// If the quota runs out while videos are being added, the record is still saved and the item is returned with the error.
func (e *PlaylistEngine) ProcessChannel(ctx context.Context, channelID string) (*WorkItem, error) {
	if channelID == "" {
		return nil, fmt.Errorf("%w: channel id", shared.ErrMissingArgument)
	}
	if e.ignored(channelID) {
		e.logger.Info("channel is ignored, skipping", "channel_id", channelID)
		return nil, nil
	}
	if _, ok, err := e.store.Get(channelID); err != nil {
		return nil, err
	} else if ok {
		e.logger.Info("channel already has a playlist, skipping", "channel_id", channelID)
		return nil, nil
	}

	uploads, err := e.source.Fetch(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("channel %s: %w", channelID, err)
	}
	if len(uploads.Videos) == 0 {
		return nil, fmt.Errorf("channel %s: %w", channelID, shared.ErrNoVideos)
	}

	title := cmp.Or(uploads.ChannelTitle, channelID)
	// A playlist created before the quota ran out exists upstream and gets a record either way.
	playlistID, added, err := e.writer.Create(ctx, channelID, title, uploads.Videos)
	if err != nil && (!errors.Is(err, shared.ErrQuotaExhausted) || playlistID == "") {
		return nil, fmt.Errorf("channel %s: create playlist: %w", channelID, err)
	}
	quotaErr := err

	record := models.NewChannelRecord(channelID, title, playlistID, added, e.now())
	if err := e.store.Save(record); err != nil {
		return nil, fmt.Errorf("channel %s: %w", channelID, err)
	}

	e.logger.Info("created playlist", "channel", title, "playlist_id", playlistID, "videos", len(added), "found", len(uploads.Videos))
	item := newWorkItem(record)
	if quotaErr != nil {
		return &item, fmt.Errorf("channel %s: add videos: %w", channelID, quotaErr)
	}
	return &item, nil
}

// CreatePlaylists runs [PlaylistEngine.ProcessChannel] for each channel id in order.
// Channel-level failures are recorded and skipped; anything else stops the run.
func (e *PlaylistEngine) CreatePlaylists(ctx context.Context, progress chan<- ProgressUpdate, channelIDs []string) (*CreateResult, error) {
	run := e.startRun("create")
	result, err := e.createPlaylists(ctx, progress, channelIDs)
	run.ChannelsChecked = len(result.Created) + result.Skipped + len(result.Failures)
	run.ChannelsUpdated = len(result.Created)
	for _, r := range result.Created {
		run.VideosAdded += len(r.Videos)
	}
	e.finishRun(run, err)
	return result, err
}

func (e *PlaylistEngine) createPlaylists(ctx context.Context, progress chan<- ProgressUpdate, channelIDs []string) (*CreateResult, error) {
	result := &CreateResult{}
	for i, id := range channelIDs {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		item, err := e.ProcessChannel(ctx, id)
		if item != nil && err != nil {
			result.Created = append(result.Created, item.Record)
		}
		if err != nil {
			if !channelLevel(err) {
				return result, err
			}
			e.logger.Error("failed to create playlist, continuing", "channel_id", id, "err", err)
			e.sendProgress(progress, channelFailedUpdate(i+1, len(channelIDs), id, err))
			result.Failures = append(result.Failures, ChannelFailure{ChannelID: id, Err: err})
			continue
		}
		if item == nil {
			result.Skipped++
			continue
		}

		result.Created = append(result.Created, item.Record)
		e.sendProgress(progress, createdUpdate(i+1, len(channelIDs), item.Record))
	}
	return result, nil
}

// Discover searches for channels posting matching videos that are neither ignored nor cached yet.
//
// The configured query is extended with extraTerms. Search stops after maxEntries channels or
// five result pages, whichever comes first. A non-positive maxEntries uses the configured default.
func (e *PlaylistEngine) Discover(ctx context.Context, progress chan<- ProgressUpdate, maxEntries int, extraTerms ...string) ([]services.ChannelHit, error) {
	if e.searcher == nil {
		return nil, fmt.Errorf("%w: channel search is not configured", shared.ErrInvalidArgument)
	}
	if maxEntries <= 0 {
		maxEntries = e.opts.DiscoverMaxEntries
	}
	if maxEntries <= 0 {
		return nil, fmt.Errorf("%w: max entries must be positive", shared.ErrInvalidArgument)
	}

	query := strings.TrimSpace(strings.Join(append([]string{e.opts.Query}, extraTerms...), " "))
	if query == "" {
		return nil, fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	var (
		hits  []services.ChannelHit
		seen  = make(map[string]bool)
		token string
	)
	for pass := 1; pass <= maxSearchPasses && len(hits) < maxEntries; pass++ {
		page, err := e.searcher.SearchChannels(ctx, query, token)
		if err != nil {
			return hits, fmt.Errorf("search %q: %w", query, err)
		}

		for _, hit := range page.Hits {
			if len(hits) >= maxEntries {
				break
			}
			if seen[hit.ChannelID] || e.ignored(hit.ChannelID) {
				continue
			}
			seen[hit.ChannelID] = true

			if _, cached, err := e.store.Get(hit.ChannelID); err != nil {
				return hits, err
			} else if cached {
				e.logger.Debug("channel already cached", "channel_id", hit.ChannelID)
				continue
			}

			hits = append(hits, hit)
			e.sendProgress(progress, discoveredUpdate(len(hits), maxEntries, hit.ChannelID, hit.ChannelTitle))
		}

		e.logger.Info("search pass complete", "pass", pass, "query", query, "found", len(hits))
		if page.NextPageToken == "" {
			break
		}
		token = page.NextPageToken
	}
	return hits, nil
}
