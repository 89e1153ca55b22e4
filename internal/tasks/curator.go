package tasks

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/foxhole/internal/models"
	"github.com/desertthunder/foxhole/internal/services"
)

// CuratorOptions configures a [Curator].
type CuratorOptions struct {
	SectionID    string
	Window       time.Duration
	MaxPlaylists int
	Logger       *log.Logger
	Now          func() time.Time
}

// Curator keeps the active playlists section ordered by recent activity.
//
// Section membership is read once per process and cached; the cache is not designed for the section
// being edited elsewhere during a run. The first Curate call evicts members whose channel watermark
// fell out of the window. Later calls union the new playlists onto the cached membership without another
// eviction pass. Every write is ordered newest watermark first and capped at MaxPlaylists.
type Curator struct {
	section services.ActivePlaylistSection
	store   ChannelStore
	opts    CuratorOptions

	members []string
	loaded  bool
	curated bool
}

func NewCurator(section services.ActivePlaylistSection, store ChannelStore, opts CuratorOptions) *Curator {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Curator{section: section, store: store, opts: opts}
}

// Members returns the section's playlist ids, reading the section on first use only.
func (c *Curator) Members(ctx context.Context) ([]string, error) {
	if !c.loaded {
		members, err := c.section.Read(ctx, c.opts.SectionID)
		if err != nil {
			return nil, fmt.Errorf("read active section %s: %w", c.opts.SectionID, err)
		}
		c.members = members
		c.loaded = true
		c.opts.Logger.Debug("read active section", "section_id", c.opts.SectionID, "playlists", len(members))
	}
	return slices.Clone(c.members), nil
}

// ActiveRecords resolves the section members to channel records in section order.
// Playlists that no stored record owns are logged and skipped.
func (c *Curator) ActiveRecords(ctx context.Context) ([]*models.ChannelRecord, error) {
	members, err := c.Members(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]*models.ChannelRecord, 0, len(members))
	for _, playlistID := range members {
		r, ok, err := c.store.ByPlaylistID(playlistID)
		if err != nil {
			return nil, err
		}
		if !ok {
			c.opts.Logger.Warn("active playlist has no channel record, skipping", "playlist_id", playlistID)
			continue
		}
		records = append(records, r)
	}
	return records, nil
}

// Curate adds playlistIDs to the section, drops stale members on the first call, orders and caps the result,
// and writes it back. It returns the membership written.
func (c *Curator) Curate(ctx context.Context, playlistIDs []string) ([]string, error) {
	members, err := c.Members(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(playlistIDs))
	candidates := make([]string, 0, len(playlistIDs)+len(members))
	for _, id := range playlistIDs {
		if !seen[id] {
			seen[id] = true
			candidates = append(candidates, id)
		}
	}

	oldest := c.opts.Now().Add(-c.opts.Window)
	for _, id := range members {
		if seen[id] {
			continue
		}
		seen[id] = true
		if c.curated {
			candidates = append(candidates, id)
			continue
		}

		r, ok, err := c.store.ByPlaylistID(id)
		if err != nil {
			return nil, err
		}
		if !ok {
			c.opts.Logger.Warn("removing unknown playlist from active section", "playlist_id", id)
			continue
		}
		if wm, has := r.Watermark(); has && !wm.Before(oldest) {
			c.opts.Logger.Info("keeping in active section", "channel", r.ChannelTitle, "playlist_id", id)
			candidates = append(candidates, id)
		} else {
			c.opts.Logger.Info("removing stale playlist from active section", "channel", r.ChannelTitle, "playlist_id", id)
		}
	}

	ordered, err := c.order(candidates)
	if err != nil {
		return nil, err
	}
	if limit := c.opts.MaxPlaylists; limit > 0 && len(ordered) > limit {
		ordered = ordered[:limit]
	}

	if err := c.section.Write(ctx, c.opts.SectionID, ordered); err != nil {
		return nil, fmt.Errorf("write active section %s: %w", c.opts.SectionID, err)
	}
	c.members = slices.Clone(ordered)
	c.loaded = true
	c.curated = true
	c.opts.Logger.Info("updated active section", "section_id", c.opts.SectionID, "playlists", len(ordered))
	return ordered, nil
}

// order sorts playlist ids by their channel's watermark, newest first.
// Ids without a stored record are dropped.
func (c *Curator) order(playlistIDs []string) ([]string, error) {
	items := make([]WorkItem, 0, len(playlistIDs))
	for _, id := range playlistIDs {
		r, ok, err := c.store.ByPlaylistID(id)
		if err != nil {
			return nil, err
		}
		if !ok {
			c.opts.Logger.Warn("playlist has no channel record, leaving it out of the active section", "playlist_id", id)
			continue
		}
		items = append(items, newWorkItem(r))
	}
	sortByWatermark(items)

	ordered := make([]string, len(items))
	for i, item := range items {
		ordered[i] = item.Record.PlaylistID
	}
	return ordered, nil
}
