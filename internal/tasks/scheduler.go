package tasks

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/foxhole/internal/models"
)

// WorkItem is one channel selected for a freshness check.
type WorkItem struct {
	Watermark    time.Time
	HasWatermark bool
	Record       *models.ChannelRecord
}

func newWorkItem(r *models.ChannelRecord) WorkItem {
	wm, ok := r.Watermark()
	return WorkItem{Watermark: wm, HasWatermark: ok, Record: r}
}

// Scheduler picks the channels an update cycle checks.
type Scheduler struct {
	store   ChannelStore
	curator *Curator
	logger  *log.Logger
}

// NewScheduler creates a scheduler. curator may be nil, in which case no active channels are prepended.
func NewScheduler(store ChannelStore, curator *Curator, logger *log.Logger) *Scheduler {
	return &Scheduler{store: store, curator: curator, logger: logger}
}

// Select returns the ordered worklist.
//
// With explicit channel ids exactly those records are returned, newest watermark first, without any recency filter.
// Otherwise every record whose watermark lies in [now-window, now] is returned newest first, preceded by the
// channels currently in the active playlists section. Records without a watermark are only ever selected explicitly
// or through the active section.
func (s *Scheduler) Select(ctx context.Context, now time.Time, window time.Duration, channelIDs []string) ([]WorkItem, error) {
	if len(channelIDs) > 0 {
		loaded, err := s.store.Load(channelIDs...)
		if err != nil {
			return nil, err
		}
		items := make([]WorkItem, 0, len(loaded))
		for _, r := range loaded {
			items = append(items, newWorkItem(r))
		}
		sortByWatermark(items)
		return items, nil
	}

	all, err := s.store.Load()
	if err != nil {
		return nil, err
	}

	oldest := now.Add(-window)
	var recent []WorkItem
	for _, r := range all {
		item := newWorkItem(r)
		if !item.HasWatermark {
			s.logger.Debug("no watermark, not scheduling", "channel_id", r.ChannelID)
			continue
		}
		if item.Watermark.Before(oldest) || item.Watermark.After(now) {
			continue
		}
		recent = append(recent, item)
	}
	sortByWatermark(recent)

	if s.curator == nil {
		return recent, nil
	}

	active, err := s.curator.ActiveRecords(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]WorkItem, 0, len(active)+len(recent))
	seen := make(map[string]bool, len(active))
	for _, r := range active {
		if seen[r.ChannelID] {
			continue
		}
		seen[r.ChannelID] = true
		items = append(items, newWorkItem(r))
	}
	for _, item := range recent {
		if !seen[item.Record.ChannelID] {
			items = append(items, item)
		}
	}

	s.logger.Info("scheduled channels", "active", len(seen), "recent", len(recent), "total", len(items))
	return items, nil
}

// sortByWatermark orders items newest watermark first, unknown watermarks last, ties by channel id.
func sortByWatermark(items []WorkItem) {
	slices.SortFunc(items, func(a, b WorkItem) int {
		if a.HasWatermark != b.HasWatermark {
			if a.HasWatermark {
				return -1
			}
			return 1
		}
		if c := b.Watermark.Compare(a.Watermark); c != 0 {
			return c
		}
		return cmp.Compare(a.Record.ChannelID, b.Record.ChannelID)
	})
}
