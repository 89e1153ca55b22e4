package tasks

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/foxhole/internal/models"
	"github.com/desertthunder/foxhole/internal/services"
)

// Merger computes the videos a channel's playlist is missing.
type Merger struct {
	source services.VideoSource
	logger *log.Logger
}

func NewMerger(source services.VideoSource, logger *log.Logger) *Merger {
	return &Merger{source: source, logger: logger}
}

// NewVideos returns the fetched videos published strictly after watermark whose ids the record does not hold yet,
// in the source's order. A zero watermark admits every unrecorded video.
// Source errors are returned unchanged.
func (m *Merger) NewVideos(ctx context.Context, watermark time.Time, record *models.ChannelRecord) ([]models.Video, error) {
	uploads, err := m.source.Fetch(ctx, record.ChannelID)
	if err != nil {
		return nil, err
	}

	known := record.VideoIDs()
	var fresh []models.Video
	for _, v := range uploads.Videos {
		id := v.VideoID()
		if !v.PublishedAt().After(watermark) {
			continue
		}
		if _, dup := known[id]; dup {
			continue
		}
		known[id] = struct{}{}
		m.logger.Debug("new video", "channel_id", record.ChannelID, "video_id", id, "published_at", v.PublishedAt())
		fresh = append(fresh, v)
	}

	m.logger.Info("merged uploads", "channel_id", record.ChannelID, "fetched", len(uploads.Videos), "new", len(fresh), "watermark", watermark)
	return fresh, nil
}
