package models

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// ChannelRecord is the durable state kept for one processed channel.
type ChannelRecord struct {
	ChannelID     string     `json:"channel_id"`
	ChannelTitle  string     `json:"channel_title"`
	PlaylistID    string     `json:"playlist_id"`
	LastUpdatedAt *time.Time `json:"last_updated_at,omitempty"`
	VideosHash    string     `json:"videos_hash"`
	Videos        []Video    `json:"videos"`
}

// NewChannelRecord builds the record for a freshly created playlist.
func NewChannelRecord(channelID, channelTitle, playlistID string, videos []Video, now time.Time) *ChannelRecord {
	r := &ChannelRecord{
		ChannelID:    channelID,
		ChannelTitle: channelTitle,
		PlaylistID:   playlistID,
		Videos:       append([]Video{}, videos...),
	}
	r.VideosHash = HashVideos(r.Videos)
	r.Touch(now)
	return r
}

// Watermark returns the latest publish time among the recorded videos.
// ok is false when no video carries a usable timestamp.
func (r *ChannelRecord) Watermark() (wm time.Time, ok bool) {
	for _, v := range r.Videos {
		published := v.PublishedAt()
		if published.IsZero() {
			continue
		}
		if !ok || published.After(wm) {
			wm, ok = published, true
		}
	}
	return wm, ok
}

// HasVideo reports whether videoID is already recorded.
func (r *ChannelRecord) HasVideo(videoID string) bool {
	for _, v := range r.Videos {
		if v.VideoID() == videoID {
			return true
		}
	}
	return false
}

// VideoIDs returns the set of recorded video identifiers.
func (r *ChannelRecord) VideoIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(r.Videos))
	for _, v := range r.Videos {
		ids[v.VideoID()] = struct{}{}
	}
	return ids
}

// AppendVideos adds videos at the tail, skipping ids already present, and rehashes.
// It returns the number of videos actually appended.
func (r *ChannelRecord) AppendVideos(videos []Video) int {
	seen := r.VideoIDs()
	added := 0
	for _, v := range videos {
		id := v.VideoID()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		r.Videos = append(r.Videos, v)
		added++
	}
	r.VideosHash = HashVideos(r.Videos)
	return added
}

// Touch sets the last update time, never moving it backwards.
func (r *ChannelRecord) Touch(now time.Time) {
	now = now.UTC()
	if r.LastUpdatedAt != nil && r.LastUpdatedAt.After(now) {
		return
	}
	r.LastUpdatedAt = &now
}

// UpdatedWithin reports whether the record was updated at or after now-d.
func (r *ChannelRecord) UpdatedWithin(now time.Time, d time.Duration) bool {
	return r.LastUpdatedAt != nil && !r.LastUpdatedAt.Before(now.Add(-d))
}

// HashValid reports whether VideosHash matches the current videos.
func (r *ChannelRecord) HashValid() bool {
	return r.VideosHash == HashVideos(r.Videos)
}

// Validate checks the fields every persisted record must carry.
func (r *ChannelRecord) Validate() error {
	if r.ChannelID == "" {
		return fmt.Errorf("channel_id is required")
	}
	if r.PlaylistID == "" {
		return fmt.Errorf("playlist_id is required for channel %s", r.ChannelID)
	}
	return nil
}

// HashVideos returns the SHA-1 hex digest of the canonical JSON encoding of videos.
func HashVideos(videos []Video) string {
	if videos == nil {
		videos = []Video{}
	}
	data, err := json.Marshal(videos)
	if err != nil {
		// Video holds only strings, ints and times.
		panic(fmt.Sprintf("models: encode videos: %v", err))
	}
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}
