package services

import (
	"context"

	"github.com/desertthunder/foxhole/internal/models"
)

// VideoSource lists a channel's qualifying uploads.
type VideoSource interface {
	// Fetch returns the channel's qualifying videos ordered by publish time ascending.
	Fetch(ctx context.Context, channelID string) (*ChannelUploads, error)
}

// PlaylistWriter creates and extends the per-channel output playlists.
type PlaylistWriter interface {
	// Create makes a new public playlist for the channel and adds videos to it.
	// Playlist insertion follows the rate-limit retry protocol; videos that fail to add are omitted from the result.
	// When quota runs out while adding videos, the playlist id and the videos added so far are returned with the error.
	Create(ctx context.Context, channelID, channelTitle string, videos []models.Video) (playlistID string, added []models.Video, err error)

	// Append adds videos to an existing playlist, logging and skipping any that fail.
	// Quota exhaustion stops the batch and is returned alongside the videos already added.
	Append(ctx context.Context, playlistID string, videos []models.Video) ([]models.Video, error)
}

// ActivePlaylistSection reads and replaces the playlists shown in a channel section.
type ActivePlaylistSection interface {
	Read(ctx context.Context, sectionID string) ([]string, error)
	Write(ctx context.Context, sectionID string, playlistIDs []string) error
}

// ChannelSearcher finds channels posting videos that match a query.
type ChannelSearcher interface {
	SearchChannels(ctx context.Context, query, pageToken string) (*SearchPage, error)
}

// ChannelUploads is the result of [VideoSource.Fetch].
type ChannelUploads struct {
	ChannelTitle      string
	UploadsPlaylistID string
	Videos            []models.Video
}

// ChannelHit is one channel surfaced by a search.
type ChannelHit struct {
	ChannelID    string
	ChannelTitle string
}

// SearchPage is one page of search results, in result order.
type SearchPage struct {
	Hits          []ChannelHit
	NextPageToken string
}

// RejectionLister supplies the ids of videos excluded from every playlist.
type RejectionLister interface {
	RejectedSet() (map[string]struct{}, error)
}
