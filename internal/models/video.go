package models

import "time"

// ResourceID identifies the video a playlist item points at.
type ResourceID struct {
	Kind    string `json:"kind"`
	VideoID string `json:"videoId"`
}

// VideoSnippet mirrors the snippet of a YouTube playlist item.
type VideoSnippet struct {
	PublishedAt  time.Time  `json:"publishedAt"`
	ChannelID    string     `json:"channelId"`
	ChannelTitle string     `json:"channelTitle"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	PlaylistID   string     `json:"playlistId,omitempty"`
	Position     int64      `json:"position"`
	ResourceID   ResourceID `json:"resourceId"`
}

// VideoContentDetails mirrors the contentDetails of a YouTube playlist item.
type VideoContentDetails struct {
	VideoID          string    `json:"videoId"`
	VideoPublishedAt time.Time `json:"videoPublishedAt,omitzero"`
	Note             string    `json:"note,omitempty"`
}

// Video is one qualifying upload as returned by the video source.
type Video struct {
	Kind           string              `json:"kind,omitempty"`
	ID             string              `json:"id"` // playlist item id in the uploads playlist
	Snippet        VideoSnippet        `json:"snippet"`
	ContentDetails VideoContentDetails `json:"contentDetails"`
}

// VideoID returns the YouTube video identifier.
func (v Video) VideoID() string {
	if v.Snippet.ResourceID.VideoID != "" {
		return v.Snippet.ResourceID.VideoID
	}
	return v.ContentDetails.VideoID
}

// PublishedAt returns the video's publish time, preferring the video's own timestamp over the playlist item's.
func (v Video) PublishedAt() time.Time {
	if !v.ContentDetails.VideoPublishedAt.IsZero() {
		return v.ContentDetails.VideoPublishedAt
	}
	return v.Snippet.PublishedAt
}
