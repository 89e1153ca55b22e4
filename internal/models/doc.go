// Package models defines the persisted channel record and the video details it carries.
//
// A [ChannelRecord] is written once per processed channel and owns the ordered list of
// [Video] entries already appended to that channel's managed playlist.
//
// The record's watermark is never stored. [ChannelRecord.Watermark] derives it on demand
// from the latest publish time among the recorded videos.
//
// [ChannelRecord.VideosHash] is a SHA-1 hex digest of the canonical JSON encoding of the videos
// and is recomputed by [ChannelRecord.AppendVideos] and [NewChannelRecord] on every mutation.
package models
