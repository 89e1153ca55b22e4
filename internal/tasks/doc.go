// Package tasks runs the playlist operations with real-time progress reporting.
//
// # Update cycle
//
// [PlaylistEngine.Update] is the incremental update:
//
//  1. [Scheduler] selects channels whose watermark (newest recorded publish time) lies in the recency window,
//     newest first, and puts the channels already shown in the active playlists section in front.
//  2. The worklist is processed in pages. A channel updated within the cooldown is skipped.
//  3. [Merger] keeps fetched videos published strictly after the watermark whose ids are not recorded yet.
//  4. New videos are appended to the channel's playlist; the record is extended, rehashed, touched and saved.
//  5. After every page that changed something, [Curator] rewrites the active playlists section.
//
// # Failures
//
// Exceeding the retry budget, a missing resource or a channel without videos abandons only that channel.
// Quota exhaustion, storage failures and unexpected errors end the run and are returned to the caller
// together with the partial result.
//
// # Create and discover
//
// [PlaylistEngine.CreatePlaylists] builds playlists for channels that have no record yet and
// [PlaylistEngine.Discover] searches for such channels.
//
// # Progress Reporting
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data.
// Updates use select with default to prevent blocking.
package tasks
