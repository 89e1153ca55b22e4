// Package services defines the external collaborators of the update engine and implements them over the YouTube Data API v3.
//
// # Collaborators
//
//   - [VideoSource] : qualifying uploads for a channel, oldest first
//   - [PlaylistWriter] : playlist creation and per-item appends
//   - [ActivePlaylistSection] : read and replace the playlists of a channel section
//   - [ChannelSearcher] : video search used for channel discovery
//
// [YouTubeService] implements all four. Calls are paced with [rate.Limiter] and authenticated
// with an OAuth2 token from [LoadToken] or an API key (see [ClientOptions]).
//
// # Error Handling
//
// API failures are converted by [Classify] into [*APIError] values whose [ErrorKind] callers dispatch on:
//   - [KindRateLimited] : 429 rateLimitExceeded, retried by [Backoff] and matching [shared.ErrRateLimited]
//   - [KindQuotaExhausted] : 403 quotaExceeded, never retried, matching [shared.ErrQuotaExhausted]
//   - [KindNotFound] : 404, matching [shared.ErrNotFound]
//   - [KindOther] : anything else, matching [shared.ErrAPIRequest]
//
// A call that is still rate limited after MaxRetries retries fails with [shared.ErrMaxRetriesExceeded].
// Per-item playlist inserts never retry: a failed item is logged and left out of the result.
package services
