// Package repositories implements persistence for channel records, run history, and rejected videos.
//
// Key Implementations:
//   - [ChannelStore] : one JSON file per channel under the storage root, written atomically
//   - [RunRepository] : SQLite history of update and create runs
//   - [RejectionRepository] : SQLite list of videos excluded from every playlist
//
// Failures surface as [*StorageError], which matches [shared.ErrStorage] with errors.Is.
package repositories
