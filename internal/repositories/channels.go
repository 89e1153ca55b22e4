package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/foxhole/internal/models"
	"github.com/desertthunder/foxhole/internal/shared"
)

// reservedNames hold credential material alongside the channel records.
var reservedNames = map[string]bool{
	shared.SecretsFileName: true,
	shared.TokenFileName:   true,
}

// ChannelStore persists one JSON file per channel under a root directory.
//
// The store keeps an in-memory mapping of everything it has read or written.
// It assumes a single running instance and does no file locking.
type ChannelStore struct {
	root    string
	logger  *log.Logger
	records map[string]*models.ChannelRecord
	primed  bool
}

// NewChannelStore creates a store rooted at root, creating the directory if needed.
func NewChannelStore(root string, logger *log.Logger) (*ChannelStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, &StorageError{Op: "create", Entity: "store", ID: root, Err: err}
	}
	return &ChannelStore{
		root:    root,
		logger:  logger,
		records: make(map[string]*models.ChannelRecord),
	}, nil
}

// Root returns the storage directory.
func (s *ChannelStore) Root() string {
	return s.root
}

// Load reads channel records into memory and returns the ones it read.
//
// With explicit ids, exactly those records are loaded; a missing or unreadable record is logged and skipped.
// Without ids, every record file in the root is loaded and the store is marked primed.
// The only error returned is a failure to list the root directory.
func (s *ChannelStore) Load(channelIDs ...string) (map[string]*models.ChannelRecord, error) {
	if len(channelIDs) == 0 {
		return s.loadAll()
	}

	loaded := make(map[string]*models.ChannelRecord, len(channelIDs))
	for _, id := range channelIDs {
		record, err := s.read(id)
		if err != nil {
			s.logger.Error("skipping channel record", "channel_id", id, "err", err)
			continue
		}
		s.records[record.ChannelID] = record
		loaded[record.ChannelID] = record
	}
	return loaded, nil
}

func (s *ChannelStore) loadAll() (map[string]*models.ChannelRecord, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, &StorageError{Op: "list", Entity: "channel", Err: err}
	}

	loaded := make(map[string]*models.ChannelRecord, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !isRecordName(entry.Name()) {
			continue
		}
		record, err := s.read(entry.Name())
		if err != nil {
			s.logger.Error("skipping channel record", "file", entry.Name(), "err", err)
			continue
		}
		if _, dup := loaded[record.ChannelID]; dup {
			s.logger.Warn("duplicate channel record", "channel_id", record.ChannelID, "file", entry.Name())
			continue
		}
		s.records[record.ChannelID] = record
		loaded[record.ChannelID] = record
	}

	s.primed = true
	s.logger.Debug("loaded channel records", "count", len(loaded), "root", s.root)
	return loaded, nil
}

// Get returns the record for channelID, loading every record first if the store is not primed.
func (s *ChannelStore) Get(channelID string) (*models.ChannelRecord, bool, error) {
	if record, ok := s.records[channelID]; ok {
		return record, true, nil
	}
	if !s.primed {
		if _, err := s.loadAll(); err != nil {
			return nil, false, err
		}
	}
	record, ok := s.records[channelID]
	return record, ok, nil
}

// All returns every record ordered by channel id.
func (s *ChannelStore) All() ([]*models.ChannelRecord, error) {
	if !s.primed {
		if _, err := s.loadAll(); err != nil {
			return nil, err
		}
	}

	records := make([]*models.ChannelRecord, 0, len(s.records))
	for _, r := range s.records {
		records = append(records, r)
	}
	slices.SortFunc(records, func(a, b *models.ChannelRecord) int {
		return strings.Compare(a.ChannelID, b.ChannelID)
	})
	return records, nil
}

// ByPlaylistID finds the record that owns playlistID.
func (s *ChannelStore) ByPlaylistID(playlistID string) (*models.ChannelRecord, bool, error) {
	if !s.primed {
		if _, err := s.loadAll(); err != nil {
			return nil, false, err
		}
	}
	for _, r := range s.records {
		if r.PlaylistID == playlistID {
			return r, true, nil
		}
	}
	return nil, false, nil
}

// Save overwrites the record's file atomically and updates the in-memory mapping.
// Errors are returned as [*StorageError] and are not retried.
func (s *ChannelStore) Save(record *models.ChannelRecord) error {
	if err := record.Validate(); err != nil {
		return &StorageError{Op: "write", Entity: "channel", ID: record.ChannelID, Err: fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)}
	}
	if !isRecordName(record.ChannelID) {
		return &StorageError{Op: "write", Entity: "channel", ID: record.ChannelID, Err: fmt.Errorf("%w: unusable channel id", shared.ErrInvalidInput)}
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return &StorageError{Op: "write", Entity: "channel", ID: record.ChannelID, Err: err}
	}

	w, err := newAtomicWriter(s.path(record.ChannelID))
	if err != nil {
		return &StorageError{Op: "write", Entity: "channel", ID: record.ChannelID, Err: err}
	}
	if _, err := w.Write(data); err != nil {
		w.Abort()
		return &StorageError{Op: "write", Entity: "channel", ID: record.ChannelID, Err: err}
	}
	if err := w.Commit(); err != nil {
		return &StorageError{Op: "write", Entity: "channel", ID: record.ChannelID, Err: err}
	}

	s.records[record.ChannelID] = record
	return nil
}

func (s *ChannelStore) read(channelID string) (*models.ChannelRecord, error) {
	if !isRecordName(channelID) {
		return nil, &StorageError{Op: "read", Entity: "channel", ID: channelID, Err: shared.ErrInvalidInput}
	}

	data, err := os.ReadFile(s.path(channelID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = shared.ErrNotFound
		}
		return nil, &StorageError{Op: "read", Entity: "channel", ID: channelID, Err: err}
	}

	var record models.ChannelRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, &StorageError{Op: "read", Entity: "channel", ID: channelID, Err: fmt.Errorf("%w: %v", shared.ErrCorruptRecord, err)}
	}
	if err := record.Validate(); err != nil {
		return nil, &StorageError{Op: "read", Entity: "channel", ID: channelID, Err: fmt.Errorf("%w: %v", shared.ErrCorruptRecord, err)}
	}

	if record.ChannelID != channelID {
		return nil, &StorageError{Op: "read", Entity: "channel", ID: channelID, Err: fmt.Errorf("%w: file holds channel_id %q", shared.ErrCorruptRecord, record.ChannelID)}
	}
	if !record.HashValid() {
		s.logger.Warn("videos_hash mismatch, recomputing", "channel_id", record.ChannelID)
		record.VideosHash = models.HashVideos(record.Videos)
	}
	return &record, nil
}

func (s *ChannelStore) path(channelID string) string {
	return filepath.Join(s.root, channelID)
}

// isRecordName reports whether name can be a channel record file.
// Reserved credential files, hidden or temporary files, and names with an extension are excluded.
func isRecordName(name string) bool {
	switch {
	case name == "", reservedNames[name]:
		return false
	case strings.HasPrefix(name, "."):
		return false
	case strings.ContainsAny(name, `./\`):
		return false
	}
	return true
}
