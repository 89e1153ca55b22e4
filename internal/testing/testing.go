// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/foxhole/internal/models"
	"github.com/desertthunder/foxhole/internal/services"
	"github.com/desertthunder/foxhole/internal/shared"
)

// Logger returns a logger that discards everything.
func Logger() *log.Logger {
	return shared.NewLogger(io.Discard)
}

// Clock returns a func reporting a fixed instant, for injection as a Now func.
func Clock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// Day is the reference instant most tests build their timelines from.
var Day = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

// Video builds an upload with the given id and publish time.
func Video(id string, published time.Time) models.Video {
	return models.Video{
		Kind: "youtube#playlistItem",
		ID:   "PLI" + id,
		Snippet: models.VideoSnippet{
			PublishedAt: published,
			Title:       "Reacting to " + id,
			ResourceID:  models.ResourceID{Kind: "youtube#video", VideoID: id},
		},
		ContentDetails: models.VideoContentDetails{VideoID: id, VideoPublishedAt: published},
	}
}

// Record builds a channel record holding videos in the given order.
func Record(channelID, playlistID string, lastUpdated time.Time, videos ...models.Video) *models.ChannelRecord {
	return models.NewChannelRecord(channelID, "Channel "+channelID, playlistID, videos, lastUpdated)
}

// IDs lists video ids in order.
func IDs(videos []models.Video) []string {
	ids := make([]string, len(videos))
	for i, v := range videos {
		ids[i] = v.VideoID()
	}
	return ids
}

// FakeStore is an in-memory channel store.
type FakeStore struct {
	Records map[string]*models.ChannelRecord
	Saved   []models.ChannelRecord // snapshot of every successful save, in order
	SaveErr error
	LoadErr error
}

func NewFakeStore(records ...*models.ChannelRecord) *FakeStore {
	s := &FakeStore{Records: make(map[string]*models.ChannelRecord)}
	for _, r := range records {
		s.Records[r.ChannelID] = r
	}
	return s
}

func (s *FakeStore) Load(channelIDs ...string) (map[string]*models.ChannelRecord, error) {
	if s.LoadErr != nil {
		return nil, s.LoadErr
	}
	out := make(map[string]*models.ChannelRecord)
	if len(channelIDs) == 0 {
		for id, r := range s.Records {
			out[id] = r
		}
		return out, nil
	}
	for _, id := range channelIDs {
		if r, ok := s.Records[id]; ok {
			out[id] = r
		}
	}
	return out, nil
}

func (s *FakeStore) Get(channelID string) (*models.ChannelRecord, bool, error) {
	if s.LoadErr != nil {
		return nil, false, s.LoadErr
	}
	r, ok := s.Records[channelID]
	return r, ok, nil
}

func (s *FakeStore) ByPlaylistID(playlistID string) (*models.ChannelRecord, bool, error) {
	for _, r := range s.Records {
		if r.PlaylistID == playlistID {
			return r, true, nil
		}
	}
	return nil, false, nil
}

func (s *FakeStore) Save(r *models.ChannelRecord) error {
	if s.SaveErr != nil {
		return s.SaveErr
	}
	if err := r.Validate(); err != nil {
		return err
	}
	s.Records[r.ChannelID] = r
	snapshot := *r
	snapshot.Videos = slices.Clone(r.Videos)
	s.Saved = append(s.Saved, snapshot)
	return nil
}

// SavedIDs lists the channel ids of every save in order.
func (s *FakeStore) SavedIDs() []string {
	ids := make([]string, len(s.Saved))
	for i, r := range s.Saved {
		ids[i] = r.ChannelID
	}
	return ids
}

// FakeSource serves canned uploads per channel.
type FakeSource struct {
	Uploads map[string][]models.Video
	Titles  map[string]string
	Errs    map[string]error
	Calls   []string
}

func NewFakeSource() *FakeSource {
	return &FakeSource{
		Uploads: make(map[string][]models.Video),
		Titles:  make(map[string]string),
		Errs:    make(map[string]error),
	}
}

func (f *FakeSource) Fetch(ctx context.Context, channelID string) (*services.ChannelUploads, error) {
	f.Calls = append(f.Calls, channelID)
	if err := f.Errs[channelID]; err != nil {
		return nil, err
	}
	return &services.ChannelUploads{
		ChannelTitle:      f.Titles[channelID],
		UploadsPlaylistID: "UU" + channelID,
		Videos:            slices.Clone(f.Uploads[channelID]),
	}, nil
}

// FakeWriter records playlist writes.
type FakeWriter struct {
	Playlists map[string][]models.Video
	Created   []string // channel ids passed to Create
	Calls     []string // playlist ids passed to Append
	CreateErr error
	AppendErr map[string]error
	Drop      map[string]bool // video ids that fail to insert and are left out
	QuotaAt   map[string]bool // video ids whose insert exhausts the quota, ending the batch
}

func NewFakeWriter() *FakeWriter {
	return &FakeWriter{
		Playlists: make(map[string][]models.Video),
		AppendErr: make(map[string]error),
		Drop:      make(map[string]bool),
		QuotaAt:   make(map[string]bool),
	}
}

func (w *FakeWriter) Create(ctx context.Context, channelID, channelTitle string, videos []models.Video) (string, []models.Video, error) {
	w.Created = append(w.Created, channelID)
	if w.CreateErr != nil {
		return "", nil, w.CreateErr
	}
	if len(videos) == 0 {
		return "", nil, shared.ErrNoVideos
	}
	playlistID := "PL" + channelID
	added, err := w.keep(videos)
	w.Playlists[playlistID] = added
	return playlistID, added, err
}

func (w *FakeWriter) Append(ctx context.Context, playlistID string, videos []models.Video) ([]models.Video, error) {
	w.Calls = append(w.Calls, playlistID)
	if err := w.AppendErr[playlistID]; err != nil {
		return nil, err
	}
	added, err := w.keep(videos)
	w.Playlists[playlistID] = append(w.Playlists[playlistID], added...)
	return added, err
}

func (w *FakeWriter) keep(videos []models.Video) ([]models.Video, error) {
	var added []models.Video
	for _, v := range videos {
		if w.QuotaAt[v.VideoID()] {
			return added, fmt.Errorf("insert %s: %w", v.VideoID(), shared.ErrQuotaExhausted)
		}
		if !w.Drop[v.VideoID()] {
			added = append(added, v)
		}
	}
	return added, nil
}

// FakeSection is an in-memory channel section.
type FakeSection struct {
	Members  []string
	Writes   [][]string
	Reads    int
	ReadErr  error
	WriteErr error
}

func (s *FakeSection) Read(ctx context.Context, sectionID string) ([]string, error) {
	s.Reads++
	if s.ReadErr != nil {
		return nil, s.ReadErr
	}
	return slices.Clone(s.Members), nil
}

func (s *FakeSection) Write(ctx context.Context, sectionID string, playlistIDs []string) error {
	if s.WriteErr != nil {
		return s.WriteErr
	}
	s.Members = slices.Clone(playlistIDs)
	s.Writes = append(s.Writes, slices.Clone(playlistIDs))
	return nil
}

// FakeSearcher serves search pages keyed by page token; the first page has the empty token.
type FakeSearcher struct {
	Pages   map[string]*services.SearchPage
	Queries []string
	Err     error
}

func (s *FakeSearcher) SearchChannels(ctx context.Context, query, pageToken string) (*services.SearchPage, error) {
	s.Queries = append(s.Queries, query)
	if s.Err != nil {
		return nil, s.Err
	}
	page, ok := s.Pages[pageToken]
	if !ok {
		return nil, fmt.Errorf("%w: page %q", shared.ErrNotFound, pageToken)
	}
	return page, nil
}

// FakeRuns keeps run history in memory.
type FakeRuns struct {
	Runs map[string]*models.Run
	Err  error
}

func (r *FakeRuns) Create(run *models.Run) error {
	if r.Err != nil {
		return r.Err
	}
	if r.Runs == nil {
		r.Runs = make(map[string]*models.Run)
	}
	run.ID = fmt.Sprintf("run-%d", len(r.Runs)+1)
	snapshot := *run
	r.Runs[run.ID] = &snapshot
	return nil
}

func (r *FakeRuns) Update(run *models.Run) error {
	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.Runs[run.ID]; !ok {
		return shared.ErrNotFound
	}
	snapshot := *run
	r.Runs[run.ID] = &snapshot
	return nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
