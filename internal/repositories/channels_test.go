package repositories

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/desertthunder/foxhole/internal/models"
	"github.com/desertthunder/foxhole/internal/shared"
)

var base = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func video(id string, published time.Time) models.Video {
	return models.Video{
		ID: "item-" + id,
		Snippet: models.VideoSnippet{
			PublishedAt: published,
			Title:       "BABYMETAL reaction " + id,
			ResourceID:  models.ResourceID{Kind: "youtube#video", VideoID: id},
		},
		ContentDetails: models.VideoContentDetails{VideoID: id, VideoPublishedAt: published},
	}
}

func newStore(t *testing.T) *ChannelStore {
	t.Helper()
	store, err := NewChannelStore(t.TempDir(), shared.NewLogger(io.Discard))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}

func TestChannelStore(t *testing.T) {
	t.Run("SaveAndLoad", func(t *testing.T) {
		store := newStore(t)
		record := models.NewChannelRecord("UCaaa", "Channel A", "PLaaa", []models.Video{video("v1", base)}, base)

		if err := store.Save(record); err != nil {
			t.Fatalf("failed to save record: %v", err)
		}

		reopened, _ := NewChannelStore(store.Root(), shared.NewLogger(io.Discard))
		loaded, err := reopened.Load("UCaaa")
		if err != nil {
			t.Fatalf("failed to load record: %v", err)
		}

		got, ok := loaded["UCaaa"]
		if !ok {
			t.Fatal("expected record to be loaded")
		}
		if got.PlaylistID != "PLaaa" || got.ChannelTitle != "Channel A" {
			t.Errorf("unexpected record: %+v", got)
		}
		if !got.HashValid() {
			t.Error("loaded record should have a valid hash")
		}
		if got.LastUpdatedAt == nil || !got.LastUpdatedAt.Equal(base) {
			t.Errorf("expected last_updated_at %v, got %v", base, got.LastUpdatedAt)
		}
		if len(got.Videos) != 1 || got.Videos[0].VideoID() != "v1" {
			t.Errorf("unexpected videos: %+v", got.Videos)
		}
	})

	t.Run("LoadSkipsMissing", func(t *testing.T) {
		store := newStore(t)
		store.Save(models.NewChannelRecord("UCaaa", "A", "PLaaa", nil, base))

		loaded, err := store.Load("UCaaa", "UCmissing")
		if err != nil {
			t.Fatalf("missing record should not fail the load: %v", err)
		}
		if len(loaded) != 1 {
			t.Errorf("expected 1 record, got %d", len(loaded))
		}
	})

	t.Run("LoadAllSkipsReservedAndCorrupt", func(t *testing.T) {
		store := newStore(t)
		store.Save(models.NewChannelRecord("UCaaa", "A", "PLaaa", nil, base))
		store.Save(models.NewChannelRecord("UCbbb", "B", "PLbbb", nil, base))

		files := map[string]string{
			shared.SecretsFileName: `{"installed":{}}`,
			shared.TokenFileName:   `{"access_token":"x"}`,
			"foxhole.db":           "sqlite",
			".hidden":              "{}",
			"UCbroken":             "{not json",
			"UCnoplaylist":         `{"channel_id":"UCnoplaylist"}`,
		}
		for name, content := range files {
			if err := os.WriteFile(filepath.Join(store.Root(), name), []byte(content), 0644); err != nil {
				t.Fatalf("failed to write %s: %v", name, err)
			}
		}
		os.Mkdir(filepath.Join(store.Root(), "UCdir"), 0755)

		fresh, _ := NewChannelStore(store.Root(), shared.NewLogger(io.Discard))
		loaded, err := fresh.Load()
		if err != nil {
			t.Fatalf("failed to load all: %v", err)
		}
		if len(loaded) != 2 {
			t.Fatalf("expected 2 records, got %d: %v", len(loaded), loaded)
		}
		for _, id := range []string{"UCaaa", "UCbbb"} {
			if _, ok := loaded[id]; !ok {
				t.Errorf("expected %s to be loaded", id)
			}
		}
	})

	t.Run("GetPrimesStore", func(t *testing.T) {
		store := newStore(t)
		store.Save(models.NewChannelRecord("UCaaa", "A", "PLaaa", nil, base))

		fresh, _ := NewChannelStore(store.Root(), shared.NewLogger(io.Discard))
		record, ok, err := fresh.Get("UCaaa")
		if err != nil || !ok {
			t.Fatalf("expected record, got ok=%v err=%v", ok, err)
		}
		if record.PlaylistID != "PLaaa" {
			t.Errorf("expected PLaaa, got %s", record.PlaylistID)
		}

		if _, ok, _ := fresh.Get("UCnone"); ok {
			t.Error("expected absent record")
		}
	})

	t.Run("ByPlaylistID", func(t *testing.T) {
		store := newStore(t)
		store.Save(models.NewChannelRecord("UCaaa", "A", "PLaaa", nil, base))
		store.Save(models.NewChannelRecord("UCbbb", "B", "PLbbb", nil, base))

		record, ok, err := store.ByPlaylistID("PLbbb")
		if err != nil || !ok {
			t.Fatalf("expected record, got ok=%v err=%v", ok, err)
		}
		if record.ChannelID != "UCbbb" {
			t.Errorf("expected UCbbb, got %s", record.ChannelID)
		}
	})

	t.Run("AllSorted", func(t *testing.T) {
		store := newStore(t)
		for _, id := range []string{"UCccc", "UCaaa", "UCbbb"} {
			store.Save(models.NewChannelRecord(id, id, "PL"+id, nil, base))
		}

		records, err := store.All()
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		want := []string{"UCaaa", "UCbbb", "UCccc"}
		for i, r := range records {
			if r.ChannelID != want[i] {
				t.Errorf("position %d: expected %s, got %s", i, want[i], r.ChannelID)
			}
		}
	})

	t.Run("LoadRepairsHash", func(t *testing.T) {
		store := newStore(t)
		record := models.NewChannelRecord("UCaaa", "A", "PLaaa", []models.Video{video("v1", base)}, base)
		record.VideosHash = "stale"
		store.Save(record)

		fresh, _ := NewChannelStore(store.Root(), shared.NewLogger(io.Discard))
		loaded, _ := fresh.Load("UCaaa")
		if !loaded["UCaaa"].HashValid() {
			t.Error("expected hash to be recomputed on read")
		}
	})
}

func TestChannelStoreErrors(t *testing.T) {
	t.Run("SaveInvalidRecord", func(t *testing.T) {
		store := newStore(t)
		err := store.Save(&models.ChannelRecord{ChannelID: "UCaaa"})
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("SaveReservedName", func(t *testing.T) {
		store := newStore(t)
		err := store.Save(&models.ChannelRecord{ChannelID: shared.SecretsFileName, PlaylistID: "PL"})
		if err == nil {
			t.Fatal("expected reserved name to be refused")
		}
	})

	t.Run("MismatchedChannelIDIsCorrupt", func(t *testing.T) {
		store := newStore(t)
		if err := store.Save(models.NewChannelRecord("UCy", "Y", "PLy", nil, base)); err != nil {
			t.Fatal(err)
		}
		if err := os.Rename(filepath.Join(store.Root(), "UCy"), filepath.Join(store.Root(), "UCx")); err != nil {
			t.Fatal(err)
		}

		fresh, _ := NewChannelStore(store.Root(), shared.NewLogger(io.Discard))
		if _, err := fresh.read("UCx"); !errors.Is(err, shared.ErrCorruptRecord) {
			t.Errorf("expected ErrCorruptRecord, got %v", err)
		}

		loaded, err := fresh.Load("UCx")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(loaded) != 0 {
			t.Errorf("expected mismatched record to be skipped, got %v", loaded)
		}

		all, err := fresh.Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := all["UCy"]; ok || len(all) != 0 {
			t.Errorf("expected no records, got %v", all)
		}
	})

	t.Run("SaveIOFailurePropagates", func(t *testing.T) {
		store := newStore(t)
		// a directory where the record file belongs makes the rename fail
		if err := os.Mkdir(filepath.Join(store.Root(), "UCaaa"), 0755); err != nil {
			t.Fatal(err)
		}
		os.WriteFile(filepath.Join(store.Root(), "UCaaa", "child"), []byte("x"), 0644)

		err := store.Save(models.NewChannelRecord("UCaaa", "A", "PLaaa", nil, base))
		if !errors.Is(err, shared.ErrStorage) {
			t.Fatalf("expected storage error, got %v", err)
		}

		var storageErr *StorageError
		if !errors.As(err, &storageErr) || storageErr.ID != "UCaaa" {
			t.Errorf("expected StorageError for UCaaa, got %#v", err)
		}
		if _, ok, _ := store.Get("UCaaa"); ok {
			t.Error("failed save must not update the in-memory mapping")
		}

		entries, _ := os.ReadDir(store.Root())
		for _, e := range entries {
			if filepath.Ext(e.Name()) == ".tmp" {
				t.Errorf("temp file %s left behind", e.Name())
			}
		}
	})
}

func TestIsRecordName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"UCabc123", true},
		{"UC-_abc", true},
		{"", false},
		{"secrets.json", false},
		{"token.json", false},
		{".foxhole-123.tmp", false},
		{"foxhole.db", false},
		{"../escape", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRecordName(tt.name); got != tt.want {
				t.Errorf("isRecordName(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}
