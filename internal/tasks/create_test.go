package tasks

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/desertthunder/foxhole/internal/models"
	"github.com/desertthunder/foxhole/internal/services"
	"github.com/desertthunder/foxhole/internal/shared"
	tu "github.com/desertthunder/foxhole/internal/testing"
)

func TestPlaylistEngine_ProcessChannel(t *testing.T) {
	ctx := context.Background()
	t0 := tu.Day

	t.Run("creates the playlist and persists the record", func(t *testing.T) {
		f := newFixture()
		f.source.Uploads["c1"] = []models.Video{tu.Video("v1", t0.Add(-2*day)), tu.Video("v2", t0.Add(-day))}
		f.source.Titles["c1"] = "Reactor"

		item, err := f.engine(t0).ProcessChannel(ctx, "c1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if item == nil {
			t.Fatal("expected a work item")
		}
		if !item.HasWatermark || !item.Watermark.Equal(t0.Add(-day)) {
			t.Errorf("watermark = %v", item.Watermark)
		}

		r, ok := f.store.Records["c1"]
		if !ok {
			t.Fatal("record not saved")
		}
		if r.PlaylistID != "PLc1" || r.ChannelTitle != "Reactor" {
			t.Errorf("unexpected record %+v", r)
		}
		if !slices.Equal(tu.IDs(r.Videos), []string{"v1", "v2"}) || !r.HashValid() {
			t.Errorf("unexpected videos %v", tu.IDs(r.Videos))
		}
		if r.LastUpdatedAt == nil || !r.LastUpdatedAt.Equal(t0) {
			t.Errorf("last_updated_at = %v", r.LastUpdatedAt)
		}
	})

	t.Run("records only the videos that were added", func(t *testing.T) {
		f := newFixture()
		f.source.Uploads["c1"] = []models.Video{tu.Video("v1", t0.Add(-2*day)), tu.Video("v2", t0.Add(-day))}
		f.writer.Drop["v2"] = true

		if _, err := f.engine(t0).ProcessChannel(ctx, "c1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := tu.IDs(f.store.Records["c1"].Videos); !slices.Equal(got, []string{"v1"}) {
			t.Errorf("record holds %v", got)
		}
		if got := f.store.Records["c1"].ChannelTitle; got != "c1" {
			t.Errorf("title fallback = %q", got)
		}
	})

	t.Run("skips", func(t *testing.T) {
		tests := []struct {
			name  string
			setup func(f *fixture)
		}{
			{"ignored channel", func(f *fixture) { f.opts.IgnoreChannelIDs = []string{"c1"} }},
			{"cached channel", func(f *fixture) { f.store.Records["c1"] = record("c1", t0, t0) }},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f := newFixture()
				f.source.Uploads["c1"] = []models.Video{tu.Video("v1", t0)}
				tt.setup(f)

				item, err := f.engine(t0).ProcessChannel(ctx, "c1")
				if err != nil || item != nil {
					t.Errorf("expected skip, got %v, %v", item, err)
				}
				if len(f.source.Calls) != 0 || len(f.writer.Created) != 0 {
					t.Errorf("unexpected calls: fetch %v, create %v", f.source.Calls, f.writer.Created)
				}
			})
		}
	})

	t.Run("no videos", func(t *testing.T) {
		f := newFixture()

		_, err := f.engine(t0).ProcessChannel(ctx, "c1")
		if !errors.Is(err, shared.ErrNoVideos) {
			t.Fatalf("expected ErrNoVideos, got %v", err)
		}
		if len(f.writer.Created) != 0 || len(f.store.Saved) != 0 {
			t.Error("empty playlist was created")
		}
	})

	t.Run("missing channel id", func(t *testing.T) {
		if _, err := newFixture().engine(t0).ProcessChannel(ctx, ""); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestPlaylistEngine_CreatePlaylists(t *testing.T) {
	ctx := context.Background()
	t0 := tu.Day

	t.Run("continues past channel failures", func(t *testing.T) {
		f := newFixture(record("cached", t0, t0))
		f.source.Uploads["c1"] = []models.Video{tu.Video("v1", t0)}
		f.source.Uploads["c3"] = []models.Video{tu.Video("v3", t0)}

		progress := make(chan ProgressUpdate, 10)
		result, err := f.engine(t0).CreatePlaylists(ctx, progress, []string{"c1", "c2", "cached", "c3"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		close(progress)

		if len(result.Created) != 2 || result.Skipped != 1 || len(result.Failures) != 1 {
			t.Errorf("unexpected result %+v", result)
		}
		if result.Failures[0].ChannelID != "c2" || !errors.Is(result.Failures[0].Err, shared.ErrNoVideos) {
			t.Errorf("unexpected failure %+v", result.Failures[0])
		}

		var created int
		for u := range progress {
			if u.Phase == CreatePlaylist {
				created++
			}
		}
		if created != 2 {
			t.Errorf("expected 2 create updates, got %d", created)
		}

		run := f.runs.Runs["run-1"]
		if run == nil || run.Command != "create" || run.Status != models.RunSucceeded || run.VideosAdded != 2 {
			t.Errorf("unexpected run %+v", run)
		}
	})

	t.Run("quota exhaustion stops the run", func(t *testing.T) {
		f := newFixture()
		f.source.Uploads["c1"] = []models.Video{tu.Video("v1", t0)}
		f.source.Uploads["c3"] = []models.Video{tu.Video("v3", t0)}
		f.source.Errs["c2"] = &services.APIError{Kind: services.KindQuotaExhausted, Status: 403, Reason: "quotaExceeded", Err: errors.New("quota")}

		result, err := f.engine(t0).CreatePlaylists(ctx, nil, []string{"c1", "c2", "c3"})
		if !errors.Is(err, shared.ErrQuotaExhausted) {
			t.Fatalf("expected quota error, got %v", err)
		}
		if len(result.Created) != 1 || !slices.Equal(f.source.Calls, []string{"c1", "c2"}) {
			t.Errorf("unexpected progress: created %d, fetched %v", len(result.Created), f.source.Calls)
		}
		if run := f.runs.Runs["run-1"]; run == nil || run.Status != models.RunFailed {
			t.Errorf("unexpected run %+v", run)
		}
	})

	t.Run("quota exhausted while adding videos keeps the new playlist", func(t *testing.T) {
		f := newFixture()
		f.source.Uploads["c1"] = []models.Video{tu.Video("v1", t0), tu.Video("v2", t0.Add(day))}
		f.source.Uploads["c2"] = []models.Video{tu.Video("w1", t0)}
		f.writer.QuotaAt["v2"] = true

		result, err := f.engine(t0).CreatePlaylists(ctx, nil, []string{"c1", "c2"})
		if !errors.Is(err, shared.ErrQuotaExhausted) {
			t.Fatalf("expected quota error, got %v", err)
		}
		saved, ok := f.store.Records["c1"]
		if !ok || saved.PlaylistID != "PLc1" {
			t.Fatalf("expected record for the created playlist, got %+v", saved)
		}
		if got := tu.IDs(saved.Videos); !slices.Equal(got, []string{"v1"}) {
			t.Errorf("record holds %v, want [v1]", got)
		}
		if len(result.Created) != 1 || !slices.Equal(f.source.Calls, []string{"c1"}) {
			t.Errorf("unexpected progress: created %d, fetched %v", len(result.Created), f.source.Calls)
		}
	})
}

func TestPlaylistEngine_Discover(t *testing.T) {
	ctx := context.Background()
	t0 := tu.Day

	hit := func(id string) services.ChannelHit {
		return services.ChannelHit{ChannelID: id, ChannelTitle: "Channel " + id}
	}

	t.Run("collects new channels across pages", func(t *testing.T) {
		f := newFixture(record("cached", t0, t0))
		f.opts.IgnoreChannelIDs = []string{"ignored"}
		searcher := &tu.FakeSearcher{Pages: map[string]*services.SearchPage{
			"":   {Hits: []services.ChannelHit{hit("a"), hit("b"), hit("a"), hit("ignored"), hit("cached")}, NextPageToken: "p2"},
			"p2": {Hits: []services.ChannelHit{hit("c"), hit("d")}},
		}}
		e := f.engine(t0)
		e.searcher = searcher

		hits, err := e.Discover(ctx, nil, 3, "live")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var ids []string
		for _, h := range hits {
			ids = append(ids, h.ChannelID)
		}
		if !slices.Equal(ids, []string{"a", "b", "c"}) {
			t.Errorf("got %v, want [a b c]", ids)
		}
		if len(searcher.Queries) != 2 || searcher.Queries[0] != "foxhole reaction live" {
			t.Errorf("queries %v", searcher.Queries)
		}
	})

	t.Run("stops after five passes", func(t *testing.T) {
		pages := make(map[string]*services.SearchPage)
		for i := 0; i < 10; i++ {
			token := ""
			if i > 0 {
				token = fmt.Sprintf("p%d", i)
			}
			pages[token] = &services.SearchPage{Hits: []services.ChannelHit{hit("cached")}, NextPageToken: fmt.Sprintf("p%d", i+1)}
		}
		searcher := &tu.FakeSearcher{Pages: pages}
		e := newFixture(record("cached", t0, t0)).engine(t0)
		e.searcher = searcher

		hits, err := e.Discover(ctx, nil, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(hits) != 0 || len(searcher.Queries) != maxSearchPasses {
			t.Errorf("got %d hits after %d searches", len(hits), len(searcher.Queries))
		}
	})

	t.Run("without a searcher", func(t *testing.T) {
		if _, err := newFixture().engine(t0).Discover(ctx, nil, 5); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("search errors are returned", func(t *testing.T) {
		e := newFixture().engine(t0)
		e.searcher = &tu.FakeSearcher{Err: fmt.Errorf("%w: search", shared.ErrQuotaExhausted)}
		if _, err := e.Discover(ctx, nil, 5); !errors.Is(err, shared.ErrQuotaExhausted) {
			t.Errorf("expected quota error, got %v", err)
		}
	})
}
