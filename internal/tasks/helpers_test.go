package tasks

import (
	"time"

	"github.com/desertthunder/foxhole/internal/models"
	tu "github.com/desertthunder/foxhole/internal/testing"
)

const (
	day       = 24 * time.Hour
	sectionID = "CS-active"
)

type fixture struct {
	store   *tu.FakeStore
	source  *tu.FakeSource
	writer  *tu.FakeWriter
	section *tu.FakeSection
	runs    *tu.FakeRuns
	opts    Options
}

func newFixture(records ...*models.ChannelRecord) *fixture {
	return &fixture{
		store:   tu.NewFakeStore(records...),
		source:  tu.NewFakeSource(),
		writer:  tu.NewFakeWriter(),
		section: &tu.FakeSection{},
		runs:    &tu.FakeRuns{},
		opts: Options{
			Window:             90 * day,
			Cooldown:           7 * day,
			PageSize:           5,
			ActiveSectionID:    sectionID,
			ActiveMaxPlaylists: 50,
			Query:              "foxhole reaction",
			DiscoverMaxEntries: 10,
		},
	}
}

// engine builds an engine whose clock reads now.
func (f *fixture) engine(now time.Time) *PlaylistEngine {
	deps := Deps{
		Store:  f.store,
		Source: f.source,
		Writer: f.writer,
		Runs:   f.runs,
		Logger: tu.Logger(),
		Now:    tu.Clock(now),
	}
	if f.section != nil {
		deps.Section = f.section
	}
	return NewPlaylistEngine(deps, f.opts)
}

// record builds a channel record whose single video was published at watermark.
func record(channelID string, watermark, lastUpdated time.Time) *models.ChannelRecord {
	return tu.Record(channelID, "PL"+channelID, lastUpdated, tu.Video(channelID+"-v1", watermark))
}
