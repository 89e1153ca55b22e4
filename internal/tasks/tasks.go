package tasks

import (
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/foxhole/internal/models"
	"github.com/desertthunder/foxhole/internal/services"
	"github.com/desertthunder/foxhole/internal/shared"
)

// ChannelStore is the persistence the engine needs for channel records.
type ChannelStore interface {
	Load(channelIDs ...string) (map[string]*models.ChannelRecord, error)
	Get(channelID string) (*models.ChannelRecord, bool, error)
	ByPlaylistID(playlistID string) (*models.ChannelRecord, bool, error)
	Save(record *models.ChannelRecord) error
}

// RunRecorder stores run history. It is optional.
type RunRecorder interface {
	Create(run *models.Run) error
	Update(run *models.Run) error
}

// Options are the engine's policy settings.
type Options struct {
	Window             time.Duration // recency window for scheduling and section retention
	Cooldown           time.Duration // channels updated within this long ago are skipped
	PageSize           int
	ActiveSectionID    string // empty disables the active playlists section
	ActiveMaxPlaylists int
	IgnoreChannelIDs   []string
	Query              string
	DiscoverMaxEntries int
}

// OptionsFromConfig maps configuration onto engine options.
func OptionsFromConfig(cfg *shared.Config) Options {
	return Options{
		Window:             cfg.Update.Window(),
		Cooldown:           cfg.Update.Cooldown(),
		PageSize:           cfg.Update.PageSize,
		ActiveSectionID:    cfg.Update.ActiveSectionID,
		ActiveMaxPlaylists: cfg.Update.ActiveMaxPlaylists,
		IgnoreChannelIDs:   cfg.Search.IgnoreChannelIDs,
		Query:              cfg.Search.Query,
		DiscoverMaxEntries: cfg.Search.DiscoverMaxEntries,
	}
}

// Deps are the collaborators injected into a [PlaylistEngine].
// Section, Searcher and Runs may be nil.
type Deps struct {
	Store    ChannelStore
	Source   services.VideoSource
	Writer   services.PlaylistWriter
	Section  services.ActivePlaylistSection
	Searcher services.ChannelSearcher
	Runs     RunRecorder
	Logger   *log.Logger
	Now      func() time.Time
}

// PlaylistEngine runs update, create and discover operations.
// It is single threaded: channels are processed strictly in scheduling order.
type PlaylistEngine struct {
	store     ChannelStore
	source    services.VideoSource
	writer    services.PlaylistWriter
	searcher  services.ChannelSearcher
	runs      RunRecorder
	scheduler *Scheduler
	merger    *Merger
	curator   *Curator
	logger    *log.Logger
	now       func() time.Time
	opts      Options
}

// NewPlaylistEngine creates a new PlaylistEngine with the provided collaborators.
func NewPlaylistEngine(deps Deps, opts Options) *PlaylistEngine {
	logger := deps.Logger
	if logger == nil {
		logger = log.Default()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 5
	}

	var curator *Curator
	if deps.Section != nil && opts.ActiveSectionID != "" {
		curator = NewCurator(deps.Section, deps.Store, CuratorOptions{
			SectionID:    opts.ActiveSectionID,
			Window:       opts.Window,
			MaxPlaylists: opts.ActiveMaxPlaylists,
			Logger:       logger,
			Now:          now,
		})
	}

	return &PlaylistEngine{
		store:     deps.Store,
		source:    deps.Source,
		writer:    deps.Writer,
		searcher:  deps.Searcher,
		runs:      deps.Runs,
		scheduler: NewScheduler(deps.Store, curator, logger),
		merger:    NewMerger(deps.Source, logger),
		curator:   curator,
		logger:    logger,
		now:       now,
		opts:      opts,
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *PlaylistEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func (e *PlaylistEngine) ignored(channelID string) bool {
	for _, id := range e.opts.IgnoreChannelIDs {
		if id == channelID {
			return true
		}
	}
	return false
}

// startRun records the start of a run. History is best effort: failures are logged, not returned.
func (e *PlaylistEngine) startRun(command string) *models.Run {
	run := models.NewRun(command, e.now())
	if e.runs == nil {
		return run
	}
	if err := e.runs.Create(run); err != nil {
		e.logger.Warn("failed to record run start", "command", command, "err", err)
	}
	return run
}

func (e *PlaylistEngine) finishRun(run *models.Run, err error) {
	run.Finish(e.now(), err)
	if e.runs == nil || run.ID == "" {
		return
	}
	if uerr := e.runs.Update(run); uerr != nil {
		e.logger.Warn("failed to record run result", "run_id", run.ID, "err", uerr)
	}
}

// channelLevel reports whether err aborts only the current channel.
// Quota exhaustion, storage failures and anything unrecognised halt the whole run.
func channelLevel(err error) bool {
	if errors.Is(err, shared.ErrQuotaExhausted) {
		return false
	}
	return errors.Is(err, shared.ErrMaxRetriesExceeded) ||
		errors.Is(err, shared.ErrNotFound) ||
		errors.Is(err, shared.ErrNoVideos)
}
