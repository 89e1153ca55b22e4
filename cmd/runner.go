package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/foxhole/internal/repositories"
	"github.com/desertthunder/foxhole/internal/services"
	"github.com/desertthunder/foxhole/internal/shared"
	"github.com/desertthunder/foxhole/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Collaborators that need credentials or disk access are built on first use so that commands such as
// setup and auth work before the rest is configured.
type Runner struct {
	config      *shared.Config
	configPath  string
	logger      *log.Logger
	output      io.Writer
	openBrowser func(string) error

	store      *repositories.ChannelStore
	db         *sql.DB
	runs       *repositories.RunRepository
	rejections *repositories.RejectionRepository
	youtube    *services.YouTubeService
	engine     *tasks.PlaylistEngine
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config      *shared.Config
	ConfigPath  string
	Logger      *log.Logger
	Output      io.Writer
	OpenBrowser func(string) error

	// Pre-built collaborators, mainly for tests.
	Store      *repositories.ChannelStore
	Runs       *repositories.RunRepository
	Rejections *repositories.RejectionRepository
	Engine     *tasks.PlaylistEngine
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}

	return &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		logger:      opts.Logger,
		output:      opts.Output,
		openBrowser: opts.OpenBrowser,
		store:       opts.Store,
		runs:        opts.Runs,
		rejections:  opts.Rejections,
		engine:      opts.Engine,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, updateCommand, createCommand, discoverCommand,
		channelsCommand, rejectCommand, runsCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// before loads the configuration named by --config and applies --verbose.
// A missing file falls back to the defaults so that `foxhole setup` can create it.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	path := shared.ExpandPath(cmd.String("config"))
	r.configPath = path

	config, err := shared.LoadConfig(path)
	switch {
	case err == nil:
		r.config = config
		r.logger.Debug("loaded config", "path", path)
	case errors.Is(err, os.ErrNotExist):
		r.logger.Debug("config file not found, using defaults", "path", path)
	default:
		return ctx, err
	}
	return ctx, nil
}

// close releases the database handle, if one was opened.
func (r *Runner) close() {
	if r.db == nil {
		return
	}
	if err := r.db.Close(); err != nil {
		r.logger.Warn("failed to close database", "err", err)
	}
	r.db = nil
}

func (r *Runner) channelStore() (*repositories.ChannelStore, error) {
	if r.store != nil {
		return r.store, nil
	}
	store, err := repositories.NewChannelStore(r.config.StorageDir(), r.logger)
	if err != nil {
		return nil, err
	}
	r.store = store
	return store, nil
}

func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}
	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStorage, err)
	}
	r.db = db
	return db, nil
}

func (r *Runner) runRepository() (*repositories.RunRepository, error) {
	if r.runs != nil {
		return r.runs, nil
	}
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	r.runs = repositories.NewRunRepository(db)
	return r.runs, nil
}

func (r *Runner) rejectionRepository() (*repositories.RejectionRepository, error) {
	if r.rejections != nil {
		return r.rejections, nil
	}
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	r.rejections = repositories.NewRejectionRepository(db)
	return r.rejections, nil
}

func (r *Runner) youTube(ctx context.Context) (*services.YouTubeService, error) {
	if r.youtube != nil {
		return r.youtube, nil
	}

	clientOpts, err := services.ClientOptions(ctx, r.config)
	if err != nil {
		return nil, err
	}

	opts := services.YouTubeOptions{
		Search: r.config.Search,
		Retry:  r.config.Retry,
		Rate:   r.config.Rate,
		Logger: shared.WithLogger(r.logger, "service", "youtube"),
	}
	if rejections, err := r.rejectionRepository(); err != nil {
		r.logger.Warn("rejected videos unavailable, not filtering them", "err", err)
	} else {
		opts.Rejections = rejections
	}

	svc, err := services.NewYouTubeService(ctx, opts, clientOpts...)
	if err != nil {
		return nil, err
	}
	r.youtube = svc
	return svc, nil
}

// playlistEngine wires the engine to the channel store, the YouTube service and run history.
func (r *Runner) playlistEngine(ctx context.Context) (*tasks.PlaylistEngine, error) {
	if r.engine != nil {
		return r.engine, nil
	}

	store, err := r.channelStore()
	if err != nil {
		return nil, err
	}
	yt, err := r.youTube(ctx)
	if err != nil {
		return nil, err
	}

	deps := tasks.Deps{
		Store:    store,
		Source:   yt,
		Writer:   yt,
		Section:  yt,
		Searcher: yt,
		Logger:   shared.WithLogger(r.logger, "component", "engine"),
	}
	if runs, err := r.runRepository(); err != nil {
		r.logger.Warn("run history unavailable", "err", err)
	} else {
		deps.Runs = runs
	}

	r.engine = tasks.NewPlaylistEngine(deps, tasks.OptionsFromConfig(r.config))
	return r.engine, nil
}

// printProgress writes progress updates until the channel is closed, then signals done.
func (r *Runner) printProgress(progress <-chan tasks.ProgressUpdate, render func(tasks.ProgressUpdate) string, done chan<- struct{}) {
	defer close(done)
	for update := range progress {
		r.writePlain("%s\n", render(update))
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
