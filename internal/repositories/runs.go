package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/foxhole/internal/models"
	"github.com/desertthunder/foxhole/internal/shared"
)

// RunRepository records update and create invocations.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts run with a generated ID
func (r *RunRepository) Create(run *models.Run) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	run.ID = shared.GenerateID()

	query := `
		INSERT INTO runs (
			id, command, started_at, finished_at, channels_checked,
			channels_updated, videos_added, status, error
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		run.ID,
		run.Command,
		run.StartedAt,
		nullTime(run.FinishedAt),
		run.ChannelsChecked,
		run.ChannelsUpdated,
		run.VideosAdded,
		string(run.Status),
		run.Error,
	)
	if err != nil {
		return &StorageError{Op: "write", Entity: "run", ID: run.ID, Err: err}
	}
	return nil
}

// Update stores the counters and status of an existing run
func (r *RunRepository) Update(run *models.Run) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		UPDATE runs
		SET finished_at = ?, channels_checked = ?, channels_updated = ?,
			videos_added = ?, status = ?, error = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		nullTime(run.FinishedAt),
		run.ChannelsChecked,
		run.ChannelsUpdated,
		run.VideosAdded,
		string(run.Status),
		run.Error,
		run.ID,
	)
	if err != nil {
		return &StorageError{Op: "write", Entity: "run", ID: run.ID, Err: err}
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return &StorageError{Op: "write", Entity: "run", ID: run.ID, Err: err}
	}
	if rows == 0 {
		return &StorageError{Op: "write", Entity: "run", ID: run.ID, Err: shared.ErrNotFound}
	}
	return nil
}

// Get retrieves a run by ID
func (r *RunRepository) Get(id string) (*models.Run, error) {
	query := `
		SELECT id, command, started_at, finished_at, channels_checked,
			channels_updated, videos_added, status, error
		FROM runs
		WHERE id = ?
	`

	run, err := scanRun(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &StorageError{Op: "read", Entity: "run", ID: id, Err: shared.ErrNotFound}
	}
	if err != nil {
		return nil, &StorageError{Op: "read", Entity: "run", ID: id, Err: err}
	}
	return run, nil
}

// Recent returns up to limit runs, newest first
func (r *RunRepository) Recent(limit int) ([]*models.Run, error) {
	query := `
		SELECT id, command, started_at, finished_at, channels_checked,
			channels_updated, videos_added, status, error
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, &StorageError{Op: "query", Entity: "run", Err: err}
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, &StorageError{Op: "query", Entity: "run", Err: err}
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "query", Entity: "run", Err: err}
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*models.Run, error) {
	var (
		run      models.Run
		finished sql.NullTime
		status   string
	)

	err := row.Scan(
		&run.ID,
		&run.Command,
		&run.StartedAt,
		&finished,
		&run.ChannelsChecked,
		&run.ChannelsUpdated,
		&run.VideosAdded,
		&status,
		&run.Error,
	)
	if err != nil {
		return nil, err
	}

	run.Status = models.RunStatus(status)
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	return &run, nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
