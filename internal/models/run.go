package models

import (
	"fmt"
	"time"
)

// RunStatus is the lifecycle state of a recorded run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// Run is one invocation of an update or create command.
type Run struct {
	ID              string     `json:"id"`
	Command         string     `json:"command"`
	StartedAt       time.Time  `json:"started_at"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
	ChannelsChecked int        `json:"channels_checked"`
	ChannelsUpdated int        `json:"channels_updated"`
	VideosAdded     int        `json:"videos_added"`
	Status          RunStatus  `json:"status"`
	Error           string     `json:"error,omitempty"`
}

// NewRun starts a run for command.
func NewRun(command string, now time.Time) *Run {
	return &Run{Command: command, StartedAt: now.UTC(), Status: RunRunning}
}

// Finish marks the run complete, failed when err is non-nil.
func (r *Run) Finish(now time.Time, err error) {
	now = now.UTC()
	r.FinishedAt = &now
	if err != nil {
		r.Status = RunFailed
		r.Error = err.Error()
		return
	}
	r.Status = RunSucceeded
}

// Duration returns how long the run took, or zero while it is still running.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

func (r *Run) Validate() error {
	if r.Command == "" {
		return fmt.Errorf("command is required")
	}
	switch r.Status {
	case RunRunning, RunSucceeded, RunFailed:
	default:
		return fmt.Errorf("unknown run status %q", r.Status)
	}
	return nil
}

// Rejection excludes one video from every playlist.
type Rejection struct {
	VideoID   string    `json:"video_id"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
