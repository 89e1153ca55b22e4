package ui

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/desertthunder/foxhole/internal/models"
	"github.com/desertthunder/foxhole/internal/services"
	"github.com/desertthunder/foxhole/internal/shared"
	"github.com/desertthunder/foxhole/internal/tasks"
)

func TestRenderProgress(t *testing.T) {
	tests := []struct {
		name   string
		update tasks.ProgressUpdate
	}{
		{"select", tasks.ProgressUpdate{Phase: tasks.SelectChannels, Message: "Selected 3 channels to check"}},
		{"check", tasks.ProgressUpdate{Phase: tasks.CheckChannel, Message: "[1/3] Checking a (UC1)..."}},
		{"skip", tasks.ProgressUpdate{Phase: tasks.CheckChannel, Message: "[1/3] Skipping a, updated recently"}},
		{"failure", tasks.ProgressUpdate{Phase: tasks.CheckChannel, Message: "[1/3] ✗ UC1: boom"}},
		{"append", tasks.ProgressUpdate{Phase: tasks.AppendVideos, Message: "[1/3] ✓ a: added 2/3 videos"}},
		{"curate", tasks.ProgressUpdate{Phase: tasks.CurateSection, Message: "Updating active playlists section"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RenderProgress(tt.update); !strings.Contains(got, tt.update.Message) {
				t.Errorf("rendered %q does not contain %q", got, tt.update.Message)
			}
		})
	}
}

func TestRenderUpdate(t *testing.T) {
	result := &tasks.UpdateResult{
		Selected: 3, Checked: 2, Skipped: 1, Updated: 1, VideosAdded: 4,
		UpdatedPlaylists: []string{"PL1"},
		Failures:         []tasks.ChannelFailure{{ChannelID: "UC2", Err: shared.ErrMaxRetriesExceeded}},
	}

	t.Run("with failures", func(t *testing.T) {
		out := RenderUpdate(result, nil)
		for _, want := range []string{"finished with failures", "Videos added: 4", "list=PL1", "UC2: max retries exceeded"} {
			if !strings.Contains(out, want) {
				t.Errorf("missing %q in:\n%s", want, out)
			}
		}
	})

	t.Run("stopped", func(t *testing.T) {
		out := RenderUpdate(result, shared.ErrQuotaExhausted)
		if !strings.Contains(out, "Update stopped: API quota exhausted") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("nil result", func(t *testing.T) {
		if out := RenderUpdate(nil, errors.New("boom")); !strings.Contains(out, "boom") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})
}

func TestRenderCreate(t *testing.T) {
	result := &tasks.CreateResult{
		Created:  []*models.ChannelRecord{{ChannelID: "UC1", ChannelTitle: "Reactor", PlaylistID: "PL1", Videos: make([]models.Video, 3)}},
		Skipped:  1,
		Failures: []tasks.ChannelFailure{{ChannelID: "UC2", Err: shared.ErrNoVideos}},
	}
	out := RenderCreate(result, nil)
	for _, want := range []string{"Create complete", "Created: 1", "Reactor (3 videos)", "UC2: no qualifying videos"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestRenderDiscover(t *testing.T) {
	out := RenderDiscover([]services.ChannelHit{{ChannelID: "UC1", ChannelTitle: "Reactor"}})
	if !strings.Contains(out, "1. Reactor (UC1)") || !strings.Contains(out, "foxhole create") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if out := RenderDiscover(nil); strings.Contains(out, "foxhole create") {
		t.Errorf("hint shown without hits:\n%s", out)
	}
}

func TestQuotaMessage(t *testing.T) {
	if _, ok := QuotaMessage(errors.New("other")); ok {
		t.Error("expected no message for other errors")
	}
	msg, ok := QuotaMessage(fmt.Errorf("update: %w", shared.ErrQuotaExhausted))
	if !ok || !strings.Contains(msg, "quota exhausted") {
		t.Errorf("unexpected message %q", msg)
	}
}
