package tasks

import (
	"fmt"

	"github.com/desertthunder/foxhole/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	SelectChannels Phase = iota
	CheckChannel
	AppendVideos
	CurateSection
	CreatePlaylist
	DiscoverChannels
)

func (p Phase) String() string {
	switch p {
	case SelectChannels:
		return "select_channels"
	case CheckChannel:
		return "check_channel"
	case AppendVideos:
		return "append_videos"
	case CurateSection:
		return "curate_section"
	case CreatePlaylist:
		return "create_playlist"
	case DiscoverChannels:
		return "discover_channels"
	default:
		return ""
	}
}

func selectedUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SelectChannels,
		Step:    total,
		Total:   total,
		Message: fmt.Sprintf("Selected %d channels to check", total),
	}
}

func checkChannelUpdate(step, total int, r *models.ChannelRecord) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CheckChannel,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Checking %s (%s)...", step, total, r.ChannelTitle, r.ChannelID),
	}
}

func cooldownUpdate(step, total int, r *models.ChannelRecord) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CheckChannel,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Skipping %s, updated recently", step, total, r.ChannelTitle),
	}
}

func appendedUpdate(step, total int, r *models.ChannelRecord, added, found int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AppendVideos,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s: added %d/%d videos", step, total, r.ChannelTitle, added, found),
		Data:    r,
	}
}

func channelFailedUpdate(step, total int, channelID string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CheckChannel,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, channelID, err),
	}
}

func curateUpdate(page, pages int, playlistIDs []string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CurateSection,
		Step:    page,
		Total:   pages,
		Message: fmt.Sprintf("Updating active playlists section (page %d/%d, %d playlists)", page, pages, len(playlistIDs)),
		Data:    playlistIDs,
	}
}

func createdUpdate(step, total int, r *models.ChannelRecord) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Playlist created: %s (ID: %s, %d videos)", step, total, r.ChannelTitle, r.PlaylistID, len(r.Videos)),
		Data:    r,
	}
}

func discoveredUpdate(found, target int, channelID, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DiscoverChannels,
		Step:    found,
		Total:   target,
		Message: fmt.Sprintf("[%d/%d] Found %s (%s)", found, target, title, channelID),
	}
}
