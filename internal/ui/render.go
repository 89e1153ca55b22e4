package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/foxhole/internal/formatter"
	"github.com/desertthunder/foxhole/internal/services"
	"github.com/desertthunder/foxhole/internal/shared"
	"github.com/desertthunder/foxhole/internal/tasks"
)

// RenderProgress formats one progress update as a single line.
func RenderProgress(u tasks.ProgressUpdate) string {
	switch u.Phase {
	case tasks.SelectChannels:
		return styles.Title(u.Message)
	case tasks.AppendVideos, tasks.CreatePlaylist:
		return styles.OK(u.Message)
	case tasks.CurateSection:
		return styles.Help(u.Message)
	case tasks.CheckChannel:
		if strings.Contains(u.Message, "✗") {
			return styles.Err(u.Message)
		}
		if strings.Contains(u.Message, "Skipping") {
			return styles.Warn(u.Message)
		}
		return u.Message
	default:
		return u.Message
	}
}

// RenderUpdate summarises an update cycle. err is the error that ended the run, if any.
func RenderUpdate(result *tasks.UpdateResult, err error) string {
	var b strings.Builder
	switch {
	case err != nil:
		b.WriteString(styles.Err("✗ Update stopped: " + err.Error()))
	case result.Failed():
		b.WriteString(styles.Warn("⚠ Update finished with failures"))
	default:
		b.WriteString(styles.OK("✓ Update complete"))
	}
	b.WriteString("\n")

	if result == nil {
		return b.String()
	}

	fmt.Fprintf(&b, "\nSelected: %d\nChecked: %d\nSkipped (cooldown): %d\nUpdated: %d\nVideos added: %d\n",
		result.Selected, result.Checked, result.Skipped, result.Updated, result.VideosAdded)
	for _, id := range result.UpdatedPlaylists {
		fmt.Fprintf(&b, "  • %s\n", formatter.PlaylistURL(id))
	}
	if len(result.Section) > 0 {
		fmt.Fprintf(&b, "Active section: %d playlists\n", len(result.Section))
	}
	if result.Failed() {
		b.WriteString("\n" + styles.Warn(fmt.Sprintf("Abandoned %d channels:", len(result.Failures))) + "\n")
		for _, f := range result.Failures {
			fmt.Fprintf(&b, "  • %s: %v\n", f.ChannelID, f.Err)
		}
	}
	return b.String()
}

// RenderCreate summarises a create run.
func RenderCreate(result *tasks.CreateResult, err error) string {
	var b strings.Builder
	if err != nil {
		b.WriteString(styles.Err("✗ Create stopped: "+err.Error()) + "\n")
	} else {
		b.WriteString(styles.OK("✓ Create complete") + "\n")
	}
	if result == nil {
		return b.String()
	}

	fmt.Fprintf(&b, "\nCreated: %d\nSkipped: %d\nFailed: %d\n", len(result.Created), result.Skipped, len(result.Failures))
	for _, r := range result.Created {
		fmt.Fprintf(&b, "  • %s (%d videos) %s\n", r.ChannelTitle, len(r.Videos), formatter.PlaylistURL(r.PlaylistID))
	}
	for _, f := range result.Failures {
		fmt.Fprintf(&b, "  %s %s: %v\n", styles.Err("✗"), f.ChannelID, f.Err)
	}
	return b.String()
}

// RenderDiscover lists discovered channels.
func RenderDiscover(hits []services.ChannelHit) string {
	var b strings.Builder
	b.WriteString(styles.Title(fmt.Sprintf("Found %d new channels", len(hits))) + "\n")
	for i, h := range hits {
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, h.ChannelTitle, h.ChannelID)
	}
	if len(hits) > 0 {
		b.WriteString("\n" + styles.Help("Create playlists with: foxhole create --channel-ids <id,...>") + "\n")
	}
	return b.String()
}

// QuotaMessage is printed before exiting when the daily API quota is gone.
func QuotaMessage(err error) (string, bool) {
	if !errors.Is(err, shared.ErrQuotaExhausted) {
		return "", false
	}
	return styles.Err("✗ YouTube API quota exhausted.") + "\n" +
		styles.Help("The daily quota resets at midnight Pacific Time; run the command again after that.") + "\n", true
}
