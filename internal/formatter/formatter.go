// package formatter renders channel records, runs and rejections as CSV, Markdown, JSON or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/foxhole/internal/models"
	"github.com/desertthunder/foxhole/internal/shared"
)

const timeLayout = "2006-01-02 15:04"

// Formats lists the supported output formats.
var Formats = []string{"text", "csv", "markdown", "json"}

// ChannelRow is the flattened view of a channel record used by every format.
type ChannelRow struct {
	ChannelID   string     `json:"channel_id"`
	Title       string     `json:"channel_title"`
	PlaylistID  string     `json:"playlist_id"`
	PlaylistURL string     `json:"playlist_url"`
	Watermark   *time.Time `json:"watermark,omitempty"`
	LastUpdated *time.Time `json:"last_updated_at,omitempty"`
	Videos      int        `json:"videos"`
}

// Rows flattens records in the given order.
func Rows(records []*models.ChannelRecord) []ChannelRow {
	rows := make([]ChannelRow, len(records))
	for i, r := range records {
		row := ChannelRow{
			ChannelID:   r.ChannelID,
			Title:       r.ChannelTitle,
			PlaylistID:  r.PlaylistID,
			PlaylistURL: PlaylistURL(r.PlaylistID),
			LastUpdated: r.LastUpdatedAt,
			Videos:      len(r.Videos),
		}
		if wm, ok := r.Watermark(); ok {
			row.Watermark = &wm
		}
		rows[i] = row
	}
	return rows
}

// PlaylistURL returns the public URL of a playlist.
func PlaylistURL(playlistID string) string {
	return "https://www.youtube.com/playlist?list=" + playlistID
}

// FormatChannels renders records in the named format.
func FormatChannels(format string, records []*models.ChannelRecord) ([]byte, error) {
	rows := Rows(records)
	switch strings.ToLower(format) {
	case "", "text", "txt":
		return ChannelsToText(rows), nil
	case "csv":
		return ChannelsToCSV(rows)
	case "markdown", "md":
		return ChannelsToMarkdown(rows), nil
	case "json":
		return json.MarshalIndent(rows, "", "  ")
	default:
		return nil, fmt.Errorf("%w: unknown format %q, expected one of %s", shared.ErrInvalidArgument, format, strings.Join(Formats, ", "))
	}
}

// ChannelsToCSV writes one line per channel with columns: Channel ID, Title, Playlist ID, Watermark, Last Updated, Videos
func ChannelsToCSV(rows []ChannelRow) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Channel ID", "Title", "Playlist ID", "Watermark", "Last Updated", "Videos"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range rows {
		record := []string{
			row.ChannelID,
			row.Title,
			row.PlaylistID,
			rfc3339(row.Watermark),
			rfc3339(row.LastUpdated),
			strconv.Itoa(row.Videos),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ChannelsToMarkdown renders a table linking each playlist.
func ChannelsToMarkdown(rows []ChannelRow) []byte {
	var buf bytes.Buffer

	buf.WriteString("# Foxhole playlists\n\n")
	fmt.Fprintf(&buf, "**Channels**: %d\n\n", len(rows))
	buf.WriteString("| Channel | Playlist | Newest video | Last updated | Videos |\n")
	buf.WriteString("|---|---|---|---|---|\n")
	for _, row := range rows {
		fmt.Fprintf(&buf, "| %s | [%s](%s) | %s | %s | %d |\n",
			escapeCell(row.Title), row.PlaylistID, row.PlaylistURL, display(row.Watermark), display(row.LastUpdated), row.Videos)
	}

	return buf.Bytes()
}

// ChannelsToText renders one numbered block per channel.
func ChannelsToText(rows []ChannelRow) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Channels: %d\n\n", len(rows))
	for i, row := range rows {
		fmt.Fprintf(&buf, "%d. %s (%s)\n", i+1, row.Title, row.ChannelID)
		fmt.Fprintf(&buf, "   Playlist: %s\n", row.PlaylistURL)
		fmt.Fprintf(&buf, "   Videos: %d, newest %s, updated %s\n", row.Videos, display(row.Watermark), display(row.LastUpdated))
	}

	return buf.Bytes()
}

// RunsToText renders run history, newest first as given.
func RunsToText(runs []*models.Run) []byte {
	var buf bytes.Buffer

	if len(runs) == 0 {
		buf.WriteString("No runs recorded\n")
		return buf.Bytes()
	}
	for _, run := range runs {
		fmt.Fprintf(&buf, "%s  %-7s %-9s checked=%d updated=%d videos=%d took=%s\n",
			run.StartedAt.Local().Format(timeLayout), run.Command, run.Status,
			run.ChannelsChecked, run.ChannelsUpdated, run.VideosAdded, run.Duration().Round(time.Second))
		if run.Error != "" {
			fmt.Fprintf(&buf, "    error: %s\n", run.Error)
		}
	}

	return buf.Bytes()
}

// RejectionsToText renders the rejected videos.
func RejectionsToText(rejections []models.Rejection) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Rejected videos: %d\n", len(rejections))
	for _, r := range rejections {
		fmt.Fprintf(&buf, "  %s  %s", r.VideoID, r.CreatedAt.Local().Format(timeLayout))
		if r.Reason != "" {
			fmt.Fprintf(&buf, "  %s", r.Reason)
		}
		buf.WriteString("\n")
	}

	return buf.Bytes()
}

// WriteExport writes rendered output to path.
func WriteExport(path string, data []byte) error {
	if path == "" {
		return fmt.Errorf("%w: output path", shared.ErrMissingArgument)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func rfc3339(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func display(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Local().Format(timeLayout)
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
