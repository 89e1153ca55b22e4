// YouTube Data API v3 implementation of the engine collaborators
//
// List calls use an API key or OAuth token; playlist and section writes need the OAuth token.
package services

import (
	"cmp"
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/foxhole/internal/models"
	"github.com/desertthunder/foxhole/internal/shared"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const (
	maxPageResults   = 50
	playlistSuffix   = "🤘🏻🦊🤘🏻 Journey down the Foxhole"
	videoKind        = "youtube#video"
	privacyPublic    = "public"
	publishedNoteFmt = "Originally Published %s"
)

// YouTubeOptions configures a [YouTubeService].
type YouTubeOptions struct {
	Search     shared.SearchConfig
	Retry      shared.RetryConfig
	Rate       shared.RateConfig
	Rejections RejectionLister
	Logger     *log.Logger
	Sleep      SleepFunc // nil uses a real timer
}

// YouTubeService implements [VideoSource], [PlaylistWriter], [ActivePlaylistSection] and [ChannelSearcher].
type YouTubeService struct {
	svc        *youtube.Service
	search     shared.SearchConfig
	rejections RejectionLister
	backoff    *Backoff
	listRate   *rate.Limiter
	insertRate *rate.Limiter
	logger     *log.Logger
}

// NewYouTubeService creates a service using the given client options for credentials and endpoint.
func NewYouTubeService(ctx context.Context, opts YouTubeOptions, clientOpts ...option.ClientOption) (*YouTubeService, error) {
	svc, err := youtube.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	backoff := NewBackoff(opts.Retry, logger)
	if opts.Sleep != nil {
		backoff.Sleep = opts.Sleep
	}

	return &YouTubeService{
		svc:        svc,
		search:     opts.Search,
		rejections: opts.Rejections,
		backoff:    backoff,
		listRate:   newLimiter(opts.Rate.ListPerSecond),
		insertRate: newLimiter(opts.Rate.InsertPerSecond),
		logger:     logger,
	}, nil
}

func newLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}

// UploadsPlaylistID derives a channel's uploads playlist ("UC..." becomes "UU...").
func UploadsPlaylistID(channelID string) (string, error) {
	if len(channelID) <= 2 || !strings.HasPrefix(channelID, "UC") {
		return "", fmt.Errorf("%w: channel id %q", shared.ErrInvalidArgument, channelID)
	}
	return "UU" + channelID[2:], nil
}

// PlaylistTitle is the title of the playlist created for a channel.
func PlaylistTitle(channelTitle string) string {
	return channelTitle + " " + playlistSuffix
}

// Fetch lists the channel's uploads and keeps the qualifying ones, oldest first.
func (y *YouTubeService) Fetch(ctx context.Context, channelID string) (*ChannelUploads, error) {
	uploadsID, err := UploadsPlaylistID(channelID)
	if err != nil {
		return nil, err
	}
	logger := y.logger.With("channel_id", channelID)

	items, err := y.listUploads(ctx, uploadsID)
	if err != nil {
		return nil, fmt.Errorf("list uploads for %s: %w", channelID, err)
	}

	result := &ChannelUploads{UploadsPlaylistID: uploadsID}
	var candidates []*youtube.PlaylistItem
	for _, item := range items {
		if item.Snippet == nil {
			continue
		}
		if result.ChannelTitle == "" {
			result.ChannelTitle = item.Snippet.ChannelTitle
		}
		if y.titleMatches(item.Snippet.Title) {
			candidates = append(candidates, item)
		}
	}
	logger.Debug("listed uploads", "items", len(items), "title_matches", len(candidates))

	details, err := y.videoDetails(ctx, candidates)
	if err != nil {
		return nil, fmt.Errorf("video details for %s: %w", channelID, err)
	}

	rejected := map[string]struct{}{}
	if y.rejections != nil {
		if rejected, err = y.rejections.RejectedSet(); err != nil {
			return nil, err
		}
	}

	for _, item := range candidates {
		video := toVideo(item)
		id := video.VideoID()
		if _, ok := rejected[id]; ok {
			logger.Debug("skipping rejected video", "video_id", id)
			continue
		}
		if details != nil {
			detail, ok := details[id]
			if !ok {
				logger.Debug("skipping video without details", "video_id", id)
				continue
			}
			if reason := y.disqualify(detail); reason != "" {
				logger.Debug("skipping video", "video_id", id, "reason", reason)
				continue
			}
		}
		result.Videos = append(result.Videos, video)
	}

	slices.SortStableFunc(result.Videos, func(a, b models.Video) int {
		return a.PublishedAt().Compare(b.PublishedAt())
	})
	logger.Info("fetched qualifying videos", "title", result.ChannelTitle, "count", len(result.Videos))
	return result, nil
}

func (y *YouTubeService) listUploads(ctx context.Context, playlistID string) ([]*youtube.PlaylistItem, error) {
	var items []*youtube.PlaylistItem
	pageToken := ""
	for {
		var resp *youtube.PlaylistItemListResponse
		err := y.backoff.Do(ctx, "playlistItems.list", func(ctx context.Context) error {
			if err := y.listRate.Wait(ctx); err != nil {
				return err
			}
			r, err := y.svc.PlaylistItems.List([]string{"snippet", "contentDetails"}).
				PlaylistId(playlistID).
				MaxResults(maxPageResults).
				PageToken(pageToken).
				Context(ctx).
				Do()
			resp = r
			return err
		})
		if err != nil {
			return nil, err
		}

		items = append(items, resp.Items...)
		pageToken = resp.NextPageToken
		if pageToken == "" {
			return items, nil
		}
	}
}

// videoDetails fetches contentDetails for the candidates in batches.
// It returns nil when no duration or region filter is configured.
func (y *YouTubeService) videoDetails(ctx context.Context, items []*youtube.PlaylistItem) (map[string]*youtube.VideoContentDetails, error) {
	if y.search.MinDurationSeconds <= 0 && y.search.RegionCode == "" {
		return nil, nil
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		if id := toVideo(item).VideoID(); id != "" {
			ids = append(ids, id)
		}
	}

	details := make(map[string]*youtube.VideoContentDetails, len(ids))
	for batch := range slices.Chunk(ids, maxPageResults) {
		var resp *youtube.VideoListResponse
		err := y.backoff.Do(ctx, "videos.list", func(ctx context.Context) error {
			if err := y.listRate.Wait(ctx); err != nil {
				return err
			}
			r, err := y.svc.Videos.List([]string{"contentDetails"}).
				Id(batch...).
				Context(ctx).
				Do()
			resp = r
			return err
		})
		if err != nil {
			return nil, err
		}
		for _, v := range resp.Items {
			if v.ContentDetails != nil {
				details[v.Id] = v.ContentDetails
			}
		}
	}
	return details, nil
}

func (y *YouTubeService) titleMatches(title string) bool {
	if len(y.search.TitleKeywords) == 0 {
		return true
	}
	title = strings.ToLower(title)
	for _, kw := range y.search.TitleKeywords {
		if kw != "" && strings.Contains(title, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// disqualify returns why a video fails the duration or region filter, or "".
func (y *YouTubeService) disqualify(d *youtube.VideoContentDetails) string {
	if minSeconds := y.search.MinDurationSeconds; minSeconds > 0 {
		dur, err := ParseDuration(d.Duration)
		if err != nil {
			return "unparseable duration"
		}
		if dur < time.Duration(minSeconds)*time.Second {
			return "too short"
		}
	}

	if region := y.search.RegionCode; region != "" && d.RegionRestriction != nil {
		r := d.RegionRestriction
		if slices.Contains(r.Blocked, region) {
			return "blocked in " + region
		}
		if len(r.Allowed) > 0 && !slices.Contains(r.Allowed, region) {
			return "not allowed in " + region
		}
	}
	return ""
}

// Create inserts a public playlist for the channel and adds videos in order.
func (y *YouTubeService) Create(ctx context.Context, channelID, channelTitle string, videos []models.Video) (string, []models.Video, error) {
	if len(videos) == 0 {
		return "", nil, fmt.Errorf("%w: channel %s", shared.ErrNoVideos, channelID)
	}
	if channelTitle == "" {
		channelTitle = cmp.Or(videos[0].Snippet.ChannelTitle, channelID)
	}

	playlist := &youtube.Playlist{
		Snippet: &youtube.PlaylistSnippet{
			Title:       PlaylistTitle(channelTitle),
			Description: fmt.Sprintf("Follow '%s' down the foxhole... (%d) reactions", channelTitle, len(videos)),
		},
		Status: &youtube.PlaylistStatus{PrivacyStatus: privacyPublic},
	}

	var created *youtube.Playlist
	err := y.backoff.Do(ctx, "playlists.insert", func(ctx context.Context) error {
		if err := y.insertRate.Wait(ctx); err != nil {
			return err
		}
		p, err := y.svc.Playlists.Insert([]string{"snippet", "status"}, playlist).Context(ctx).Do()
		created = p
		return err
	})
	if err != nil {
		return "", nil, fmt.Errorf("create playlist for %s: %w", channelID, err)
	}
	y.logger.Info("created playlist", "channel_id", channelID, "playlist_id", created.Id)

	added, err := y.insertItems(ctx, created.Id, videos, true)
	return created.Id, added, err
}

// Append adds videos at the end of playlistID.
func (y *YouTubeService) Append(ctx context.Context, playlistID string, videos []models.Video) ([]models.Video, error) {
	return y.insertItems(ctx, playlistID, videos, false)
}

// insertItems adds each video with a single attempt, logging and skipping failures.
// Quota exhaustion stops the batch since every later insert would fail the same way; it is
// returned together with the videos already added so the caller can record them before halting.
// Other errors returned are context cancellation.
func (y *YouTubeService) insertItems(ctx context.Context, playlistID string, videos []models.Video, positioned bool) ([]models.Video, error) {
	logger := y.logger.With("playlist_id", playlistID)
	added := make([]models.Video, 0, len(videos))

	for _, v := range videos {
		if err := y.insertRate.Wait(ctx); err != nil {
			return added, err
		}

		item := toPlaylistItem(playlistID, v)
		if positioned {
			item.Snippet.Position = int64(len(added))
			item.Snippet.ForceSendFields = []string{"Position"}
		}

		_, err := y.svc.PlaylistItems.Insert([]string{"snippet", "contentDetails"}, item).Context(ctx).Do()
		if err != nil {
			if ctx.Err() != nil {
				return added, ctx.Err()
			}
			err = Classify(err)
			logger.Error("failed to add video", "video_id", v.VideoID(), "err", err)
			if KindOf(err) == KindQuotaExhausted {
				logger.Error("quota exhausted, skipping remaining videos", "skipped", len(videos)-len(added)-1)
				logger.Info("added videos", "added", len(added), "requested", len(videos))
				return added, fmt.Errorf("insert into %s: %w", playlistID, err)
			}
			continue
		}
		logger.Debug("added video", "video_id", v.VideoID(), "title", v.Snippet.Title)
		added = append(added, v)
	}

	logger.Info("added videos", "added", len(added), "requested", len(videos))
	return added, nil
}

// Read returns the playlist ids shown in a channel section.
func (y *YouTubeService) Read(ctx context.Context, sectionID string) ([]string, error) {
	section, err := y.channelSection(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	if section.ContentDetails == nil {
		return nil, nil
	}
	return slices.Clone(section.ContentDetails.Playlists), nil
}

// Write replaces the playlists shown in a channel section.
func (y *YouTubeService) Write(ctx context.Context, sectionID string, playlistIDs []string) error {
	section, err := y.channelSection(ctx, sectionID)
	if err != nil {
		return err
	}
	if section.ContentDetails == nil {
		section.ContentDetails = &youtube.ChannelSectionContentDetails{}
	}
	section.ContentDetails.Playlists = slices.Clone(playlistIDs)

	return y.backoff.Do(ctx, "channelSections.update", func(ctx context.Context) error {
		if err := y.insertRate.Wait(ctx); err != nil {
			return err
		}
		_, err := y.svc.ChannelSections.Update([]string{"snippet", "contentDetails"}, section).Context(ctx).Do()
		return err
	})
}

func (y *YouTubeService) channelSection(ctx context.Context, sectionID string) (*youtube.ChannelSection, error) {
	if sectionID == "" {
		return nil, fmt.Errorf("%w: channel section id is empty", shared.ErrInvalidArgument)
	}

	var section *youtube.ChannelSection
	err := y.backoff.Do(ctx, "channelSections.list", func(ctx context.Context) error {
		if err := y.listRate.Wait(ctx); err != nil {
			return err
		}
		resp, err := y.svc.ChannelSections.List([]string{"snippet", "contentDetails"}).Id(sectionID).Context(ctx).Do()
		if err != nil {
			return err
		}
		if len(resp.Items) == 0 {
			return &APIError{Kind: KindNotFound, Status: http.StatusNotFound, Err: fmt.Errorf("channel section %s", sectionID)}
		}
		section = resp.Items[0]
		return nil
	})
	return section, err
}

// SearchChannels runs one page of a video search ordered by view count.
func (y *YouTubeService) SearchChannels(ctx context.Context, query, pageToken string) (*SearchPage, error) {
	var resp *youtube.SearchListResponse
	err := y.backoff.Do(ctx, "search.list", func(ctx context.Context) error {
		if err := y.listRate.Wait(ctx); err != nil {
			return err
		}
		r, err := y.svc.Search.List([]string{"snippet"}).
			Q(query).
			Type("video").
			Order("viewCount").
			MaxResults(maxPageResults).
			PageToken(pageToken).
			Context(ctx).
			Do()
		resp = r
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	page := &SearchPage{NextPageToken: resp.NextPageToken}
	for _, item := range resp.Items {
		if item.Snippet == nil || item.Snippet.ChannelId == "" {
			continue
		}
		page.Hits = append(page.Hits, ChannelHit{ChannelID: item.Snippet.ChannelId, ChannelTitle: item.Snippet.ChannelTitle})
	}
	return page, nil
}

func toVideo(item *youtube.PlaylistItem) models.Video {
	v := models.Video{Kind: item.Kind, ID: item.Id}
	if s := item.Snippet; s != nil {
		v.Snippet = models.VideoSnippet{
			PublishedAt:  parseTime(s.PublishedAt),
			ChannelID:    s.ChannelId,
			ChannelTitle: s.ChannelTitle,
			Title:        s.Title,
			Description:  s.Description,
			PlaylistID:   s.PlaylistId,
			Position:     s.Position,
		}
		if s.ResourceId != nil {
			v.Snippet.ResourceID = models.ResourceID{Kind: s.ResourceId.Kind, VideoID: s.ResourceId.VideoId}
		}
	}
	if cd := item.ContentDetails; cd != nil {
		v.ContentDetails = models.VideoContentDetails{
			VideoID:          cd.VideoId,
			VideoPublishedAt: parseTime(cd.VideoPublishedAt),
			Note:             cd.Note,
		}
	}
	return v
}

func toPlaylistItem(playlistID string, v models.Video) *youtube.PlaylistItem {
	published := v.PublishedAt().UTC().Format(time.RFC3339)
	return &youtube.PlaylistItem{
		Snippet: &youtube.PlaylistItemSnippet{
			PlaylistId: playlistID,
			ResourceId: &youtube.ResourceId{Kind: videoKind, VideoId: v.VideoID()},
		},
		ContentDetails: &youtube.PlaylistItemContentDetails{
			Note:             fmt.Sprintf(publishedNoteFmt, published),
			VideoPublishedAt: published,
		},
	}
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
