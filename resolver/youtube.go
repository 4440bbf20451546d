package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"Quorum/queue"

	"github.com/Strum355/log"
	"github.com/kkdai/youtube/v2"
	"github.com/redis/go-redis/v9"
)

// YouTube resolves YouTube URLs and playlist URLs into tracks, caching
// video metadata in Redis so repeated requests skip the network.
type YouTube struct {
	client   youtube.Client
	redis    *redis.Client
	cacheTTL time.Duration
}

func NewYouTube(rdb *redis.Client, cacheTTL time.Duration) *YouTube {
	return &YouTube{redis: rdb, cacheTTL: cacheTTL}
}

// Resolve handles a single video URL or a playlist URL. Playlists are
// listed with yt-dlp and resolved entry by entry in playlist order.
func (y *YouTube) Resolve(ctx context.Context, query string, requester Requester) ([]queue.Track, error) {
	if isPlaylistURL(query) {
		return y.resolvePlaylist(ctx, query, requester)
	}

	track, err := y.resolveVideo(ctx, query, requester)
	if err != nil {
		return nil, err
	}
	return []queue.Track{track}, nil
}

func (y *YouTube) resolveVideo(ctx context.Context, query string, requester Requester) (queue.Track, error) {
	videoID, err := youtube.ExtractVideoID(query)
	if err != nil {
		return queue.Track{}, fmt.Errorf("%w: %q", ErrNotFound, query)
	}

	video, err := y.fetchVideo(ctx, videoID)
	if err != nil {
		return queue.Track{}, mapYouTubeErr(err)
	}

	formats := video.Formats.WithAudioChannels()
	if len(formats) == 0 {
		return queue.Track{}, fmt.Errorf("%w: no audio formats for %s", ErrUnplayable, videoID)
	}

	streamURL, err := y.client.GetStreamURLContext(ctx, video, &formats[0])
	if err != nil {
		return queue.Track{}, mapYouTubeErr(err)
	}

	return videoToTrack(video, streamURL, query, requester), nil
}

// fetchVideo returns video metadata, from the Redis cache when fresh.
func (y *YouTube) fetchVideo(ctx context.Context, videoID string) (*youtube.Video, error) {
	if y.redis != nil {
		cached, err := y.redis.Get(ctx, "ytmeta:"+videoID).Result()
		if err == nil && cached != "" {
			var video youtube.Video
			if err := json.Unmarshal([]byte(cached), &video); err == nil {
				return &video, nil
			}
		}
	}

	video, err := y.client.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, err
	}

	if y.redis != nil {
		data, _ := json.Marshal(video)
		y.redis.Set(ctx, "ytmeta:"+videoID, data, y.cacheTTL)
	}
	return video, nil
}

func (y *YouTube) resolvePlaylist(ctx context.Context, playlistURL string, requester Requester) ([]queue.Track, error) {
	cmd := exec.CommandContext(ctx, "yt-dlp", "-j", "--flat-playlist", playlistURL)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%w: playlist listing failed: %v", ErrNotFound, err)
	}

	videoIDs := parsePlaylistIDs(out)
	if len(videoIDs) == 0 {
		return nil, fmt.Errorf("%w: empty playlist", ErrNotFound)
	}

	tracks := make([]queue.Track, 0, len(videoIDs))
	for _, videoID := range videoIDs {
		track, err := y.resolveVideo(ctx, "https://www.youtube.com/watch?v="+videoID, requester)
		if err != nil {
			log.WithError(err).WithFields(log.Fields{"video_id": videoID}).
				Warn("Skipping unplayable playlist entry")
			continue
		}
		tracks = append(tracks, track)
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("%w: no playable playlist entries", ErrUnplayable)
	}
	return tracks, nil
}

// parsePlaylistIDs extracts video IDs from yt-dlp's line-delimited JSON output.
func parsePlaylistIDs(out []byte) []string {
	videoIDs := []string{}
	for _, line := range bytes.Split(out, []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var entry struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(line, &entry); err != nil || entry.ID == "" {
			continue
		}
		videoIDs = append(videoIDs, entry.ID)
	}
	return videoIDs
}

func isPlaylistURL(query string) bool {
	return strings.Contains(query, "list=") && !strings.Contains(query, "watch?v=")
}

func videoToTrack(video *youtube.Video, streamURL, query string, requester Requester) queue.Track {
	thumbnail := ""
	if len(video.Thumbnails) > 0 {
		thumbnail = video.Thumbnails[0].URL
	}
	return queue.Track{
		Title:         video.Title,
		Duration:      video.Duration,
		Provider:      "youtube",
		URL:           streamURL,
		Query:         query,
		Thumbnail:     thumbnail,
		RequestedBy:   requester.Name,
		RequestedByID: requester.ID,
		EnqueuedAt:    time.Now(),
	}
}

func mapYouTubeErr(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "too many requests"):
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	case strings.Contains(msg, "age restriction") || strings.Contains(msg, "login"):
		return fmt.Errorf("%w: %v", ErrUnplayable, err)
	default:
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
}
