package resolver

import (
	"errors"
	"testing"

	"github.com/kkdai/youtube/v2"
	"github.com/stretchr/testify/assert"
)

func TestIsPlaylistURL(t *testing.T) {
	assert.True(t, isPlaylistURL("https://www.youtube.com/playlist?list=PLabc123"))
	assert.False(t, isPlaylistURL("https://www.youtube.com/watch?v=dQw4w9WgXcQ"))
	assert.False(t, isPlaylistURL("https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PLabc123"))
}

func TestParsePlaylistIDs(t *testing.T) {
	out := []byte(`{"id": "abc123", "title": "First"}
{"id": "def456", "title": "Second"}

not json at all
{"title": "missing id"}
{"id": "ghi789"}`)

	videoIDs := parsePlaylistIDs(out)

	assert.Equal(t, []string{"abc123", "def456", "ghi789"}, videoIDs)
}

func TestParsePlaylistIDs_Empty(t *testing.T) {
	assert.Empty(t, parsePlaylistIDs(nil))
	assert.Empty(t, parsePlaylistIDs([]byte("\n\n")))
}

func TestVideoToTrack(t *testing.T) {
	video := &youtube.Video{
		Title: "A Song",
		Thumbnails: youtube.Thumbnails{
			{URL: "https://img.example/thumb.jpg"},
		},
	}
	requester := Requester{ID: "user-1", Name: "alice"}

	track := videoToTrack(video, "https://stream.example/audio", "https://youtu.be/x", requester)

	assert.Equal(t, "A Song", track.Title)
	assert.Equal(t, "youtube", track.Provider)
	assert.Equal(t, "https://stream.example/audio", track.URL)
	assert.Equal(t, "https://youtu.be/x", track.Query)
	assert.Equal(t, "https://img.example/thumb.jpg", track.Thumbnail)
	assert.Equal(t, "alice", track.RequestedBy)
	assert.Equal(t, "user-1", track.RequestedByID)
	assert.False(t, track.EnqueuedAt.IsZero())
}

func TestMapYouTubeErr(t *testing.T) {
	assert.ErrorIs(t, mapYouTubeErr(errors.New("HTTP 429: too many requests")), ErrRateLimited)
	assert.ErrorIs(t, mapYouTubeErr(errors.New("can't bypass age restriction")), ErrUnplayable)
	assert.ErrorIs(t, mapYouTubeErr(errors.New("video not available")), ErrNotFound)
}
