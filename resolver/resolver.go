package resolver

import (
	"context"
	"errors"

	"Quorum/queue"
)

var (
	// ErrNotFound means the query did not resolve to any playable track.
	ErrNotFound = errors.New("no track found for query")
	// ErrRateLimited means the source refused the request for now.
	ErrRateLimited = errors.New("source rate limited the request")
	// ErrUnplayable means the track exists but cannot be streamed.
	ErrUnplayable = errors.New("track cannot be played")
)

// Requester identifies the user a resolved track is attributed to.
type Requester struct {
	ID   string
	Name string
}

// Resolver turns a user query or URL into an ordered list of tracks.
// Playlist queries return every entry in playlist order.
type Resolver interface {
	Resolve(ctx context.Context, query string, requester Requester) ([]queue.Track, error)
}
