package player

import (
	"errors"
	"testing"
	"time"

	"Quorum/queue"
	"Quorum/transport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTransport records calls so tests can assert on the player's
// interaction with the audio layer.
type fakeTransport struct {
	started    []queue.Track
	stops      int
	pauses     int
	resumes    int
	leaves     int
	volumes    []int
	failTitles map[string]bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{failTitles: map[string]bool{}}
}

func (f *fakeTransport) StartStream(guildID, channelID string, track queue.Track) error {
	if f.failTitles[track.Title] {
		return errors.New("unplayable")
	}
	f.started = append(f.started, track)
	return nil
}

func (f *fakeTransport) StopStream(guildID string)          { f.stops++ }
func (f *fakeTransport) Pause(guildID string)               { f.pauses++ }
func (f *fakeTransport) Resume(guildID string)              { f.resumes++ }
func (f *fakeTransport) SetVolume(guildID string, v int)    { f.volumes = append(f.volumes, v) }
func (f *fakeTransport) Leave(guildID string)               { f.leaves++ }

func testConfig() Config {
	return Config{HistorySize: 20, RetryLimit: 3, IdleTimeout: 0}
}

func newTestPlayer(tr transport.Transport, titles ...string) *Player {
	snap := queue.NewSnapshot()
	for _, title := range titles {
		snap.Pending = append(snap.Pending, queue.Track{Title: title, URL: "https://example.com/" + title})
	}
	return New("guild-1", tr, snap, testConfig())
}

func TestPlay_EmptyQueue(t *testing.T) {
	p := newTestPlayer(newFakeTransport())

	err := p.Play("vc-1")

	assert.ErrorIs(t, err, ErrQueueEmpty)
	assert.Equal(t, StatusIdle, p.Status())
}

func TestPlay_StartsFirstTrack(t *testing.T) {
	tr := newFakeTransport()
	p := newTestPlayer(tr, "one", "two")

	err := p.Play("vc-1")

	require.NoError(t, err)
	assert.Equal(t, StatusPlaying, p.Status())
	require.NotNil(t, p.Current())
	assert.Equal(t, "one", p.Current().Title)
	assert.Equal(t, 1, p.Queue().Len())
	assert.Equal(t, "vc-1", p.ChannelID())
	// The persisted volume is pushed to the fresh stream.
	assert.Equal(t, []int{queue.DefaultVolume}, tr.volumes)
}

func TestPlay_WhileAlreadyPlayingIsNoop(t *testing.T) {
	tr := newFakeTransport()
	p := newTestPlayer(tr, "one", "two")
	require.NoError(t, p.Play("vc-1"))

	require.NoError(t, p.Play("vc-1"))

	assert.Equal(t, 1, len(tr.started))
}

func TestHandleStreamEnd_LoopOffPushesHistory(t *testing.T) {
	tr := newFakeTransport()
	p := newTestPlayer(tr, "one", "two")
	require.NoError(t, p.Play("vc-1"))

	err := p.HandleStreamEnd(transport.EndFinished)

	require.NoError(t, err)
	assert.Equal(t, "two", p.Current().Title)
	history := p.Queue().History()
	require.Equal(t, 1, len(history))
	assert.Equal(t, "one", history[0].Title)
}

func TestHandleStreamEnd_LoopTrackReplaysSameTrack(t *testing.T) {
	tr := newFakeTransport()
	p := newTestPlayer(tr, "one", "two")
	require.NoError(t, p.Play("vc-1"))
	p.SetLoop(LoopTrack)

	require.NoError(t, p.HandleStreamEnd(transport.EndFinished))

	assert.Equal(t, "one", p.Current().Title)
	// Still pending: "two" untouched, no history entry for a looped track.
	assert.Equal(t, 1, p.Queue().Len())
	assert.Equal(t, 0, len(p.Queue().History()))
}

func TestHandleStreamEnd_LoopQueueAppendsToTail(t *testing.T) {
	tr := newFakeTransport()
	p := newTestPlayer(tr, "one", "two", "three")
	require.NoError(t, p.Play("vc-1"))
	p.SetLoop(LoopQueue)

	require.NoError(t, p.HandleStreamEnd(transport.EndFinished))

	assert.Equal(t, "two", p.Current().Title)
	pending := p.Queue().Pending()
	require.Equal(t, 2, len(pending))
	assert.Equal(t, "three", pending[0].Title)
	assert.Equal(t, "one", pending[1].Title)
}

func TestHandleStreamEnd_QueueExhaustedParksIdle(t *testing.T) {
	tr := newFakeTransport()
	p := newTestPlayer(tr, "one")
	require.NoError(t, p.Play("vc-1"))

	require.NoError(t, p.HandleStreamEnd(transport.EndFinished))

	assert.Equal(t, StatusIdle, p.Status())
	assert.Nil(t, p.Current())
}

func TestHandleStreamEnd_DeliberateStopIgnored(t *testing.T) {
	tr := newFakeTransport()
	p := newTestPlayer(tr, "one", "two")
	require.NoError(t, p.Play("vc-1"))

	require.NoError(t, p.HandleStreamEnd(transport.EndStopped))

	assert.Equal(t, "one", p.Current().Title)
	assert.Equal(t, 1, len(tr.started))
}

func TestHandleStreamEnd_ErroredDropsTrackAndAdvances(t *testing.T) {
	tr := newFakeTransport()
	p := newTestPlayer(tr, "one", "two")
	require.NoError(t, p.Play("vc-1"))

	require.NoError(t, p.HandleStreamEnd(transport.EndErrored))

	assert.Equal(t, "two", p.Current().Title)
	// The errored track is gone: not in history, not re-queued.
	assert.Equal(t, 0, len(p.Queue().History()))
	assert.Equal(t, 0, p.Queue().Len())
}

func TestStartNext_UnplayableTracksDroppedUpToRetryLimit(t *testing.T) {
	tr := newFakeTransport()
	tr.failTitles["one"] = true
	tr.failTitles["two"] = true
	p := newTestPlayer(tr, "one", "two", "three")

	err := p.Play("vc-1")

	require.NoError(t, err)
	assert.Equal(t, "three", p.Current().Title)
	assert.Equal(t, StatusPlaying, p.Status())
}

func TestStartNext_RetryLimitExhaustedGoesIdle(t *testing.T) {
	tr := newFakeTransport()
	for _, title := range []string{"one", "two", "three"} {
		tr.failTitles[title] = true
	}
	p := newTestPlayer(tr, "one", "two", "three", "four")

	err := p.Play("vc-1")

	assert.Error(t, err)
	assert.Equal(t, StatusIdle, p.Status())
	assert.Nil(t, p.Current())
}

func TestSkip(t *testing.T) {
	tr := newFakeTransport()
	p := newTestPlayer(tr, "one", "two")
	require.NoError(t, p.Play("vc-1"))

	require.NoError(t, p.Skip())

	assert.Equal(t, "two", p.Current().Title)
	assert.Equal(t, 1, tr.stops)
	assert.Equal(t, "one", p.Queue().History()[0].Title)
}

func TestSkip_NothingPlaying(t *testing.T) {
	p := newTestPlayer(newFakeTransport())

	assert.ErrorIs(t, p.Skip(), ErrNotPlaying)
}

func TestPrevious(t *testing.T) {
	tr := newFakeTransport()
	p := newTestPlayer(tr, "one", "two")
	require.NoError(t, p.Play("vc-1"))
	require.NoError(t, p.HandleStreamEnd(transport.EndFinished)) // "one" into history, "two" playing

	require.NoError(t, p.Previous())

	assert.Equal(t, "one", p.Current().Title)
	// The interrupted track waits right behind the replayed one.
	pending := p.Queue().Pending()
	require.Equal(t, 1, len(pending))
	assert.Equal(t, "two", pending[0].Title)
	assert.Equal(t, 0, len(p.Queue().History()))
}

func TestPrevious_EmptyHistory(t *testing.T) {
	p := newTestPlayer(newFakeTransport(), "one")

	assert.ErrorIs(t, p.Previous(), ErrNoHistory)
}

func TestPauseResume(t *testing.T) {
	tr := newFakeTransport()
	p := newTestPlayer(tr, "one")
	require.NoError(t, p.Play("vc-1"))

	require.NoError(t, p.Pause())
	assert.Equal(t, StatusPaused, p.Status())
	assert.Equal(t, 1, tr.pauses)

	require.NoError(t, p.ResumePlayback())
	assert.Equal(t, StatusPlaying, p.Status())
	assert.Equal(t, 1, tr.resumes)
}

func TestPause_NotPlaying(t *testing.T) {
	p := newTestPlayer(newFakeTransport(), "one")

	assert.ErrorIs(t, p.Pause(), ErrNotPlaying)
}

func TestResume_NotPaused(t *testing.T) {
	tr := newFakeTransport()
	p := newTestPlayer(tr, "one")
	require.NoError(t, p.Play("vc-1"))

	assert.ErrorIs(t, p.ResumePlayback(), ErrNotPaused)
}

func TestPlay_ResumesWhenPaused(t *testing.T) {
	tr := newFakeTransport()
	p := newTestPlayer(tr, "one")
	require.NoError(t, p.Play("vc-1"))
	require.NoError(t, p.Pause())

	require.NoError(t, p.Play("vc-1"))

	assert.Equal(t, StatusPlaying, p.Status())
	assert.Equal(t, 1, tr.resumes)
}

func TestStop(t *testing.T) {
	tr := newFakeTransport()
	p := newTestPlayer(tr, "one", "two", "three")
	require.NoError(t, p.Play("vc-1"))

	require.NoError(t, p.Stop())

	assert.Equal(t, StatusStopped, p.Status())
	assert.Nil(t, p.Current())
	assert.Equal(t, 0, p.Queue().Len())
	assert.Equal(t, 1, tr.stops)
}

func TestSetVolume(t *testing.T) {
	tr := newFakeTransport()
	p := newTestPlayer(tr, "one")
	require.NoError(t, p.Play("vc-1"))

	require.NoError(t, p.SetVolume(150))
	assert.Equal(t, 150, p.Volume())
	assert.Equal(t, 150, tr.volumes[len(tr.volumes)-1])
}

func TestSetVolume_BoundaryValues(t *testing.T) {
	p := newTestPlayer(newFakeTransport())

	assert.NoError(t, p.SetVolume(0))
	assert.NoError(t, p.SetVolume(200))
}

func TestSetVolume_OutOfRangeRejected(t *testing.T) {
	p := newTestPlayer(newFakeTransport())

	assert.ErrorIs(t, p.SetVolume(-1), ErrInvalidVolume)
	assert.ErrorIs(t, p.SetVolume(201), ErrInvalidVolume)
	assert.Equal(t, queue.DefaultVolume, p.Volume())
}

func TestDisconnect_KeepsPendingQueue(t *testing.T) {
	tr := newFakeTransport()
	p := newTestPlayer(tr, "one", "two")
	require.NoError(t, p.Play("vc-1"))

	p.Disconnect()

	assert.Equal(t, StatusIdle, p.Status())
	assert.Nil(t, p.Current())
	assert.Equal(t, 1, tr.leaves)
	assert.Equal(t, 1, p.Queue().Len())
}

func TestSnapshot_ReflectsLoopAndVolume(t *testing.T) {
	p := newTestPlayer(newFakeTransport(), "one", "two")
	p.SetLoop(LoopQueue)
	require.NoError(t, p.SetVolume(60))

	snap := p.Snapshot()

	assert.Equal(t, "queue", snap.LoopMode)
	assert.Equal(t, 60, snap.Volume)
	assert.Equal(t, 2, len(snap.Pending))
}

func TestNew_RestoresSnapshotDefaultsOnBadValues(t *testing.T) {
	snap := queue.Snapshot{LoopMode: "bogus", Volume: 999}

	p := New("guild-1", newFakeTransport(), snap, testConfig())

	assert.Equal(t, LoopOff, p.Loop())
	assert.Equal(t, queue.DefaultVolume, p.Volume())
}

func TestParseLoopMode(t *testing.T) {
	mode, err := ParseLoopMode("track")
	assert.NoError(t, err)
	assert.Equal(t, LoopTrack, mode)

	_, err = ParseLoopMode("sideways")
	assert.ErrorIs(t, err, ErrInvalidLoopMode)
}

func TestIdleTimer_FiresLeaveExactlyOnce(t *testing.T) {
	tr := newFakeTransport()
	snap := queue.NewSnapshot()
	cfg := Config{HistorySize: 20, RetryLimit: 3, IdleTimeout: 10 * time.Millisecond}
	p := New("guild-1", tr, snap, cfg)

	fired := make(chan uint64, 4)
	p.SetOnIdle(func(generation uint64) { fired <- generation })
	p.armIdle()

	var generation uint64
	select {
	case generation = <-fired:
	case <-time.After(time.Second):
		t.Fatal("idle timer never fired")
	}

	assert.True(t, p.HandleIdleFire(generation))
	assert.Equal(t, 1, tr.leaves)
	assert.Equal(t, StatusIdle, p.Status())

	// The timer is one-shot: without a rearm nothing fires again.
	select {
	case <-fired:
		t.Fatal("idle timer fired a second time without rearm")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestIdleTimer_StaleGenerationIgnored(t *testing.T) {
	tr := newFakeTransport()
	cfg := Config{HistorySize: 20, RetryLimit: 3, IdleTimeout: time.Minute}
	p := New("guild-1", tr, queue.NewSnapshot(), cfg)

	stale := p.Generation()
	p.Close()

	assert.False(t, p.HandleIdleFire(stale))
	assert.Equal(t, 0, tr.leaves)
}

func TestIdleTimer_IgnoredWhilePlaying(t *testing.T) {
	tr := newFakeTransport()
	p := newTestPlayer(tr, "one")
	require.NoError(t, p.Play("vc-1"))

	assert.False(t, p.HandleIdleFire(p.Generation()))
	assert.Equal(t, 0, tr.leaves)
	assert.Equal(t, StatusPlaying, p.Status())
}
