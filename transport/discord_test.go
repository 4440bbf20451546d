package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScaleSample(t *testing.T) {
	assert.Equal(t, int16(1000), scaleSample(1000, 100))
	assert.Equal(t, int16(500), scaleSample(1000, 50))
	assert.Equal(t, int16(2000), scaleSample(1000, 200))
	assert.Equal(t, int16(0), scaleSample(1000, 0))
	assert.Equal(t, int16(-500), scaleSample(-1000, 50))
}

func TestScaleSample_ClampsAtBoostLimits(t *testing.T) {
	assert.Equal(t, int16(32767), scaleSample(30000, 200))
	assert.Equal(t, int16(-32768), scaleSample(-30000, 200))
}

func TestStreamSession_PauseResume(t *testing.T) {
	ss := &streamSession{stop: make(chan struct{})}

	assert.False(t, ss.isPaused())
	ss.setPaused(true)
	assert.True(t, ss.isPaused())
	ss.setPaused(false)
	assert.False(t, ss.isPaused())
}

func TestStreamSession_HaltTwice(t *testing.T) {
	ss := &streamSession{stop: make(chan struct{})}

	ss.halt(true)
	ss.halt(true) // second halt must not close the channel again

	assert.True(t, ss.stopRequested())
}

func TestStreamSession_CleanupHaltIsNotARequestedStop(t *testing.T) {
	ss := &streamSession{stop: make(chan struct{})}

	ss.halt(false)

	assert.False(t, ss.stopRequested())
}

func TestEndReasonString(t *testing.T) {
	assert.Equal(t, "finished", EndFinished.String())
	assert.Equal(t, "errored", EndErrored.String())
	assert.Equal(t, "stopped", EndStopped.String())
}
