package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTickBelowIntervalLogsNothing(t *testing.T) {
	p := NewProfiler()
	assert.False(t, p.Tick())
	assert.False(t, p.Tick())
}

func TestSetUpdateInterval(t *testing.T) {
	p := NewProfiler()

	// Non-positive intervals keep the current setting.
	p.SetUpdateInterval(0)
	p.SetUpdateInterval(-time.Second)
	assert.Equal(t, time.Second, p.updateInterval)

	p.SetUpdateInterval(time.Millisecond)
	time.Sleep(2 * time.Millisecond)
	assert.True(t, p.Tick(), "an elapsed interval logs a stats line")
	assert.False(t, p.Tick(), "the interval timer resets after logging")
}
