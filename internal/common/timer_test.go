package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimerStop(t *testing.T) {
	timer := NewTimer()
	time.Sleep(time.Millisecond)
	d := timer.Stop()
	assert.Greater(t, d, time.Duration(0))
	assert.Equal(t, d, timer.Duration())
}

func TestNamedTimerString(t *testing.T) {
	timer := NewNamedTimer("nms")
	timer.Stop()
	assert.Equal(t, "nms", timer.Name())
	assert.Contains(t, timer.String(), "nms:")
}

func TestUnnamedTimerString(t *testing.T) {
	timer := NewTimer()
	timer.Stop()
	assert.Empty(t, timer.Name())
	assert.NotEmpty(t, timer.String())
}
