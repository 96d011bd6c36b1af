package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.5, Clamp(0.5, 0.0, 1.0))
	assert.Equal(t, 0.0, Clamp(-3.0, 0.0, 1.0))
	assert.Equal(t, 1.0, Clamp(7.0, 0.0, 1.0))
	assert.Equal(t, 5, Clamp(3, 5, 10))
}

func TestMin(t *testing.T) {
	assert.Equal(t, 1, Min(1, 2))
	assert.Equal(t, -2.5, Min(-2.5, 0.0))
}

func TestClock(t *testing.T) {
	c := NewClock()

	// Non-started clocks never accumulate time.
	c.Update()
	assert.Equal(t, 0.0, c.Elapsed())

	c.Start()
	time.Sleep(10 * time.Millisecond)
	c.Update()
	first := c.Elapsed()
	require.Greater(t, first, 0.0)

	// Stop freezes the elapsed value.
	c.Stop()
	c.Update()
	assert.Equal(t, first, c.Elapsed())

	// Start resets.
	c.Start()
	assert.Equal(t, 0.0, c.Elapsed())
}
