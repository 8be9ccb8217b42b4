package rally

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foreshadow/engine"
	"foreshadow/synth"
	"foreshadow/transport"
)

func newTestRally() (*Rally, *synth.Silent, *transport.ManualClock) {
	out := synth.NewSilent()
	clk := transport.NewManualClock()
	r := New(out, clk, 1, nil, 120, engine.DefaultTuning())
	return r, out, clk
}

func TestScheduleBrickAndPaddle(t *testing.T) {
	r, _, _ := newTestRally()
	defer r.Stop()

	r.ScheduleBrick()
	r.SchedulePaddle()

	active := r.Engine.Active()
	require.Len(t, active, 2)

	ids := []string{active[0].ID, active[1].ID}
	assert.Contains(t, ids, "brick-1")
	assert.Contains(t, ids, "paddle-1")

	// Scheduling lands in the feed.
	feed := r.Feed()
	require.Len(t, feed, 2)
	assert.Equal(t, "scheduled", feed[0].Kind)
}

func TestCancelNext(t *testing.T) {
	r, _, clk := newTestRally()
	defer r.Stop()

	r.ScheduleBrick()
	r.ScheduleBrick()
	require.Equal(t, 2, r.Engine.ActiveCount())

	r.CancelNext()
	assert.Equal(t, 1, r.Engine.ActiveCount())

	// The cancelled record reports through the feed once its fade ends.
	require.Eventually(t, func() bool {
		clk.Advance(0.05)
		for _, line := range r.Feed() {
			if line.Kind == "cancelled" {
				return true
			}
		}
		return false
	}, 2*time.Second, time.Millisecond)

	// Empty table: no-op.
	r.CancelAll()
	r.CancelNext()
	assert.Zero(t, r.Engine.ActiveCount())
}

func TestCancelAll(t *testing.T) {
	r, _, _ := newTestRally()
	defer r.Stop()

	r.ScheduleBrick()
	r.SchedulePaddle()
	r.ScheduleBrick()
	require.Equal(t, 3, r.Engine.ActiveCount())

	r.CancelAll()
	assert.Zero(t, r.Engine.ActiveCount())
}

func TestToggleAuto(t *testing.T) {
	r, _, _ := newTestRally()

	assert.False(t, r.Auto())
	assert.True(t, r.ToggleAuto())
	assert.True(t, r.Auto())
	assert.False(t, r.ToggleAuto())
	assert.False(t, r.Auto())

	r.Stop()
	// A stopped rally refuses to restart the loop.
	assert.False(t, r.ToggleAuto())
}

func TestStop(t *testing.T) {
	r, out, _ := newTestRally()

	r.ScheduleBrick()
	r.ToggleAuto()
	r.Stop()
	r.Stop() // idempotent

	assert.True(t, out.Closed())
	assert.Zero(t, out.LiveAllocations())
	assert.Zero(t, r.Engine.ActiveCount())
}

func TestUpdateChanNotifies(t *testing.T) {
	r, _, _ := newTestRally()
	defer r.Stop()

	r.ScheduleBrick()
	select {
	case <-r.UpdateChan:
	default:
		t.Fatal("expected an update tick after scheduling")
	}
}
