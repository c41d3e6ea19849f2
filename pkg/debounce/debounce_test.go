package debounce_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notedrop/pkg/debounce"
)

func TestDebouncer_NilChannelBeforeBump(t *testing.T) {
	d := debounce.New(10 * time.Millisecond)
	assert.Nil(t, d.C(), "unscheduled debouncer should expose a nil channel")
}

func TestDebouncer_FiresAfterDelay(t *testing.T) {
	d := debounce.New(10 * time.Millisecond)
	d.Bump()

	select {
	case <-d.C():
		d.Fired()
	case <-time.After(time.Second):
		t.Fatal("debouncer did not fire")
	}

	assert.Nil(t, d.C(), "channel should be nil after Fired")
}

func TestDebouncer_BumpExtendsDeadline(t *testing.T) {
	d := debounce.New(50 * time.Millisecond)
	d.Bump()

	// Keep bumping faster than the delay; the timer must not fire.
	deadline := time.After(200 * time.Millisecond)
	fired := false
loop:
	for {
		select {
		case <-d.C():
			fired = true
			break loop
		case <-deadline:
			break loop
		case <-time.After(10 * time.Millisecond):
			d.Bump()
		}
	}
	require.False(t, fired, "debouncer fired despite continuous bumps")

	// Once bumps stop, it fires exactly once with the settled schedule.
	select {
	case <-d.C():
		d.Fired()
	case <-time.After(time.Second):
		t.Fatal("debouncer did not fire after bumps stopped")
	}
}

func TestDebouncer_StopCancelsPendingFire(t *testing.T) {
	d := debounce.New(10 * time.Millisecond)
	d.Bump()
	d.Stop()

	assert.Nil(t, d.C())

	select {
	case <-time.After(30 * time.Millisecond):
	}

	// A new bump after Stop schedules normally.
	d.Bump()
	select {
	case <-d.C():
		d.Fired()
	case <-time.After(time.Second):
		t.Fatal("debouncer did not fire after re-bump")
	}
}
