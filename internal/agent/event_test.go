package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEventWaitTimesOutWhenNeverSet(t *testing.T) {
	e := NewEvent()
	assert.False(t, e.Wait(20*time.Millisecond))
}

func TestEventSetWakesWaiter(t *testing.T) {
	e := NewEvent()
	woke := make(chan bool, 1)
	go func() { woke <- e.Wait(time.Second) }()

	time.Sleep(10 * time.Millisecond)
	e.Set()

	select {
	case ok := <-woke:
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("waiter never woke")
	}
}

func TestEventClearAfterSetPollsFalse(t *testing.T) {
	e := NewEvent()
	e.Set()
	assert.True(t, e.Wait(0))

	e.Clear()
	assert.False(t, e.Wait(0))
}

func TestEventSetIsIdempotent(t *testing.T) {
	e := NewEvent()
	e.Set()
	e.Set() // must not panic on double-close
	assert.True(t, e.Wait(0))
}
