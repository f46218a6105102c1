package agent

import (
	"testing"

	"github.com/marcusreyes/agentchat/internal/wire"
	"github.com/stretchr/testify/assert"
)

func TestQueuePushThenDrainAll(t *testing.T) {
	q := NewQueue()
	assert.Equal(t, 0, q.Len())

	q.Push(wire.Message{ID: "1"})
	q.Push(wire.Message{ID: "2"})
	assert.Equal(t, 2, q.Len())

	msgs := q.DrainAll()
	assert.Len(t, msgs, 2)
	assert.Equal(t, 0, q.Len())
}

func TestQueueDrainAllOnEmptyReturnsNil(t *testing.T) {
	q := NewQueue()
	assert.Nil(t, q.DrainAll())
}

func TestQueueEvictsOldestAtCapacity(t *testing.T) {
	q := NewQueue()
	for i := 0; i < queueCapacity; i++ {
		q.Push(wire.Message{ID: string(rune('a' + i%26))})
	}
	assert.Equal(t, queueCapacity, q.Len())

	depth := q.Push(wire.Message{ID: "overflow"})
	assert.Equal(t, queueCapacity, depth)

	msgs := q.DrainAll()
	assert.Len(t, msgs, queueCapacity)
	assert.Equal(t, "overflow", msgs[len(msgs)-1].ID)
}
