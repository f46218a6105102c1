package main

import (
	"encoding/json"
	"io"
	"os"
	"testing"

	"github.com/marcusreyes/agentchat/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureStdout runs fn with os.Stdout replaced by a pipe and returns
// everything fn printed to it.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w
	defer func() { os.Stdout = old }()

	fn()

	require.NoError(t, w.Close())
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(out)
}

func TestPrintSendResultOmitsEmptyFields(t *testing.T) {
	reply := wire.OK(map[string]any{"delivered_to": []any{}, "failed": map[string]any{}})
	out := captureStdout(t, func() { printSendResult(reply) })

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "ok", got["status"])
	assert.Equal(t, "Message sent", got["message"])
	assert.NotContains(t, got, "delivered_to")
	assert.NotContains(t, got, "warnings")
}

func TestPrintSendResultIncludesDeliveredAndFailed(t *testing.T) {
	reply := wire.OK(map[string]any{
		"delivered_to": []any{"bob"},
		"failed":       map[string]any{"carol": "dial timeout"},
	})
	out := captureStdout(t, func() { printSendResult(reply) })

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []any{"bob"}, got["delivered_to"])
	assert.Equal(t, map[string]any{"carol": "dial timeout"}, got["warnings"])
}

func TestPrintMessagesEmptyBatchReturnsTrue(t *testing.T) {
	reply := wire.OK(map[string]any{"messages": []any{}})
	var empty bool
	out := captureStdout(t, func() { empty = printMessages(reply) })

	assert.True(t, empty)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "ok", got["status"])
	assert.Equal(t, []any{}, got["messages"])
}

func TestPrintMessagesNonEmptyBatchReturnsFalse(t *testing.T) {
	msgs := []any{map[string]any{"type": wire.MsgMessage, "content": "hi"}}
	reply := wire.OK(map[string]any{"messages": msgs})
	var empty bool
	out := captureStdout(t, func() { empty = printMessages(reply) })

	assert.False(t, empty)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Len(t, got["messages"], 1)
}

func TestPrintStatusWrapsReplyData(t *testing.T) {
	reply := wire.OK(map[string]any{
		"agent":      map[string]any{"name": "alice", "context": "reviewer", "presentation": ""},
		"members":    []any{},
		"queue_size": float64(0),
	})
	out := captureStdout(t, func() { printStatus(reply) })

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "ok", got["status"])
	data, ok := got["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(0), data["queue_size"])
}
