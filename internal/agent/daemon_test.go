package agent

import (
	"net"
	"os"
	"testing"
	"time"

	"github.com/marcusreyes/agentchat/internal/wire"
	"github.com/stretchr/testify/require"
)

func waitForSocket(t *testing.T, path string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("socket %s never appeared", path)
}

func sendCommand(t *testing.T, endpoint, command string, args map[string]any) wire.Reply {
	t.Helper()
	conn, err := net.DialTimeout("unix", endpoint, time.Second)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, wire.WriteEnvelope(conn, wire.CommandEnvelope(command, args), time.Second))
	reply, err := wire.ReadReply(conn, time.Second)
	require.NoError(t, err)
	return reply
}

// TestDaemonLifecycle drives two real daemons over their Unix sockets end to
// end: join discovery, the unread-gate invariant, delivery, and leave-driven
// shutdown (spec.md §4.3, §8).
func TestDaemonLifecycle(t *testing.T) {
	runtimeDir := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", runtimeDir)

	alice, err := New(Config{Name: "alice", Context: "reviewer", Presentation: "Alice", Cwd: t.TempDir()})
	require.NoError(t, err)
	aliceDone := make(chan error, 1)
	go func() { aliceDone <- alice.Run() }()
	waitForSocket(t, alice.Endpoint())

	bob, err := New(Config{Name: "bob", Context: "author", Presentation: "Bob", Cwd: t.TempDir()})
	require.NoError(t, err)
	bobDone := make(chan error, 1)
	go func() { bobDone <- bob.Run() }()
	waitForSocket(t, bob.Endpoint())

	// Bob's startup broadcasts a join to Alice; that lands in her queue
	// asynchronously, so poll until it shows up.
	var statusReply wire.Reply
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		statusReply = sendCommand(t, alice.Endpoint(), wire.CmdStatus, nil)
		data, _ := statusReply.Data.(map[string]any)
		if depth, _ := data["queue_size"].(float64); depth > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.Equal(t, wire.StatusOK, statusReply.Status)

	// Unread-gate: Alice has an unread join notification, so send must fail.
	sendReply := sendCommand(t, alice.Endpoint(), wire.CmdSend, map[string]any{"content": "hi"})
	require.Equal(t, wire.StatusError, sendReply.Status)

	// Drain it via receive, then the gate reopens.
	recvReply := sendCommand(t, alice.Endpoint(), wire.CmdReceive, map[string]any{"timeout": 0})
	require.Equal(t, wire.StatusOK, recvReply.Status)

	sendReply = sendCommand(t, alice.Endpoint(), wire.CmdSend, map[string]any{"content": "hello bob"})
	require.Equal(t, wire.StatusOK, sendReply.Status)
	data := sendReply.Data.(map[string]any)
	delivered, _ := data["delivered_to"].([]any)
	require.Contains(t, delivered, "bob")

	// Bob should see the message on receive, waiting briefly if necessary.
	recvReply = sendCommand(t, bob.Endpoint(), wire.CmdReceive, map[string]any{"timeout": 2})
	require.Equal(t, wire.StatusOK, recvReply.Status)
	bobData := recvReply.Data.(map[string]any)
	msgs, _ := bobData["messages"].([]any)
	require.NotEmpty(t, msgs)

	// Leave drives a clean, self-terminating shutdown for both daemons.
	sendCommand(t, bob.Endpoint(), wire.CmdLeave, nil)
	sendCommand(t, alice.Endpoint(), wire.CmdLeave, nil)

	select {
	case err := <-bobDone:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("bob did not shut down")
	}
	select {
	case err := <-aliceDone:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("alice did not shut down")
	}

	_, err = os.Stat(alice.Endpoint())
	require.True(t, os.IsNotExist(err))
}

// TestDaemonRepliesErrorToMalformedFrame verifies the protocol-error path of
// spec.md §7: a frame that arrives intact but fails to parse as JSON gets a
// status=error reply, unlike a genuine transport failure (short read, closed
// connection), which the daemon handles by silently closing.
func TestDaemonRepliesErrorToMalformedFrame(t *testing.T) {
	runtimeDir := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", runtimeDir)

	d, err := New(Config{Name: "dee", Cwd: t.TempDir()})
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- d.Run() }()
	waitForSocket(t, d.Endpoint())
	defer func() {
		sendCommand(t, d.Endpoint(), wire.CmdLeave, nil)
		<-done
	}()

	conn, err := net.DialTimeout("unix", d.Endpoint(), time.Second)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, wire.WriteFrame(conn, []byte("{not valid json")))
	reply, err := wire.ReadReply(conn, time.Second)
	require.NoError(t, err, "a malformed frame must still get a reply, not a silently closed connection")
	require.Equal(t, wire.StatusError, reply.Status)
}

// TestDaemonStartupRejectsLiveNameCollision verifies the join-time admission
// check: a name already bound to a live daemon cannot be reused (spec.md
// §4.1, §8).
func TestDaemonStartupRejectsLiveNameCollision(t *testing.T) {
	runtimeDir := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", runtimeDir)

	first, err := New(Config{Name: "carol", Cwd: t.TempDir()})
	require.NoError(t, err)
	firstDone := make(chan error, 1)
	go func() { firstDone <- first.Run() }()
	waitForSocket(t, first.Endpoint())
	defer func() {
		sendCommand(t, first.Endpoint(), wire.CmdLeave, nil)
		<-firstDone
	}()

	second, err := New(Config{Name: "carol", Cwd: t.TempDir()})
	require.NoError(t, err)
	err = second.Run()
	require.Error(t, err)
}
