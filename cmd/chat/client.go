package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/marcusreyes/agentchat/internal/registry"
	"github.com/marcusreyes/agentchat/internal/wire"
)

// requestTimeout bounds how long a client CLI invocation waits for a single
// round-trip to a daemon. receive uses its own, longer, server-side wait
// instead of extending this.
const requestTimeout = 5 * time.Second

// request dials agentName's daemon, sends a single command envelope, and
// returns its reply. Exactly one round-trip per call, matching the
// short-lived nature of the client CLI (spec.md §4.4).
func request(agentName, command string, args map[string]any) (wire.Reply, error) {
	return requestWithin(agentName, command, args, requestTimeout)
}

func requestWithin(agentName, command string, args map[string]any, timeout time.Duration) (wire.Reply, error) {
	reg, err := registry.Open()
	if err != nil {
		return wire.Reply{}, fmt.Errorf("resolve chat directory: %w", err)
	}
	endpoint := reg.EndpointPath(agentName)

	conn, err := net.DialTimeout("unix", endpoint, requestTimeout)
	if err != nil {
		return wire.Reply{}, fmt.Errorf("no running agent named %q: %w", agentName, err)
	}
	defer conn.Close()

	if err := wire.WriteEnvelope(conn, wire.CommandEnvelope(command, args), requestTimeout); err != nil {
		return wire.Reply{}, fmt.Errorf("write request: %w", err)
	}
	reply, err := wire.ReadReply(conn, timeout)
	if err != nil {
		return wire.Reply{}, fmt.Errorf("read reply: %w", err)
	}
	if reply.Status != wire.StatusOK {
		return reply, fmt.Errorf("%s", reply.Error)
	}
	return reply, nil
}

// mustRequest behaves like request but prints the reply as JSON and exits 1
// on failure, matching the client's unconditional JSON-on-stdout contract
// (spec.md §4.4 step 3).
func mustRequest(agentName, command string, args map[string]any) wire.Reply {
	reply, err := request(agentName, command, args)
	if err != nil {
		emitJSON(errorReply(reply, err))
		os.Exit(1)
	}
	return reply
}

// errorReply normalizes a request failure into a wire.Reply: when the
// daemon itself replied status=error, that reply is already the right
// shape; otherwise the failure never reached a reply (dial/transport
// failure) and one is synthesized from err.
func errorReply(reply wire.Reply, err error) wire.Reply {
	if reply.Status == wire.StatusError {
		return reply
	}
	return wire.Err("%v", err)
}

// emitJSON marshals v compactly and prints it to stdout, one line, matching
// the reference chat.py client's print(json.dumps(...)) (spec.md §4.4).
func emitJSON(v any) {
	emitJSONTo(os.Stdout, v, false)
}

// emitJSONIndent marshals v with two-space indentation, matching chat.py's
// json.dumps(..., indent=2) for receive/ask/status replies.
func emitJSONIndent(v any) {
	emitJSONTo(os.Stdout, v, true)
}

func emitJSONTo(w io.Writer, v any, indent bool) {
	var data []byte
	var err error
	if indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "chat: marshal reply: %v\n", err)
		return
	}
	fmt.Fprintln(w, string(data))
}
