package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/marcusreyes/agentchat/internal/wire"
)

func cmdSend(argv []string) {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	name := fs.String("agent", "", "acting agent's name")
	fs.Parse(argv)

	rest := fs.Args()
	if len(rest) != 1 {
		fmt.Fprintln(os.Stderr, "usage: chat send [--agent N] TEXT")
		os.Exit(2)
	}

	agentName := requireName(*name)
	reply := mustRequest(agentName, wire.CmdSend, map[string]any{"content": rest[0]})
	printSendResult(reply)
}

// printSendResult prints the send result as JSON on stdout, matching the
// reference chat.py client's cmd_send shape: a fixed "Message sent"
// acknowledgement with delivered_to/warnings attached only when non-empty
// (spec.md §4.4 step 3).
func printSendResult(reply wire.Reply) {
	data, _ := reply.Data.(map[string]any)
	delivered, _ := data["delivered_to"].([]any)
	failed, _ := data["failed"].(map[string]any)

	result := map[string]any{"status": wire.StatusOK, "message": "Message sent"}
	if len(delivered) > 0 {
		result["delivered_to"] = delivered
	}
	if len(failed) > 0 {
		result["warnings"] = failed
	}
	emitJSON(result)
}

// requireName resolves --agent against the saved identity profile, exiting
// with a usage error if neither is available.
func requireName(explicit string) string {
	name := resolveName(explicit)
	if name == "" {
		fmt.Fprintln(os.Stderr, "chat: --agent is required (or run 'chat identity set' first)")
		os.Exit(2)
	}
	return name
}
