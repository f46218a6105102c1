package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/marcusreyes/agentchat/internal/wire"
)

func cmdReceive(argv []string) {
	fs := flag.NewFlagSet("receive", flag.ExitOnError)
	name := fs.String("agent", "", "receiving agent's name")
	timeout := fs.Float64("timeout", 30, "seconds to wait if the queue is empty")
	fs.Parse(argv)

	agentName := requireName(*name)
	reply, err := requestWithin(agentName, wire.CmdReceive,
		map[string]any{"timeout": *timeout},
		time.Duration(*timeout*float64(time.Second))+requestTimeout)
	if err != nil {
		emitJSON(errorReply(reply, err))
		os.Exit(1)
	}

	empty := printMessages(reply)
	if empty {
		os.Exit(2)
	}
}

// printMessages prints the drained messages as JSON on stdout and reports
// whether the batch was empty, matching the reference chat.py client's
// cmd_receive shape and its exit code 2 on an empty batch (spec.md §4.4).
func printMessages(reply wire.Reply) bool {
	data, _ := reply.Data.(map[string]any)
	msgs, _ := data["messages"].([]any)
	if msgs == nil {
		msgs = []any{}
	}
	emitJSONIndent(map[string]any{"status": wire.StatusOK, "messages": msgs})
	return len(msgs) == 0
}

func describe(presentation string) string {
	if presentation == "" {
		return ""
	}
	return fmt.Sprintf(" — %s", presentation)
}
