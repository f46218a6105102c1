package main

import (
	"flag"

	"github.com/marcusreyes/agentchat/internal/wire"
)

func cmdLeave(argv []string) {
	fs := flag.NewFlagSet("leave", flag.ExitOnError)
	name := fs.String("agent", "", "agent's name")
	fs.Parse(argv)

	agentName := requireName(*name)
	mustRequest(agentName, wire.CmdLeave, nil)
	// Matching the reference chat.py client's cmd_leave shape (spec.md §4.4).
	emitJSON(map[string]any{"status": wire.StatusOK, "message": "Left chat successfully"})
}
