package main

import (
	"flag"

	"github.com/marcusreyes/agentchat/internal/wire"
)

func cmdStatus(argv []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	name := fs.String("agent", "", "agent's name")
	fs.Parse(argv)

	agentName := requireName(*name)
	reply := mustRequest(agentName, wire.CmdStatus, nil)
	printStatus(reply)
}

// printStatus prints the status reply as JSON on stdout, matching the
// reference chat.py client's cmd_status shape: {"status":"ok","data":...}
// with two-space indentation (spec.md §4.4 step 3).
func printStatus(reply wire.Reply) {
	emitJSONIndent(map[string]any{"status": wire.StatusOK, "data": reply.Data})
}
