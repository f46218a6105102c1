package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/marcusreyes/agentchat/internal/wire"
)

// cmdAsk is the client-side convenience named in spec.md §4.4: it runs send
// then receive, giving a question-and-answer shape to an otherwise
// asynchronous exchange.
func cmdAsk(argv []string) {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	name := fs.String("agent", "", "asking agent's name")
	timeout := fs.Float64("timeout", 30, "seconds to wait for a reply")
	fs.Parse(argv)

	rest := fs.Args()
	if len(rest) != 1 {
		fmt.Fprintln(os.Stderr, "usage: chat ask [--agent N] [--timeout S] TEXT")
		os.Exit(2)
	}
	text := rest[0]

	agentName := requireName(*name)
	// mustRequest prints and exits 1 on failure, matching cmd_ask's
	// print-the-send-failure-and-stop behavior.
	mustRequest(agentName, wire.CmdSend, map[string]any{"content": text})

	// An informational status line goes to stderr, not stdout, so it never
	// pollutes the JSON reply a caller parses from stdout.
	emitJSONTo(os.Stderr, map[string]any{"status": wire.StatusOK, "message": "Message sent, waiting for response..."}, false)

	reply, err := requestWithin(agentName, wire.CmdReceive,
		map[string]any{"timeout": *timeout},
		time.Duration(*timeout*float64(time.Second))+requestTimeout)
	if err != nil {
		emitJSON(errorReply(reply, err))
		os.Exit(1)
	}

	if printMessages(reply) {
		os.Exit(2)
	}
}
