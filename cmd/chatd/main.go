// chatd is the per-participant chat daemon: one instance registers a unique
// name, accepts control commands on its own Unix socket, and relays
// messages to and from its peers.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/marcusreyes/agentchat/internal/agent"
)

func main() {
	name := flag.String("name", "", "unique participant name (required)")
	context := flag.String("context", "", "short description of this participant's role")
	presentation := flag.String("presentation", "", "greeting shown to peers on join")
	cwd := flag.String("cwd", "", "working directory for the unread side-file (defaults to the process cwd)")
	flag.Parse()

	if *name == "" {
		fmt.Fprintln(os.Stderr, "chatd: --name is required")
		os.Exit(2)
	}

	d, err := agent.New(agent.Config{
		Name:         *name,
		Context:      *context,
		Presentation: *presentation,
		Cwd:          *cwd,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "chatd: %v\n", err)
		os.Exit(1)
	}

	log.SetPrefix("chatd: ")
	if err := d.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "chatd: %v\n", err)
		os.Exit(1)
	}
}
