// chat is the short-lived client CLI for an already-running chatd: it
// issues a single command (send, receive, ask, status, leave), prints the
// daemon's reply as JSON on stdout, and exits — or launches an interactive
// human session with repl.
//
// Usage:
//
//	chat send [--agent N] "text"              – broadcast to every known peer
//	chat receive [--agent N] [--timeout S]    – drain queued messages
//	chat ask [--agent N] [--timeout S] "text" – send, then wait for a reply
//	chat status [--agent N]                   – show identity, peers, queue size
//	chat leave [--agent N]                    – ask the daemon to shut down
//	chat repl [--name N] [--context C] [--presentation P]
//	                                           – spawn a daemon and chat interactively
//
// --agent falls back to the saved identity profile (see identity.go) when
// omitted.
package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "send":
		cmdSend(os.Args[2:])
	case "receive":
		cmdReceive(os.Args[2:])
	case "ask":
		cmdAsk(os.Args[2:])
	case "status":
		cmdStatus(os.Args[2:])
	case "leave":
		cmdLeave(os.Args[2:])
	case "repl":
		cmdRepl(os.Args[2:])
	case "identity":
		cmdIdentity(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "chat: unknown command %q\n", os.Args[1])
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `chat - talk to a running chatd agent; every reply is printed as JSON on stdout

  send [--agent N] TEXT                broadcast TEXT to every known peer
  receive [--agent N] [--timeout S]    drain queued messages, waiting up to S seconds
  ask [--agent N] [--timeout S] TEXT   broadcast TEXT, then wait for a reply
  status [--agent N]                   show identity, known peers, queue size
  leave [--agent N]                    ask the daemon to shut down cleanly
  repl [--name N] [--context C] [--presentation P]
                                        spawn a daemon and chat interactively
  identity set --name N [--context C] [--presentation P]
                                        save a default identity profile`)
}
