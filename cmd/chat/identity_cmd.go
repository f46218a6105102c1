package main

import (
	"flag"
	"fmt"
	"os"
)

func cmdIdentity(argv []string) {
	if len(argv) < 1 || argv[0] != "set" {
		fmt.Fprintln(os.Stderr, "usage: chat identity set --name N [--context C] [--presentation P]")
		os.Exit(2)
	}

	fs := flag.NewFlagSet("identity set", flag.ExitOnError)
	name := fs.String("name", "", "default agent name")
	context := fs.String("context", "", "default context description")
	presentation := fs.String("presentation", "", "default join greeting")
	fs.Parse(argv[1:])

	if *name == "" {
		fmt.Fprintln(os.Stderr, "chat: --name is required")
		os.Exit(2)
	}

	if err := saveIdentity(Identity{Name: *name, Context: *context, Presentation: *presentation}); err != nil {
		fmt.Fprintf(os.Stderr, "chat: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("saved identity profile for %s\n", *name)
}
