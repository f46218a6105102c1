package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/marcusreyes/agentchat/internal/registry"
	"github.com/marcusreyes/agentchat/internal/wire"
	"golang.org/x/term"
)

// pollInterval is how often the background goroutine checks for new
// messages while the human types (spec.md §4.5).
const pollInterval = 1 * time.Second

func cmdRepl(argv []string) {
	fs := flag.NewFlagSet("repl", flag.ExitOnError)
	name := fs.String("name", "", "agent name to join as")
	context := fs.String("context", "", "short description of this participant's role")
	presentation := fs.String("presentation", "", "greeting shown to peers on join")
	fs.Parse(argv)

	agentName := *name
	if id, err := loadIdentity(); err == nil && id != nil {
		if agentName == "" {
			agentName = id.Name
		}
		if *context == "" {
			*context = id.Context
		}
		if *presentation == "" {
			*presentation = id.Presentation
		}
	}
	if agentName == "" {
		fmt.Fprintln(os.Stderr, "usage: chat repl --name N [--context C] [--presentation P]")
		os.Exit(2)
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "chat: %v\n", err)
		os.Exit(1)
	}

	cmd, err := spawnDaemon(agentName, *context, *presentation, cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "chat: %v\n", err)
		os.Exit(1)
	}

	reg, err := registry.Open()
	if err != nil {
		fmt.Fprintf(os.Stderr, "chat: %v\n", err)
		os.Exit(1)
	}
	endpoint := reg.EndpointPath(agentName)
	if !waitForEndpoint(endpoint, 3*time.Second) {
		fmt.Fprintln(os.Stderr, "chat: daemon did not come up in time")
		cmd.Process.Kill()
		os.Exit(1)
	}

	runREPL(agentName, cmd)
}

// spawnDaemon starts chatd in the background, bound to the caller's own
// identity, mirroring how a short-lived client bootstraps its long-lived
// daemon.
func spawnDaemon(name, context, presentation, cwd string) (*exec.Cmd, error) {
	exe, _ := os.Executable()
	daemonBin := filepath.Join(filepath.Dir(exe), "chatd")
	if _, err := os.Stat(daemonBin); err != nil {
		daemonBin = "chatd"
	}

	cmd := exec.Command(daemonBin,
		"--name", name,
		"--context", context,
		"--presentation", presentation,
		"--cwd", cwd,
	)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start chatd: %w", err)
	}
	return cmd, nil
}

func waitForEndpoint(path string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return false
}

// screen serializes terminal writes between the input loop and the
// background receive poller so an incoming message never interleaves with
// a half-typed line (spec.md §4.5).
type screen struct {
	mu  sync.Mutex
	buf []rune
}

func (s *screen) redraw() {
	fmt.Print("\r\x1b[K> " + string(s.buf))
}

func (s *screen) printLine(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Print("\r\x1b[K")
	fmt.Println(text)
	s.redraw()
}

func runREPL(agentName string, daemonCmd *exec.Cmd) {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "chat: cannot set raw mode: %v\n", err)
		leaveAndKill(agentName, daemonCmd)
		os.Exit(1)
	}
	var restoreOnce sync.Once
	restore := func() { restoreOnce.Do(func() { term.Restore(fd, oldState) }) }
	defer restore()

	sc := &screen{}
	sc.printLine(fmt.Sprintf("joined as %s. Type /help for commands, /quit to leave.", agentName))

	done := make(chan struct{})
	var doneOnce sync.Once
	closeDone := func() { doneOnce.Do(func() { close(done) }) }

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		closeDone()
	}()

	go pollMessages(agentName, sc, done)

	runInputLoop(agentName, sc, done, closeDone)

	signal.Stop(sigCh)
	restore()
	leaveAndKill(agentName, daemonCmd)
	fmt.Println("\nleft the chat.")
}

// pollMessages periodically drains the agent's queue and prints anything
// new until done is closed.
func pollMessages(agentName string, sc *screen, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-time.After(pollInterval):
		}

		reply, err := request(agentName, wire.CmdReceive, map[string]any{"timeout": 0})
		if err != nil {
			continue // transient errors are not fatal to the session
		}
		data, _ := reply.Data.(map[string]any)
		msgs, _ := data["messages"].([]any)
		for _, raw := range msgs {
			m, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			sc.printLine(formatIncoming(m))
		}
	}
}

func formatIncoming(m map[string]any) string {
	sender, _ := m["sender"].(map[string]any)
	name, _ := sender["name"].(string)
	kind, _ := m["type"].(string)
	content, _ := m["content"].(string)

	switch kind {
	case wire.MsgJoin:
		return fmt.Sprintf("%s* %s joined%s%s", colorDim, name, describe(content), colorReset)
	case wire.MsgLeave:
		return fmt.Sprintf("%s* %s left%s", colorDim, name, colorReset)
	default:
		return fmt.Sprintf("%s%s:%s %s", colorCyan+colorBold, name, colorReset, content)
	}
}

// runInputLoop reads raw keystrokes, echoing them itself since the terminal
// is in raw mode, and dispatches completed lines. Returns true if the user
// asked to quit.
func runInputLoop(agentName string, sc *screen, done chan struct{}, closeDone func()) bool {
	sc.redraw()
	buf := make([]byte, 64)
	quit := false

	for {
		select {
		case <-done:
			return quit
		default:
		}

		n, err := os.Stdin.Read(buf)
		if err != nil {
			closeDone()
			return quit
		}
		for i := 0; i < n; i++ {
			b := buf[i]
			switch {
			case b == 0x03: // Ctrl-C
				quit = true
				closeDone()
				return quit
			case b == '\r' || b == '\n':
				sc.mu.Lock()
				line := strings.TrimSpace(string(sc.buf))
				sc.buf = nil
				fmt.Print("\r\x1b[K")
				sc.mu.Unlock()
				if line != "" {
					if handleLine(agentName, sc, line) {
						quit = true
						closeDone()
						return quit
					}
				}
				sc.mu.Lock()
				sc.redraw()
				sc.mu.Unlock()
			case b == 0x7F || b == 0x08: // backspace
				sc.mu.Lock()
				if len(sc.buf) > 0 {
					sc.buf = sc.buf[:len(sc.buf)-1]
					fmt.Print("\b \b")
				}
				sc.mu.Unlock()
			default:
				sc.mu.Lock()
				sc.buf = append(sc.buf, rune(b))
				fmt.Printf("%c", b)
				sc.mu.Unlock()
			}
		}
	}
}

// handleLine processes one submitted line: a slash command or a message to
// broadcast. Returns true if the session should end.
func handleLine(agentName string, sc *screen, line string) bool {
	if !strings.HasPrefix(line, "/") {
		reply, err := request(agentName, wire.CmdSend, map[string]any{"content": line})
		if err != nil {
			sc.printLine(fmt.Sprintf("%ssend failed: %v%s", colorYellow, err, colorReset))
			return false
		}
		data, _ := reply.Data.(map[string]any)
		delivered, _ := data["delivered_to"].([]any)
		sc.printLine(fmt.Sprintf("%s(delivered to %d peer(s))%s", colorDim, len(delivered), colorReset))
		return false
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true
	case "/help":
		sc.printLine("/status, /members, /quit, /exit — anything else is sent as a message")
	case "/status":
		reply, err := request(agentName, wire.CmdStatus, nil)
		if err != nil {
			sc.printLine(fmt.Sprintf("status failed: %v", err))
			return false
		}
		data, _ := reply.Data.(map[string]any)
		depth, _ := data["queue_size"].(float64)
		members, _ := data["members"].([]any)
		sc.printLine(fmt.Sprintf("unread=%d known peers=%d", int(depth), len(members)))
	case "/members":
		reply, err := request(agentName, wire.CmdStatus, nil)
		if err != nil {
			sc.printLine(fmt.Sprintf("status failed: %v", err))
			return false
		}
		data, _ := reply.Data.(map[string]any)
		members, _ := data["members"].([]any)
		if len(members) == 0 {
			sc.printLine("no other agents currently joined")
			return false
		}
		for _, raw := range members {
			m, _ := raw.(map[string]any)
			name, _ := m["name"].(string)
			context, _ := m["context"].(string)

			line := fmt.Sprintf("  %s%s%s", colorCyan, name, colorReset)
			if context != "" {
				line += fmt.Sprintf(" (%s)", truncate(context, 40))
			}
			if age := joinedAge(m["joined_at"]); age != "" {
				line += fmt.Sprintf(" — joined %s ago", age)
			}
			sc.printLine(line)
		}
	default:
		sc.printLine(fmt.Sprintf("unknown command %q (try /help)", fields[0]))
	}
	return false
}

func leaveAndKill(agentName string, daemonCmd *exec.Cmd) {
	_, _ = request(agentName, wire.CmdLeave, nil)

	waited := make(chan struct{})
	go func() {
		daemonCmd.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-time.After(3 * time.Second):
		daemonCmd.Process.Kill()
	}
}
