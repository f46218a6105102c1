// Package agent implements the per-participant chat daemon (spec.md §4.3):
// it registers itself in the shared registry, accepts control commands on
// its own Unix socket endpoint, delivers outgoing messages to peers, queues
// inbound messages, and broadcasts join/leave to the fabric.
package agent

import (
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/marcusreyes/agentchat/internal/registry"
	"github.com/marcusreyes/agentchat/internal/wire"
)

// acceptPollInterval bounds how long the accept loop blocks before it
// re-checks the shutdown flag (spec.md §4.3.2, §5).
const acceptPollInterval = 1 * time.Second

// connDeadline is the per-connection deadline a handler gives itself for
// reading the request envelope and writing the reply (spec.md §4.2).
const connDeadline = 120 * time.Second

// peerDialTimeout bounds a single outbound delivery attempt so one slow
// peer never stalls the rest of a send's fan-out (spec.md §5).
const peerDialTimeout = 5 * time.Second

// Config carries the daemon's identity, supplied at startup.
type Config struct {
	Name         string
	Context      string
	Presentation string
	Cwd          string
}

// Daemon is the central per-agent supervisor: one instance per participant
// process.
type Daemon struct {
	cfg      Config
	reg      *registry.Registry
	endpoint string

	mu      sync.Mutex
	members map[string]registry.Agent // cache of the registry, excluding self

	queue *Queue
	event *Event

	listener   net.Listener
	shutdownCh chan struct{}
	shutOnce   sync.Once
}

// New constructs a Daemon for cfg. It does not touch the filesystem beyond
// resolving the chat directory and the registry path.
func New(cfg Config) (*Daemon, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("name must not be empty")
	}
	if cfg.Cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve working directory: %w", err)
		}
		cfg.Cwd = wd
	}

	reg, err := registry.Open()
	if err != nil {
		return nil, err
	}

	return &Daemon{
		cfg:        cfg,
		reg:        reg,
		endpoint:   reg.EndpointPath(cfg.Name),
		members:    map[string]registry.Agent{},
		queue:      NewQueue(),
		event:      NewEvent(),
		shutdownCh: make(chan struct{}),
	}, nil
}

// Endpoint returns the socket path this daemon listens on.
func (d *Daemon) Endpoint() string { return d.endpoint }

// Run performs startup (spec.md §4.3.1), serves the accept loop until a
// shutdown is requested (leave command or signal), then runs the shutdown
// sequence (spec.md §4.3.5) before returning.
func (d *Daemon) Run() error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("agent %s: received %v, shutting down", d.cfg.Name, sig)
		d.requestShutdown()
	}()
	defer signal.Stop(sigCh)

	if err := d.startup(); err != nil {
		return err
	}
	defer d.shutdown()

	d.acceptLoop()
	return nil
}

// startup implements spec.md §4.3.1 steps 2-6 (the signal handler, step 1,
// is installed by Run before startup is called).
func (d *Daemon) startup() error {
	agents, err := d.reg.Read()
	if err != nil {
		return fmt.Errorf("read registry: %w", err)
	}
	if prior, ok := agents[d.cfg.Name]; ok {
		if registry.Probe(prior.Endpoint) {
			return fmt.Errorf("name %q is already in use by a live agent at %s", d.cfg.Name, prior.Endpoint)
		}
		log.Printf("agent %s: evicting stale registry entry (dead endpoint %s)", d.cfg.Name, prior.Endpoint)
		delete(agents, d.cfg.Name)
	}

	// Only safe to take over the endpoint path once we know the prior
	// occupant, if any, is dead: a live peer's listener must never be
	// unlinked out from under it.
	os.Remove(d.endpoint)
	l, err := net.Listen("unix", d.endpoint)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", d.endpoint, err)
	}
	d.listener = l

	self := registry.Agent{
		Name:         d.cfg.Name,
		Context:      d.cfg.Context,
		Presentation: d.cfg.Presentation,
		JoinedAt:     nowISO(),
		Endpoint:     d.endpoint,
	}
	agents[d.cfg.Name] = self

	if err := d.reg.Write(agents); err != nil {
		l.Close()
		return fmt.Errorf("write registry: %w", err)
	}

	d.mu.Lock()
	d.members = membersExcluding(agents, d.cfg.Name)
	members := make([]registry.Agent, 0, len(d.members))
	for _, m := range d.members {
		members = append(members, m)
	}
	d.mu.Unlock()

	for _, peer := range members {
		if err := d.deliverTo(peer, wire.NewMessage(wire.MsgJoin, d.senderDescriptor(), d.cfg.Presentation)); err != nil {
			log.Printf("agent %s: join broadcast to %s failed: %v", d.cfg.Name, peer.Name, err)
		}
	}

	log.Printf("agent %s: listening on %s (%d peer(s) known)", d.cfg.Name, d.endpoint, len(members))
	return nil
}

func membersExcluding(agents map[string]registry.Agent, self string) map[string]registry.Agent {
	out := make(map[string]registry.Agent, len(agents))
	for name, a := range agents {
		if name != self {
			out[name] = a
		}
	}
	return out
}

// acceptLoop blocks accepting connections, dispatching each to its own
// handler goroutine, until requestShutdown fires. The listener deadline is
// re-armed every acceptPollInterval so the shutdown flag is observed
// promptly (spec.md §4.3.2).
func (d *Daemon) acceptLoop() {
	type deadliner interface {
		SetDeadline(time.Time) error
	}

	for {
		select {
		case <-d.shutdownCh:
			return
		default:
		}

		if dl, ok := d.listener.(deadliner); ok {
			dl.SetDeadline(time.Now().Add(acceptPollInterval))
		}

		conn, err := d.listener.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			select {
			case <-d.shutdownCh:
				return
			default:
				log.Printf("agent %s: accept error: %v", d.cfg.Name, err)
				continue
			}
		}
		go d.handleConn(conn)
	}
}

// handleConn reads exactly one framed envelope, dispatches it, writes
// exactly one framed reply, and closes (spec.md §4.3.2).
func (d *Daemon) handleConn(conn net.Conn) {
	defer conn.Close()

	env, err := wire.ReadEnvelope(conn, connDeadline)
	if err != nil {
		var malformed *wire.MalformedJSONError
		if errors.As(err, &malformed) {
			// Protocol error: the frame arrived intact, its body didn't
			// parse. Unlike a transport failure, this gets a reply
			// (spec.md §7).
			wire.WriteReply(conn, wire.Err("%v", malformed), connDeadline)
		}
		return // transport error: short read / closed connection, no reply to send
	}

	var reply wire.Reply
	switch env.Type {
	case wire.EnvelopeCommand:
		reply = d.dispatchCommand(env)
	case wire.EnvelopeRemoteMessage:
		reply = d.handleRemoteMessage(env)
	default:
		reply = wire.Err("Unknown message type: %s", env.Type)
	}

	if err := wire.WriteReply(conn, reply, connDeadline); err != nil {
		log.Printf("agent %s: write reply failed: %v", d.cfg.Name, err)
	}
}

func (d *Daemon) dispatchCommand(env wire.Envelope) wire.Reply {
	switch env.Command {
	case wire.CmdSend:
		return d.handleSend(env.Args)
	case wire.CmdReceive:
		return d.handleReceive(env.Args)
	case wire.CmdStatus:
		return d.handleStatus()
	case wire.CmdLeave:
		return d.handleLeave()
	default:
		return wire.Err("unknown command: %s", env.Command)
	}
}

// requestShutdown idempotently signals the accept loop to stop.
func (d *Daemon) requestShutdown() {
	d.shutOnce.Do(func() { close(d.shutdownCh) })
}

// shutdown implements spec.md §4.3.5: broadcast leave, remove the registry
// entry, unlink the endpoint, delete the unread side-file.
func (d *Daemon) shutdown() {
	d.mu.Lock()
	members := make([]registry.Agent, 0, len(d.members))
	for _, m := range d.members {
		members = append(members, m)
	}
	d.mu.Unlock()

	leaveMsg := wire.NewMessage(wire.MsgLeave, d.senderDescriptor(), "")
	for _, peer := range members {
		if err := d.deliverTo(peer, leaveMsg); err != nil {
			log.Printf("agent %s: leave broadcast to %s failed: %v", d.cfg.Name, peer.Name, err)
		}
	}

	if err := d.reg.Mutate(func(agents map[string]registry.Agent) map[string]registry.Agent {
		delete(agents, d.cfg.Name)
		return agents
	}); err != nil {
		log.Printf("agent %s: could not remove registry entry: %v", d.cfg.Name, err)
	}

	if d.listener != nil {
		d.listener.Close()
	}
	os.Remove(d.endpoint)
	deleteUnreadFile(d.cfg.Cwd)

	log.Printf("agent %s: shut down cleanly", d.cfg.Name)
}

func (d *Daemon) senderDescriptor() wire.Sender {
	return wire.Sender{Name: d.cfg.Name, Context: d.cfg.Context, Presentation: d.cfg.Presentation}
}

func nowISO() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
}
