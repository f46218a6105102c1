package agent

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/marcusreyes/agentchat/internal/registry"
	"github.com/marcusreyes/agentchat/internal/wire"
)

// unreadFileName is the side-file a participant's tooling can stat to learn
// there is unread traffic without making a blocking receive call.
const unreadFileName = ".unread-messages"

// defaultReceiveTimeout matches the daemon command table (spec.md §4.3.3).
const defaultReceiveTimeout float64 = 30

// handleSend implements the send command: broadcast content to every
// currently known peer, subject to the unread-gate invariant (spec.md
// §4.3.3, §8).
func (d *Daemon) handleSend(args map[string]any) wire.Reply {
	if depth := d.queue.Len(); depth > 0 {
		return wire.Err("Cannot send: %d unread message(s). Use \"receive\" first.", depth)
	}

	content, _ := args["content"].(string)
	if content == "" {
		return wire.Err("send requires non-empty content")
	}

	targets, err := d.refreshMembers()
	if err != nil {
		return wire.Err("%v", err)
	}
	if len(targets) == 0 {
		return wire.OK(map[string]any{"delivered_to": []string{}, "failed": map[string]string{}})
	}

	msg := wire.NewMessage(wire.MsgMessage, d.senderDescriptor(), content)

	deliveredTo := make([]string, 0, len(targets))
	failed := map[string]string{}
	for _, peer := range targets {
		if err := d.deliverTo(peer, msg); err != nil {
			failed[peer.Name] = err.Error()
			d.mu.Lock()
			delete(d.members, peer.Name)
			d.mu.Unlock()
			continue
		}
		deliveredTo = append(deliveredTo, peer.Name)
	}

	return wire.OK(map[string]any{"delivered_to": deliveredTo, "failed": failed})
}

// refreshMembers re-reads the registry and refreshes the members cache
// under the mutex, returning the current peer list (spec.md §4.3.4 step 1).
func (d *Daemon) refreshMembers() ([]registry.Agent, error) {
	agents, err := d.reg.Read()
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	d.mu.Lock()
	d.members = membersExcluding(agents, d.cfg.Name)
	targets := make([]registry.Agent, 0, len(d.members))
	for _, peer := range d.members {
		targets = append(targets, peer)
	}
	d.mu.Unlock()
	return targets, nil
}

// handleReceive implements the receive command: clear the wakeup event
// before draining so a message delivered between drains is never lost, wait
// up to the requested timeout if the queue was empty, then drain again
// (spec.md §4.3.3, §5).
func (d *Daemon) handleReceive(args map[string]any) wire.Reply {
	timeout := parseTimeoutSeconds(args)

	d.event.Clear()
	msgs := d.queue.DrainAll()
	if len(msgs) == 0 && timeout > 0 {
		if d.event.Wait(timeout) {
			msgs = d.queue.DrainAll()
		}
	}

	if d.queue.Len() == 0 {
		deleteUnreadFile(d.cfg.Cwd)
	} else {
		writeUnreadFile(d.cfg.Cwd, d.queue.Len())
	}

	if msgs == nil {
		msgs = []wire.Message{}
	}
	return wire.OK(map[string]any{"messages": msgs})
}

func parseTimeoutSeconds(args map[string]any) time.Duration {
	seconds := defaultReceiveTimeout
	switch v := args["timeout"].(type) {
	case float64:
		seconds = v
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			seconds = f
		}
	}
	if seconds < 0 {
		seconds = 0
	}
	return time.Duration(seconds * float64(time.Second))
}

// handleStatus implements the status command: a point-in-time snapshot of
// this agent's identity, known peers, and queue depth (spec.md §4.3.3).
func (d *Daemon) handleStatus() wire.Reply {
	d.mu.Lock()
	members := make([]registry.Agent, 0, len(d.members))
	for _, m := range d.members {
		members = append(members, m)
	}
	d.mu.Unlock()

	return wire.OK(map[string]any{
		"agent": map[string]any{
			"name":         d.cfg.Name,
			"context":      d.cfg.Context,
			"presentation": d.cfg.Presentation,
		},
		"members":    members,
		"queue_size": d.queue.Len(),
	})
}

// handleLeave implements the leave command: it only initiates shutdown.
// The leave broadcast itself happens exactly once, inside Daemon.shutdown,
// so a signal-driven exit and an explicit leave command share one code
// path (spec.md §4.3.5).
func (d *Daemon) handleLeave() wire.Reply {
	d.requestShutdown()
	return wire.OK(nil)
}

func unreadFilePath(cwd string) string {
	return filepath.Join(cwd, unreadFileName)
}

// writeUnreadFile records the current queue depth so external tooling can
// detect unread traffic without a blocking receive call (spec.md §3).
func writeUnreadFile(cwd string, depth int) {
	if depth <= 0 {
		deleteUnreadFile(cwd)
		return
	}
	_ = os.WriteFile(unreadFilePath(cwd), []byte(strconv.Itoa(depth)), 0o644)
}

func deleteUnreadFile(cwd string) {
	os.Remove(unreadFilePath(cwd))
}
