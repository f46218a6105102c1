package agent

import (
	"fmt"
	"net"

	"github.com/marcusreyes/agentchat/internal/registry"
	"github.com/marcusreyes/agentchat/internal/wire"
)

// deliverTo dials peer's endpoint, writes msg as a remote_message envelope,
// and waits for the peer's reply. It is used both for ordinary sends and
// for join/leave broadcasts (spec.md §4.3.3, §4.3.5).
func (d *Daemon) deliverTo(peer registry.Agent, msg wire.Message) error {
	conn, err := net.DialTimeout("unix", peer.Endpoint, peerDialTimeout)
	if err != nil {
		return fmt.Errorf("dial %s: %w", peer.Name, err)
	}
	defer conn.Close()

	env := wire.RemoteMessageEnvelope(msg)
	if err := wire.WriteEnvelope(conn, env, peerDialTimeout); err != nil {
		return fmt.Errorf("write to %s: %w", peer.Name, err)
	}
	reply, err := wire.ReadReply(conn, peerDialTimeout)
	if err != nil {
		return fmt.Errorf("read reply from %s: %w", peer.Name, err)
	}
	if reply.Status != wire.StatusOK {
		return fmt.Errorf("%s rejected message: %s", peer.Name, reply.Error)
	}
	return nil
}

// handleRemoteMessage processes an inbound remote_message envelope from a
// peer daemon: join and leave update the local members cache, every kind is
// queued for the owning participant to receive (spec.md §4.3.4).
func (d *Daemon) handleRemoteMessage(env wire.Envelope) wire.Reply {
	if env.Message == nil {
		return wire.Err("remote_message envelope missing message body")
	}
	msg := *env.Message

	d.mu.Lock()
	switch msg.Type {
	case wire.MsgJoin:
		d.members[msg.Sender.Name] = registry.Agent{
			Name:         msg.Sender.Name,
			Context:      msg.Sender.Context,
			Presentation: msg.Sender.Presentation,
			JoinedAt:     msg.Timestamp,
			Endpoint:     d.reg.EndpointPath(msg.Sender.Name),
		}
	case wire.MsgLeave:
		delete(d.members, msg.Sender.Name)
	}
	d.mu.Unlock()

	d.queue.Push(msg)
	writeUnreadFile(d.cfg.Cwd, d.queue.Len())
	d.event.Set()

	return wire.OK(nil)
}
