package wire

import (
	"net"
	"time"
)

// WriteEnvelope writes env as a single frame, honoring deadline if non-zero.
func WriteEnvelope(conn net.Conn, env Envelope, deadline time.Duration) error {
	if deadline > 0 {
		conn.SetWriteDeadline(time.Now().Add(deadline))
	}
	return WriteJSON(conn, env)
}

// ReadEnvelope reads a single envelope frame, honoring deadline if non-zero.
func ReadEnvelope(conn net.Conn, deadline time.Duration) (Envelope, error) {
	if deadline > 0 {
		conn.SetReadDeadline(time.Now().Add(deadline))
	}
	var env Envelope
	err := ReadJSON(conn, &env)
	return env, err
}

// WriteReply writes a Reply as a single frame, honoring deadline if non-zero.
func WriteReply(conn net.Conn, reply Reply, deadline time.Duration) error {
	if deadline > 0 {
		conn.SetWriteDeadline(time.Now().Add(deadline))
	}
	// A write after the peer has gone away must never take the daemon down;
	// net.Conn write errors already surface as ordinary errors (no SIGPIPE
	// on a unix-domain socket in Go), so the caller just logs and moves on.
	return WriteJSON(conn, reply)
}

// ReadReply reads a single Reply frame, honoring deadline if non-zero.
func ReadReply(conn net.Conn, deadline time.Duration) (Reply, error) {
	if deadline > 0 {
		conn.SetReadDeadline(time.Now().Add(deadline))
	}
	var reply Reply
	err := ReadJSON(conn, &reply)
	return reply, err
}
