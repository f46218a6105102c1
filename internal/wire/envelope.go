package wire

import (
	"fmt"
	"time"
)

// Envelope types.
const (
	EnvelopeCommand       = "command"
	EnvelopeRemoteMessage = "remote_message"
)

// Message types.
const (
	MsgJoin    = "join"
	MsgLeave   = "leave"
	MsgMessage = "message"
)

// Command names accepted on a daemon's own endpoint.
const (
	CmdSend    = "send"
	CmdReceive = "receive"
	CmdStatus  = "status"
	CmdLeave   = "leave"
)

// Sender is the originator descriptor embedded in every Message.
type Sender struct {
	Name         string `json:"name"`
	Context      string `json:"context"`
	Presentation string `json:"presentation"`
}

// Message is the payload exchanged between daemons and returned to clients
// on receive.
type Message struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Sender    Sender `json:"sender"`
	Content   string `json:"content"`
}

// NewMessage builds a Message with a fresh ISO-8601 UTC timestamp and an
// id of the form "<sender>-<timestamp>".
func NewMessage(msgType string, sender Sender, content string) Message {
	ts := nowISO()
	return Message{
		ID:        sender.Name + "-" + ts,
		Timestamp: ts,
		Type:      msgType,
		Sender:    sender,
		Content:   content,
	}
}

func nowISO() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
}

// Envelope is the outermost object on every connection in this subsystem.
// Exactly one of (Command/Args) or (Message) is populated, selected by Type.
type Envelope struct {
	Type    string         `json:"type"`
	Command string         `json:"command,omitempty"`
	Args    map[string]any `json:"args,omitempty"`
	Message *Message       `json:"message,omitempty"`
}

// CommandEnvelope builds a {"type":"command",...} envelope.
func CommandEnvelope(command string, args map[string]any) Envelope {
	return Envelope{Type: EnvelopeCommand, Command: command, Args: args}
}

// RemoteMessageEnvelope builds a {"type":"remote_message",...} envelope.
func RemoteMessageEnvelope(msg Message) Envelope {
	return Envelope{Type: EnvelopeRemoteMessage, Message: &msg}
}

// Reply is the response written back on every connection: either an OK with
// optional data, or an error.
type Reply struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// OK builds a successful reply, optionally carrying data.
func OK(data any) Reply {
	return Reply{Status: StatusOK, Data: data}
}

// Err builds an error reply.
func Err(format string, args ...any) Reply {
	return Reply{Status: StatusError, Error: fmt.Sprintf(format, args...)}
}
