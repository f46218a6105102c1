// Package wire implements the length-prefixed JSON framing shared by every
// socket in the chat fabric: client→daemon commands and daemon→daemon
// message delivery both speak this same wire format.
//
//	[4 bytes big-endian length][length bytes of UTF-8 JSON]
package wire

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// MaxFrameSize bounds a single frame's payload. Frames larger than this are
// refused before the payload is allocated.
const MaxFrameSize = 1 << 20 // 1 MiB

// WriteFrame length-prefixes payload and writes it to w: the 4-byte header
// first, then the payload (if any) in a second Write.
func WriteFrame(w io.Writer, payload []byte) error {
	hdr := make([]byte, 4)
	binary.BigEndian.PutUint32(hdr, uint32(len(payload)))
	if _, err := w.Write(hdr); err != nil {
		return err
	}
	if len(payload) > 0 {
		if _, err := w.Write(payload); err != nil {
			return err
		}
	}
	return nil
}

// ReadFrame reads one length-prefixed frame from r. An EOF before the full
// 4-byte header has been read (none or only some of its bytes) is reported
// as io.EOF; a partial payload (peer hung up mid-frame) is reported as
// io.ErrUnexpectedEOF via io.ReadFull's own error.
func ReadFrame(r io.Reader) ([]byte, error) {
	hdr := make([]byte, 4)
	if _, err := io.ReadFull(r, hdr); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, io.EOF
		}
		return nil, err
	}
	n := binary.BigEndian.Uint32(hdr)
	if n > MaxFrameSize {
		return nil, fmt.Errorf("frame too large: %d bytes (max %d)", n, MaxFrameSize)
	}
	if n == 0 {
		return []byte{}, nil
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// WriteJSON marshals v and writes it as a single frame.
func WriteJSON(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return WriteFrame(w, data)
}

// ReadJSON reads a single frame from r and unmarshals it into v. A decode
// failure is reported as *MalformedJSONError so callers can tell a protocol
// error (the frame was read fine, its contents were not valid JSON) apart
// from a transport error (short read, closed connection) (spec.md §7).
func ReadJSON(r io.Reader, v any) error {
	data, err := ReadFrame(r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &MalformedJSONError{Err: err}
	}
	return nil
}

// MalformedJSONError wraps a json.Unmarshal failure on a frame that was
// otherwise read in full. Distinguishing this from a transport error lets a
// daemon reply status=error instead of silently dropping the connection
// (spec.md §7).
type MalformedJSONError struct {
	Err error
}

func (e *MalformedJSONError) Error() string { return fmt.Sprintf("malformed JSON: %v", e.Err) }
func (e *MalformedJSONError) Unwrap() error  { return e.Err }
