// Package wire implements the envelope framing used on every dopd
// connection: a 4-byte little-endian unsigned length followed by exactly
// that many bytes of serialized message body.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// DefaultMaxMessageSize bounds the declared body length so a malformed or
// hostile length prefix cannot make the server allocate unbounded memory.
const DefaultMaxMessageSize = 16 << 20 // 16 MiB

// HeaderSize is the size of the length prefix in bytes.
const HeaderSize = 4

// FramingError reports a violation of the envelope framing: a stream that
// closed before the length prefix or the full body arrived, or a declared
// length above the configured maximum.
type FramingError struct {
	Reason string
	Err    error
}

func (e *FramingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("framing: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("framing: %s", e.Reason)
}

func (e *FramingError) Unwrap() error {
	return e.Err
}

// ReadEnvelope reads one framed message body from r. The length prefix is
// validated against maxSize before any body bytes are read; on an oversized
// length nothing past the 4-byte prefix is consumed. maxSize of 0 selects
// DefaultMaxMessageSize.
func ReadEnvelope(r io.Reader, maxSize uint32) ([]byte, error) {
	if maxSize == 0 {
		maxSize = DefaultMaxMessageSize
	}

	var header [HeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, &FramingError{Reason: "read length prefix", Err: err}
	}

	length := binary.LittleEndian.Uint32(header[:])
	if length > maxSize {
		return nil, &FramingError{
			Reason: fmt.Sprintf("declared body length %d exceeds maximum %d", length, maxSize),
		}
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, &FramingError{Reason: "read message body", Err: err}
	}

	return body, nil
}

// WriteEnvelope writes body to w prefixed with its little-endian length.
func WriteEnvelope(w io.Writer, body []byte) error {
	var header [HeaderSize]byte
	binary.LittleEndian.PutUint32(header[:], uint32(len(body)))

	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write length prefix: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("write message body: %w", err)
	}

	return nil
}
