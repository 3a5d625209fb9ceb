package codec

import (
	"io"

	"github.com/dopd-io/dopd/internal/protocol/wire"
)

// Send encodes m and writes it as one framed envelope.
func Send(w io.Writer, m *Message) error {
	body, err := Encode(m)
	if err != nil {
		return err
	}
	return wire.WriteEnvelope(w, body)
}

// Receive reads one framed envelope and decodes it as a request. maxSize 0
// selects the wire default.
func Receive(r io.Reader, maxSize uint32) (*Message, error) {
	body, err := wire.ReadEnvelope(r, maxSize)
	if err != nil {
		return nil, err
	}
	return Decode(body)
}

// SendReply encodes rep and writes it as one framed envelope.
func SendReply(w io.Writer, rep *Reply) error {
	body, err := EncodeReply(rep)
	if err != nil {
		return err
	}
	return wire.WriteEnvelope(w, body)
}

// ReceiveReply reads one framed envelope and decodes it as a reply.
func ReceiveReply(r io.Reader) (*Reply, error) {
	body, err := wire.ReadEnvelope(r, 0)
	if err != nil {
		return nil, err
	}
	return DecodeReply(body)
}
