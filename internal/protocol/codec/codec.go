// Package codec converts between the FlatBuffers wire representation and
// plain Go values. Decoding is all-or-nothing: either a fully materialized
// Message (or Reply) is returned, or a SchemaError and no partial state.
package codec

import (
	"bytes"
	"fmt"

	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/dopd-io/dopd/internal/protocol/schema"
)

// Reply status codes carried in the status field of a reply body.
const (
	StatusOK           int16 = 0
	StatusError        int16 = -1
	StatusNotSupported int16 = -2
	StatusNotFound     int16 = -3
)

// Identity names an actor on whose behalf a request is made. Validation of
// identities is deliberately not performed here.
type Identity struct {
	Name string
}

// Message is the decoded form of one request body.
//
// Absent optional fields decode to their zero values: version and api number
// to 0, identities to empty names, payload to nil.
type Message struct {
	MinimumProtocolVersion int16
	APINumber              schema.OperationCode
	User                   Identity
	ProxyUser              Identity
	Payload                []byte
}

// Reply is the decoded form of one response body.
type Reply struct {
	Status  int16
	Payload []byte
}

// SchemaError reports a body that could not be parsed into a well-formed
// message: truncated table, missing root, or an out-of-range enum value.
type SchemaError struct {
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema: %s", e.Reason)
}

// Encode serializes m into a FlatBuffers body. Strings and byte sequences
// are created on the builder before the message table references them, as
// the serialization requires.
func Encode(m *Message) ([]byte, error) {
	if m.APINumber > schema.OperationCodeUnlink {
		return nil, &SchemaError{Reason: fmt.Sprintf("api_number %d out of range", m.APINumber)}
	}

	builder := flatbuffers.NewBuilder(256)

	userName := builder.CreateString(m.User.Name)
	proxyName := builder.CreateString(m.ProxyUser.Name)

	var payload flatbuffers.UOffsetT
	if len(m.Payload) > 0 {
		payload = builder.CreateByteString(m.Payload)
	}

	schema.IdentityStart(builder)
	schema.IdentityAddName(builder, userName)
	user := schema.IdentityEnd(builder)

	schema.IdentityStart(builder)
	schema.IdentityAddName(builder, proxyName)
	proxyUser := schema.IdentityEnd(builder)

	schema.MessageStart(builder)
	schema.MessageAddMinimumProtocolVersion(builder, m.MinimumProtocolVersion)
	schema.MessageAddApiNumber(builder, m.APINumber)
	schema.MessageAddUser(builder, user)
	schema.MessageAddProxyUser(builder, proxyUser)
	if payload != 0 {
		schema.MessageAddPayload(builder, payload)
	}
	builder.Finish(schema.MessageEnd(builder))

	return builder.FinishedBytes(), nil
}

// Decode parses one request body. A corrupt buffer never produces a partial
// Message: accessor panics on truncated tables are converted into a
// SchemaError.
func Decode(data []byte) (m *Message, err error) {
	defer func() {
		if r := recover(); r != nil {
			m = nil
			err = &SchemaError{Reason: fmt.Sprintf("malformed buffer: %v", r)}
		}
	}()

	if err := checkRoot(data); err != nil {
		return nil, err
	}

	raw := schema.GetRootAsMessage(data, 0)

	api := raw.ApiNumber()
	if api > schema.OperationCodeUnlink {
		return nil, &SchemaError{Reason: fmt.Sprintf("api_number %d out of range", api)}
	}

	decoded := &Message{
		MinimumProtocolVersion: raw.MinimumProtocolVersion(),
		APINumber:              api,
	}

	var identity schema.Identity
	if user := raw.User(&identity); user != nil {
		decoded.User.Name = string(user.Name())
	}
	if proxy := raw.ProxyUser(&identity); proxy != nil {
		decoded.ProxyUser.Name = string(proxy.Name())
	}
	if payload := raw.Payload(); payload != nil {
		decoded.Payload = bytes.Clone(payload)
	}

	return decoded, nil
}

// EncodeReply serializes a reply body.
func EncodeReply(r *Reply) ([]byte, error) {
	builder := flatbuffers.NewBuilder(128)

	var payload flatbuffers.UOffsetT
	if len(r.Payload) > 0 {
		payload = builder.CreateByteString(r.Payload)
	}

	schema.ReplyStart(builder)
	schema.ReplyAddStatus(builder, r.Status)
	if payload != 0 {
		schema.ReplyAddPayload(builder, payload)
	}
	builder.Finish(schema.ReplyEnd(builder))

	return builder.FinishedBytes(), nil
}

// DecodeReply parses one response body.
func DecodeReply(data []byte) (r *Reply, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r = nil
			err = &SchemaError{Reason: fmt.Sprintf("malformed buffer: %v", rec)}
		}
	}()

	if err := checkRoot(data); err != nil {
		return nil, err
	}

	raw := schema.GetRootAsReply(data, 0)

	decoded := &Reply{Status: raw.Status()}
	if payload := raw.Payload(); payload != nil {
		decoded.Payload = bytes.Clone(payload)
	}

	return decoded, nil
}

// checkRoot rejects bodies too short to hold a root table offset, or whose
// root offset points outside the buffer. Deeper corruption is caught by the
// recover in the callers.
func checkRoot(data []byte) error {
	if len(data) < flatbuffers.SizeUOffsetT {
		return &SchemaError{Reason: fmt.Sprintf("body of %d bytes is too short", len(data))}
	}
	root := flatbuffers.GetUOffsetT(data)
	if int(root) >= len(data) {
		return &SchemaError{Reason: "root offset outside buffer"}
	}
	return nil
}
