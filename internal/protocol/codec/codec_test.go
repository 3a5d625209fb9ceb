package codec

import (
	"bytes"
	"encoding/binary"
	"testing"

	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dopd-io/dopd/internal/protocol/schema"
	"github.com/dopd-io/dopd/internal/protocol/wire"
)

func validMessage() *Message {
	return &Message{
		MinimumProtocolVersion: 430,
		APINumber:              schema.OperationCodeOpen,
		User:                   Identity{Name: "kory"},
		ProxyUser:              Identity{Name: "rods"},
		Payload:                []byte("/tmp/data.obj"),
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Run("AllFields", func(t *testing.T) {
		m := validMessage()

		body, err := Encode(m)
		require.NoError(t, err)

		got, err := Decode(body)
		require.NoError(t, err)
		assert.Equal(t, m, got)
	})

	t.Run("EveryOperationCode", func(t *testing.T) {
		for code := schema.OperationCodeOpen; code <= schema.OperationCodeUnlink; code++ {
			m := validMessage()
			m.APINumber = code

			body, err := Encode(m)
			require.NoError(t, err, "encode %s", code)

			got, err := Decode(body)
			require.NoError(t, err, "decode %s", code)
			assert.Equal(t, code, got.APINumber)
		}
	})

	t.Run("AbsentFieldsDecodeToDefaults", func(t *testing.T) {
		body, err := Encode(&Message{})
		require.NoError(t, err)

		got, err := Decode(body)
		require.NoError(t, err)
		assert.Equal(t, int16(0), got.MinimumProtocolVersion)
		assert.Equal(t, schema.OperationCodeOpen, got.APINumber)
		assert.Empty(t, got.User.Name)
		assert.Empty(t, got.ProxyUser.Name)
		assert.Nil(t, got.Payload)
	})
}

// TestFramedScenario walks the documented example through framing and codec:
// version 430, api open, user "kory", proxy user "rods", payload
// "/tmp/data.obj".
func TestFramedScenario(t *testing.T) {
	m := validMessage()

	body, err := Encode(m)
	require.NoError(t, err)

	buf := new(bytes.Buffer)
	require.NoError(t, wire.WriteEnvelope(buf, body))

	framed := buf.Bytes()
	length := binary.LittleEndian.Uint32(framed[:4])
	require.Equal(t, uint32(len(framed)-4), length)

	received, err := wire.ReadEnvelope(bytes.NewReader(framed), 0)
	require.NoError(t, err)

	got, err := Decode(received)
	require.NoError(t, err)
	assert.Equal(t, int16(430), got.MinimumProtocolVersion)
	assert.Equal(t, schema.OperationCodeOpen, got.APINumber)
	assert.Equal(t, "kory", got.User.Name)
	assert.Equal(t, "rods", got.ProxyUser.Name)
	assert.Equal(t, []byte("/tmp/data.obj"), got.Payload)
}

func TestDecodeRejectsMalformedBodies(t *testing.T) {
	t.Run("TooShort", func(t *testing.T) {
		for _, body := range [][]byte{nil, {}, {0x01}, {0x01, 0x02, 0x03}} {
			_, err := Decode(body)
			var se *SchemaError
			require.ErrorAs(t, err, &se, "body % x", body)
		}
	})

	t.Run("RootOffsetOutsideBuffer", func(t *testing.T) {
		body := []byte{0xff, 0xff, 0xff, 0x7f}
		_, err := Decode(body)
		var se *SchemaError
		require.ErrorAs(t, err, &se)
	})

	t.Run("OutOfRangeApiNumber", func(t *testing.T) {
		// Build a message with api_number one past the last defined value.
		builder := flatbuffers.NewBuilder(64)
		schema.MessageStart(builder)
		schema.MessageAddApiNumber(builder, schema.OperationCodeUnlink+1)
		builder.Finish(schema.MessageEnd(builder))

		_, err := Decode(builder.FinishedBytes())
		var se *SchemaError
		require.ErrorAs(t, err, &se)
	})

	t.Run("TruncatedTable", func(t *testing.T) {
		body, err := Encode(validMessage())
		require.NoError(t, err)

		_, err = Decode(body[:6])
		var se *SchemaError
		require.ErrorAs(t, err, &se)
	})
}

func TestEncodeRejectsOutOfRangeApiNumber(t *testing.T) {
	m := validMessage()
	m.APINumber = schema.OperationCodeUnlink + 1

	_, err := Encode(m)
	var se *SchemaError
	require.ErrorAs(t, err, &se)
}

func TestReplyRoundTrip(t *testing.T) {
	t.Run("WithPayload", func(t *testing.T) {
		r := &Reply{Status: StatusOK, Payload: []byte("object contents")}

		body, err := EncodeReply(r)
		require.NoError(t, err)

		got, err := DecodeReply(body)
		require.NoError(t, err)
		assert.Equal(t, r, got)
	})

	t.Run("ErrorStatusWithoutPayload", func(t *testing.T) {
		body, err := EncodeReply(&Reply{Status: StatusNotSupported})
		require.NoError(t, err)

		got, err := DecodeReply(body)
		require.NoError(t, err)
		assert.Equal(t, StatusNotSupported, got.Status)
		assert.Nil(t, got.Payload)
	})

	t.Run("MalformedReply", func(t *testing.T) {
		_, err := DecodeReply([]byte{0x01, 0x02})
		var se *SchemaError
		require.ErrorAs(t, err, &se)
	})
}
