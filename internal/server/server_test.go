package server

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dopd-io/dopd/internal/protocol/codec"
	"github.com/dopd-io/dopd/internal/protocol/schema"
	"github.com/dopd-io/dopd/internal/protocol/wire"
)

// startServer binds on an ephemeral port, runs Serve in the background and
// returns the server plus a channel carrying Serve's result.
func startServer(t *testing.T, ctx context.Context, cfg Config, handler Handler) (*Server, <-chan error) {
	t.Helper()

	srv := New(cfg, handler, nil, nil)
	require.NoError(t, srv.Listen())

	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ctx)
	}()

	return srv, done
}

// exchange dials the server, sends one request and returns the decoded reply.
func exchange(t *testing.T, addr net.Addr, msg *codec.Message) *codec.Reply {
	t.Helper()

	conn, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)
	defer conn.Close()

	body, err := codec.Encode(msg)
	require.NoError(t, err)
	require.NoError(t, wire.WriteEnvelope(conn, body))

	replyBody, err := wire.ReadEnvelope(conn, 0)
	require.NoError(t, err)

	reply, err := codec.DecodeReply(replyBody)
	require.NoError(t, err)
	return reply
}

func testMessage(api schema.OperationCode) *codec.Message {
	return &codec.Message{
		MinimumProtocolVersion: 430,
		APINumber:              api,
		User:                   codec.Identity{Name: "kory"},
		ProxyUser:              codec.Identity{Name: "rods"},
		Payload:                []byte("/tmp/data.obj"),
	}
}

func waitServe(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop in time")
		return nil
	}
}

func TestServerExchange(t *testing.T) {
	echo := HandlerFunc(func(_ context.Context, msg *codec.Message) (*codec.Reply, error) {
		return &codec.Reply{Status: codec.StatusOK, Payload: msg.Payload}, nil
	})

	srv, done := startServer(t, context.Background(), Config{}, echo)
	defer srv.Stop()

	reply := exchange(t, srv.Addr(), testMessage(schema.OperationCodeOpen))
	assert.Equal(t, codec.StatusOK, reply.Status)
	assert.Equal(t, []byte("/tmp/data.obj"), reply.Payload)

	srv.Stop()
	assert.NoError(t, waitServe(t, done))
}

func TestServerEachConnectionServedOnce(t *testing.T) {
	srv, done := startServer(t, context.Background(), Config{}, UnimplementedHandler{})
	defer srv.Stop()

	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	body, err := codec.Encode(testMessage(schema.OperationCodeRead))
	require.NoError(t, err)
	require.NoError(t, wire.WriteEnvelope(conn, body))

	replyBody, err := wire.ReadEnvelope(conn, 0)
	require.NoError(t, err)
	reply, err := codec.DecodeReply(replyBody)
	require.NoError(t, err)
	assert.Equal(t, codec.StatusNotSupported, reply.Status)

	// A second request on the same connection is never answered: the worker
	// terminates after its one exchange and closes the connection.
	_ = wire.WriteEnvelope(conn, body)
	_, err = wire.ReadEnvelope(conn, 0)
	require.Error(t, err)

	srv.Stop()
	assert.NoError(t, waitServe(t, done))
}

func TestServerHandlerError(t *testing.T) {
	failing := HandlerFunc(func(context.Context, *codec.Message) (*codec.Reply, error) {
		return nil, errors.New("backend unavailable")
	})

	srv, done := startServer(t, context.Background(), Config{}, failing)
	defer srv.Stop()

	reply := exchange(t, srv.Addr(), testMessage(schema.OperationCodeOpen))
	assert.Equal(t, codec.StatusError, reply.Status)

	srv.Stop()
	assert.NoError(t, waitServe(t, done))
}

func TestServerMalformedRequest(t *testing.T) {
	srv, done := startServer(t, context.Background(), Config{}, UnimplementedHandler{})
	defer srv.Stop()

	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	// A well-framed envelope whose body is not a valid message. The server
	// answers with an error status instead of dropping the connection cold.
	require.NoError(t, wire.WriteEnvelope(conn, []byte{0xde, 0xad, 0xbe, 0xef}))

	replyBody, err := wire.ReadEnvelope(conn, 0)
	require.NoError(t, err)
	reply, err := codec.DecodeReply(replyBody)
	require.NoError(t, err)
	assert.Equal(t, codec.StatusError, reply.Status)

	srv.Stop()
	assert.NoError(t, waitServe(t, done))
}

func TestServerSurvivesAbortedConnections(t *testing.T) {
	srv, done := startServer(t, context.Background(), Config{}, UnimplementedHandler{})
	defer srv.Stop()

	// Connections that vanish before sending anything must not take the
	// accept loop down.
	for range 5 {
		conn, err := net.Dial("tcp", srv.Addr().String())
		require.NoError(t, err)
		conn.Close()
	}

	reply := exchange(t, srv.Addr(), testMessage(schema.OperationCodeClose))
	assert.Equal(t, codec.StatusNotSupported, reply.Status)

	srv.Stop()
	assert.NoError(t, waitServe(t, done))
}

func TestServerReapsAllWorkers(t *testing.T) {
	release := make(chan struct{})
	blocking := HandlerFunc(func(context.Context, *codec.Message) (*codec.Reply, error) {
		<-release
		return &codec.Reply{Status: codec.StatusOK}, nil
	})

	srv, done := startServer(t, context.Background(), Config{}, blocking)
	defer srv.Stop()

	const n = 8
	replies := make(chan *codec.Reply, n)
	for range n {
		go func() {
			replies <- exchange(t, srv.Addr(), testMessage(schema.OperationCodeOpen))
		}()
	}

	require.Eventually(t, func() bool {
		return srv.ActiveWorkers() == n
	}, 2*time.Second, 10*time.Millisecond)

	// All workers finish at once; the coordinator must reap every one of
	// them, not just the first completion it wakes up for.
	close(release)
	for range n {
		select {
		case reply := <-replies:
			assert.Equal(t, codec.StatusOK, reply.Status)
		case <-time.After(5 * time.Second):
			t.Fatal("reply not received")
		}
	}

	require.Eventually(t, func() bool {
		return srv.ActiveWorkers() == 0
	}, 2*time.Second, 10*time.Millisecond)

	srv.Stop()
	assert.NoError(t, waitServe(t, done))
}

func TestServerMaxConnections(t *testing.T) {
	release := make(chan struct{})
	blocking := HandlerFunc(func(context.Context, *codec.Message) (*codec.Reply, error) {
		<-release
		return &codec.Reply{Status: codec.StatusOK}, nil
	})

	srv, done := startServer(t, context.Background(), Config{MaxConnections: 1}, blocking)
	defer srv.Stop()

	first, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	defer first.Close()

	body, err := codec.Encode(testMessage(schema.OperationCodeOpen))
	require.NoError(t, err)
	require.NoError(t, wire.WriteEnvelope(first, body))

	require.Eventually(t, func() bool {
		return srv.ActiveWorkers() == 1
	}, 2*time.Second, 10*time.Millisecond)

	// The connection over the limit is closed without a reply.
	second, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	defer second.Close()

	buf := make([]byte, 1)
	second.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err = second.Read(buf)
	assert.ErrorIs(t, err, io.EOF)

	close(release)
	_, err = wire.ReadEnvelope(first, 0)
	require.NoError(t, err)

	srv.Stop()
	assert.NoError(t, waitServe(t, done))
}

func TestServerContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv, done := startServer(t, ctx, Config{}, UnimplementedHandler{})
	defer srv.Stop()

	cancel()
	assert.NoError(t, waitServe(t, done))
	assert.Equal(t, RoleWorker, srv.Role())
}

func TestServerStopDrainsInFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	blocking := HandlerFunc(func(context.Context, *codec.Message) (*codec.Reply, error) {
		close(started)
		<-release
		return &codec.Reply{Status: codec.StatusOK}, nil
	})

	srv, done := startServer(t, context.Background(), Config{}, blocking)
	defer srv.Stop()

	replyCh := make(chan *codec.Reply, 1)
	go func() {
		replyCh <- exchange(t, srv.Addr(), testMessage(schema.OperationCodeOpen))
	}()

	<-started
	srv.Stop()

	// The listener is gone but the in-flight worker still completes.
	select {
	case <-done:
		t.Fatal("server returned before its worker finished")
	case <-time.After(100 * time.Millisecond):
	}

	close(release)
	assert.NoError(t, waitServe(t, done))

	select {
	case reply := <-replyCh:
		assert.Equal(t, codec.StatusOK, reply.Status)
	case <-time.After(2 * time.Second):
		t.Fatal("reply not received")
	}
	assert.Equal(t, 0, srv.ActiveWorkers())
}

func TestServerShutdownTimeout(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	stuck := HandlerFunc(func(context.Context, *codec.Message) (*codec.Reply, error) {
		close(started)
		<-release
		return &codec.Reply{Status: codec.StatusOK}, nil
	})

	cfg := Config{ShutdownTimeout: 50 * time.Millisecond}
	srv, done := startServer(t, context.Background(), cfg, stuck)
	defer close(release)
	defer srv.Stop()

	go func() {
		conn, err := net.Dial("tcp", srv.Addr().String())
		if err != nil {
			return
		}
		defer conn.Close()
		body, _ := codec.Encode(testMessage(schema.OperationCodeOpen))
		wire.WriteEnvelope(conn, body)
		wire.ReadEnvelope(conn, 0)
	}()

	<-started
	srv.Stop()

	// The stuck worker is left running; Serve returns after the timeout.
	assert.NoError(t, waitServe(t, done))
	assert.Equal(t, 1, srv.ActiveWorkers())
}

func TestServerRole(t *testing.T) {
	srv := New(Config{}, UnimplementedHandler{}, nil, nil)
	assert.Equal(t, RoleWorker, srv.Role())

	require.NoError(t, srv.Listen())
	assert.Equal(t, RoleParent, srv.Role())

	srv.Stop()
	assert.Equal(t, RoleWorker, srv.Role())

	// Stop is idempotent.
	srv.Stop()
	assert.Equal(t, RoleWorker, srv.Role())
}

func TestServerBindError(t *testing.T) {
	srv := New(Config{}, UnimplementedHandler{}, nil, nil)
	require.NoError(t, srv.Listen())
	defer srv.Stop()

	tcpAddr, ok := srv.Addr().(*net.TCPAddr)
	require.True(t, ok)

	other := New(Config{Port: tcpAddr.Port}, UnimplementedHandler{}, nil, nil)
	err := other.Listen()
	require.Error(t, err)

	var bindErr *BindError
	require.ErrorAs(t, err, &bindErr)
	assert.Equal(t, tcpAddr.Port, bindErr.Port)
}

func TestServerNilHandlerPanics(t *testing.T) {
	assert.Panics(t, func() {
		New(Config{}, nil, nil, nil)
	})
}

func TestServerReadTimeout(t *testing.T) {
	cfg := Config{ReadTimeout: 50 * time.Millisecond}
	srv, done := startServer(t, context.Background(), cfg, UnimplementedHandler{})
	defer srv.Stop()

	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	// Send nothing: the worker gives up at the deadline and closes.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 1)
	_, err = conn.Read(buf)
	assert.ErrorIs(t, err, io.EOF)

	srv.Stop()
	assert.NoError(t, waitServe(t, done))
}
