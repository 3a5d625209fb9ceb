package server

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/dopd-io/dopd/internal/logger"
	"github.com/dopd-io/dopd/internal/protocol/codec"
	"github.com/dopd-io/dopd/internal/protocol/wire"
)

// workerExit is the completion event a worker posts to the coordinator when
// it terminates. err is nil for a clean exchange.
type workerExit struct {
	id       uuid.UUID
	err      error
	duration time.Duration
}

// Worker serves exactly one accepted connection: read one framed request,
// dispatch it, write one framed reply, terminate. It holds the connection and
// its collaborators and nothing of the parent's state.
type Worker struct {
	id             uuid.UUID
	conn           net.Conn
	handler        Handler
	logger         *logger.Logger
	maxMessageSize uint32
	readTimeout    time.Duration
}

func newWorker(conn net.Conn, handler Handler, log *logger.Logger, maxMessageSize uint32, readTimeout time.Duration) *Worker {
	return &Worker{
		id:             uuid.New(),
		conn:           conn,
		handler:        handler,
		logger:         log,
		maxMessageSize: maxMessageSize,
		readTimeout:    readTimeout,
	}
}

// Role reports the worker side of the spawn boundary.
func (w *Worker) Role() Role {
	return RoleWorker
}

// run performs the single request/reply exchange. The connection is always
// closed on return, and every failure is reported through the returned error
// rather than escaping the worker.
func (w *Worker) run(ctx context.Context) error {
	defer w.conn.Close()

	if w.readTimeout > 0 {
		if err := w.conn.SetReadDeadline(time.Now().Add(w.readTimeout)); err != nil {
			return fmt.Errorf("set read deadline: %w", err)
		}
	}

	body, err := wire.ReadEnvelope(w.conn, w.maxMessageSize)
	if err != nil {
		return fmt.Errorf("read request from %s: %w", w.conn.RemoteAddr(), err)
	}

	msg, err := codec.Decode(body)
	if err != nil {
		// The request never reaches the handler; tell the client and bail.
		w.logger.Warn("worker %s: undecodable request from %s: %v", w.id, w.conn.RemoteAddr(), err)
		if werr := w.writeReply(&codec.Reply{Status: codec.StatusError}); werr != nil {
			return fmt.Errorf("decode request: %v (reply failed: %w)", err, werr)
		}
		return fmt.Errorf("decode request from %s: %w", w.conn.RemoteAddr(), err)
	}

	w.logger.Debug("worker %s: %s request from %s [user:%s proxy:%s]",
		w.id, msg.APINumber, w.conn.RemoteAddr(), msg.User.Name, msg.ProxyUser.Name)

	reply, err := w.handler.Handle(ctx, msg)
	if err != nil {
		w.logger.Error("worker %s: handler failed: %v", w.id, err)
		reply = &codec.Reply{Status: codec.StatusError}
	}
	if reply == nil {
		reply = &codec.Reply{Status: codec.StatusOK}
	}

	if werr := w.writeReply(reply); werr != nil {
		return fmt.Errorf("write reply to %s: %w", w.conn.RemoteAddr(), werr)
	}
	return err
}

func (w *Worker) writeReply(reply *codec.Reply) error {
	body, err := codec.EncodeReply(reply)
	if err != nil {
		return fmt.Errorf("encode reply: %w", err)
	}
	return wire.WriteEnvelope(w.conn, body)
}
