// Package dataobject implements the request handler behind the wire
// protocol: each operation code is mapped onto an ObjectStore call, with the
// request payload naming the data object to act on.
package dataobject

import (
	"context"
	"errors"
	"fmt"

	"github.com/dopd-io/dopd/internal/logger"
	"github.com/dopd-io/dopd/internal/protocol/codec"
	"github.com/dopd-io/dopd/internal/protocol/schema"
	"github.com/dopd-io/dopd/pkg/store"
)

// MinimumProtocolVersion is the lowest client version this handler accepts.
// Clients announce the minimum version they require; a higher announcement
// than ours is rejected.
const MinimumProtocolVersion = 430

// Handler dispatches decoded requests onto a backing ObjectStore.
type Handler struct {
	store  store.ObjectStore
	logger *logger.Logger
}

// New creates a Handler. store must not be nil; a nil log selects the
// process default.
func New(s store.ObjectStore, log *logger.Logger) *Handler {
	if s == nil {
		panic("dataobject: store cannot be nil")
	}
	if log == nil {
		log = logger.Default()
	}
	return &Handler{store: s, logger: log}
}

// Handle serves one request. Operation outcomes are reported through the
// reply status; the returned error is reserved for internal failures.
func (h *Handler) Handle(ctx context.Context, msg *codec.Message) (*codec.Reply, error) {
	h.logger.Info("%s request [user:%s proxy:%s object:%s version:%d]",
		msg.APINumber, msg.User.Name, msg.ProxyUser.Name, msg.Payload, msg.MinimumProtocolVersion)

	if msg.MinimumProtocolVersion > MinimumProtocolVersion {
		return &codec.Reply{
			Status:  codec.StatusError,
			Payload: fmt.Appendf(nil, "protocol version %d not supported", msg.MinimumProtocolVersion),
		}, nil
	}

	switch msg.APINumber {
	case schema.OperationCodeWrite, schema.OperationCodeSeek:
		// Streaming operations have no place in a one-shot exchange.
		return &codec.Reply{Status: codec.StatusNotSupported}, nil
	case schema.OperationCodeClose:
		// Nothing is held open across requests.
		return &codec.Reply{Status: codec.StatusOK}, nil
	}

	id, err := store.CleanID(string(msg.Payload))
	if err != nil {
		return &codec.Reply{
			Status:  codec.StatusError,
			Payload: []byte(err.Error()),
		}, nil
	}

	switch msg.APINumber {
	case schema.OperationCodeOpen:
		return h.reply(h.store.Create(ctx, id))
	case schema.OperationCodeRead:
		data, err := h.store.Read(ctx, id)
		if err != nil {
			return h.reply(err)
		}
		return &codec.Reply{Status: codec.StatusOK, Payload: data}, nil
	case schema.OperationCodeTruncate:
		return h.reply(h.store.Truncate(ctx, id, 0))
	case schema.OperationCodeUnlink:
		return h.reply(h.store.Remove(ctx, id))
	default:
		return &codec.Reply{Status: codec.StatusNotSupported}, nil
	}
}

// reply maps a store outcome to a wire status.
func (h *Handler) reply(err error) (*codec.Reply, error) {
	switch {
	case err == nil:
		return &codec.Reply{Status: codec.StatusOK}, nil
	case errors.Is(err, store.ErrNotFound):
		return &codec.Reply{Status: codec.StatusNotFound, Payload: []byte(err.Error())}, nil
	default:
		h.logger.Error("store operation failed: %v", err)
		return &codec.Reply{Status: codec.StatusError}, nil
	}
}
