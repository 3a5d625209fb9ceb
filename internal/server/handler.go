package server

import (
	"context"

	"github.com/dopd-io/dopd/internal/protocol/codec"
)

// Handler is the business-logic collaborator. A worker calls Handle exactly
// once, after a successful decode, and writes the returned reply back to the
// client. Returning an error produces a generic error reply; the error never
// escapes the worker.
type Handler interface {
	Handle(ctx context.Context, msg *codec.Message) (*codec.Reply, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, msg *codec.Message) (*codec.Reply, error)

func (f HandlerFunc) Handle(ctx context.Context, msg *codec.Message) (*codec.Reply, error) {
	return f(ctx, msg)
}

// UnimplementedHandler answers every request with a not-supported status.
// It stands in wherever no real business logic has been wired yet.
type UnimplementedHandler struct{}

func (UnimplementedHandler) Handle(context.Context, *codec.Message) (*codec.Reply, error) {
	return &codec.Reply{Status: codec.StatusNotSupported}, nil
}
