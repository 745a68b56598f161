package port

import "context"

// Message is one delivery from a named queue. ID is transport-scoped
// and is what callers acknowledge with.
type Message struct {
	ID   string
	Body []byte
}

type MessageQueue interface {
	// Declare ensures the named queue exists before first use.
	Declare(ctx context.Context, queue string) error

	// Send publishes one message, best effort.
	Send(ctx context.Context, queue string, body []byte) error

	// Receive blocks until a message arrives or ctx is done. A
	// received message stays pending until acknowledged.
	Receive(ctx context.Context, queue string) (Message, error)

	// Ack marks a delivery as processed so it is not redelivered.
	Ack(ctx context.Context, queue string, id string) error
}
