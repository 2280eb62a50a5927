package ports

import "context"

// Channel is one joined private channel. Handlers run on the channel's
// delivery goroutine; they must not block.
type Channel interface {
	Listen(event string, handler func(payload []byte))
	StopListening(event string)
}

// Realtime opens authenticated private channels. Every joined channel must be
// left again when the identity that joined it goes away — listeners that
// outlive their identity deliver events for a stale user, which is a
// correctness bug rather than a mere leak.
type Realtime interface {
	Private(ctx context.Context, channel string) (Channel, error)
	Leave(channel string) error
}
