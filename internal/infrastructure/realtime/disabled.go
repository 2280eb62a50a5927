package realtime

import (
	"context"

	"github.com/clubly/loyalty-agent/internal/core/ports"
)

// Disabled returns a Realtime that joins nothing and delivers nothing, for
// deployments without a broker. The aggregator still converges via polling.
func Disabled() ports.Realtime {
	return disabled{}
}

type disabled struct{}

func (disabled) Private(context.Context, string) (ports.Channel, error) {
	return noopChannel{}, nil
}

func (disabled) Leave(string) error { return nil }

type noopChannel struct{}

func (noopChannel) Listen(string, func([]byte)) {}
func (noopChannel) StopListening(string)        {}
