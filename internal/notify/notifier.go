// Package notify pushes spot-availability changes onto the real-time
// channel. Publishing is fire-and-forget: no acknowledgment is awaited and
// failures never propagate into the booking flow.
package notify

import (
	"context"

	"parkease/internal/domain"
)

type Notifier interface {
	PublishSpotStatus(ctx context.Context, event domain.SpotStatusEvent) error
}

// Noop is substituted when no Redis address is configured.
type Noop struct{}

func (Noop) PublishSpotStatus(ctx context.Context, event domain.SpotStatusEvent) error {
	return nil
}
