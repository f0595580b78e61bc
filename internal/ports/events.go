package ports

import (
	"context"

	"github.com/CalistoMango/TheShipyard-sub000/internal/contracts"
)

// NotificationPublisher is the fire-and-forget sink for community-facing
// events. Implementations must not block; errors are logged, never propagated.
type NotificationPublisher interface {
	Publish(ctx context.Context, event contracts.NotificationEvent) error
}
