package ports

import (
	"context"
	"time"

	"github.com/viralforge/mesh/services/integrations/M88-tracking-attribution-service/internal/domain"
)

// ClickVelocityStore counts clicks per ip×relationship inside a rolling
// window. IncrementAndCount records the current click and returns the total
// inside the window, current click included.
type ClickVelocityStore interface {
	IncrementAndCount(ctx context.Context, clientIP, relationshipID string, window time.Duration) (int, error)
}

// ClickSink receives resolved clicks for persistence decoupled from the
// redirect response. Submit must not block; implementations surface
// persistence failures to logging, never to the caller.
type ClickSink interface {
	Submit(click domain.ClickEvent)
}
