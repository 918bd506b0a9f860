package events

import (
	"context"
	"log/slog"

	"github.com/viralforge/mesh/services/integrations/M88-tracking-attribution-service/internal/domain"
	"github.com/viralforge/mesh/services/integrations/M88-tracking-attribution-service/internal/ports"
)

// ClickWorker decouples click persistence from the redirect path. Submissions
// land on a bounded channel; when the buffer is full the click is dropped and
// logged rather than delaying the redirect.
type ClickWorker struct {
	logger *slog.Logger
	clicks ports.ClickEventRepository
	queue  chan domain.ClickEvent
}

func NewClickWorker(logger *slog.Logger, clicks ports.ClickEventRepository, bufferSize int) *ClickWorker {
	if logger == nil {
		logger = slog.Default()
	}
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	return &ClickWorker{
		logger: logger,
		clicks: clicks,
		queue:  make(chan domain.ClickEvent, bufferSize),
	}
}

func (w *ClickWorker) Submit(click domain.ClickEvent) {
	select {
	case w.queue <- click:
	default:
		w.logger.Warn("click dropped, sink buffer full",
			"module", "events.click_worker",
			"layer", "adapter",
			"operation", "submit",
			"outcome", "dropped",
			"click_id", click.ClickID,
			"relationship_id", click.RelationshipID,
		)
	}
}

func (w *ClickWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return ctx.Err()
		case click := <-w.queue:
			w.persist(ctx, click)
		}
	}
}

// drain flushes whatever is already buffered at shutdown with a background
// context, since the run context is canceled by then.
func (w *ClickWorker) drain() {
	for {
		select {
		case click := <-w.queue:
			w.persist(context.Background(), click)
		default:
			return
		}
	}
}

func (w *ClickWorker) persist(ctx context.Context, click domain.ClickEvent) {
	if err := w.clicks.Append(ctx, click); err != nil {
		w.logger.ErrorContext(ctx, "click persistence failed",
			"module", "events.click_worker",
			"layer", "adapter",
			"operation", "append_click",
			"outcome", "failure",
			"click_id", click.ClickID,
			"relationship_id", click.RelationshipID,
			"error", err,
		)
	}
}
