package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/viralforge/mesh/services/integrations/M88-tracking-attribution-service/internal/contracts"
)

// MemoryPublisher collects envelopes in process. It backs unit tests and local
// runs without a broker; both publisher ports are satisfied so a single
// instance can stand in for domain and analytics streams.
type MemoryPublisher struct {
	mu        sync.Mutex
	envelopes []contracts.EventEnvelope
	failWith  error
}

func NewMemoryPublisher() *MemoryPublisher { return &MemoryPublisher{} }

func (p *MemoryPublisher) PublishDomain(_ context.Context, envelope contracts.EventEnvelope) error {
	return p.record(envelope)
}

func (p *MemoryPublisher) PublishAnalytics(_ context.Context, envelope contracts.EventEnvelope) error {
	return p.record(envelope)
}

func (p *MemoryPublisher) record(envelope contracts.EventEnvelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failWith != nil {
		return p.failWith
	}
	p.envelopes = append(p.envelopes, envelope)
	return nil
}

func (p *MemoryPublisher) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failWith = err
}

func (p *MemoryPublisher) Envelopes() []contracts.EventEnvelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]contracts.EventEnvelope, len(p.envelopes))
	copy(out, p.envelopes)
	return out
}

// LoggingDLQPublisher is the no-broker DLQ: failures are preserved in the
// structured log stream instead of a dead-letter topic.
type LoggingDLQPublisher struct {
	logger *slog.Logger
}

func NewLoggingDLQPublisher(logger *slog.Logger) *LoggingDLQPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingDLQPublisher{logger: logger}
}

func (p *LoggingDLQPublisher) PublishDLQ(ctx context.Context, record contracts.DLQRecord) error {
	p.logger.ErrorContext(ctx, "event dead-lettered",
		"module", "events.dlq",
		"layer", "adapter",
		"operation", "publish_dlq",
		"outcome", "failure",
		"event_id", record.OriginalEvent.EventID,
		"event_type", record.OriginalEvent.EventType,
		"error_summary", record.ErrorSummary,
	)
	return nil
}

// MemoryDLQPublisher captures DLQ records for test assertions.
type MemoryDLQPublisher struct {
	mu      sync.Mutex
	records []contracts.DLQRecord
}

func NewMemoryDLQPublisher() *MemoryDLQPublisher { return &MemoryDLQPublisher{} }

func (p *MemoryDLQPublisher) PublishDLQ(_ context.Context, record contracts.DLQRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records = append(p.records, record)
	return nil
}

func (p *MemoryDLQPublisher) Records() []contracts.DLQRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]contracts.DLQRecord, len(p.records))
	copy(out, p.records)
	return out
}
