// Package audit records every match run (inputs, outputs, analysis) for
// later inspection. Events flow through an async Kafka publisher and a
// Postgres log table; neither sink failing ever fails the request itself.
package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/studentbridge/jobmatch/internal/matching"
	"github.com/studentbridge/jobmatch/pkg/kafka"
	"github.com/studentbridge/jobmatch/pkg/metrics"
)

// Event is one completed match run.
type Event struct {
	Timestamp      time.Time                         `json:"timestamp"`
	RequestID      string                            `json:"request_id,omitempty"`
	InternName     string                            `json:"intern_name"`
	StudentProfile []matching.Profile                `json:"student_profile"`
	Matches        map[string][]matching.MatchResult `json:"bm25_matches"`
	Analysis       string                            `json:"llm_analysis,omitempty"`
	ResultsRef     string                            `json:"results_ref,omitempty"`
}

// Recorder fans one event out to the configured sinks. Either sink may be
// nil.
type Recorder struct {
	store     *LogStore
	publisher *Publisher
	logger    *slog.Logger
}

// NewRecorder creates a Recorder over the given sinks.
func NewRecorder(store *LogStore, publisher *Publisher) *Recorder {
	return &Recorder{
		store:     store,
		publisher: publisher,
		logger:    slog.Default().With("component", "audit"),
	}
}

// Record persists the event to every configured sink. Failures are logged
// and swallowed.
func (r *Recorder) Record(ctx context.Context, event Event) {
	if r.store != nil {
		if err := r.store.Insert(ctx, event); err != nil {
			r.logger.Error("audit log insert failed", "error", err)
		}
	}
	if r.publisher != nil {
		r.publisher.Track(event)
	}
}

// Publisher buffers audit events and publishes them to Kafka from a
// background goroutine. Events are dropped (with a warning) when the buffer
// is full, and the buffer is drained on shutdown.
type Publisher struct {
	producer *kafka.Producer
	eventCh  chan Event
	done     chan struct{}
	stats    *metrics.Metrics
	logger   *slog.Logger

	// mu serializes Track against Close so a late event is dropped
	// instead of panicking on a closed channel.
	mu     sync.Mutex
	closed bool
}

// NewPublisher creates a Publisher with the given buffer size. producer may
// be nil, in which case events are consumed and discarded.
func NewPublisher(producer *kafka.Producer, bufferSize int, stats *metrics.Metrics) *Publisher {
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	return &Publisher{
		producer: producer,
		eventCh:  make(chan Event, bufferSize),
		done:     make(chan struct{}),
		stats:    stats,
		logger:   slog.Default().With("component", "audit-publisher"),
	}
}

// Start launches the publishing loop. It runs until the context is
// cancelled or Close is called, draining buffered events before exiting.
func (p *Publisher) Start(ctx context.Context) {
	go func() {
		defer close(p.done)
		for {
			select {
			case event, ok := <-p.eventCh:
				if !ok {
					return
				}
				p.publish(ctx, event)
			case <-ctx.Done():
				p.drainRemaining()
				return
			}
		}
	}()
	p.logger.Info("audit publisher started", "buffer_size", cap(p.eventCh))
}

// Track enqueues an event for publishing. Events are dropped when the
// buffer is full or the publisher has been closed; tracking never blocks
// and never fails the caller.
func (p *Publisher) Track(event Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		p.logger.Warn("audit event dropped (publisher closed)", "intern", event.InternName)
		p.observe("dropped")
		return
	}
	select {
	case p.eventCh <- event:
	default:
		p.logger.Warn("audit event dropped (buffer full)", "intern", event.InternName)
		p.observe("dropped")
	}
}

// Close stops accepting events and waits for the loop to drain. Idempotent;
// Track calls after Close drop their events.
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		<-p.done
		return
	}
	p.closed = true
	close(p.eventCh)
	p.mu.Unlock()
	<-p.done
}

func (p *Publisher) publish(ctx context.Context, event Event) {
	if p.producer == nil {
		return
	}
	if err := p.producer.Publish(ctx, kafka.Event{
		Key:   event.InternName,
		Value: event,
	}); err != nil {
		p.logger.Error("failed to publish audit event", "error", err)
		p.observe("failed")
		return
	}
	p.observe("published")
}

func (p *Publisher) drainRemaining() {
	for {
		select {
		case event, ok := <-p.eventCh:
			if !ok {
				return
			}
			p.publish(context.Background(), event)
		default:
			return
		}
	}
}

func (p *Publisher) observe(status string) {
	if p.stats != nil {
		p.stats.AuditEventsTotal.WithLabelValues("kafka", status).Inc()
	}
}
