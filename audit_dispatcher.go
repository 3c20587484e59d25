package goToken

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// auditEventTypes indexes the per-type drop counters.
var auditEventTypes = [...]string{AuditTokenIssued, AuditTokenAccepted, AuditTokenRejected}

func auditTypeIndex(eventType string) int {
	for i, t := range auditEventTypes {
		if t == eventType {
			return i
		}
	}
	return -1
}

// auditDispatcher delivers events to the sink on one goroutine. Drops are
// counted per event type; the first drop of each type is logged at warn.
type auditDispatcher struct {
	cfg       AuditConfig
	sink      AuditSink
	logger    zerolog.Logger
	ch        chan AuditEvent
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	byType    [len(auditEventTypes)]atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

func newAuditDispatcher(cfg AuditConfig, logger zerolog.Logger) *auditDispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	sink := cfg.Sink
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &auditDispatcher{
		cfg:    cfg,
		sink:   sink,
		logger: logger,
		ch:     make(chan AuditEvent, cfg.BufferSize),
		done:   make(chan struct{}),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *auditDispatcher) run() {
	defer d.wg.Done()

	ctx := context.Background()
	for {
		select {
		case event := <-d.ch:
			d.sink.Emit(ctx, event)
		case <-d.done:
			d.drain(ctx)
			return
		}
	}
}

func (d *auditDispatcher) drain(ctx context.Context) {
	for {
		select {
		case event := <-d.ch:
			d.sink.Emit(ctx, event)
		default:
			return
		}
	}
}

// Emit queues event for the sink goroutine. With DropIfFull a full buffer
// drops the event and counts it; otherwise Emit waits for room or ctx.
func (d *auditDispatcher) Emit(ctx context.Context, event AuditEvent) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.cfg.DropIfFull {
		select {
		case d.ch <- event:
		case <-d.done:
		default:
			d.drop(event)
		}
		return
	}

	select {
	case d.ch <- event:
	case <-ctx.Done():
	case <-d.done:
	}
}

// Close stops intake and flushes queued events to the sink.
func (d *auditDispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}

func (d *auditDispatcher) drop(event AuditEvent) {
	d.dropped.Add(1)
	i := auditTypeIndex(event.EventType)
	if i < 0 {
		return
	}
	if d.byType[i].Add(1) == 1 {
		d.logger.Warn().
			Str("event_type", event.EventType).
			Int("buffer_size", d.cfg.BufferSize).
			Msg("audit buffer full, dropping events")
	}
}

func (d *auditDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

// DroppedByType returns drop counts keyed by event type. Types with no drops
// are omitted.
func (d *auditDispatcher) DroppedByType() map[string]uint64 {
	out := make(map[string]uint64)
	if d == nil {
		return out
	}
	for i, t := range auditEventTypes {
		if n := d.byType[i].Load(); n > 0 {
			out[t] = n
		}
	}
	return out
}
