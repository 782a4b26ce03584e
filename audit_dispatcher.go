package goBank

import (
	"context"
	"sync"
	"sync/atomic"
)

// auditDispatcher decouples request paths from a possibly slow AuditSink
// through one worker goroutine and a bounded channel.
type auditDispatcher struct {
	cfg       AuditConfig
	sink      AuditSink
	ch        chan AuditEvent
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

func newAuditDispatcher(cfg AuditConfig, sink AuditSink) *auditDispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &auditDispatcher{
		cfg:  cfg,
		sink: sink,
		ch:   make(chan AuditEvent, cfg.BufferSize),
		done: make(chan struct{}),
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
			d.deliver(ctx, event)
		case <-d.done:
			for {
				select {
				case event := <-d.ch:
					d.deliver(ctx, event)
				default:
					return
				}
			}
		}
	}
}

func (d *auditDispatcher) deliver(ctx context.Context, event AuditEvent) {
	if d.cfg.EmitTimeout <= 0 {
		d.sink.Emit(ctx, event)
		return
	}
	emitCtx, cancel := context.WithTimeout(ctx, d.cfg.EmitTimeout)
	defer cancel()
	d.sink.Emit(emitCtx, event)
}

// Pending reports the number of buffered events not yet delivered.
func (d *auditDispatcher) Pending() int {
	if d == nil {
		return 0
	}
	return len(d.ch)
}

// Emit queues event for the background sink. With DropIfFull a full buffer
// drops the event and counts it; otherwise Emit waits for room or for ctx.
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
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.ch <- event:
	case <-ctx.Done():
	case <-d.done:
	}
}

// Close stops accepting events, drains the buffer into the sink and waits
// for the worker to exit. Safe to call more than once.
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

func (d *auditDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
