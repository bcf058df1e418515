package events

import (
	"context"
	"errors"
	"log/slog"
)

// ErrPumpStopped is returned by Deliver once the pump has been stopped.
var ErrPumpStopped = errors.New("event pump stopped")

// Handler processes one snap message. The keyring implements it.
type Handler interface {
	HandleMessage(ctx context.Context, snapID string, msg Message) (any, error)
}

// delivery is a queued message waiting for the pump goroutine.
type delivery struct {
	ctx    context.Context
	snapID string
	msg    Message
	reply  chan result
}

type result struct {
	value any
	err   error
}

// Pump feeds snap messages to a Handler one at a time, in arrival order,
// from a single goroutine. Messages from different snaps never interleave
// inside the handler.
type Pump struct {
	handler Handler
	queue   chan delivery
	logger  *slog.Logger
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewPump returns a Pump with room for buffer queued messages.
func NewPump(handler Handler, buffer int) *Pump {
	if buffer <= 0 {
		buffer = 64
	}
	return &Pump{
		handler: handler,
		queue:   make(chan delivery, buffer),
		done:    make(chan struct{}),
		logger:  slog.Default().With("component", "event_pump"),
	}
}

// Start launches the pump goroutine. It runs until ctx is cancelled or
// Stop is called.
func (p *Pump) Start(ctx context.Context) error {
	ctx, p.cancel = context.WithCancel(ctx)
	p.logger.Info("starting event pump", "buffer", cap(p.queue))
	go p.loop(ctx)
	return nil
}

// Stop shuts the pump down and waits for the goroutine to exit.
func (p *Pump) Stop() error {
	if p.cancel == nil {
		return nil
	}
	p.cancel()
	<-p.done
	p.logger.Info("event pump stopped")
	return nil
}

// Deliver queues msg from snapID and waits for the handler's answer.
func (p *Pump) Deliver(ctx context.Context, snapID string, msg Message) (any, error) {
	d := delivery{ctx: ctx, snapID: snapID, msg: msg, reply: make(chan result, 1)}

	select {
	case p.queue <- d:
	case <-p.done:
		return nil, ErrPumpStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case r := <-d.reply:
		return r.value, r.err
	case <-p.done:
		return nil, ErrPumpStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Pump) loop(ctx context.Context) {
	defer close(p.done)
	for {
		select {
		case <-ctx.Done():
			return
		case d := <-p.queue:
			value, err := p.handler.HandleMessage(d.ctx, d.snapID, d.msg)
			if err != nil {
				p.logger.Warn("snap message failed",
					"snap_id", d.snapID,
					"method", d.msg.Method,
					"error", err,
				)
			}
			d.reply <- result{value: value, err: err}
		}
	}
}
