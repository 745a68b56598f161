package service

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"warehousesim/internal/core/domain"
	"warehousesim/internal/port"
)

var ErrNoIdleUnit = errors.New("no idle handling unit")

// HandlingUnit is one concurrently assignable transport resource. It
// carries exactly one order at a time; the busy flag only changes
// under the unit's own lock.
type HandlingUnit struct {
	name string
	mu   sync.Mutex
	busy bool
}

func NewHandlingUnit(name string) *HandlingUnit {
	return &HandlingUnit{name: name}
}

func (u *HandlingUnit) Name() string { return u.name }

// TryClaim atomically flips an idle unit to busy.
func (u *HandlingUnit) TryClaim() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.busy {
		return false
	}
	u.busy = true
	return true
}

func (u *HandlingUnit) Release() {
	u.mu.Lock()
	u.busy = false
	u.mu.Unlock()
}

type DispatchConfig struct {
	UnitNames      []string
	OrderQueue     string
	TransportQueue string
	MinDelay       time.Duration
	MaxDelay       time.Duration
}

// DispatchPool assigns inbound orders to handling units and runs each
// transport as its own goroutine, so the intake loop never waits on a
// moving unit and completions may arrive out of submission order.
type DispatchPool struct {
	units []*HandlingUnit

	mu   sync.Mutex // guards next
	next int

	queue          port.MessageQueue
	orderQueue     string
	transportQueue string
	minDelay       time.Duration
	maxDelay       time.Duration
	logger         *zap.Logger
	tasks          sync.WaitGroup
}

func NewDispatchPool(cfg DispatchConfig, queue port.MessageQueue, logger *zap.Logger) *DispatchPool {
	units := make([]*HandlingUnit, 0, len(cfg.UnitNames))
	for _, name := range cfg.UnitNames {
		units = append(units, NewHandlingUnit(name))
	}
	return &DispatchPool{
		units:          units,
		queue:          queue,
		orderQueue:     cfg.OrderQueue,
		transportQueue: cfg.TransportQueue,
		minDelay:       cfg.MinDelay,
		maxDelay:       cfg.MaxDelay,
		logger:         logger,
	}
}

// Submit claims an idle unit for the order and starts its transport
// task. At most len(units) units are probed, circularly from the
// cursor; on a claim the cursor moves just past the claimed unit so
// consecutive submissions spread across the pool. Returns
// ErrNoIdleUnit when every probe finds a busy unit.
func (p *DispatchPool) Submit(ctx context.Context, order domain.Order) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := 0; i < len(p.units); i++ {
		idx := (p.next + i) % len(p.units)
		unit := p.units[idx]
		if !unit.TryClaim() {
			continue
		}
		p.next = (idx + 1) % len(p.units)
		p.logger.Info("transporting order",
			zap.Int("order", order.Index),
			zap.String("kind", string(order.Kind)),
			zap.String("unit", unit.Name()),
			zap.Int("quantity", order.Quantity),
			zap.String("code", order.Code),
		)
		p.tasks.Add(1)
		go p.transport(ctx, unit, order)
		return nil
	}
	return ErrNoIdleUnit
}

// transport simulates the physical move, emits the completion event
// and frees the unit. The unit is released even when the publish
// fails or the context is cancelled: the simulated work is done either
// way, and a stuck-busy unit would starve the pool.
func (p *DispatchPool) transport(ctx context.Context, unit *HandlingUnit, order domain.Order) {
	defer p.tasks.Done()
	defer unit.Release()

	delay := p.minDelay
	if jitter := p.maxDelay - p.minDelay; jitter > 0 {
		delay += time.Duration(rand.Int63n(int64(jitter)))
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		p.logger.Warn("transport cancelled",
			zap.Int("order", order.Index),
			zap.String("unit", unit.Name()),
		)
		return
	case <-timer.C:
	}

	body, err := order.Encode()
	if err != nil {
		p.logger.Error("encode completion failed",
			zap.Int("order", order.Index), zap.Error(err))
		return
	}
	if err := p.queue.Send(ctx, p.transportQueue, body); err != nil {
		p.logger.Error("publish completion failed",
			zap.Int("order", order.Index), zap.Error(err))
		return
	}
	p.logger.Info("transport completed",
		zap.Int("order", order.Index),
		zap.String("kind", string(order.Kind)),
		zap.Int("quantity", order.Quantity),
		zap.String("code", order.Code),
		zap.String("unit", unit.Name()),
	)
}

// Run consumes inbound orders until ctx is cancelled. Orders that
// cannot be decoded or routed are dropped with a log entry and acked
// so they do not redeliver forever.
func (p *DispatchPool) Run(ctx context.Context) {
	for {
		msg, err := p.queue.Receive(ctx, p.orderQueue)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Error("receive order failed", zap.Error(err))
			continue
		}

		order, err := domain.DecodeOrder(msg.Body)
		if err != nil {
			p.logger.Error("dropping malformed order",
				zap.Error(err), zap.ByteString("body", msg.Body))
		} else if err := p.Submit(ctx, order); err != nil {
			p.logger.Warn("order not dispatched",
				zap.Int("order", order.Index), zap.Error(err))
		}

		if err := p.queue.Ack(ctx, p.orderQueue, msg.ID); err != nil && ctx.Err() == nil {
			p.logger.Error("ack failed", zap.String("id", msg.ID), zap.Error(err))
		}
	}
}

// Wait blocks until every in-flight transport task has finished.
func (p *DispatchPool) Wait() { p.tasks.Wait() }
