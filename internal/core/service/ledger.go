package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"warehousesim/internal/core/domain"
	"warehousesim/internal/port"
)

var (
	ErrItemNotFound      = errors.New("item not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// InventoryLedger owns the per-item stock counters. Validation and
// mutation for one order happen inside a single mutex hold, so two
// concurrent offloads can never both pass a check against stock that
// only covers one of them.
type InventoryLedger struct {
	mu        sync.Mutex
	items     []domain.Item
	updates   chan domain.Order
	queue     port.MessageQueue
	queueName string
	logger    *zap.Logger
}

func NewInventoryLedger(items []domain.Item, queue port.MessageQueue, queueName string, bufferSize int, logger *zap.Logger) *InventoryLedger {
	return &InventoryLedger{
		items:     append([]domain.Item(nil), items...),
		updates:   make(chan domain.Order, bufferSize),
		queue:     queue,
		queueName: queueName,
		logger:    logger,
	}
}

// ApplyUpdate validates and applies one completed order. On success
// the order is forwarded to the storage channel while the ledger is
// still serialized, so counter updates and forwards cannot interleave
// between items.
func (l *InventoryLedger) ApplyUpdate(order domain.Order) (domain.Item, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	item := l.find(order.Code)
	if item == nil {
		return domain.Item{}, fmt.Errorf("%w: %q", ErrItemNotFound, order.Code)
	}

	switch order.Kind {
	case domain.OrderKindSupply:
		item.Entry += order.Quantity
		item.Quantity += order.Quantity
	case domain.OrderKindOffload:
		if item.Quantity < order.Quantity {
			return domain.Item{}, fmt.Errorf("%w: requested %d, available %d",
				ErrInsufficientStock, order.Quantity, item.Quantity)
		}
		item.Exit += order.Quantity
		item.Quantity -= order.Quantity
	default:
		return domain.Item{}, fmt.Errorf("%w: %q", domain.ErrUnknownOrderKind, order.Kind)
	}

	l.updates <- order
	return *item, nil
}

// CheckStock reports whether the order could currently be satisfied.
// Advisory only: ApplyUpdate revalidates under the same lock it
// mutates with, so this must never be used as the guard for a debit.
func (l *InventoryLedger) CheckStock(order domain.Order) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	item := l.find(order.Code)
	if item == nil {
		return false
	}
	if order.Kind == domain.OrderKindOffload && item.Quantity < order.Quantity {
		return false
	}
	return true
}

func (l *InventoryLedger) find(code string) *domain.Item {
	for i := range l.items {
		if l.items[i].Code == code {
			return &l.items[i]
		}
	}
	return nil
}

// Snapshot returns an internally consistent copy of all items.
func (l *InventoryLedger) Snapshot() []domain.Item {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.Item(nil), l.items...)
}

// Updates exposes the stream of applied orders for the rack allocator.
func (l *InventoryLedger) Updates() <-chan domain.Order {
	return l.updates
}

// Close stops forwarding. Call only after every producer of updates
// has stopped.
func (l *InventoryLedger) Close() {
	close(l.updates)
}

// Run consumes completion events until ctx is cancelled. Malformed or
// rejected events are dropped with a log entry; no message is fatal to
// the loop.
func (l *InventoryLedger) Run(ctx context.Context) {
	for {
		msg, err := l.queue.Receive(ctx, l.queueName)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			l.logger.Error("receive completion failed", zap.Error(err))
			continue
		}

		order, err := domain.DecodeOrder(msg.Body)
		if err != nil {
			l.logger.Error("dropping malformed completion",
				zap.Error(err), zap.ByteString("body", msg.Body))
		} else if item, err := l.ApplyUpdate(order); err != nil {
			l.logger.Error("inventory update rejected",
				zap.Int("order", order.Index), zap.Error(err))
		} else {
			l.logger.Info("inventory updated",
				zap.String("item", item.Name),
				zap.Int("quantity", item.Quantity),
				zap.Int("entry", item.Entry),
				zap.Int("exit", item.Exit),
			)
		}

		if err := l.queue.Ack(ctx, l.queueName, msg.ID); err != nil && ctx.Err() == nil {
			l.logger.Error("ack failed", zap.String("id", msg.ID), zap.Error(err))
		}
	}
}
