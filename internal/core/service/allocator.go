package service

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"warehousesim/internal/core/domain"
)

var (
	ErrCapacityExceeded = errors.New("rack capacity exceeded")
	ErrStorageShortfall = errors.New("storage shortfall")
)

// RackAllocator distributes order quantities across an ordered rack
// sequence. Each entry point takes the whole sequence as one critical
// section, so concurrent callers always observe a consistent view of
// every rack.
type RackAllocator struct {
	mu     sync.Mutex
	racks  []domain.Rack
	logger *zap.Logger
}

func NewRackAllocator(racks []domain.Rack, logger *zap.Logger) *RackAllocator {
	return &RackAllocator{
		racks:  append([]domain.Rack(nil), racks...),
		logger: logger,
	}
}

// Fill walks the racks first to last, topping each up before spilling
// into the next. Quantity that fit stays placed even when the walk
// ends with ErrCapacityExceeded.
func (a *RackAllocator) Fill(quantity int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	remaining := quantity
	for i := range a.racks {
		rack := &a.racks[i]
		space := rack.Space()
		if space == 0 {
			continue
		}
		added := space
		if remaining < space {
			added = remaining
		}
		rack.Capacity += added
		remaining -= added
		a.logger.Info("stored boxes",
			zap.String("rack", rack.Name),
			zap.Int("added", added),
			zap.Int("capacity", rack.Capacity),
		)
		if remaining == 0 {
			return nil
		}
	}
	return fmt.Errorf("%w: %d boxes left undistributed", ErrCapacityExceeded, remaining)
}

// Drain walks the racks first to last, withdrawing from each until the
// quantity is satisfied. A shortfall means the ledger and the racks
// disagree about available stock.
func (a *RackAllocator) Drain(quantity int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	remaining := quantity
	for i := range a.racks {
		rack := &a.racks[i]
		if rack.Capacity == 0 {
			continue
		}
		removed := rack.Capacity
		if remaining < removed {
			removed = remaining
		}
		rack.Capacity -= removed
		remaining -= removed
		a.logger.Info("offloaded boxes",
			zap.String("rack", rack.Name),
			zap.Int("removed", removed),
			zap.Int("capacity", rack.Capacity),
		)
		if remaining == 0 {
			return nil
		}
	}
	return fmt.Errorf("%w: %d boxes missing from racks", ErrStorageShortfall, remaining)
}

// Apply routes one completed order to the matching walk.
func (a *RackAllocator) Apply(order domain.Order) error {
	switch order.Kind {
	case domain.OrderKindSupply:
		return a.Fill(order.Quantity)
	case domain.OrderKindOffload:
		return a.Drain(order.Quantity)
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownOrderKind, order.Kind)
	}
}

// Consume applies orders forwarded by the ledger until the channel
// closes.
func (a *RackAllocator) Consume(updates <-chan domain.Order) {
	for order := range updates {
		if err := a.Apply(order); err != nil {
			a.logger.Error("storage update failed",
				zap.Int("order", order.Index),
				zap.String("code", order.Code),
				zap.Error(err),
			)
		}
	}
}

// Snapshot returns an internally consistent copy of all racks.
func (a *RackAllocator) Snapshot() []domain.Rack {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]domain.Rack(nil), a.racks...)
}
