package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Reporter periodically dumps ledger and rack state. It also
// reconciles the two aggregate totals; they drift while completions
// are in flight, so a mismatch is logged as a warning rather than an
// error.
type Reporter struct {
	ledger    *InventoryLedger
	allocator *RackAllocator
	interval  time.Duration
	logger    *zap.Logger
}

func NewReporter(ledger *InventoryLedger, allocator *RackAllocator, interval time.Duration, logger *zap.Logger) *Reporter {
	return &Reporter{
		ledger:    ledger,
		allocator: allocator,
		interval:  interval,
		logger:    logger,
	}
}

// Run emits one report immediately and then one per interval until ctx
// is cancelled.
func (r *Reporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.report()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.report()
		}
	}
}

func (r *Reporter) report() {
	items := r.ledger.Snapshot()
	racks := r.allocator.Snapshot()

	itemTotal := 0
	for _, item := range items {
		r.logger.Info("inventory report",
			zap.String("code", item.Code),
			zap.String("name", item.Name),
			zap.Int("quantity", item.Quantity),
			zap.Int("entry", item.Entry),
			zap.Int("exit", item.Exit),
		)
		itemTotal += item.Quantity
	}

	rackTotal := 0
	for _, rack := range racks {
		r.logger.Info("rack status",
			zap.String("rack", rack.Name),
			zap.Int("capacity", rack.Capacity),
			zap.Int("max_capacity", rack.MaxCapacity),
		)
		rackTotal += rack.Capacity
	}

	if itemTotal != rackTotal {
		r.logger.Warn("ledger and racks disagree, updates may be in flight",
			zap.Int("item_total", itemTotal),
			zap.Int("rack_total", rackTotal),
		)
	}
}
