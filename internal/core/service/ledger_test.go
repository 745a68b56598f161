package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"warehousesim/internal/core/domain"
	"warehousesim/internal/port"
)

func newTestLedger(items []domain.Item, q port.MessageQueue) *InventoryLedger {
	return NewInventoryLedger(items, q, "transport_queue", 100, zap.NewNop())
}

func drainUpdates(l *InventoryLedger) {
	go func() {
		for range l.Updates() {
		}
	}()
}

func TestApplyUpdate_SupplyThenRejectedOffload(t *testing.T) {
	ledger := newTestLedger([]domain.Item{
		{Code: "001", Name: "Table", Quantity: 500},
	}, newMockQueue())
	defer ledger.Close()
	drainUpdates(ledger)

	item, err := ledger.ApplyUpdate(domain.Order{
		Index: 1, Code: "001", Quantity: 200, Kind: domain.OrderKindSupply,
	})
	if err != nil {
		t.Fatalf("supply failed: %v", err)
	}
	if item.Quantity != 700 || item.Entry != 200 {
		t.Errorf("expected quantity 700 entry 200, got %d/%d", item.Quantity, item.Entry)
	}

	offload := domain.Order{Index: 2, Code: "001", Quantity: 900, Kind: domain.OrderKindOffload}
	if ledger.CheckStock(offload) {
		t.Error("expected CheckStock to reject offload of 900 against 700")
	}
	if _, err := ledger.ApplyUpdate(offload); !errors.Is(err, ErrInsufficientStock) {
		t.Errorf("expected ErrInsufficientStock, got: %v", err)
	}

	snapshot := ledger.Snapshot()
	if snapshot[0].Quantity != 700 || snapshot[0].Exit != 0 {
		t.Errorf("ledger changed by rejected offload: %+v", snapshot[0])
	}
}

func TestApplyUpdate_Offload(t *testing.T) {
	ledger := newTestLedger([]domain.Item{
		{Code: "002", Name: "Chair", Quantity: 500},
	}, newMockQueue())
	defer ledger.Close()
	drainUpdates(ledger)

	item, err := ledger.ApplyUpdate(domain.Order{
		Index: 1, Code: "002", Quantity: 150, Kind: domain.OrderKindOffload,
	})
	if err != nil {
		t.Fatalf("offload failed: %v", err)
	}
	if item.Quantity != 350 || item.Exit != 150 {
		t.Errorf("expected quantity 350 exit 150, got %d/%d", item.Quantity, item.Exit)
	}
}

func TestApplyUpdate_ItemNotFound(t *testing.T) {
	ledger := newTestLedger(domain.DefaultItems(), newMockQueue())
	defer ledger.Close()

	_, err := ledger.ApplyUpdate(domain.Order{
		Index: 1, Code: "999", Quantity: 10, Kind: domain.OrderKindSupply,
	})
	if !errors.Is(err, ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got: %v", err)
	}
}

func TestApplyUpdate_UnknownKind(t *testing.T) {
	ledger := newTestLedger(domain.DefaultItems(), newMockQueue())
	defer ledger.Close()

	_, err := ledger.ApplyUpdate(domain.Order{
		Index: 1, Code: "001", Quantity: 10, Kind: "recount",
	})
	if !errors.Is(err, domain.ErrUnknownOrderKind) {
		t.Errorf("expected ErrUnknownOrderKind, got: %v", err)
	}

	snapshot := ledger.Snapshot()
	if snapshot[0].Quantity != 500 {
		t.Errorf("ledger changed by unknown kind: %+v", snapshot[0])
	}
}

func TestApplyUpdate_ForwardsDownstream(t *testing.T) {
	ledger := newTestLedger(domain.DefaultItems(), newMockQueue())
	defer ledger.Close()

	order := domain.Order{Index: 1, Code: "001", Quantity: 50, Kind: domain.OrderKindSupply}
	if _, err := ledger.ApplyUpdate(order); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	select {
	case forwarded := <-ledger.Updates():
		if forwarded != order {
			t.Errorf("forwarded %+v, expected %+v", forwarded, order)
		}
	case <-time.After(time.Second):
		t.Fatal("applied order was not forwarded")
	}
}

func TestApplyUpdate_ConcurrentOffloadsNeverNegative(t *testing.T) {
	initialStock := 20
	totalRequests := 50

	ledger := newTestLedger([]domain.Item{
		{Code: "001", Name: "Table", Quantity: initialStock},
	}, newMockQueue())
	defer ledger.Close()
	drainUpdates(ledger)

	var successCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			_, err := ledger.ApplyUpdate(domain.Order{
				Index: index, Code: "001", Quantity: 1, Kind: domain.OrderKindOffload,
			})
			if err == nil {
				successCount.Add(1)
			}
		}(i + 1)
	}

	wg.Wait()

	if successCount.Load() != int32(initialStock) {
		t.Errorf("expected %d successes, got %d", initialStock, successCount.Load())
	}

	snapshot := ledger.Snapshot()
	if snapshot[0].Quantity != 0 {
		t.Errorf("expected quantity 0, got %d", snapshot[0].Quantity)
	}
	if snapshot[0].Exit != initialStock {
		t.Errorf("expected exit %d, got %d", initialStock, snapshot[0].Exit)
	}
}

func TestCheckStock(t *testing.T) {
	ledger := newTestLedger(domain.DefaultItems(), newMockQueue())
	defer ledger.Close()

	if !ledger.CheckStock(domain.Order{Code: "001", Quantity: 9999, Kind: domain.OrderKindSupply}) {
		t.Error("supply must always pass the stock check")
	}
	if !ledger.CheckStock(domain.Order{Code: "001", Quantity: 500, Kind: domain.OrderKindOffload}) {
		t.Error("offload within stock must pass")
	}
	if ledger.CheckStock(domain.Order{Code: "001", Quantity: 501, Kind: domain.OrderKindOffload}) {
		t.Error("offload above stock must fail")
	}
	if ledger.CheckStock(domain.Order{Code: "999", Quantity: 1, Kind: domain.OrderKindSupply}) {
		t.Error("unknown item must fail")
	}
}

func TestLedgerSnapshot_IsCopy(t *testing.T) {
	ledger := newTestLedger(domain.DefaultItems(), newMockQueue())
	defer ledger.Close()

	snapshot := ledger.Snapshot()
	snapshot[0].Quantity = -1

	if ledger.Snapshot()[0].Quantity != 500 {
		t.Error("mutating a snapshot must not affect the ledger")
	}
}

func TestRun_AppliesCompletion(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mq := newMockQueue()
	ledger := newTestLedger(domain.DefaultItems(), mq)
	defer ledger.Close()
	drainUpdates(ledger)

	done := make(chan struct{})
	go func() {
		defer close(done)
		ledger.Run(ctx)
	}()

	body, _ := (domain.Order{Index: 1, Code: "003", Quantity: 75, Kind: domain.OrderKindSupply}).Encode()
	mq.inbox <- port.Message{ID: "1-0", Body: body}

	waitFor(t, 2*time.Second, func() bool {
		for _, item := range ledger.Snapshot() {
			if item.Code == "003" && item.Quantity == 575 && item.Entry == 75 {
				return true
			}
		}
		return false
	})

	if mq.ackCount() != 1 {
		t.Errorf("expected 1 ack, got %d", mq.ackCount())
	}

	cancel()
	<-done
}

func TestRun_RejectedCompletionStillAcked(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mq := newMockQueue()
	ledger := newTestLedger(domain.DefaultItems(), mq)
	defer ledger.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		ledger.Run(ctx)
	}()

	body, _ := (domain.Order{Index: 1, Code: "001", Quantity: 900, Kind: domain.OrderKindOffload}).Encode()
	mq.inbox <- port.Message{ID: "1-0", Body: body}

	waitFor(t, 2*time.Second, func() bool { return mq.ackCount() == 1 })

	if ledger.Snapshot()[0].Quantity != 500 {
		t.Error("rejected offload must not change the ledger")
	}

	cancel()
	<-done
}
