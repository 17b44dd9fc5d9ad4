package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

// recordingLedger records every ledger call in order.
type recordingLedger struct {
	calls        []stockOp
	decrementErr error
}

func (l *recordingLedger) Decrement(ctx context.Context, storeID, productID uuid.UUID, qty int32) (int32, error) {
	if l.decrementErr != nil {
		return 0, l.decrementErr
	}
	l.calls = append(l.calls, stockOp{productID: productID, delta: qty})
	return 0, nil
}

func (l *recordingLedger) Increment(ctx context.Context, storeID, productID uuid.UUID, qty int32) (int32, error) {
	l.calls = append(l.calls, stockOp{productID: productID, delta: -qty})
	return 0, nil
}

func tracked(productID uuid.UUID, qty int32) ItemQuantity {
	return ItemQuantity{ProductID: productID, Quantity: qty, Tracked: true}
}

func TestReconcile_InitialDeduction(t *testing.T) {
	ledger := &recordingLedger{}
	productID := uuid.New()

	err := NewReconciler(ledger).Reconcile(context.Background(), uuid.New(), nil, []ItemQuantity{tracked(productID, 3)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ledger.calls) != 1 || ledger.calls[0].productID != productID || ledger.calls[0].delta != 3 {
		t.Errorf("expected single decrement of 3, got: %+v", ledger.calls)
	}
}

func TestReconcile_UnchangedQuantityTouchesNothing(t *testing.T) {
	ledger := &recordingLedger{}
	productID := uuid.New()
	items := []ItemQuantity{tracked(productID, 2)}

	err := NewReconciler(ledger).Reconcile(context.Background(), uuid.New(), items, items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ledger.calls) != 0 {
		t.Errorf("identical sets must produce no ledger calls, got: %+v", ledger.calls)
	}
}

func TestReconcile_AppliesOnlyTheDelta(t *testing.T) {
	ledger := &recordingLedger{}
	productA, productB := uuid.New(), uuid.New()

	before := []ItemQuantity{tracked(productA, 2)}
	after := []ItemQuantity{tracked(productA, 2), tracked(productB, 1)}

	err := NewReconciler(ledger).Reconcile(context.Background(), uuid.New(), before, after)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ledger.calls) != 1 || ledger.calls[0].productID != productB || ledger.calls[0].delta != 1 {
		t.Errorf("expected only product B deducted by 1, got: %+v", ledger.calls)
	}
}

func TestReconcile_RestoresBeforeDeducting(t *testing.T) {
	ledger := &recordingLedger{}
	productA, productB := uuid.New(), uuid.New()

	// Trade 2 of A for 2 of B.
	before := []ItemQuantity{tracked(productA, 2)}
	after := []ItemQuantity{tracked(productB, 2)}

	err := NewReconciler(ledger).Reconcile(context.Background(), uuid.New(), before, after)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ledger.calls) != 2 {
		t.Fatalf("expected 2 calls, got: %+v", ledger.calls)
	}
	if ledger.calls[0].delta != -2 || ledger.calls[0].productID != productA {
		t.Errorf("first call should restore 2 of A, got: %+v", ledger.calls[0])
	}
	if ledger.calls[1].delta != 2 || ledger.calls[1].productID != productB {
		t.Errorf("second call should deduct 2 of B, got: %+v", ledger.calls[1])
	}
}

func TestReconcile_MergesDuplicateLines(t *testing.T) {
	ledger := &recordingLedger{}
	productID := uuid.New()

	// Two lines of the same product count as one deduction of their sum.
	after := []ItemQuantity{tracked(productID, 2), tracked(productID, 3)}

	err := NewReconciler(ledger).Reconcile(context.Background(), uuid.New(), nil, after)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ledger.calls) != 1 || ledger.calls[0].delta != 5 {
		t.Errorf("expected single decrement of 5, got: %+v", ledger.calls)
	}
}

func TestReconcile_SkipsUntracked(t *testing.T) {
	ledger := &recordingLedger{}
	after := []ItemQuantity{
		{ProductID: uuid.New(), Quantity: 4, Tracked: false},
	}

	err := NewReconciler(ledger).Reconcile(context.Background(), uuid.New(), nil, after)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ledger.calls) != 0 {
		t.Errorf("untracked lines must not reach the ledger, got: %+v", ledger.calls)
	}
}

func TestRestoreAll(t *testing.T) {
	ledger := &recordingLedger{}
	productA, productB := uuid.New(), uuid.New()

	items := []ItemQuantity{tracked(productA, 2), tracked(productB, 1)}
	err := NewReconciler(ledger).RestoreAll(context.Background(), uuid.New(), items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	restored := map[uuid.UUID]int32{}
	for _, call := range ledger.calls {
		if call.delta >= 0 {
			t.Fatalf("RestoreAll must only increment, got: %+v", call)
		}
		restored[call.productID] = -call.delta
	}
	if restored[productA] != 2 || restored[productB] != 1 {
		t.Errorf("expected full restoration 2/1, got: %v", restored)
	}
}

func TestReconcile_DecoratesInsufficientStockWithName(t *testing.T) {
	productID := uuid.New()
	ledger := &recordingLedger{
		decrementErr: &InsufficientStockError{ProductID: productID, Requested: 5, Available: 1},
	}

	after := []ItemQuantity{{ProductID: productID, ProductName: "Es Teh", Quantity: 5, Tracked: true}}
	err := NewReconciler(ledger).Reconcile(context.Background(), uuid.New(), nil, after)
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got: %v", err)
	}
	var insufficient *InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected *InsufficientStockError, got: %T", err)
	}
	if insufficient.ProductName != "Es Teh" {
		t.Errorf("product name: got %q, want %q", insufficient.ProductName, "Es Teh")
	}
}

func TestStockDeltas_SortedByProductID(t *testing.T) {
	var items []ItemQuantity
	for i := 0; i < 10; i++ {
		items = append(items, tracked(uuid.New(), int32(i+1)))
	}

	ops := stockDeltas(nil, items)
	for i := 1; i < len(ops); i++ {
		if ops[i-1].productID.String() >= ops[i].productID.String() {
			t.Fatalf("ops not sorted at %d: %s >= %s", i, ops[i-1].productID, ops[i].productID)
		}
	}
}
