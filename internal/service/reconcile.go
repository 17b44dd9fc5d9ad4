package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// ItemQuantity is one product line in a reconciliation snapshot.
type ItemQuantity struct {
	ProductID   uuid.UUID
	ProductName string
	Quantity    int32
	Tracked     bool
}

// Ledger is the subset of StockLedger the reconciler drives.
type Ledger interface {
	Decrement(ctx context.Context, storeID, productID uuid.UUID, qty int32) (int32, error)
	Increment(ctx context.Context, storeID, productID uuid.UUID, qty int32) (int32, error)
}

// stockOp is a single ledger operation produced by the diff.
// Delta > 0 deducts stock, delta < 0 restores it.
type stockOp struct {
	productID   uuid.UUID
	productName string
	delta       int32
}

// Reconciler transitions stock from reflecting one item set to reflecting
// another with the minimal set of ledger operations. It never compensates on
// failure: it must run inside the caller's transaction so a mid-sequence
// InsufficientStockError rolls back every ledger mutation already applied.
type Reconciler struct {
	ledger Ledger
}

func NewReconciler(ledger Ledger) *Reconciler {
	return &Reconciler{ledger: ledger}
}

// Reconcile applies the net stock change between the before and after item
// sets. Lines for the same product are summed, untracked lines are skipped,
// and unchanged quantities produce no ledger calls at all. Passing an empty
// after set is the full-restoration case used by cancel and delete.
func (r *Reconciler) Reconcile(ctx context.Context, storeID uuid.UUID, before, after []ItemQuantity) error {
	ops := stockDeltas(before, after)

	// Restorations first, then deductions. This keeps an edit that trades one
	// product for another from failing on a stock level the same edit is about
	// to free up elsewhere in a multi-terminal setup.
	for _, op := range ops {
		if op.delta >= 0 {
			continue
		}
		if _, err := r.ledger.Increment(ctx, storeID, op.productID, -op.delta); err != nil {
			return fmt.Errorf("restore %d of product %s: %w", -op.delta, op.productID, err)
		}
	}
	for _, op := range ops {
		if op.delta <= 0 {
			continue
		}
		if _, err := r.ledger.Decrement(ctx, storeID, op.productID, op.delta); err != nil {
			var insufficient *InsufficientStockError
			if errors.As(err, &insufficient) && insufficient.ProductName == "" {
				insufficient.ProductName = op.productName
			}
			return err
		}
	}
	return nil
}

// RestoreAll returns every tracked line of the item set to stock, as if the
// order had never deducted anything.
func (r *Reconciler) RestoreAll(ctx context.Context, storeID uuid.UUID, items []ItemQuantity) error {
	return r.Reconcile(ctx, storeID, items, nil)
}

// stockDeltas computes the minimal per-product deltas between two snapshots.
// The result is sorted by product id so the ledger touches rows in a
// deterministic order, which keeps concurrent multi-product reconciliations
// from deadlocking on row locks.
func stockDeltas(before, after []ItemQuantity) []stockOp {
	names := make(map[uuid.UUID]string)
	beforeQty := sumByProduct(before, names)
	afterQty := sumByProduct(after, names)

	seen := make(map[uuid.UUID]bool, len(beforeQty)+len(afterQty))
	var ops []stockOp
	add := func(id uuid.UUID) {
		if seen[id] {
			return
		}
		seen[id] = true
		if delta := afterQty[id] - beforeQty[id]; delta != 0 {
			ops = append(ops, stockOp{productID: id, productName: names[id], delta: delta})
		}
	}
	for id := range beforeQty {
		add(id)
	}
	for id := range afterQty {
		add(id)
	}

	sort.Slice(ops, func(i, j int) bool {
		return ops[i].productID.String() < ops[j].productID.String()
	})
	return ops
}

func sumByProduct(items []ItemQuantity, names map[uuid.UUID]string) map[uuid.UUID]int32 {
	qty := make(map[uuid.UUID]int32, len(items))
	for _, it := range items {
		if !it.Tracked {
			continue
		}
		qty[it.ProductID] += it.Quantity
		if it.ProductName != "" {
			names[it.ProductID] = it.ProductName
		}
	}
	return qty
}
