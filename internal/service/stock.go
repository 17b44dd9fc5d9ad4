package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sagara-pos/api/internal/database"
)

// StockStore defines the DB methods needed by the stock ledger.
// Satisfied by *database.Queries (and its WithTx variant).
type StockStore interface {
	DecrementStock(ctx context.Context, arg database.DecrementStockParams) (int32, error)
	IncrementStock(ctx context.Context, arg database.IncrementStockParams) (int32, error)
	GetStockEntry(ctx context.Context, arg database.GetStockEntryParams) (database.StockEntry, error)
}

// StockLedger owns per-product on-hand quantities. Both mutations are pushed
// down to single conditional UPDATEs, so two ledgers hitting the same product
// row from different orders cannot lose updates or oversell.
type StockLedger struct {
	store StockStore
}

func NewStockLedger(store StockStore) *StockLedger {
	return &StockLedger{store: store}
}

// Decrement subtracts qty from the product's on-hand quantity and returns the
// remaining amount. Untracked products are a successful no-op. A tracked
// product without enough stock (including one with no ledger entry at all)
// fails with InsufficientStockError and leaves the entry unchanged.
func (l *StockLedger) Decrement(ctx context.Context, storeID, productID uuid.UUID, qty int32) (int32, error) {
	if qty <= 0 {
		return 0, ErrInvalidQuantity
	}

	remaining, err := l.store.DecrementStock(ctx, database.DecrementStockParams{
		StoreID:   storeID,
		ProductID: productID,
		Quantity:  qty,
	})
	if err == nil {
		return remaining, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("decrement stock: %w", err)
	}

	// The conditional update matched nothing: untracked entry, missing entry,
	// or not enough stock. Fetch the entry to tell these apart.
	entry, getErr := l.store.GetStockEntry(ctx, database.GetStockEntryParams{
		StoreID:   storeID,
		ProductID: productID,
	})
	if errors.Is(getErr, pgx.ErrNoRows) {
		return 0, &InsufficientStockError{ProductID: productID, Requested: qty, Available: 0}
	}
	if getErr != nil {
		return 0, fmt.Errorf("get stock entry: %w", getErr)
	}
	if !entry.Tracked {
		return entry.Quantity, nil
	}
	return 0, &InsufficientStockError{ProductID: productID, Requested: qty, Available: entry.Quantity}
}

// Increment adds qty back to the product's on-hand quantity. Untracked or
// missing entries are a successful no-op.
func (l *StockLedger) Increment(ctx context.Context, storeID, productID uuid.UUID, qty int32) (int32, error) {
	if qty <= 0 {
		return 0, ErrInvalidQuantity
	}

	remaining, err := l.store.IncrementStock(ctx, database.IncrementStockParams{
		StoreID:   storeID,
		ProductID: productID,
		Quantity:  qty,
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("increment stock: %w", err)
	}
	return remaining, nil
}
