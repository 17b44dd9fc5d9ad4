package database

import (
	"context"

	"github.com/google/uuid"
)

const stockEntryColumns = `id, store_id, product_id, quantity, tracked, updated_at`

func scanStockEntry(row interface{ Scan(dest ...interface{}) error }) (StockEntry, error) {
	var e StockEntry
	err := row.Scan(&e.ID, &e.StoreID, &e.ProductID, &e.Quantity, &e.Tracked, &e.UpdatedAt)
	return e, err
}

const decrementStock = `
UPDATE stock_entries
SET quantity = quantity - $3, updated_at = now()
WHERE store_id = $1 AND product_id = $2 AND tracked AND quantity >= $3
RETURNING quantity
`

type DecrementStockParams struct {
	StoreID   uuid.UUID
	ProductID uuid.UUID
	Quantity  int32
}

// DecrementStock is a single conditional update so concurrent callers can
// never drive the quantity negative or lose each other's writes. pgx.ErrNoRows
// means the guard quantity >= $3 failed (or the product is untracked).
func (q *Queries) DecrementStock(ctx context.Context, arg DecrementStockParams) (int32, error) {
	var remaining int32
	err := q.db.QueryRow(ctx, decrementStock, arg.StoreID, arg.ProductID, arg.Quantity).Scan(&remaining)
	return remaining, err
}

const incrementStock = `
UPDATE stock_entries
SET quantity = quantity + $3, updated_at = now()
WHERE store_id = $1 AND product_id = $2 AND tracked
RETURNING quantity
`

type IncrementStockParams struct {
	StoreID   uuid.UUID
	ProductID uuid.UUID
	Quantity  int32
}

func (q *Queries) IncrementStock(ctx context.Context, arg IncrementStockParams) (int32, error) {
	var remaining int32
	err := q.db.QueryRow(ctx, incrementStock, arg.StoreID, arg.ProductID, arg.Quantity).Scan(&remaining)
	return remaining, err
}

const getStockEntry = `
SELECT ` + stockEntryColumns + `
FROM stock_entries
WHERE store_id = $1 AND product_id = $2
`

type GetStockEntryParams struct {
	StoreID   uuid.UUID
	ProductID uuid.UUID
}

func (q *Queries) GetStockEntry(ctx context.Context, arg GetStockEntryParams) (StockEntry, error) {
	return scanStockEntry(q.db.QueryRow(ctx, getStockEntry, arg.StoreID, arg.ProductID))
}

const upsertStockEntry = `
INSERT INTO stock_entries (store_id, product_id, quantity, tracked)
VALUES ($1, $2, $3, $4)
ON CONFLICT (store_id, product_id)
DO UPDATE SET quantity = stock_entries.quantity + EXCLUDED.quantity, updated_at = now()
RETURNING ` + stockEntryColumns

type UpsertStockEntryParams struct {
	StoreID   uuid.UUID
	ProductID uuid.UUID
	Quantity  int32
	Tracked   bool
}

// UpsertStockEntry receives stock: it creates the entry on first delivery and
// adds to the on-hand quantity afterwards.
func (q *Queries) UpsertStockEntry(ctx context.Context, arg UpsertStockEntryParams) (StockEntry, error) {
	row := q.db.QueryRow(ctx, upsertStockEntry, arg.StoreID, arg.ProductID, arg.Quantity, arg.Tracked)
	return scanStockEntry(row)
}

const setStockQuantity = `
UPDATE stock_entries
SET quantity = $3, updated_at = now()
WHERE store_id = $1 AND product_id = $2
RETURNING ` + stockEntryColumns + `
`

type SetStockQuantityParams struct {
	StoreID   uuid.UUID
	ProductID uuid.UUID
	Quantity  int32
}

// SetStockQuantity overwrites the on-hand quantity, for stocktake corrections.
func (q *Queries) SetStockQuantity(ctx context.Context, arg SetStockQuantityParams) (StockEntry, error) {
	row := q.db.QueryRow(ctx, setStockQuantity, arg.StoreID, arg.ProductID, arg.Quantity)
	return scanStockEntry(row)
}

const listStockEntries = `
SELECT ` + stockEntryColumns + `
FROM stock_entries
WHERE store_id = $1
ORDER BY updated_at DESC
`

func (q *Queries) ListStockEntries(ctx context.Context, storeID uuid.UUID) ([]StockEntry, error) {
	rows, err := q.db.Query(ctx, listStockEntries, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []StockEntry
	for rows.Next() {
		e, err := scanStockEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
