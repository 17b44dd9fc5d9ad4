package database

import (
	"context"

	"github.com/google/uuid"
)

const diningTableColumns = `id, store_id, label, status, current_order_id, updated_at`

func scanDiningTable(row interface{ Scan(dest ...interface{}) error }) (DiningTable, error) {
	var t DiningTable
	err := row.Scan(&t.ID, &t.StoreID, &t.Label, &t.Status, &t.CurrentOrderID, &t.UpdatedAt)
	return t, err
}

const occupyTable = `
UPDATE dining_tables
SET status = 'OCCUPIED', current_order_id = $3, updated_at = now()
WHERE id = $1 AND store_id = $2 AND status = 'AVAILABLE'
RETURNING ` + diningTableColumns

type OccupyTableParams struct {
	ID      uuid.UUID
	StoreID uuid.UUID
	OrderID uuid.UUID
}

// OccupyTable claims the table only if it is still AVAILABLE; pgx.ErrNoRows
// means another order took it first.
func (q *Queries) OccupyTable(ctx context.Context, arg OccupyTableParams) (DiningTable, error) {
	return scanDiningTable(q.db.QueryRow(ctx, occupyTable, arg.ID, arg.StoreID, arg.OrderID))
}

const releaseTableByOrder = `
UPDATE dining_tables
SET status = 'AVAILABLE', current_order_id = NULL, updated_at = now()
WHERE store_id = $1 AND current_order_id = $2
`

type ReleaseTableByOrderParams struct {
	StoreID uuid.UUID
	OrderID uuid.UUID
}

// ReleaseTableByOrder frees whichever table the order holds. A no-op when the
// order has no table, so callers do not need to check first.
func (q *Queries) ReleaseTableByOrder(ctx context.Context, arg ReleaseTableByOrderParams) error {
	_, err := q.db.Exec(ctx, releaseTableByOrder, arg.StoreID, arg.OrderID)
	return err
}

const getDiningTable = `
SELECT ` + diningTableColumns + `
FROM dining_tables
WHERE id = $1 AND store_id = $2
`

type GetDiningTableParams struct {
	ID      uuid.UUID
	StoreID uuid.UUID
}

func (q *Queries) GetDiningTable(ctx context.Context, arg GetDiningTableParams) (DiningTable, error) {
	return scanDiningTable(q.db.QueryRow(ctx, getDiningTable, arg.ID, arg.StoreID))
}

const listDiningTables = `
SELECT ` + diningTableColumns + `
FROM dining_tables
WHERE store_id = $1
ORDER BY label
`

func (q *Queries) ListDiningTables(ctx context.Context, storeID uuid.UUID) ([]DiningTable, error) {
	rows, err := q.db.Query(ctx, listDiningTables, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []DiningTable
	for rows.Next() {
		t, err := scanDiningTable(rows)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

const createDiningTable = `
INSERT INTO dining_tables (store_id, label, status)
VALUES ($1, $2, 'AVAILABLE')
RETURNING ` + diningTableColumns

type CreateDiningTableParams struct {
	StoreID uuid.UUID
	Label   string
}

func (q *Queries) CreateDiningTable(ctx context.Context, arg CreateDiningTableParams) (DiningTable, error) {
	return scanDiningTable(q.db.QueryRow(ctx, createDiningTable, arg.StoreID, arg.Label))
}
