package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const productColumns = `id, store_id, name, sku, price, track_inventory, active, created_at, updated_at`

func scanProduct(row interface{ Scan(dest ...interface{}) error }) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.StoreID, &p.Name, &p.Sku, &p.Price, &p.TrackInventory, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

const getProductForOrder = `
SELECT id, store_id, name, sku, price, track_inventory
FROM products
WHERE id = $1 AND store_id = $2 AND active
`

type GetProductForOrderParams struct {
	ID      uuid.UUID
	StoreID uuid.UUID
}

type GetProductForOrderRow struct {
	ID             uuid.UUID
	StoreID        uuid.UUID
	Name           string
	Sku            string
	Price          pgtype.Numeric
	TrackInventory bool
}

// GetProductForOrder resolves the add-time snapshot for an order item:
// name, SKU, current price and the inventory-tracking flag.
func (q *Queries) GetProductForOrder(ctx context.Context, arg GetProductForOrderParams) (GetProductForOrderRow, error) {
	var r GetProductForOrderRow
	err := q.db.QueryRow(ctx, getProductForOrder, arg.ID, arg.StoreID).
		Scan(&r.ID, &r.StoreID, &r.Name, &r.Sku, &r.Price, &r.TrackInventory)
	return r, err
}

const getProduct = `
SELECT ` + productColumns + `
FROM products
WHERE id = $1 AND store_id = $2
`

type GetProductParams struct {
	ID      uuid.UUID
	StoreID uuid.UUID
}

func (q *Queries) GetProduct(ctx context.Context, arg GetProductParams) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, getProduct, arg.ID, arg.StoreID))
}

const createProduct = `
INSERT INTO products (store_id, name, sku, price, track_inventory, active)
VALUES ($1, $2, $3, $4, $5, true)
RETURNING ` + productColumns

type CreateProductParams struct {
	StoreID        uuid.UUID
	Name           string
	Sku            string
	Price          pgtype.Numeric
	TrackInventory bool
}

func (q *Queries) CreateProduct(ctx context.Context, arg CreateProductParams) (Product, error) {
	row := q.db.QueryRow(ctx, createProduct,
		arg.StoreID, arg.Name, arg.Sku, arg.Price, arg.TrackInventory,
	)
	return scanProduct(row)
}

const listProducts = `
SELECT ` + productColumns + `
FROM products
WHERE store_id = $1 AND active
ORDER BY name
`

func (q *Queries) ListProducts(ctx context.Context, storeID uuid.UUID) ([]Product, error) {
	rows, err := q.db.Query(ctx, listProducts, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
