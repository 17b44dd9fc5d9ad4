package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, store_id, order_number, status, operation_mode, payment_mode,
	table_id, member_id, subtotal, discount_type, discount_value, discount_amount,
	tax_amount, service_charge, total_amount, notes, cancel_reason, created_by,
	created_at, updated_at`

func scanOrder(row interface{ Scan(dest ...interface{}) error }) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.StoreID, &o.OrderNumber, &o.Status, &o.OperationMode, &o.PaymentMode,
		&o.TableID, &o.MemberID, &o.Subtotal, &o.DiscountType, &o.DiscountValue, &o.DiscountAmount,
		&o.TaxAmount, &o.ServiceCharge, &o.TotalAmount, &o.Notes, &o.CancelReason, &o.CreatedBy,
		&o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

const getNextOrderNumber = `
SELECT COALESCE(MAX(order_seq), 0) + 1
FROM orders
WHERE store_id = $1
`

// GetNextOrderNumber returns the next per-store order sequence. Two concurrent
// transactions can observe the same MAX; the unique constraint on
// (store_id, order_number) plus the service-level retry handles that race.
func (q *Queries) GetNextOrderNumber(ctx context.Context, storeID uuid.UUID) (int32, error) {
	var n int32
	err := q.db.QueryRow(ctx, getNextOrderNumber, storeID).Scan(&n)
	return n, err
}

const createOrder = `
INSERT INTO orders (
	store_id, order_number, order_seq, status, operation_mode, payment_mode,
	table_id, member_id, subtotal, discount_type, discount_value, discount_amount,
	tax_amount, service_charge, total_amount, notes, created_by
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
RETURNING ` + orderColumns

type CreateOrderParams struct {
	StoreID        uuid.UUID
	OrderNumber    string
	OrderSeq       int32
	Status         string
	OperationMode  string
	PaymentMode    pgtype.Text
	TableID        pgtype.UUID
	MemberID       pgtype.UUID
	Subtotal       pgtype.Numeric
	DiscountType   pgtype.Text
	DiscountValue  pgtype.Numeric
	DiscountAmount pgtype.Numeric
	TaxAmount      pgtype.Numeric
	ServiceCharge  pgtype.Numeric
	TotalAmount    pgtype.Numeric
	Notes          pgtype.Text
	CreatedBy      uuid.UUID
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.StoreID, arg.OrderNumber, arg.OrderSeq, arg.Status, arg.OperationMode, arg.PaymentMode,
		arg.TableID, arg.MemberID, arg.Subtotal, arg.DiscountType, arg.DiscountValue, arg.DiscountAmount,
		arg.TaxAmount, arg.ServiceCharge, arg.TotalAmount, arg.Notes, arg.CreatedBy,
	)
	return scanOrder(row)
}

const getOrder = `
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1 AND store_id = $2
`

type GetOrderParams struct {
	ID      uuid.UUID
	StoreID uuid.UUID
}

func (q *Queries) GetOrder(ctx context.Context, arg GetOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrder, arg.ID, arg.StoreID))
}

const getOrderForUpdate = `
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1 AND store_id = $2
FOR UPDATE
`

type GetOrderForUpdateParams struct {
	ID      uuid.UUID
	StoreID uuid.UUID
}

// GetOrderForUpdate locks the order row for the lifetime of the enclosing
// transaction, serializing concurrent edits of the same order.
func (q *Queries) GetOrderForUpdate(ctx context.Context, arg GetOrderForUpdateParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderForUpdate, arg.ID, arg.StoreID))
}

const listOrders = `
SELECT ` + orderColumns + `
FROM orders
WHERE store_id = $1
  AND ($2::text IS NULL OR status = $2)
ORDER BY created_at DESC
LIMIT $3 OFFSET $4
`

type ListOrdersParams struct {
	StoreID uuid.UUID
	Status  pgtype.Text
	Limit   int32
	Offset  int32
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrders, arg.StoreID, arg.Status, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

const updateOrderTotals = `
UPDATE orders
SET subtotal = $3,
    discount_amount = $4,
    tax_amount = $5,
    service_charge = $6,
    total_amount = $7,
    updated_at = now()
WHERE id = $1 AND store_id = $2
RETURNING ` + orderColumns

type UpdateOrderTotalsParams struct {
	ID             uuid.UUID
	StoreID        uuid.UUID
	Subtotal       pgtype.Numeric
	DiscountAmount pgtype.Numeric
	TaxAmount      pgtype.Numeric
	ServiceCharge  pgtype.Numeric
	TotalAmount    pgtype.Numeric
}

func (q *Queries) UpdateOrderTotals(ctx context.Context, arg UpdateOrderTotalsParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderTotals,
		arg.ID, arg.StoreID, arg.Subtotal, arg.DiscountAmount,
		arg.TaxAmount, arg.ServiceCharge, arg.TotalAmount,
	)
	return scanOrder(row)
}

const setOrderStatus = `
UPDATE orders
SET status = $3,
    cancel_reason = $4,
    updated_at = now()
WHERE id = $1 AND store_id = $2
  AND status = ANY($5::text[])
RETURNING ` + orderColumns

type SetOrderStatusParams struct {
	ID           uuid.UUID
	StoreID      uuid.UUID
	Status       string
	CancelReason pgtype.Text
	FromStatuses []string
}

// SetOrderStatus transitions the order only if its current status is in
// FromStatuses; pgx.ErrNoRows means the guard no longer holds.
func (q *Queries) SetOrderStatus(ctx context.Context, arg SetOrderStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx, setOrderStatus,
		arg.ID, arg.StoreID, arg.Status, arg.CancelReason, arg.FromStatuses,
	)
	return scanOrder(row)
}

const setOrderTable = `
UPDATE orders
SET table_id = $3, updated_at = now()
WHERE id = $1 AND store_id = $2
RETURNING ` + orderColumns

type SetOrderTableParams struct {
	ID      uuid.UUID
	StoreID uuid.UUID
	TableID pgtype.UUID
}

func (q *Queries) SetOrderTable(ctx context.Context, arg SetOrderTableParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, setOrderTable, arg.ID, arg.StoreID, arg.TableID))
}

const deleteOrder = `
DELETE FROM orders
WHERE id = $1 AND store_id = $2
`

type DeleteOrderParams struct {
	ID      uuid.UUID
	StoreID uuid.UUID
}

func (q *Queries) DeleteOrder(ctx context.Context, arg DeleteOrderParams) error {
	_, err := q.db.Exec(ctx, deleteOrder, arg.ID, arg.StoreID)
	return err
}
