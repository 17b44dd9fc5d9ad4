package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const paymentColumns = `id, order_id, method, amount, status, reference_number, created_at, updated_at`

func scanPayment(row interface{ Scan(dest ...interface{}) error }) (Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.OrderID, &p.Method, &p.Amount, &p.Status, &p.ReferenceNumber, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

const createPayment = `
INSERT INTO payments (order_id, method, amount, status, reference_number)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + paymentColumns

type CreatePaymentParams struct {
	OrderID         uuid.UUID
	Method          string
	Amount          pgtype.Numeric
	Status          string
	ReferenceNumber pgtype.Text
}

func (q *Queries) CreatePayment(ctx context.Context, arg CreatePaymentParams) (Payment, error) {
	row := q.db.QueryRow(ctx, createPayment,
		arg.OrderID, arg.Method, arg.Amount, arg.Status, arg.ReferenceNumber,
	)
	return scanPayment(row)
}

const findPendingPayment = `
SELECT ` + paymentColumns + `
FROM payments
WHERE order_id = $1 AND status = 'PENDING'
ORDER BY created_at
LIMIT 1
`

func (q *Queries) FindPendingPayment(ctx context.Context, orderID uuid.UUID) (Payment, error) {
	return scanPayment(q.db.QueryRow(ctx, findPendingPayment, orderID))
}

const hasCompletedPayment = `
SELECT EXISTS (
	SELECT 1 FROM payments WHERE order_id = $1 AND status = 'COMPLETED'
)
`

func (q *Queries) HasCompletedPayment(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, hasCompletedPayment, orderID).Scan(&exists)
	return exists, err
}

const setPaymentStatus = `
UPDATE payments
SET status = $2, updated_at = now()
WHERE id = $1 AND status = 'PENDING'
RETURNING ` + paymentColumns

type SetPaymentStatusParams struct {
	ID     uuid.UUID
	Status string
}

// SetPaymentStatus moves a PENDING payment to a settled state; pgx.ErrNoRows
// means the payment was already settled or does not exist.
func (q *Queries) SetPaymentStatus(ctx context.Context, arg SetPaymentStatusParams) (Payment, error) {
	return scanPayment(q.db.QueryRow(ctx, setPaymentStatus, arg.ID, arg.Status))
}

const getPayment = `
SELECT ` + paymentColumns + `
FROM payments
WHERE id = $1 AND order_id = $2
`

type GetPaymentParams struct {
	ID      uuid.UUID
	OrderID uuid.UUID
}

func (q *Queries) GetPayment(ctx context.Context, arg GetPaymentParams) (Payment, error) {
	return scanPayment(q.db.QueryRow(ctx, getPayment, arg.ID, arg.OrderID))
}

const listPaymentsByOrder = `
SELECT ` + paymentColumns + `
FROM payments
WHERE order_id = $1
ORDER BY created_at
`

func (q *Queries) ListPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]Payment, error) {
	rows, err := q.db.Query(ctx, listPaymentsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
