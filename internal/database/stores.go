package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const getStoreSettings = `
SELECT id, name, tax_rate, tax_inclusive, service_charge_rate
FROM stores
WHERE id = $1
`

type GetStoreSettingsRow struct {
	ID                uuid.UUID
	Name              string
	TaxRate           pgtype.Numeric
	TaxInclusive      bool
	ServiceChargeRate pgtype.Numeric
}

func (q *Queries) GetStoreSettings(ctx context.Context, storeID uuid.UUID) (GetStoreSettingsRow, error) {
	var r GetStoreSettingsRow
	err := q.db.QueryRow(ctx, getStoreSettings, storeID).
		Scan(&r.ID, &r.Name, &r.TaxRate, &r.TaxInclusive, &r.ServiceChargeRate)
	return r, err
}

const createStore = `
INSERT INTO stores (name, tax_rate, tax_inclusive, service_charge_rate)
VALUES ($1, $2, $3, $4)
RETURNING id, name, tax_rate, tax_inclusive, service_charge_rate, created_at, updated_at
`

type CreateStoreParams struct {
	Name              string
	TaxRate           pgtype.Numeric
	TaxInclusive      bool
	ServiceChargeRate pgtype.Numeric
}

func (q *Queries) CreateStore(ctx context.Context, arg CreateStoreParams) (StoreProfile, error) {
	var s StoreProfile
	err := q.db.QueryRow(ctx, createStore, arg.Name, arg.TaxRate, arg.TaxInclusive, arg.ServiceChargeRate).
		Scan(&s.ID, &s.Name, &s.TaxRate, &s.TaxInclusive, &s.ServiceChargeRate, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}
