package database

import (
	"context"

	"github.com/google/uuid"
)

const recordUsage = `
INSERT INTO usage_records (store_id, metric, amount)
VALUES ($1, $2, $3)
`

type RecordUsageParams struct {
	StoreID uuid.UUID
	Metric  string
	Amount  int64
}

func (q *Queries) RecordUsage(ctx context.Context, arg RecordUsageParams) error {
	_, err := q.db.Exec(ctx, recordUsage, arg.StoreID, arg.Metric, arg.Amount)
	return err
}
