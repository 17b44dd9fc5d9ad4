// Package metering records billable usage counters. Recording is best-effort
// by contract: callers invoke it after their transaction commits and must
// never fail an operation because a usage write failed.
package metering

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/sagara-pos/api/internal/database"
)

// Recorder reports a usage amount against a store-level metric.
type Recorder interface {
	RecordUsage(ctx context.Context, storeID uuid.UUID, metric string, amount int64) error
}

// UsageStore is the DB method the recorder needs; satisfied by *database.Queries.
type UsageStore interface {
	RecordUsage(ctx context.Context, arg database.RecordUsageParams) error
}

// DBRecorder persists usage records through the shared query layer.
type DBRecorder struct {
	store UsageStore
}

func NewDBRecorder(store UsageStore) *DBRecorder {
	return &DBRecorder{store: store}
}

func (r *DBRecorder) RecordUsage(ctx context.Context, storeID uuid.UUID, metric string, amount int64) error {
	return r.store.RecordUsage(ctx, database.RecordUsageParams{
		StoreID: storeID,
		Metric:  metric,
		Amount:  amount,
	})
}

// Record is the swallow-and-log helper engine code calls after commit.
func Record(ctx context.Context, rec Recorder, storeID uuid.UUID, metric string, amount int64) {
	if rec == nil {
		return
	}
	if err := rec.RecordUsage(ctx, storeID, metric, amount); err != nil {
		log.Printf("ERROR: record usage %s for store %s: %v", metric, storeID, err)
	}
}
