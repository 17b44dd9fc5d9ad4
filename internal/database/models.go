package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type StoreProfile struct {
	ID                uuid.UUID
	Name              string
	TaxRate           pgtype.Numeric
	TaxInclusive      bool
	ServiceChargeRate pgtype.Numeric
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type User struct {
	ID           uuid.UUID
	StoreID      uuid.UUID
	Email        string
	PasswordHash string
	Name         string
	Role         string
	CreatedAt    time.Time
}

type Product struct {
	ID             uuid.UUID
	StoreID        uuid.UUID
	Name           string
	Sku            string
	Price          pgtype.Numeric
	TrackInventory bool
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type StockEntry struct {
	ID        uuid.UUID
	StoreID   uuid.UUID
	ProductID uuid.UUID
	Quantity  int32
	Tracked   bool
	UpdatedAt time.Time
}

type DiningTable struct {
	ID             uuid.UUID
	StoreID        uuid.UUID
	Label          string
	Status         string
	CurrentOrderID pgtype.UUID
	UpdatedAt      time.Time
}

type Order struct {
	ID             uuid.UUID
	StoreID        uuid.UUID
	OrderNumber    string
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
	CancelReason   pgtype.Text
	CreatedBy      uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type OrderItem struct {
	ID             uuid.UUID
	OrderID        uuid.UUID
	ProductID      uuid.UUID
	ProductName    string
	ProductSku     string
	Quantity       int32
	UnitPrice      pgtype.Numeric
	LineTotal      pgtype.Numeric
	TrackInventory bool
	Options        []byte
	Notes          pgtype.Text
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Payment struct {
	ID              uuid.UUID
	OrderID         uuid.UUID
	Method          string
	Amount          pgtype.Numeric
	Status          string
	ReferenceNumber pgtype.Text
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type UsageRecord struct {
	ID         uuid.UUID
	StoreID    uuid.UUID
	Metric     string
	Amount     int64
	RecordedAt time.Time
}
