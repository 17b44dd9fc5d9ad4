package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sagara-pos/api/internal/database"
	"github.com/sagara-pos/api/internal/enum"
	"github.com/sagara-pos/api/internal/metering"
	"github.com/shopspring/decimal"
)

const maxOrderNumberRetries = 3

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods the lifecycle manager needs.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	StockStore
	GetNextOrderNumber(ctx context.Context, storeID uuid.UUID) (int32, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	GetOrderForUpdate(ctx context.Context, arg database.GetOrderForUpdateParams) (database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	GetOrderItem(ctx context.Context, arg database.GetOrderItemParams) (database.OrderItem, error)
	UpdateOrderItem(ctx context.Context, arg database.UpdateOrderItemParams) (database.OrderItem, error)
	DeleteOrderItem(ctx context.Context, arg database.DeleteOrderItemParams) error
	DeleteOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) error
	CountOrderItems(ctx context.Context, orderID uuid.UUID) (int64, error)
	UpdateOrderTotals(ctx context.Context, arg database.UpdateOrderTotalsParams) (database.Order, error)
	SetOrderStatus(ctx context.Context, arg database.SetOrderStatusParams) (database.Order, error)
	SetOrderTable(ctx context.Context, arg database.SetOrderTableParams) (database.Order, error)
	DeleteOrder(ctx context.Context, arg database.DeleteOrderParams) error
	GetProductForOrder(ctx context.Context, arg database.GetProductForOrderParams) (database.GetProductForOrderRow, error)
	GetStoreSettings(ctx context.Context, storeID uuid.UUID) (database.GetStoreSettingsRow, error)
	OccupyTable(ctx context.Context, arg database.OccupyTableParams) (database.DiningTable, error)
	ReleaseTableByOrder(ctx context.Context, arg database.ReleaseTableByOrderParams) error
	FindPendingPayment(ctx context.Context, orderID uuid.UUID) (database.Payment, error)
	SetPaymentStatus(ctx context.Context, arg database.SetPaymentStatusParams) (database.Payment, error)
	HasCompletedPayment(ctx context.Context, orderID uuid.UUID) (bool, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
// This allows the service to create store instances from transactions.
type NewOrderStore func(db database.DBTX) OrderStore

// modifiableStatuses are the states in which item mutation is allowed.
var modifiableStatuses = []string{enum.OrderStatusDraft, enum.OrderStatusOpen}

// OrderService is the order lifecycle state machine. Every public operation
// runs inside a single transaction: item writes, stock reconciliation, totals
// recomputation and linked-resource updates commit or roll back as one unit.
type OrderService struct {
	pool     TxBeginner
	newStore NewOrderStore
	meter    metering.Recorder
}

func NewOrderService(pool TxBeginner, newStore NewOrderStore, meter metering.Recorder) *OrderService {
	return &OrderService{pool: pool, newStore: newStore, meter: meter}
}

// OrderItemInput is one validated product line supplied by the caller.
type OrderItemInput struct {
	ProductID string
	Quantity  int32
	Options   json.RawMessage
	Notes     string
}

// CreateOrderRequest is the validated input for creating an order.
type CreateOrderRequest struct {
	StoreID         uuid.UUID
	CreatedBy       uuid.UUID
	OperationMode   string
	PaymentMode     string
	TableID         string
	MemberID        string
	Notes           string
	DiscountType    string
	DiscountValue   string
	DeductInventory bool
	Items           []OrderItemInput
}

// EditOrderItemsRequest replaces the whole item set of an order.
type EditOrderItemsRequest struct {
	StoreID              uuid.UUID
	OrderID              uuid.UUID
	Items                []OrderItemInput
	ApplyInventoryEffect bool
}

// AddItemRequest appends one line to an order.
type AddItemRequest struct {
	StoreID              uuid.UUID
	OrderID              uuid.UUID
	Item                 OrderItemInput
	ApplyInventoryEffect bool
}

// UpdateItemRequest changes the quantity and notes of an existing line.
type UpdateItemRequest struct {
	StoreID              uuid.UUID
	OrderID              uuid.UUID
	ItemID               uuid.UUID
	Quantity             int32
	Notes                string
	ApplyInventoryEffect bool
}

// RemoveItemRequest deletes one line from an order.
type RemoveItemRequest struct {
	StoreID              uuid.UUID
	OrderID              uuid.UUID
	ItemID               uuid.UUID
	ApplyInventoryEffect bool
}

// CancelOrderRequest moves an order to CANCELLED.
type CancelOrderRequest struct {
	StoreID          uuid.UUID
	OrderID          uuid.UUID
	RestoreInventory bool
	Reason           string
}

// OrderResult is an order together with its current item set.
type OrderResult struct {
	Order database.Order
	Items []database.OrderItem
}

// processedLine holds a prepared order item and its reconciliation view.
type processedLine struct {
	params database.CreateOrderItemParams
	qty    ItemQuantity
}

// CreateOrder validates, prices and creates an order atomically, occupying the
// table and deducting stock when requested. Retries up to
// maxOrderNumberRetries times on order_number unique constraint violations
// (race where concurrent transactions observe the same MAX).
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResult, error) {
	if err := validateOperationMode(req.OperationMode); err != nil {
		return nil, err
	}
	if req.PaymentMode != "" && !isValidPaymentMethod(req.PaymentMode) {
		return nil, ErrInvalidPaymentMode
	}
	if req.DiscountType != "" {
		if !isValidDiscountType(req.DiscountType) {
			return nil, ErrInvalidDiscount
		}
		if _, err := decimal.NewFromString(req.DiscountValue); err != nil {
			return nil, ErrInvalidDiscountValue
		}
	}
	tableID, err := parseOptionalUUID(req.TableID, ErrInvalidTableID)
	if err != nil {
		return nil, err
	}
	memberID, err := parseOptionalUUID(req.MemberID, ErrInvalidMemberID)
	if err != nil {
		return nil, err
	}
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidQuantity)
		}
		if _, err := uuid.Parse(item.ProductID); err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidProductID)
		}
	}

	var lastErr error
	for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
		result, err := s.createOrderTx(ctx, req, tableID, memberID)
		if err == nil {
			// Best-effort side effect, deliberately outside the transaction:
			// a metering failure must not fail order creation.
			metering.Record(ctx, s.meter, req.StoreID, enum.UsageMetricOrdersCreated, 1)
			return result, nil
		}
		if isOrderNumberConflict(err) {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

// isOrderNumberConflict checks if the error is a unique constraint violation
// on the order number (pgconn error code 23505).
func isOrderNumberConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "orders_store_id_order_number_key"
	}
	return false
}

func (s *OrderService) createOrderTx(ctx context.Context, req CreateOrderRequest, tableID, memberID pgtype.UUID) (*OrderResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	seq, err := store.GetNextOrderNumber(ctx, req.StoreID)
	if err != nil {
		return nil, fmt.Errorf("get next order number: %w", err)
	}

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		StoreID:        req.StoreID,
		OrderNumber:    fmt.Sprintf("SGR-%03d", seq),
		OrderSeq:       seq,
		Status:         enum.OrderStatusDraft,
		OperationMode:  req.OperationMode,
		PaymentMode:    textOrNull(req.PaymentMode),
		TableID:        tableID,
		MemberID:       memberID,
		Subtotal:       decimalToNumeric(decimal.Zero),
		DiscountType:   textOrNull(req.DiscountType),
		DiscountValue:  optionalNumeric(req.DiscountValue),
		DiscountAmount: decimalToNumeric(decimal.Zero),
		TaxAmount:      decimalToNumeric(decimal.Zero),
		ServiceCharge:  decimalToNumeric(decimal.Zero),
		TotalAmount:    decimalToNumeric(decimal.Zero),
		Notes:          textOrNull(req.Notes),
		CreatedBy:      req.CreatedBy,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if tableID.Valid {
		if _, err := store.OccupyTable(ctx, database.OccupyTableParams{
			ID:      tableID.Bytes,
			StoreID: req.StoreID,
			OrderID: order.ID,
		}); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrTableUnavailable
			}
			return nil, fmt.Errorf("occupy table: %w", err)
		}
	}

	var items []database.OrderItem
	var quantities []ItemQuantity
	for i, in := range req.Items {
		line, err := s.buildItem(ctx, store, req.StoreID, order.ID, in)
		if err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, err)
		}
		item, err := store.CreateOrderItem(ctx, line.params)
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		items = append(items, item)
		quantities = append(quantities, line.qty)
	}

	if req.DeductInventory && len(quantities) > 0 {
		reconciler := NewReconciler(NewStockLedger(store))
		if err := reconciler.Reconcile(ctx, req.StoreID, nil, quantities); err != nil {
			return nil, err
		}
	}

	order, err = s.recomputeTotals(ctx, store, order)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &OrderResult{Order: order, Items: items}, nil
}

// EditOrderItems replaces the whole item set in one transaction. When the
// caller requests the inventory effect, stock moves by the diff between the
// previous and proposed sets, never by a full re-deduction. A failed
// reconciliation aborts the edit: items and totals stay as they were.
func (s *OrderService) EditOrderItems(ctx context.Context, req EditOrderItemsRequest) (*OrderResult, error) {
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidQuantity)
		}
		if _, err := uuid.Parse(item.ProductID); err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidProductID)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := s.lockModifiableOrder(ctx, store, req.StoreID, req.OrderID)
	if err != nil {
		return nil, err
	}

	prev, err := store.ListOrderItemsByOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}

	var lines []processedLine
	for i, in := range req.Items {
		line, err := s.buildItem(ctx, store, req.StoreID, order.ID, in)
		if err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, err)
		}
		lines = append(lines, line)
	}

	if req.ApplyInventoryEffect {
		proposed := make([]ItemQuantity, len(lines))
		for i, line := range lines {
			proposed[i] = line.qty
		}
		reconciler := NewReconciler(NewStockLedger(store))
		if err := reconciler.Reconcile(ctx, req.StoreID, itemQuantities(prev), proposed); err != nil {
			return nil, err
		}
	}

	if err := store.DeleteOrderItemsByOrder(ctx, order.ID); err != nil {
		return nil, fmt.Errorf("delete order items: %w", err)
	}
	var items []database.OrderItem
	for _, line := range lines {
		item, err := store.CreateOrderItem(ctx, line.params)
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		items = append(items, item)
	}

	order, err = s.recomputeTotals(ctx, store, order)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &OrderResult{Order: order, Items: items}, nil
}

// AddItem appends one line to a modifiable order.
func (s *OrderService) AddItem(ctx context.Context, req AddItemRequest) (database.OrderItem, error) {
	if req.Item.Quantity <= 0 {
		return database.OrderItem{}, ErrInvalidQuantity
	}
	if _, err := uuid.Parse(req.Item.ProductID); err != nil {
		return database.OrderItem{}, ErrInvalidProductID
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.OrderItem{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := s.lockModifiableOrder(ctx, store, req.StoreID, req.OrderID)
	if err != nil {
		return database.OrderItem{}, err
	}

	line, err := s.buildItem(ctx, store, req.StoreID, order.ID, req.Item)
	if err != nil {
		return database.OrderItem{}, err
	}

	if req.ApplyInventoryEffect {
		reconciler := NewReconciler(NewStockLedger(store))
		if err := reconciler.Reconcile(ctx, req.StoreID, nil, []ItemQuantity{line.qty}); err != nil {
			return database.OrderItem{}, err
		}
	}

	item, err := store.CreateOrderItem(ctx, line.params)
	if err != nil {
		return database.OrderItem{}, fmt.Errorf("create order item: %w", err)
	}

	if _, err := s.recomputeTotals(ctx, store, order); err != nil {
		return database.OrderItem{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return database.OrderItem{}, fmt.Errorf("commit tx: %w", err)
	}
	return item, nil
}

// UpdateItem changes quantity and notes of an existing line. Stock moves only
// by the quantity delta, and only when the caller requests the inventory
// effect.
func (s *OrderService) UpdateItem(ctx context.Context, req UpdateItemRequest) (database.OrderItem, error) {
	if req.Quantity <= 0 {
		return database.OrderItem{}, ErrInvalidQuantity
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.OrderItem{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := s.lockModifiableOrder(ctx, store, req.StoreID, req.OrderID)
	if err != nil {
		return database.OrderItem{}, err
	}

	item, err := store.GetOrderItem(ctx, database.GetOrderItemParams{ID: req.ItemID, OrderID: order.ID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.OrderItem{}, ErrItemNotFound
		}
		return database.OrderItem{}, fmt.Errorf("get order item: %w", err)
	}

	if req.ApplyInventoryEffect && req.Quantity != item.Quantity {
		before := []ItemQuantity{itemQuantity(item)}
		after := []ItemQuantity{itemQuantity(item)}
		after[0].Quantity = req.Quantity
		reconciler := NewReconciler(NewStockLedger(store))
		if err := reconciler.Reconcile(ctx, req.StoreID, before, after); err != nil {
			return database.OrderItem{}, err
		}
	}

	lineTotal := numericToDecimal(item.UnitPrice).Mul(decimal.NewFromInt32(req.Quantity))
	item, err = store.UpdateOrderItem(ctx, database.UpdateOrderItemParams{
		ID:        item.ID,
		OrderID:   order.ID,
		Quantity:  req.Quantity,
		LineTotal: decimalToNumeric(lineTotal),
		Notes:     textOrNull(req.Notes),
	})
	if err != nil {
		return database.OrderItem{}, fmt.Errorf("update order item: %w", err)
	}

	if _, err := s.recomputeTotals(ctx, store, order); err != nil {
		return database.OrderItem{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return database.OrderItem{}, fmt.Errorf("commit tx: %w", err)
	}
	return item, nil
}

// RemoveItem deletes one line, restoring its stock when the caller requests
// the inventory effect.
func (s *OrderService) RemoveItem(ctx context.Context, req RemoveItemRequest) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := s.lockModifiableOrder(ctx, store, req.StoreID, req.OrderID)
	if err != nil {
		return err
	}

	item, err := store.GetOrderItem(ctx, database.GetOrderItemParams{ID: req.ItemID, OrderID: order.ID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrItemNotFound
		}
		return fmt.Errorf("get order item: %w", err)
	}

	if req.ApplyInventoryEffect {
		reconciler := NewReconciler(NewStockLedger(store))
		if err := reconciler.Reconcile(ctx, req.StoreID, []ItemQuantity{itemQuantity(item)}, nil); err != nil {
			return err
		}
	}

	if err := store.DeleteOrderItem(ctx, database.DeleteOrderItemParams{ID: item.ID, OrderID: order.ID}); err != nil {
		return fmt.Errorf("delete order item: %w", err)
	}

	if _, err := s.recomputeTotals(ctx, store, order); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// OpenOrder moves a DRAFT order to OPEN (e.g. a dine-in bill handed to the
// table). OPEN orders share the same mutation guards as DRAFT.
func (s *OrderService) OpenOrder(ctx context.Context, storeID, orderID uuid.UUID) (database.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := s.lockOrder(ctx, store, storeID, orderID)
	if err != nil {
		return database.Order{}, err
	}
	if order.Status == enum.OrderStatusOpen {
		return order, tx.Commit(ctx)
	}
	if err := guardModifiable(order); err != nil {
		return database.Order{}, err
	}

	order, err = store.SetOrderStatus(ctx, database.SetOrderStatusParams{
		ID:           order.ID,
		StoreID:      storeID,
		Status:       enum.OrderStatusOpen,
		FromStatuses: []string{enum.OrderStatusDraft},
	})
	if err != nil {
		return database.Order{}, fmt.Errorf("open order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Order{}, fmt.Errorf("commit tx: %w", err)
	}
	return order, nil
}

// CancelOrder moves an order to CANCELLED, optionally restoring all stock the
// order holds, releasing its table and cancelling any pending payment. Orders
// with a completed payment cannot be cancelled: captured money must be
// refunded through the payment flow first.
func (s *OrderService) CancelOrder(ctx context.Context, req CancelOrderRequest) (database.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := s.lockOrder(ctx, store, req.StoreID, req.OrderID)
	if err != nil {
		return database.Order{}, err
	}
	switch order.Status {
	case enum.OrderStatusCancelled:
		return database.Order{}, ErrAlreadyCancelled
	case enum.OrderStatusCompleted:
		return database.Order{}, ErrAlreadyCompleted
	}

	hasCompleted, err := store.HasCompletedPayment(ctx, order.ID)
	if err != nil {
		return database.Order{}, fmt.Errorf("check completed payment: %w", err)
	}
	if hasCompleted {
		return database.Order{}, ErrHasCompletedPayment
	}

	if req.RestoreInventory {
		items, err := store.ListOrderItemsByOrder(ctx, order.ID)
		if err != nil {
			return database.Order{}, fmt.Errorf("list order items: %w", err)
		}
		reconciler := NewReconciler(NewStockLedger(store))
		if err := reconciler.RestoreAll(ctx, req.StoreID, itemQuantities(items)); err != nil {
			return database.Order{}, err
		}
	}

	if err := store.ReleaseTableByOrder(ctx, database.ReleaseTableByOrderParams{
		StoreID: req.StoreID,
		OrderID: order.ID,
	}); err != nil {
		return database.Order{}, fmt.Errorf("release table: %w", err)
	}

	pending, err := store.FindPendingPayment(ctx, order.ID)
	switch {
	case err == nil:
		if _, err := store.SetPaymentStatus(ctx, database.SetPaymentStatusParams{
			ID:     pending.ID,
			Status: enum.PaymentStatusCancelled,
		}); err != nil {
			return database.Order{}, fmt.Errorf("cancel pending payment: %w", err)
		}
	case errors.Is(err, pgx.ErrNoRows):
	default:
		return database.Order{}, fmt.Errorf("find pending payment: %w", err)
	}

	order, err = store.SetOrderStatus(ctx, database.SetOrderStatusParams{
		ID:           order.ID,
		StoreID:      req.StoreID,
		Status:       enum.OrderStatusCancelled,
		CancelReason: textOrNull(req.Reason),
		FromStatuses: modifiableStatuses,
	})
	if err != nil {
		return database.Order{}, fmt.Errorf("cancel order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Order{}, fmt.Errorf("commit tx: %w", err)
	}
	return order, nil
}

// CompleteOrder moves an order to COMPLETED. Completed orders keep their
// stock deduction: the sale is what the deduction was for.
func (s *OrderService) CompleteOrder(ctx context.Context, storeID, orderID uuid.UUID) (database.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := s.lockOrder(ctx, store, storeID, orderID)
	if err != nil {
		return database.Order{}, err
	}
	switch order.Status {
	case enum.OrderStatusCompleted:
		return database.Order{}, ErrAlreadyCompleted
	case enum.OrderStatusCancelled:
		return database.Order{}, ErrAlreadyCancelled
	}

	count, err := store.CountOrderItems(ctx, order.ID)
	if err != nil {
		return database.Order{}, fmt.Errorf("count order items: %w", err)
	}
	if count == 0 {
		return database.Order{}, ErrEmptyOrder
	}

	order, err = store.SetOrderStatus(ctx, database.SetOrderStatusParams{
		ID:           order.ID,
		StoreID:      storeID,
		Status:       enum.OrderStatusCompleted,
		FromStatuses: modifiableStatuses,
	})
	if err != nil {
		return database.Order{}, fmt.Errorf("complete order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Order{}, fmt.Errorf("commit tx: %w", err)
	}
	return order, nil
}

// DeleteOrder is a hard revert: it always restores stock for every line,
// releases the table and removes the order and its items. Terminal orders
// cannot be deleted.
func (s *OrderService) DeleteOrder(ctx context.Context, storeID, orderID uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := s.lockModifiableOrder(ctx, store, storeID, orderID)
	if err != nil {
		return err
	}

	items, err := store.ListOrderItemsByOrder(ctx, order.ID)
	if err != nil {
		return fmt.Errorf("list order items: %w", err)
	}
	reconciler := NewReconciler(NewStockLedger(store))
	if err := reconciler.RestoreAll(ctx, storeID, itemQuantities(items)); err != nil {
		return err
	}

	if err := store.ReleaseTableByOrder(ctx, database.ReleaseTableByOrderParams{
		StoreID: storeID,
		OrderID: order.ID,
	}); err != nil {
		return fmt.Errorf("release table: %w", err)
	}

	if err := store.DeleteOrderItemsByOrder(ctx, order.ID); err != nil {
		return fmt.Errorf("delete order items: %w", err)
	}
	if err := store.DeleteOrder(ctx, database.DeleteOrderParams{ID: order.ID, StoreID: storeID}); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// AssignTable moves a modifiable order to another table (or off its table
// entirely when tableID is empty), releasing the previous one.
func (s *OrderService) AssignTable(ctx context.Context, storeID, orderID uuid.UUID, tableID string) (database.Order, error) {
	newTable, err := parseOptionalUUID(tableID, ErrInvalidTableID)
	if err != nil {
		return database.Order{}, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := s.lockModifiableOrder(ctx, store, storeID, orderID)
	if err != nil {
		return database.Order{}, err
	}

	if err := store.ReleaseTableByOrder(ctx, database.ReleaseTableByOrderParams{
		StoreID: storeID,
		OrderID: order.ID,
	}); err != nil {
		return database.Order{}, fmt.Errorf("release table: %w", err)
	}

	if newTable.Valid {
		if _, err := store.OccupyTable(ctx, database.OccupyTableParams{
			ID:      newTable.Bytes,
			StoreID: storeID,
			OrderID: order.ID,
		}); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return database.Order{}, ErrTableUnavailable
			}
			return database.Order{}, fmt.Errorf("occupy table: %w", err)
		}
	}

	order, err = store.SetOrderTable(ctx, database.SetOrderTableParams{
		ID:      order.ID,
		StoreID: storeID,
		TableID: newTable,
	})
	if err != nil {
		return database.Order{}, fmt.Errorf("set order table: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Order{}, fmt.Errorf("commit tx: %w", err)
	}
	return order, nil
}

// --- Shared helpers ---

// lockOrder fetches the order with a row lock, serializing every concurrent
// operation against the same order for the lifetime of the transaction.
func (s *OrderService) lockOrder(ctx context.Context, store OrderStore, storeID, orderID uuid.UUID) (database.Order, error) {
	order, err := store.GetOrderForUpdate(ctx, database.GetOrderForUpdateParams{ID: orderID, StoreID: storeID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

func (s *OrderService) lockModifiableOrder(ctx context.Context, store OrderStore, storeID, orderID uuid.UUID) (database.Order, error) {
	order, err := s.lockOrder(ctx, store, storeID, orderID)
	if err != nil {
		return database.Order{}, err
	}
	if err := guardModifiable(order); err != nil {
		return database.Order{}, err
	}
	return order, nil
}

func guardModifiable(o database.Order) error {
	if enum.IsTerminalOrderStatus(o.Status) {
		return fmt.Errorf("%w: order %s is %s", ErrOrderNotModifiable, o.OrderNumber, o.Status)
	}
	return nil
}

// buildItem resolves the product and prepares the denormalized add-time
// snapshot (name, SKU, price, tracking flag) for one input line.
func (s *OrderService) buildItem(ctx context.Context, store OrderStore, storeID, orderID uuid.UUID, in OrderItemInput) (processedLine, error) {
	productID, err := uuid.Parse(in.ProductID)
	if err != nil {
		return processedLine{}, ErrInvalidProductID
	}

	product, err := store.GetProductForOrder(ctx, database.GetProductForOrderParams{
		ID:      productID,
		StoreID: storeID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return processedLine{}, ErrProductNotFound
		}
		return processedLine{}, fmt.Errorf("get product: %w", err)
	}

	unitPrice := numericToDecimal(product.Price)
	lineTotal := unitPrice.Mul(decimal.NewFromInt32(in.Quantity))

	return processedLine{
		params: database.CreateOrderItemParams{
			OrderID:        orderID,
			ProductID:      productID,
			ProductName:    product.Name,
			ProductSku:     product.Sku,
			Quantity:       in.Quantity,
			UnitPrice:      decimalToNumeric(unitPrice),
			LineTotal:      decimalToNumeric(lineTotal),
			TrackInventory: product.TrackInventory,
			Options:        in.Options,
			Notes:          textOrNull(in.Notes),
		},
		qty: ItemQuantity{
			ProductID:   productID,
			ProductName: product.Name,
			Quantity:    in.Quantity,
			Tracked:     product.TrackInventory,
		},
	}, nil
}

// recomputeTotals is the only code path that writes an order's monetary
// fields. It must run after reconciliation succeeds, never before, so a
// failed reconciliation leaves totals untouched.
func (s *OrderService) recomputeTotals(ctx context.Context, store OrderStore, order database.Order) (database.Order, error) {
	items, err := store.ListOrderItemsByOrder(ctx, order.ID)
	if err != nil {
		return database.Order{}, fmt.Errorf("list order items: %w", err)
	}

	settings, err := store.GetStoreSettings(ctx, order.StoreID)
	if err != nil {
		return database.Order{}, fmt.Errorf("get store settings: %w", err)
	}

	lines := make([]LineItem, len(items))
	for i, it := range items {
		lines[i] = LineItem{UnitPrice: numericToDecimal(it.UnitPrice), Quantity: it.Quantity}
	}

	disc := Discount{}
	if order.DiscountType.Valid {
		disc.Type = order.DiscountType.String
		disc.Value = numericToDecimal(order.DiscountValue)
	}

	totals, err := CalculateTotals(lines, TaxConfig{
		TaxRate:           numericToDecimal(settings.TaxRate),
		TaxInclusive:      settings.TaxInclusive,
		ServiceChargeRate: numericToDecimal(settings.ServiceChargeRate),
	}, disc)
	if err != nil {
		return database.Order{}, err
	}

	order, err = store.UpdateOrderTotals(ctx, database.UpdateOrderTotalsParams{
		ID:             order.ID,
		StoreID:        order.StoreID,
		Subtotal:       decimalToNumeric(totals.Subtotal),
		DiscountAmount: decimalToNumeric(totals.DiscountAmount),
		TaxAmount:      decimalToNumeric(totals.TaxAmount),
		ServiceCharge:  decimalToNumeric(totals.ServiceCharge),
		TotalAmount:    decimalToNumeric(totals.TotalAmount),
	})
	if err != nil {
		return database.Order{}, fmt.Errorf("update order totals: %w", err)
	}
	return order, nil
}

func itemQuantity(it database.OrderItem) ItemQuantity {
	return ItemQuantity{
		ProductID:   it.ProductID,
		ProductName: it.ProductName,
		Quantity:    it.Quantity,
		Tracked:     it.TrackInventory,
	}
}

func itemQuantities(items []database.OrderItem) []ItemQuantity {
	out := make([]ItemQuantity, len(items))
	for i, it := range items {
		out[i] = itemQuantity(it)
	}
	return out
}

// --- Validation helpers ---

func validateOperationMode(s string) error {
	switch s {
	case enum.OperationModeDineIn, enum.OperationModeTakeaway, enum.OperationModeDelivery:
		return nil
	}
	return ErrInvalidOperationMode
}

func isValidPaymentMethod(s string) bool {
	switch s {
	case enum.PaymentMethodCash, enum.PaymentMethodQRIS, enum.PaymentMethodTransfer:
		return true
	}
	return false
}

func isValidDiscountType(s string) bool {
	switch s {
	case enum.DiscountTypePercentage, enum.DiscountTypeFixed:
		return true
	}
	return false
}

func parseOptionalUUID(s string, invalid error) (pgtype.UUID, error) {
	if s == "" {
		return pgtype.UUID{}, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{}, invalid
	}
	return pgtype.UUID{Bytes: id, Valid: true}, nil
}

func optionalNumeric(s string) pgtype.Numeric {
	if s == "" {
		return pgtype.Numeric{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return pgtype.Numeric{}
	}
	return decimalToNumeric(d)
}

func textOrNull(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
