package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sagara-pos/api/internal/database"
	"github.com/sagara-pos/api/internal/middleware"
	"github.com/sagara-pos/api/internal/service"
	"github.com/sagara-pos/api/internal/ws"
	"github.com/shopspring/decimal"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.OrderResult, error)
	EditOrderItems(ctx context.Context, req service.EditOrderItemsRequest) (*service.OrderResult, error)
	AddItem(ctx context.Context, req service.AddItemRequest) (database.OrderItem, error)
	UpdateItem(ctx context.Context, req service.UpdateItemRequest) (database.OrderItem, error)
	RemoveItem(ctx context.Context, req service.RemoveItemRequest) error
	OpenOrder(ctx context.Context, storeID, orderID uuid.UUID) (database.Order, error)
	CancelOrder(ctx context.Context, req service.CancelOrderRequest) (database.Order, error)
	CompleteOrder(ctx context.Context, storeID, orderID uuid.UUID) (database.Order, error)
	DeleteOrder(ctx context.Context, storeID, orderID uuid.UUID) error
	AssignTable(ctx context.Context, storeID, orderID uuid.UUID, tableID string) (database.Order, error)
}

// OrderStore defines the database methods needed by order read handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type OrderStore interface {
	GetOrder(ctx context.Context, arg database.GetOrderParams) (database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	ListPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.Payment, error)
}

// OrderHandler handles order lifecycle endpoints.
type OrderHandler struct {
	svc   OrderServicer
	store OrderStore
	hub   *ws.Hub
}

// NewOrderHandler creates a new OrderHandler. The hub may be nil, in which
// case no events are broadcast.
func NewOrderHandler(svc OrderServicer, store OrderStore, hub *ws.Hub) *OrderHandler {
	return &OrderHandler{svc: svc, store: store, hub: hub}
}

// RegisterRoutes registers order endpoints on the given Chi router.
// Expected to be mounted inside a store-scoped subrouter: /stores/{sid}/orders
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Put("/{id}/items", h.EditItems)
	r.Post("/{id}/items", h.AddItem)
	r.Patch("/{id}/items/{itemID}", h.UpdateItem)
	r.Delete("/{id}/items/{itemID}", h.RemoveItem)
	r.Post("/{id}/open", h.Open)
	r.Post("/{id}/complete", h.Complete)
	r.Post("/{id}/cancel", h.Cancel)
	r.Patch("/{id}/table", h.AssignTable)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type createOrderRequest struct {
	OperationMode   string             `json:"operation_mode"`
	PaymentMode     string             `json:"payment_mode"`
	TableID         string             `json:"table_id"`
	MemberID        string             `json:"member_id"`
	Notes           string             `json:"notes"`
	DiscountType    string             `json:"discount_type"`
	DiscountValue   string             `json:"discount_value"`
	DeductInventory bool               `json:"deduct_inventory"`
	Items           []orderItemRequest `json:"items"`
}

type orderItemRequest struct {
	ProductID string          `json:"product_id"`
	Quantity  int32           `json:"quantity"`
	Options   json.RawMessage `json:"options"`
	Notes     string          `json:"notes"`
}

type editItemsRequest struct {
	Items                []orderItemRequest `json:"items"`
	ApplyInventoryEffect bool               `json:"apply_inventory_effect"`
}

type addItemRequest struct {
	orderItemRequest
	ApplyInventoryEffect bool `json:"apply_inventory_effect"`
}

type updateItemRequest struct {
	Quantity             int32  `json:"quantity"`
	Notes                string `json:"notes"`
	ApplyInventoryEffect bool   `json:"apply_inventory_effect"`
}

type cancelOrderRequest struct {
	RestoreInventory bool   `json:"restore_inventory"`
	Reason           string `json:"reason"`
}

type assignTableRequest struct {
	TableID string `json:"table_id"`
}

type orderResponse struct {
	ID             uuid.UUID           `json:"id"`
	StoreID        uuid.UUID           `json:"store_id"`
	OrderNumber    string              `json:"order_number"`
	Status         string              `json:"status"`
	OperationMode  string              `json:"operation_mode"`
	PaymentMode    *string             `json:"payment_mode"`
	TableID        *string             `json:"table_id"`
	MemberID       *string             `json:"member_id"`
	Subtotal       string              `json:"subtotal"`
	DiscountType   *string             `json:"discount_type"`
	DiscountValue  *string             `json:"discount_value"`
	DiscountAmount string              `json:"discount_amount"`
	TaxAmount      string              `json:"tax_amount"`
	ServiceCharge  string              `json:"service_charge"`
	TotalAmount    string              `json:"total_amount"`
	Notes          *string             `json:"notes"`
	CancelReason   *string             `json:"cancel_reason"`
	CreatedBy      uuid.UUID           `json:"created_by"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	Items          []orderItemResponse `json:"items"`
}

type orderItemResponse struct {
	ID             uuid.UUID       `json:"id"`
	ProductID      uuid.UUID       `json:"product_id"`
	ProductName    string          `json:"product_name"`
	ProductSku     string          `json:"product_sku"`
	Quantity       int32           `json:"quantity"`
	UnitPrice      string          `json:"unit_price"`
	LineTotal      string          `json:"line_total"`
	TrackInventory bool            `json:"track_inventory"`
	Options        json.RawMessage `json:"options,omitempty"`
	Notes          *string         `json:"notes"`
}

type paymentResponse struct {
	ID              uuid.UUID `json:"id"`
	OrderID         uuid.UUID `json:"order_id"`
	Method          string    `json:"method"`
	Amount          string    `json:"amount"`
	Status          string    `json:"status"`
	ReferenceNumber *string   `json:"reference_number"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// orderDetailResponse extends orderResponse with payments for the GET detail endpoint.
type orderDetailResponse struct {
	orderResponse
	Payments []paymentResponse `json:"payments"`
}

// orderListResponse wraps a list of orders with pagination metadata.
type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// --- Handlers ---

// Create handles POST /stores/{sid}/orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	storeID, err := uuid.Parse(chi.URLParam(r, "sid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid store ID"})
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.OperationMode == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "operation_mode is required"})
		return
	}

	for i, item := range req.Items {
		if item.ProductID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": formatItemError(i, "product_id is required"),
			})
			return
		}
		if item.Quantity <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": formatItemError(i, "quantity must be > 0"),
			})
			return
		}
	}

	result, err := h.svc.CreateOrder(r.Context(), service.CreateOrderRequest{
		StoreID:         storeID,
		CreatedBy:       claims.UserID,
		OperationMode:   req.OperationMode,
		PaymentMode:     req.PaymentMode,
		TableID:         req.TableID,
		MemberID:        req.MemberID,
		Notes:           req.Notes,
		DiscountType:    req.DiscountType,
		DiscountValue:   req.DiscountValue,
		DeductInventory: req.DeductInventory,
		Items:           toServiceItems(req.Items),
	})
	if err != nil {
		h.respondServiceError(w, "create order", err)
		return
	}

	h.broadcast(storeID, "order.created", result.Order)
	writeJSON(w, http.StatusCreated, toOrderResult(result))
}

// List handles GET /stores/{sid}/orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	storeID, err := uuid.Parse(chi.URLParam(r, "sid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid store ID"})
		return
	}

	// Parse pagination
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > 100 {
		limit = 100
	}

	offset := 0
	if s := r.URL.Query().Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}

	params := database.ListOrdersParams{
		StoreID: storeID,
		Limit:   int32(limit),
		Offset:  int32(offset),
	}
	if s := r.URL.Query().Get("status"); s != "" {
		params.Status = pgtype.Text{String: s, Valid: true}
	}

	orders, err := h.store.ListOrders(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = dbOrderToResponse(o)
	}

	writeJSON(w, http.StatusOK, orderListResponse{
		Orders: resp,
		Limit:  limit,
		Offset: offset,
	})
}

// Get handles GET /stores/{sid}/orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	storeID, orderID, ok := h.pathIDs(w, r)
	if !ok {
		return
	}

	order, err := h.store.GetOrder(r.Context(), database.GetOrderParams{
		ID:      orderID,
		StoreID: storeID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	items, err := h.store.ListOrderItemsByOrder(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: list order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	payments, err := h.store.ListPaymentsByOrder(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: list payments: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	orderResp := dbOrderToResponse(order)
	orderResp.Items = make([]orderItemResponse, len(items))
	for i, item := range items {
		orderResp.Items[i] = dbOrderItemToResponse(item)
	}

	paymentResps := make([]paymentResponse, len(payments))
	for i, p := range payments {
		paymentResps[i] = dbPaymentToResponse(p)
	}

	writeJSON(w, http.StatusOK, orderDetailResponse{
		orderResponse: orderResp,
		Payments:      paymentResps,
	})
}

// EditItems handles PUT /stores/{sid}/orders/{id}/items, replacing the whole
// item set in one shot.
func (h *OrderHandler) EditItems(w http.ResponseWriter, r *http.Request) {
	storeID, orderID, ok := h.pathIDs(w, r)
	if !ok {
		return
	}

	var req editItemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	for i, item := range req.Items {
		if item.ProductID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": formatItemError(i, "product_id is required"),
			})
			return
		}
		if item.Quantity <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": formatItemError(i, "quantity must be > 0"),
			})
			return
		}
	}

	result, err := h.svc.EditOrderItems(r.Context(), service.EditOrderItemsRequest{
		StoreID:              storeID,
		OrderID:              orderID,
		Items:                toServiceItems(req.Items),
		ApplyInventoryEffect: req.ApplyInventoryEffect,
	})
	if err != nil {
		h.respondServiceError(w, "edit order items", err)
		return
	}

	h.broadcast(storeID, "order.updated", result.Order)
	writeJSON(w, http.StatusOK, toOrderResult(result))
}

// AddItem handles POST /stores/{sid}/orders/{id}/items.
func (h *OrderHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	storeID, orderID, ok := h.pathIDs(w, r)
	if !ok {
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.ProductID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "product_id is required"})
		return
	}
	if req.Quantity <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "quantity must be > 0"})
		return
	}

	item, err := h.svc.AddItem(r.Context(), service.AddItemRequest{
		StoreID: storeID,
		OrderID: orderID,
		Item: service.OrderItemInput{
			ProductID: req.ProductID,
			Quantity:  req.Quantity,
			Options:   req.Options,
			Notes:     req.Notes,
		},
		ApplyInventoryEffect: req.ApplyInventoryEffect,
	})
	if err != nil {
		h.respondServiceError(w, "add order item", err)
		return
	}

	h.broadcastID(storeID, "order.updated", orderID)
	writeJSON(w, http.StatusCreated, dbOrderItemToResponse(item))
}

// UpdateItem handles PATCH /stores/{sid}/orders/{id}/items/{itemID}.
func (h *OrderHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	storeID, orderID, ok := h.pathIDs(w, r)
	if !ok {
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Quantity <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "quantity must be > 0"})
		return
	}

	item, err := h.svc.UpdateItem(r.Context(), service.UpdateItemRequest{
		StoreID:              storeID,
		OrderID:              orderID,
		ItemID:               itemID,
		Quantity:             req.Quantity,
		Notes:                req.Notes,
		ApplyInventoryEffect: req.ApplyInventoryEffect,
	})
	if err != nil {
		h.respondServiceError(w, "update order item", err)
		return
	}

	h.broadcastID(storeID, "order.updated", orderID)
	writeJSON(w, http.StatusOK, dbOrderItemToResponse(item))
}

// RemoveItem handles DELETE /stores/{sid}/orders/{id}/items/{itemID}.
// Pass ?restock=true to return the line's stock to inventory.
func (h *OrderHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	storeID, orderID, ok := h.pathIDs(w, r)
	if !ok {
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	err = h.svc.RemoveItem(r.Context(), service.RemoveItemRequest{
		StoreID:              storeID,
		OrderID:              orderID,
		ItemID:               itemID,
		ApplyInventoryEffect: r.URL.Query().Get("restock") == "true",
	})
	if err != nil {
		h.respondServiceError(w, "remove order item", err)
		return
	}

	h.broadcastID(storeID, "order.updated", orderID)
	w.WriteHeader(http.StatusNoContent)
}

// Open handles POST /stores/{sid}/orders/{id}/open.
func (h *OrderHandler) Open(w http.ResponseWriter, r *http.Request) {
	storeID, orderID, ok := h.pathIDs(w, r)
	if !ok {
		return
	}

	order, err := h.svc.OpenOrder(r.Context(), storeID, orderID)
	if err != nil {
		h.respondServiceError(w, "open order", err)
		return
	}

	h.broadcast(storeID, "order.opened", order)
	writeJSON(w, http.StatusOK, dbOrderToResponse(order))
}

// Complete handles POST /stores/{sid}/orders/{id}/complete.
func (h *OrderHandler) Complete(w http.ResponseWriter, r *http.Request) {
	storeID, orderID, ok := h.pathIDs(w, r)
	if !ok {
		return
	}

	order, err := h.svc.CompleteOrder(r.Context(), storeID, orderID)
	if err != nil {
		h.respondServiceError(w, "complete order", err)
		return
	}

	h.broadcast(storeID, "order.completed", order)
	writeJSON(w, http.StatusOK, dbOrderToResponse(order))
}

// Cancel handles POST /stores/{sid}/orders/{id}/cancel. The body is optional;
// an empty body cancels without restoring inventory.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	storeID, orderID, ok := h.pathIDs(w, r)
	if !ok {
		return
	}

	var req cancelOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	order, err := h.svc.CancelOrder(r.Context(), service.CancelOrderRequest{
		StoreID:          storeID,
		OrderID:          orderID,
		RestoreInventory: req.RestoreInventory,
		Reason:           req.Reason,
	})
	if err != nil {
		h.respondServiceError(w, "cancel order", err)
		return
	}

	h.broadcast(storeID, "order.cancelled", order)
	writeJSON(w, http.StatusOK, dbOrderToResponse(order))
}

// AssignTable handles PATCH /stores/{sid}/orders/{id}/table. An empty
// table_id moves the order off its current table.
func (h *OrderHandler) AssignTable(w http.ResponseWriter, r *http.Request) {
	storeID, orderID, ok := h.pathIDs(w, r)
	if !ok {
		return
	}

	var req assignTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	order, err := h.svc.AssignTable(r.Context(), storeID, orderID, req.TableID)
	if err != nil {
		h.respondServiceError(w, "assign table", err)
		return
	}

	h.broadcast(storeID, "order.updated", order)
	writeJSON(w, http.StatusOK, dbOrderToResponse(order))
}

// Delete handles DELETE /stores/{sid}/orders/{id}. Unlike cancel, this is a
// hard revert: stock always returns to inventory and the order disappears.
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	storeID, orderID, ok := h.pathIDs(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteOrder(r.Context(), storeID, orderID); err != nil {
		h.respondServiceError(w, "delete order", err)
		return
	}

	h.broadcastID(storeID, "order.deleted", orderID)
	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

func (h *OrderHandler) pathIDs(w http.ResponseWriter, r *http.Request) (storeID, orderID uuid.UUID, ok bool) {
	storeID, err := uuid.Parse(chi.URLParam(r, "sid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid store ID"})
		return uuid.Nil, uuid.Nil, false
	}
	orderID, err = uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return uuid.Nil, uuid.Nil, false
	}
	return storeID, orderID, true
}

// respondServiceError maps known service errors to HTTP status codes.
// Validation failures are 400, missing resources 404 and state-machine guard
// violations (including stock shortfalls) 409.
func (h *OrderHandler) respondServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case isValidationError(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrOrderNotFound), errors.Is(err, service.ErrItemNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case isConflictError(err):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: %s: %v", op, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

// isValidationError checks if the error is a known validation error
// from the service layer that should result in 400 Bad Request.
func isValidationError(err error) bool {
	return errors.Is(err, service.ErrInvalidQuantity) ||
		errors.Is(err, service.ErrInvalidOperationMode) ||
		errors.Is(err, service.ErrInvalidPaymentMode) ||
		errors.Is(err, service.ErrInvalidDiscount) ||
		errors.Is(err, service.ErrInvalidDiscountValue) ||
		errors.Is(err, service.ErrInvalidProductID) ||
		errors.Is(err, service.ErrInvalidTableID) ||
		errors.Is(err, service.ErrInvalidMemberID) ||
		errors.Is(err, service.ErrProductNotFound)
}

// isConflictError checks if the error is a state-machine guard violation that
// should result in 409 Conflict.
func isConflictError(err error) bool {
	return errors.Is(err, service.ErrOrderNotModifiable) ||
		errors.Is(err, service.ErrAlreadyCancelled) ||
		errors.Is(err, service.ErrAlreadyCompleted) ||
		errors.Is(err, service.ErrEmptyOrder) ||
		errors.Is(err, service.ErrHasCompletedPayment) ||
		errors.Is(err, service.ErrTableUnavailable) ||
		errors.Is(err, service.ErrInsufficientStock)
}

func formatItemError(idx int, msg string) string {
	return "items[" + strconv.Itoa(idx) + "]: " + msg
}

type orderEventPayload struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number,omitempty"`
	Status      string    `json:"status,omitempty"`
}

func (h *OrderHandler) broadcast(storeID uuid.UUID, eventType string, order database.Order) {
	h.broadcastPayload(storeID, eventType, orderEventPayload{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
	})
}

// broadcastID is used by item-level mutations where only the order ID is at hand.
func (h *OrderHandler) broadcastID(storeID uuid.UUID, eventType string, orderID uuid.UUID) {
	h.broadcastPayload(storeID, eventType, orderEventPayload{OrderID: orderID})
}

func (h *OrderHandler) broadcastPayload(storeID uuid.UUID, eventType string, payload orderEventPayload) {
	if h.hub == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	h.hub.BroadcastToStore(storeID, ws.Event{Type: eventType, Payload: data})
}

func toServiceItems(items []orderItemRequest) []service.OrderItemInput {
	out := make([]service.OrderItemInput, len(items))
	for i, item := range items {
		out[i] = service.OrderItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Options:   item.Options,
			Notes:     item.Notes,
		}
	}
	return out
}

func toOrderResult(result *service.OrderResult) orderResponse {
	resp := dbOrderToResponse(result.Order)
	resp.Items = make([]orderItemResponse, len(result.Items))
	for i, item := range result.Items {
		resp.Items[i] = dbOrderItemToResponse(item)
	}
	return resp
}

// dbOrderToResponse converts a database.Order to an orderResponse.
func dbOrderToResponse(o database.Order) orderResponse {
	resp := orderResponse{
		ID:             o.ID,
		StoreID:        o.StoreID,
		OrderNumber:    o.OrderNumber,
		Status:         o.Status,
		OperationMode:  o.OperationMode,
		Subtotal:       numericToString(o.Subtotal),
		DiscountAmount: numericToString(o.DiscountAmount),
		TaxAmount:      numericToString(o.TaxAmount),
		ServiceCharge:  numericToString(o.ServiceCharge),
		TotalAmount:    numericToString(o.TotalAmount),
		CreatedBy:      o.CreatedBy,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}

	if o.PaymentMode.Valid {
		resp.PaymentMode = &o.PaymentMode.String
	}
	if o.TableID.Valid {
		s := uuid.UUID(o.TableID.Bytes).String()
		resp.TableID = &s
	}
	if o.MemberID.Valid {
		s := uuid.UUID(o.MemberID.Bytes).String()
		resp.MemberID = &s
	}
	if o.DiscountType.Valid {
		resp.DiscountType = &o.DiscountType.String
	}
	if o.DiscountValue.Valid {
		s := numericToString(o.DiscountValue)
		resp.DiscountValue = &s
	}
	if o.Notes.Valid {
		resp.Notes = &o.Notes.String
	}
	if o.CancelReason.Valid {
		resp.CancelReason = &o.CancelReason.String
	}

	return resp
}

// dbOrderItemToResponse converts a database.OrderItem to an orderItemResponse.
func dbOrderItemToResponse(item database.OrderItem) orderItemResponse {
	resp := orderItemResponse{
		ID:             item.ID,
		ProductID:      item.ProductID,
		ProductName:    item.ProductName,
		ProductSku:     item.ProductSku,
		Quantity:       item.Quantity,
		UnitPrice:      numericToString(item.UnitPrice),
		LineTotal:      numericToString(item.LineTotal),
		TrackInventory: item.TrackInventory,
	}
	if len(item.Options) > 0 {
		resp.Options = json.RawMessage(item.Options)
	}
	if item.Notes.Valid {
		resp.Notes = &item.Notes.String
	}
	return resp
}

// dbPaymentToResponse converts a database.Payment to a paymentResponse.
func dbPaymentToResponse(p database.Payment) paymentResponse {
	resp := paymentResponse{
		ID:        p.ID,
		OrderID:   p.OrderID,
		Method:    p.Method,
		Amount:    numericToString(p.Amount),
		Status:    p.Status,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if p.ReferenceNumber.Valid {
		resp.ReferenceNumber = &p.ReferenceNumber.String
	}
	return resp
}

func numericToString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0.00"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0.00"
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return "0.00"
	}
	return d.StringFixed(2)
}
