package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sagara-pos/api/internal/database"
	"github.com/sagara-pos/api/internal/enum"
	"github.com/sagara-pos/api/internal/ws"
	"github.com/shopspring/decimal"
)

// PaymentStore defines the database methods needed by payment handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type PaymentStore interface {
	GetOrder(ctx context.Context, arg database.GetOrderParams) (database.Order, error)
	CreatePayment(ctx context.Context, arg database.CreatePaymentParams) (database.Payment, error)
	GetPayment(ctx context.Context, arg database.GetPaymentParams) (database.Payment, error)
	SetPaymentStatus(ctx context.Context, arg database.SetPaymentStatusParams) (database.Payment, error)
	ListPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.Payment, error)
}

// PaymentHandler handles payment endpoints.
type PaymentHandler struct {
	store PaymentStore
	hub   *ws.Hub
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(store PaymentStore, hub *ws.Hub) *PaymentHandler {
	return &PaymentHandler{store: store, hub: hub}
}

// RegisterRoutes registers payment endpoints on the given Chi router.
// Expected to be mounted at /stores/{sid}/orders/{id}/payments.
func (h *PaymentHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Post("/{paymentID}/confirm", h.Confirm)
	r.Post("/{paymentID}/fail", h.Fail)
	r.Post("/{paymentID}/cancel", h.Cancel)
}

type createPaymentRequest struct {
	Method          string `json:"method"`
	Amount          string `json:"amount"`
	ReferenceNumber string `json:"reference_number"`
}

// Create handles POST /stores/{sid}/orders/{id}/payments. A payment starts
// PENDING; the amount defaults to the order total when omitted.
func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	storeID, orderID, ok := paymentPathIDs(w, r)
	if !ok {
		return
	}

	var req createPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if !isValidPaymentMethod(req.Method) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid method"})
		return
	}

	order, err := h.store.GetOrder(r.Context(), database.GetOrderParams{ID: orderID, StoreID: storeID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order for payment: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if enum.IsTerminalOrderStatus(order.Status) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "order is " + order.Status})
		return
	}

	amount := order.TotalAmount
	if req.Amount != "" {
		d, err := decimal.NewFromString(req.Amount)
		if err != nil || d.IsNegative() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid amount"})
			return
		}
		var n pgtype.Numeric
		_ = n.Scan(d.StringFixed(2))
		amount = n
	}

	refNum := pgtype.Text{}
	if req.ReferenceNumber != "" {
		refNum = pgtype.Text{String: req.ReferenceNumber, Valid: true}
	}

	payment, err := h.store.CreatePayment(r.Context(), database.CreatePaymentParams{
		OrderID:         orderID,
		Method:          req.Method,
		Amount:          amount,
		Status:          enum.PaymentStatusPending,
		ReferenceNumber: refNum,
	})
	if err != nil {
		log.Printf("ERROR: create payment: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.broadcast(storeID, "payment.created", payment)
	writeJSON(w, http.StatusCreated, dbPaymentToResponse(payment))
}

// List handles GET /stores/{sid}/orders/{id}/payments.
func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	storeID, orderID, ok := paymentPathIDs(w, r)
	if !ok {
		return
	}

	// Scope check: the order must belong to the store in the path.
	if _, err := h.store.GetOrder(r.Context(), database.GetOrderParams{ID: orderID, StoreID: storeID}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order for payments: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	payments, err := h.store.ListPaymentsByOrder(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: list payments: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]paymentResponse, len(payments))
	for i, p := range payments {
		resp[i] = dbPaymentToResponse(p)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Confirm handles POST .../payments/{paymentID}/confirm, settling a PENDING
// payment as COMPLETED.
func (h *PaymentHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.settle(w, r, enum.PaymentStatusCompleted, "payment.completed")
}

// Fail handles POST .../payments/{paymentID}/fail.
func (h *PaymentHandler) Fail(w http.ResponseWriter, r *http.Request) {
	h.settle(w, r, enum.PaymentStatusFailed, "payment.failed")
}

// Cancel handles POST .../payments/{paymentID}/cancel, voiding a PENDING
// payment without touching the order.
func (h *PaymentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.settle(w, r, enum.PaymentStatusCancelled, "payment.cancelled")
}

func (h *PaymentHandler) settle(w http.ResponseWriter, r *http.Request, status, eventType string) {
	storeID, orderID, ok := paymentPathIDs(w, r)
	if !ok {
		return
	}
	paymentID, err := uuid.Parse(chi.URLParam(r, "paymentID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payment ID"})
		return
	}

	// Resolve the payment through the order so a payment can never be settled
	// through another store's path.
	if _, err := h.store.GetOrder(r.Context(), database.GetOrderParams{ID: orderID, StoreID: storeID}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order for payment settle: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if _, err := h.store.GetPayment(r.Context(), database.GetPaymentParams{ID: paymentID, OrderID: orderID}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "payment not found"})
			return
		}
		log.Printf("ERROR: get payment: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	payment, err := h.store.SetPaymentStatus(r.Context(), database.SetPaymentStatusParams{
		ID:     paymentID,
		Status: status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// The guard in the UPDATE only matches PENDING payments.
			writeJSON(w, http.StatusConflict, map[string]string{"error": "payment is not pending"})
			return
		}
		log.Printf("ERROR: set payment status: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.broadcast(storeID, eventType, payment)
	writeJSON(w, http.StatusOK, dbPaymentToResponse(payment))
}

type paymentEventPayload struct {
	PaymentID uuid.UUID `json:"payment_id"`
	OrderID   uuid.UUID `json:"order_id"`
	Status    string    `json:"status"`
}

func (h *PaymentHandler) broadcast(storeID uuid.UUID, eventType string, p database.Payment) {
	if h.hub == nil {
		return
	}
	data, err := json.Marshal(paymentEventPayload{PaymentID: p.ID, OrderID: p.OrderID, Status: p.Status})
	if err != nil {
		return
	}
	h.hub.BroadcastToStore(storeID, ws.Event{Type: eventType, Payload: data})
}

func paymentPathIDs(w http.ResponseWriter, r *http.Request) (storeID, orderID uuid.UUID, ok bool) {
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

func isValidPaymentMethod(s string) bool {
	switch s {
	case enum.PaymentMethodCash, enum.PaymentMethodQRIS, enum.PaymentMethodTransfer:
		return true
	}
	return false
}
