package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sagara-pos/api/internal/database"
)

// StockStore defines the database methods needed by stock handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type StockStore interface {
	ListStockEntries(ctx context.Context, storeID uuid.UUID) ([]database.StockEntry, error)
	GetStockEntry(ctx context.Context, arg database.GetStockEntryParams) (database.StockEntry, error)
	UpsertStockEntry(ctx context.Context, arg database.UpsertStockEntryParams) (database.StockEntry, error)
	SetStockQuantity(ctx context.Context, arg database.SetStockQuantityParams) (database.StockEntry, error)
}

// StockHandler handles stock level endpoints. Order-driven stock movement
// goes through the order service; these endpoints cover receiving deliveries
// and reading on-hand levels.
type StockHandler struct {
	store StockStore
}

// NewStockHandler creates a new StockHandler.
func NewStockHandler(store StockStore) *StockHandler {
	return &StockHandler{store: store}
}

// RegisterRoutes registers stock endpoints on the given Chi router.
// Expected to be mounted at /stores/{sid}/stock.
func (h *StockHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{productID}", h.Get)
	r.Post("/receive", h.Receive)
	r.Put("/{productID}", h.Adjust)
}

type receiveStockRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int32  `json:"quantity"`
	Tracked   bool   `json:"tracked"`
}

type stockEntryResponse struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int32     `json:"quantity"`
	Tracked   bool      `json:"tracked"`
	UpdatedAt time.Time `json:"updated_at"`
}

// List handles GET /stores/{sid}/stock.
func (h *StockHandler) List(w http.ResponseWriter, r *http.Request) {
	storeID, err := uuid.Parse(chi.URLParam(r, "sid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid store ID"})
		return
	}

	entries, err := h.store.ListStockEntries(r.Context(), storeID)
	if err != nil {
		log.Printf("ERROR: list stock entries: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]stockEntryResponse, len(entries))
	for i, e := range entries {
		resp[i] = toStockEntryResponse(e)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /stores/{sid}/stock/{productID}.
func (h *StockHandler) Get(w http.ResponseWriter, r *http.Request) {
	storeID, err := uuid.Parse(chi.URLParam(r, "sid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid store ID"})
		return
	}
	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product ID"})
		return
	}

	entry, err := h.store.GetStockEntry(r.Context(), database.GetStockEntryParams{
		StoreID:   storeID,
		ProductID: productID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "stock entry not found"})
			return
		}
		log.Printf("ERROR: get stock entry: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toStockEntryResponse(entry))
}

// Receive handles POST /stores/{sid}/stock/receive. It creates the entry on
// first delivery and adds to the on-hand quantity afterwards.
func (h *StockHandler) Receive(w http.ResponseWriter, r *http.Request) {
	storeID, err := uuid.Parse(chi.URLParam(r, "sid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid store ID"})
		return
	}

	var req receiveStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product_id"})
		return
	}
	if req.Quantity <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "quantity must be > 0"})
		return
	}

	entry, err := h.store.UpsertStockEntry(r.Context(), database.UpsertStockEntryParams{
		StoreID:   storeID,
		ProductID: productID,
		Quantity:  req.Quantity,
		Tracked:   req.Tracked,
	})
	if err != nil {
		log.Printf("ERROR: receive stock: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toStockEntryResponse(entry))
}

type adjustStockRequest struct {
	Quantity int32 `json:"quantity"`
}

// Adjust handles PUT /stores/{sid}/stock/{productID}, overwriting the on-hand
// quantity after a stocktake.
func (h *StockHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	storeID, err := uuid.Parse(chi.URLParam(r, "sid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid store ID"})
		return
	}
	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product ID"})
		return
	}

	var req adjustStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Quantity < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "quantity must be >= 0"})
		return
	}

	entry, err := h.store.SetStockQuantity(r.Context(), database.SetStockQuantityParams{
		StoreID:   storeID,
		ProductID: productID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "stock entry not found"})
			return
		}
		log.Printf("ERROR: adjust stock: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toStockEntryResponse(entry))
}

func toStockEntryResponse(e database.StockEntry) stockEntryResponse {
	return stockEntryResponse{
		ID:        e.ID,
		ProductID: e.ProductID,
		Quantity:  e.Quantity,
		Tracked:   e.Tracked,
		UpdatedAt: e.UpdatedAt,
	}
}
