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

// TableStore defines the database methods needed by dining table handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type TableStore interface {
	ListDiningTables(ctx context.Context, storeID uuid.UUID) ([]database.DiningTable, error)
	GetDiningTable(ctx context.Context, arg database.GetDiningTableParams) (database.DiningTable, error)
	CreateDiningTable(ctx context.Context, arg database.CreateDiningTableParams) (database.DiningTable, error)
}

// TableHandler handles dining table endpoints. Occupying and releasing tables
// happens through the order lifecycle, not here.
type TableHandler struct {
	store TableStore
}

// NewTableHandler creates a new TableHandler.
func NewTableHandler(store TableStore) *TableHandler {
	return &TableHandler{store: store}
}

// RegisterRoutes registers table endpoints on the given Chi router.
// Expected to be mounted at /stores/{sid}/tables.
func (h *TableHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/", h.Create)
}

type createTableRequest struct {
	Label string `json:"label"`
}

type tableResponse struct {
	ID             uuid.UUID `json:"id"`
	Label          string    `json:"label"`
	Status         string    `json:"status"`
	CurrentOrderID *string   `json:"current_order_id"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// List handles GET /stores/{sid}/tables.
func (h *TableHandler) List(w http.ResponseWriter, r *http.Request) {
	storeID, err := uuid.Parse(chi.URLParam(r, "sid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid store ID"})
		return
	}

	tables, err := h.store.ListDiningTables(r.Context(), storeID)
	if err != nil {
		log.Printf("ERROR: list tables: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]tableResponse, len(tables))
	for i, t := range tables {
		resp[i] = toTableResponse(t)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /stores/{sid}/tables/{id}.
func (h *TableHandler) Get(w http.ResponseWriter, r *http.Request) {
	storeID, err := uuid.Parse(chi.URLParam(r, "sid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid store ID"})
		return
	}
	tableID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}

	table, err := h.store.GetDiningTable(r.Context(), database.GetDiningTableParams{
		ID:      tableID,
		StoreID: storeID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "table not found"})
			return
		}
		log.Printf("ERROR: get table: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toTableResponse(table))
}

// Create handles POST /stores/{sid}/tables.
func (h *TableHandler) Create(w http.ResponseWriter, r *http.Request) {
	storeID, err := uuid.Parse(chi.URLParam(r, "sid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid store ID"})
		return
	}

	var req createTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Label == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "label is required"})
		return
	}

	table, err := h.store.CreateDiningTable(r.Context(), database.CreateDiningTableParams{
		StoreID: storeID,
		Label:   req.Label,
	})
	if err != nil {
		log.Printf("ERROR: create table: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusCreated, toTableResponse(table))
}

func toTableResponse(t database.DiningTable) tableResponse {
	resp := tableResponse{
		ID:        t.ID,
		Label:     t.Label,
		Status:    t.Status,
		UpdatedAt: t.UpdatedAt,
	}
	if t.CurrentOrderID.Valid {
		s := uuid.UUID(t.CurrentOrderID.Bytes).String()
		resp.CurrentOrderID = &s
	}
	return resp
}
