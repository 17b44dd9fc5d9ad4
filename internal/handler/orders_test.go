package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sagara-pos/api/internal/auth"
	"github.com/sagara-pos/api/internal/database"
	"github.com/sagara-pos/api/internal/handler"
	"github.com/sagara-pos/api/internal/middleware"
	"github.com/sagara-pos/api/internal/service"
)

var errUnexpectedCall = errors.New("unexpected call")

// --- Mock OrderServicer ---

type mockOrderService struct {
	createFn      func(ctx context.Context, req service.CreateOrderRequest) (*service.OrderResult, error)
	editItemsFn   func(ctx context.Context, req service.EditOrderItemsRequest) (*service.OrderResult, error)
	addItemFn     func(ctx context.Context, req service.AddItemRequest) (database.OrderItem, error)
	updateItemFn  func(ctx context.Context, req service.UpdateItemRequest) (database.OrderItem, error)
	removeItemFn  func(ctx context.Context, req service.RemoveItemRequest) error
	openFn        func(ctx context.Context, storeID, orderID uuid.UUID) (database.Order, error)
	cancelFn      func(ctx context.Context, req service.CancelOrderRequest) (database.Order, error)
	completeFn    func(ctx context.Context, storeID, orderID uuid.UUID) (database.Order, error)
	deleteFn      func(ctx context.Context, storeID, orderID uuid.UUID) error
	assignTableFn func(ctx context.Context, storeID, orderID uuid.UUID, tableID string) (database.Order, error)
}

func (m *mockOrderService) CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.OrderResult, error) {
	if m.createFn != nil {
		return m.createFn(ctx, req)
	}
	return nil, errUnexpectedCall
}

func (m *mockOrderService) EditOrderItems(ctx context.Context, req service.EditOrderItemsRequest) (*service.OrderResult, error) {
	if m.editItemsFn != nil {
		return m.editItemsFn(ctx, req)
	}
	return nil, errUnexpectedCall
}

func (m *mockOrderService) AddItem(ctx context.Context, req service.AddItemRequest) (database.OrderItem, error) {
	if m.addItemFn != nil {
		return m.addItemFn(ctx, req)
	}
	return database.OrderItem{}, errUnexpectedCall
}

func (m *mockOrderService) UpdateItem(ctx context.Context, req service.UpdateItemRequest) (database.OrderItem, error) {
	if m.updateItemFn != nil {
		return m.updateItemFn(ctx, req)
	}
	return database.OrderItem{}, errUnexpectedCall
}

func (m *mockOrderService) RemoveItem(ctx context.Context, req service.RemoveItemRequest) error {
	if m.removeItemFn != nil {
		return m.removeItemFn(ctx, req)
	}
	return errUnexpectedCall
}

func (m *mockOrderService) OpenOrder(ctx context.Context, storeID, orderID uuid.UUID) (database.Order, error) {
	if m.openFn != nil {
		return m.openFn(ctx, storeID, orderID)
	}
	return database.Order{}, errUnexpectedCall
}

func (m *mockOrderService) CancelOrder(ctx context.Context, req service.CancelOrderRequest) (database.Order, error) {
	if m.cancelFn != nil {
		return m.cancelFn(ctx, req)
	}
	return database.Order{}, errUnexpectedCall
}

func (m *mockOrderService) CompleteOrder(ctx context.Context, storeID, orderID uuid.UUID) (database.Order, error) {
	if m.completeFn != nil {
		return m.completeFn(ctx, storeID, orderID)
	}
	return database.Order{}, errUnexpectedCall
}

func (m *mockOrderService) DeleteOrder(ctx context.Context, storeID, orderID uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, storeID, orderID)
	}
	return errUnexpectedCall
}

func (m *mockOrderService) AssignTable(ctx context.Context, storeID, orderID uuid.UUID, tableID string) (database.Order, error) {
	if m.assignTableFn != nil {
		return m.assignTableFn(ctx, storeID, orderID, tableID)
	}
	return database.Order{}, errUnexpectedCall
}

// --- Mock OrderStore ---

type mockOrderReadStore struct {
	getOrderFn              func(ctx context.Context, arg database.GetOrderParams) (database.Order, error)
	listOrdersFn            func(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	listOrderItemsByOrderFn func(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	listPaymentsByOrderFn   func(ctx context.Context, orderID uuid.UUID) ([]database.Payment, error)
}

func (m *mockOrderReadStore) GetOrder(ctx context.Context, arg database.GetOrderParams) (database.Order, error) {
	if m.getOrderFn != nil {
		return m.getOrderFn(ctx, arg)
	}
	return database.Order{}, pgx.ErrNoRows
}

func (m *mockOrderReadStore) ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error) {
	if m.listOrdersFn != nil {
		return m.listOrdersFn(ctx, arg)
	}
	return []database.Order{}, nil
}

func (m *mockOrderReadStore) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error) {
	if m.listOrderItemsByOrderFn != nil {
		return m.listOrderItemsByOrderFn(ctx, orderID)
	}
	return []database.OrderItem{}, nil
}

func (m *mockOrderReadStore) ListPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.Payment, error) {
	if m.listPaymentsByOrderFn != nil {
		return m.listPaymentsByOrderFn(ctx, orderID)
	}
	return []database.Payment{}, nil
}

// --- Test helpers ---

const testJWTSecret = "test-secret-for-orders"

func testNumeric(s string) pgtype.Numeric {
	var n pgtype.Numeric
	if err := n.Scan(s); err != nil {
		panic(err)
	}
	return n
}

func testClaims(storeID uuid.UUID) *auth.Claims {
	return &auth.Claims{
		UserID:  uuid.New(),
		StoreID: storeID,
		Role:    "CASHIER",
	}
}

func setupOrderRouter(svc *mockOrderService, store *mockOrderReadStore) *chi.Mux {
	h := handler.NewOrderHandler(svc, store, nil)
	r := chi.NewRouter()
	r.Use(middleware.Authenticate(testJWTSecret))
	r.Route("/stores/{sid}", func(r chi.Router) {
		r.Use(middleware.RequireStore)
		r.Route("/orders", h.RegisterRoutes)
	})
	return r
}

func doAuthRequest(t *testing.T, router http.Handler, method, path string, body interface{}, claims *auth.Claims) *httptest.ResponseRecorder {
	t.Helper()

	token, err := auth.GenerateToken(testJWTSecret, claims.UserID, claims.StoreID, claims.Role)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func testOrder(storeID, userID uuid.UUID, status string) database.Order {
	now := time.Now()
	return database.Order{
		ID:             uuid.New(),
		StoreID:        storeID,
		OrderNumber:    "SGR-001",
		Status:         status,
		OperationMode:  "DINE_IN",
		Subtotal:       testNumeric("50000.00"),
		DiscountAmount: testNumeric("0.00"),
		TaxAmount:      testNumeric("0.00"),
		ServiceCharge:  testNumeric("0.00"),
		TotalAmount:    testNumeric("50000.00"),
		CreatedBy:      userID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func testOrderResult(storeID, userID uuid.UUID) *service.OrderResult {
	order := testOrder(storeID, userID, "DRAFT")
	return &service.OrderResult{
		Order: order,
		Items: []database.OrderItem{
			{
				ID:             uuid.New(),
				OrderID:        order.ID,
				ProductID:      uuid.New(),
				ProductName:    "Nasi Goreng Sagara",
				ProductSku:     "NSG-01",
				Quantity:       2,
				UnitPrice:      testNumeric("25000.00"),
				LineTotal:      testNumeric("50000.00"),
				TrackInventory: true,
			},
		},
	}
}

// --- Tests ---

func TestOrderCreate_HappyPath(t *testing.T) {
	storeID := uuid.New()
	claims := testClaims(storeID)

	svc := &mockOrderService{
		createFn: func(ctx context.Context, req service.CreateOrderRequest) (*service.OrderResult, error) {
			if req.StoreID != storeID {
				t.Errorf("store_id: got %v, want %v", req.StoreID, storeID)
			}
			if req.CreatedBy != claims.UserID {
				t.Errorf("created_by: got %v, want %v", req.CreatedBy, claims.UserID)
			}
			if req.OperationMode != "DINE_IN" {
				t.Errorf("operation_mode: got %v, want DINE_IN", req.OperationMode)
			}
			if !req.DeductInventory {
				t.Error("deduct_inventory flag not passed through")
			}
			if len(req.Items) != 1 {
				t.Errorf("items count: got %d, want 1", len(req.Items))
			}
			return testOrderResult(storeID, claims.UserID), nil
		},
	}

	router := setupOrderRouter(svc, &mockOrderReadStore{})
	rr := doAuthRequest(t, router, "POST", "/stores/"+storeID.String()+"/orders/", map[string]interface{}{
		"operation_mode":   "DINE_IN",
		"deduct_inventory": true,
		"items": []map[string]interface{}{
			{"product_id": uuid.New().String(), "quantity": 2},
		},
	}, claims)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["order_number"] != "SGR-001" {
		t.Errorf("order_number: got %v, want SGR-001", resp["order_number"])
	}
	if resp["status"] != "DRAFT" {
		t.Errorf("status: got %v, want DRAFT", resp["status"])
	}
	if resp["total_amount"] != "50000.00" {
		t.Errorf("total_amount: got %v, want 50000.00", resp["total_amount"])
	}

	items, ok := resp["items"].([]interface{})
	if !ok {
		t.Fatal("items not present in response")
	}
	if len(items) != 1 {
		t.Fatalf("items count: got %d, want 1", len(items))
	}
	item := items[0].(map[string]interface{})
	if item["quantity"] != float64(2) {
		t.Errorf("item quantity: got %v, want 2", item["quantity"])
	}
	if item["unit_price"] != "25000.00" {
		t.Errorf("item unit_price: got %v, want 25000.00", item["unit_price"])
	}
	if item["product_name"] != "Nasi Goreng Sagara" {
		t.Errorf("item product_name: got %v", item["product_name"])
	}
}

func TestOrderCreate_MissingOperationMode(t *testing.T) {
	storeID := uuid.New()
	claims := testClaims(storeID)

	router := setupOrderRouter(&mockOrderService{}, &mockOrderReadStore{})
	rr := doAuthRequest(t, router, "POST", "/stores/"+storeID.String()+"/orders/", map[string]interface{}{
		"items": []map[string]interface{}{
			{"product_id": uuid.New().String(), "quantity": 1},
		},
	}, claims)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusBadRequest, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["error"] != "operation_mode is required" {
		t.Errorf("error: got %v, want 'operation_mode is required'", resp["error"])
	}
}

func TestOrderCreate_ItemMissingProductID(t *testing.T) {
	storeID := uuid.New()
	claims := testClaims(storeID)

	router := setupOrderRouter(&mockOrderService{}, &mockOrderReadStore{})
	rr := doAuthRequest(t, router, "POST", "/stores/"+storeID.String()+"/orders/", map[string]interface{}{
		"operation_mode": "TAKEAWAY",
		"items": []map[string]interface{}{
			{"quantity": 1},
		},
	}, claims)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	resp := decodeResponse(t, rr)
	if resp["error"] != "items[0]: product_id is required" {
		t.Errorf("error: got %v", resp["error"])
	}
}

func TestOrderCreate_InsufficientStockConflict(t *testing.T) {
	storeID := uuid.New()
	claims := testClaims(storeID)

	svc := &mockOrderService{
		createFn: func(ctx context.Context, req service.CreateOrderRequest) (*service.OrderResult, error) {
			return nil, &service.InsufficientStockError{
				ProductID:   uuid.New(),
				ProductName: "Kopi Susu Gula Aren",
				Requested:   5,
				Available:   2,
			}
		},
	}

	router := setupOrderRouter(svc, &mockOrderReadStore{})
	rr := doAuthRequest(t, router, "POST", "/stores/"+storeID.String()+"/orders/", map[string]interface{}{
		"operation_mode":   "TAKEAWAY",
		"deduct_inventory": true,
		"items": []map[string]interface{}{
			{"product_id": uuid.New().String(), "quantity": 5},
		},
	}, claims)

	if rr.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusConflict, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["error"] != "insufficient stock for Kopi Susu Gula Aren: requested 5, available 2" {
		t.Errorf("error: got %v", resp["error"])
	}
}

func TestOrderCreate_TableUnavailableConflict(t *testing.T) {
	storeID := uuid.New()
	claims := testClaims(storeID)

	svc := &mockOrderService{
		createFn: func(ctx context.Context, req service.CreateOrderRequest) (*service.OrderResult, error) {
			return nil, service.ErrTableUnavailable
		},
	}

	router := setupOrderRouter(svc, &mockOrderReadStore{})
	rr := doAuthRequest(t, router, "POST", "/stores/"+storeID.String()+"/orders/", map[string]interface{}{
		"operation_mode": "DINE_IN",
		"table_id":       uuid.New().String(),
	}, claims)

	if rr.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
}

func TestOrderCreate_ServiceValidationError(t *testing.T) {
	storeID := uuid.New()
	claims := testClaims(storeID)

	svc := &mockOrderService{
		createFn: func(ctx context.Context, req service.CreateOrderRequest) (*service.OrderResult, error) {
			return nil, service.ErrInvalidDiscount
		},
	}

	router := setupOrderRouter(svc, &mockOrderReadStore{})
	rr := doAuthRequest(t, router, "POST", "/stores/"+storeID.String()+"/orders/", map[string]interface{}{
		"operation_mode": "TAKEAWAY",
		"discount_type":  "BOGUS",
	}, claims)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestOrderGet_HappyPath(t *testing.T) {
	storeID := uuid.New()
	claims := testClaims(storeID)
	order := testOrder(storeID, claims.UserID, "OPEN")

	store := &mockOrderReadStore{
		getOrderFn: func(ctx context.Context, arg database.GetOrderParams) (database.Order, error) {
			if arg.ID != order.ID || arg.StoreID != storeID {
				t.Errorf("get order scoping: got %v/%v", arg.ID, arg.StoreID)
			}
			return order, nil
		},
		listOrderItemsByOrderFn: func(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error) {
			return []database.OrderItem{
				{ID: uuid.New(), OrderID: orderID, ProductID: uuid.New(), ProductName: "Americano",
					Quantity: 1, UnitPrice: testNumeric("20000.00"), LineTotal: testNumeric("20000.00")},
			}, nil
		},
		listPaymentsByOrderFn: func(ctx context.Context, orderID uuid.UUID) ([]database.Payment, error) {
			return []database.Payment{
				{ID: uuid.New(), OrderID: orderID, Method: "CASH",
					Amount: testNumeric("20000.00"), Status: "PENDING"},
			}, nil
		},
	}

	router := setupOrderRouter(&mockOrderService{}, store)
	rr := doAuthRequest(t, router, "GET", "/stores/"+storeID.String()+"/orders/"+order.ID.String(), nil, claims)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["order_number"] != "SGR-001" {
		t.Errorf("order_number: got %v", resp["order_number"])
	}
	payments, ok := resp["payments"].([]interface{})
	if !ok || len(payments) != 1 {
		t.Fatalf("payments: got %v, want 1 entry", resp["payments"])
	}
	payment := payments[0].(map[string]interface{})
	if payment["method"] != "CASH" {
		t.Errorf("payment method: got %v", payment["method"])
	}
}

func TestOrderGet_NotFound(t *testing.T) {
	storeID := uuid.New()
	claims := testClaims(storeID)

	router := setupOrderRouter(&mockOrderService{}, &mockOrderReadStore{})
	rr := doAuthRequest(t, router, "GET", "/stores/"+storeID.String()+"/orders/"+uuid.New().String(), nil, claims)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestOrderList_PaginationDefaults(t *testing.T) {
	storeID := uuid.New()
	claims := testClaims(storeID)

	store := &mockOrderReadStore{
		listOrdersFn: func(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error) {
			if arg.Limit != 20 {
				t.Errorf("limit: got %d, want 20", arg.Limit)
			}
			if arg.Offset != 0 {
				t.Errorf("offset: got %d, want 0", arg.Offset)
			}
			if arg.Status.Valid {
				t.Error("status filter should be null when not requested")
			}
			return []database.Order{testOrder(storeID, claims.UserID, "OPEN")}, nil
		},
	}

	router := setupOrderRouter(&mockOrderService{}, store)
	rr := doAuthRequest(t, router, "GET", "/stores/"+storeID.String()+"/orders/", nil, claims)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d; body: %s", rr.Code, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["limit"] != float64(20) {
		t.Errorf("limit: got %v, want 20", resp["limit"])
	}
	orders := resp["orders"].([]interface{})
	if len(orders) != 1 {
		t.Fatalf("orders count: got %d, want 1", len(orders))
	}
}

func TestOrderList_StatusFilterAndCap(t *testing.T) {
	storeID := uuid.New()
	claims := testClaims(storeID)

	store := &mockOrderReadStore{
		listOrdersFn: func(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error) {
			if arg.Limit != 100 {
				t.Errorf("limit: got %d, want capped at 100", arg.Limit)
			}
			if !arg.Status.Valid || arg.Status.String != "OPEN" {
				t.Errorf("status filter: got %+v, want OPEN", arg.Status)
			}
			return nil, nil
		},
	}

	router := setupOrderRouter(&mockOrderService{}, store)
	rr := doAuthRequest(t, router, "GET", "/stores/"+storeID.String()+"/orders/?limit=500&status=OPEN", nil, claims)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d; body: %s", rr.Code, rr.Body.String())
	}
}

func TestOrderEditItems_FlagsPassedThrough(t *testing.T) {
	storeID := uuid.New()
	claims := testClaims(storeID)
	orderID := uuid.New()

	svc := &mockOrderService{
		editItemsFn: func(ctx context.Context, req service.EditOrderItemsRequest) (*service.OrderResult, error) {
			if req.OrderID != orderID {
				t.Errorf("order_id: got %v, want %v", req.OrderID, orderID)
			}
			if !req.ApplyInventoryEffect {
				t.Error("apply_inventory_effect flag not passed through")
			}
			if len(req.Items) != 2 {
				t.Errorf("items count: got %d, want 2", len(req.Items))
			}
			return testOrderResult(storeID, claims.UserID), nil
		},
	}

	router := setupOrderRouter(svc, &mockOrderReadStore{})
	rr := doAuthRequest(t, router, "PUT", "/stores/"+storeID.String()+"/orders/"+orderID.String()+"/items", map[string]interface{}{
		"apply_inventory_effect": true,
		"items": []map[string]interface{}{
			{"product_id": uuid.New().String(), "quantity": 1},
			{"product_id": uuid.New().String(), "quantity": 3},
		},
	}, claims)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d; body: %s", rr.Code, rr.Body.String())
	}
}

func TestOrderEditItems_CompletedOrderConflict(t *testing.T) {
	storeID := uuid.New()
	claims := testClaims(storeID)

	svc := &mockOrderService{
		editItemsFn: func(ctx context.Context, req service.EditOrderItemsRequest) (*service.OrderResult, error) {
			return nil, service.ErrOrderNotModifiable
		},
	}

	router := setupOrderRouter(svc, &mockOrderReadStore{})
	rr := doAuthRequest(t, router, "PUT", "/stores/"+storeID.String()+"/orders/"+uuid.New().String()+"/items", map[string]interface{}{
		"items": []map[string]interface{}{
			{"product_id": uuid.New().String(), "quantity": 1},
		},
	}, claims)

	if rr.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
}

func TestOrderAddItem_HappyPath(t *testing.T) {
	storeID := uuid.New()
	claims := testClaims(storeID)
	orderID := uuid.New()
	productID := uuid.New()

	svc := &mockOrderService{
		addItemFn: func(ctx context.Context, req service.AddItemRequest) (database.OrderItem, error) {
			if req.Item.ProductID != productID.String() {
				t.Errorf("product_id: got %v", req.Item.ProductID)
			}
			return database.OrderItem{
				ID:        uuid.New(),
				OrderID:   orderID,
				ProductID: productID,
				Quantity:  3,
				UnitPrice: testNumeric("25000.00"),
				LineTotal: testNumeric("75000.00"),
			}, nil
		},
	}

	router := setupOrderRouter(svc, &mockOrderReadStore{})
	rr := doAuthRequest(t, router, "POST", "/stores/"+storeID.String()+"/orders/"+orderID.String()+"/items", map[string]interface{}{
		"product_id": productID.String(),
		"quantity":   3,
	}, claims)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d; body: %s", rr.Code, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["line_total"] != "75000.00" {
		t.Errorf("line_total: got %v, want 75000.00", resp["line_total"])
	}
}

func TestOrderUpdateItem_NotFound(t *testing.T) {
	storeID := uuid.New()
	claims := testClaims(storeID)

	svc := &mockOrderService{
		updateItemFn: func(ctx context.Context, req service.UpdateItemRequest) (database.OrderItem, error) {
			return database.OrderItem{}, service.ErrItemNotFound
		},
	}

	router := setupOrderRouter(svc, &mockOrderReadStore{})
	rr := doAuthRequest(t, router, "PATCH",
		"/stores/"+storeID.String()+"/orders/"+uuid.New().String()+"/items/"+uuid.New().String(),
		map[string]interface{}{"quantity": 2}, claims)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestOrderRemoveItem_RestockFlag(t *testing.T) {
	storeID := uuid.New()
	claims := testClaims(storeID)
	orderID := uuid.New()
	itemID := uuid.New()

	svc := &mockOrderService{
		removeItemFn: func(ctx context.Context, req service.RemoveItemRequest) error {
			if req.ItemID != itemID {
				t.Errorf("item_id: got %v, want %v", req.ItemID, itemID)
			}
			if !req.ApplyInventoryEffect {
				t.Error("restock=true should set the inventory effect flag")
			}
			return nil
		},
	}

	router := setupOrderRouter(svc, &mockOrderReadStore{})
	rr := doAuthRequest(t, router, "DELETE",
		"/stores/"+storeID.String()+"/orders/"+orderID.String()+"/items/"+itemID.String()+"?restock=true",
		nil, claims)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusNoContent, rr.Body.String())
	}
}

func TestOrderOpen_HappyPath(t *testing.T) {
	storeID := uuid.New()
	claims := testClaims(storeID)

	svc := &mockOrderService{
		openFn: func(ctx context.Context, sid, oid uuid.UUID) (database.Order, error) {
			return testOrder(storeID, claims.UserID, "OPEN"), nil
		},
	}

	router := setupOrderRouter(svc, &mockOrderReadStore{})
	rr := doAuthRequest(t, router, "POST",
		"/stores/"+storeID.String()+"/orders/"+uuid.New().String()+"/open", nil, claims)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d; body: %s", rr.Code, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["status"] != "OPEN" {
		t.Errorf("status: got %v, want OPEN", resp["status"])
	}
}

func TestOrderComplete_EmptyOrderConflict(t *testing.T) {
	storeID := uuid.New()
	claims := testClaims(storeID)

	svc := &mockOrderService{
		completeFn: func(ctx context.Context, sid, oid uuid.UUID) (database.Order, error) {
			return database.Order{}, service.ErrEmptyOrder
		},
	}

	router := setupOrderRouter(svc, &mockOrderReadStore{})
	rr := doAuthRequest(t, router, "POST",
		"/stores/"+storeID.String()+"/orders/"+uuid.New().String()+"/complete", nil, claims)

	if rr.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
	resp := decodeResponse(t, rr)
	if resp["error"] != "order has no items" {
		t.Errorf("error: got %v", resp["error"])
	}
}

func TestOrderCancel_BodyPassedThrough(t *testing.T) {
	storeID := uuid.New()
	claims := testClaims(storeID)
	orderID := uuid.New()

	svc := &mockOrderService{
		cancelFn: func(ctx context.Context, req service.CancelOrderRequest) (database.Order, error) {
			if !req.RestoreInventory {
				t.Error("restore_inventory flag not passed through")
			}
			if req.Reason != "customer walked out" {
				t.Errorf("reason: got %q", req.Reason)
			}
			return testOrder(storeID, claims.UserID, "CANCELLED"), nil
		},
	}

	router := setupOrderRouter(svc, &mockOrderReadStore{})
	rr := doAuthRequest(t, router, "POST",
		"/stores/"+storeID.String()+"/orders/"+orderID.String()+"/cancel", map[string]interface{}{
			"restore_inventory": true,
			"reason":            "customer walked out",
		}, claims)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d; body: %s", rr.Code, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["status"] != "CANCELLED" {
		t.Errorf("status: got %v, want CANCELLED", resp["status"])
	}
}

func TestOrderCancel_EmptyBodyAllowed(t *testing.T) {
	storeID := uuid.New()
	claims := testClaims(storeID)

	svc := &mockOrderService{
		cancelFn: func(ctx context.Context, req service.CancelOrderRequest) (database.Order, error) {
			if req.RestoreInventory {
				t.Error("restore_inventory should default to false")
			}
			return testOrder(storeID, claims.UserID, "CANCELLED"), nil
		},
	}

	router := setupOrderRouter(svc, &mockOrderReadStore{})
	rr := doAuthRequest(t, router, "POST",
		"/stores/"+storeID.String()+"/orders/"+uuid.New().String()+"/cancel", nil, claims)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d; body: %s", rr.Code, rr.Body.String())
	}
}

func TestOrderCancel_CompletedPaymentConflict(t *testing.T) {
	storeID := uuid.New()
	claims := testClaims(storeID)

	svc := &mockOrderService{
		cancelFn: func(ctx context.Context, req service.CancelOrderRequest) (database.Order, error) {
			return database.Order{}, service.ErrHasCompletedPayment
		},
	}

	router := setupOrderRouter(svc, &mockOrderReadStore{})
	rr := doAuthRequest(t, router, "POST",
		"/stores/"+storeID.String()+"/orders/"+uuid.New().String()+"/cancel", nil, claims)

	if rr.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
}

func TestOrderDelete_HappyPath(t *testing.T) {
	storeID := uuid.New()
	claims := testClaims(storeID)
	orderID := uuid.New()

	var deleted bool
	svc := &mockOrderService{
		deleteFn: func(ctx context.Context, sid, oid uuid.UUID) error {
			if oid != orderID {
				t.Errorf("order_id: got %v, want %v", oid, orderID)
			}
			deleted = true
			return nil
		},
	}

	router := setupOrderRouter(svc, &mockOrderReadStore{})
	rr := doAuthRequest(t, router, "DELETE",
		"/stores/"+storeID.String()+"/orders/"+orderID.String(), nil, claims)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusNoContent, rr.Body.String())
	}
	if !deleted {
		t.Error("delete was not invoked")
	}
}

func TestOrderDelete_TerminalConflict(t *testing.T) {
	storeID := uuid.New()
	claims := testClaims(storeID)

	svc := &mockOrderService{
		deleteFn: func(ctx context.Context, sid, oid uuid.UUID) error {
			return service.ErrOrderNotModifiable
		},
	}

	router := setupOrderRouter(svc, &mockOrderReadStore{})
	rr := doAuthRequest(t, router, "DELETE",
		"/stores/"+storeID.String()+"/orders/"+uuid.New().String(), nil, claims)

	if rr.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
}

func TestOrderAssignTable_HappyPath(t *testing.T) {
	storeID := uuid.New()
	claims := testClaims(storeID)
	tableID := uuid.New()

	svc := &mockOrderService{
		assignTableFn: func(ctx context.Context, sid, oid uuid.UUID, tid string) (database.Order, error) {
			if tid != tableID.String() {
				t.Errorf("table_id: got %v, want %v", tid, tableID)
			}
			order := testOrder(storeID, claims.UserID, "OPEN")
			order.TableID = pgtype.UUID{Bytes: tableID, Valid: true}
			return order, nil
		},
	}

	router := setupOrderRouter(svc, &mockOrderReadStore{})
	rr := doAuthRequest(t, router, "PATCH",
		"/stores/"+storeID.String()+"/orders/"+uuid.New().String()+"/table", map[string]interface{}{
			"table_id": tableID.String(),
		}, claims)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d; body: %s", rr.Code, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["table_id"] != tableID.String() {
		t.Errorf("table_id: got %v, want %v", resp["table_id"], tableID)
	}
}

func TestOrderRoutes_RequireAuth(t *testing.T) {
	storeID := uuid.New()
	router := setupOrderRouter(&mockOrderService{}, &mockOrderReadStore{})

	req := httptest.NewRequest("GET", "/stores/"+storeID.String()+"/orders/", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestOrderRoutes_RejectForeignStore(t *testing.T) {
	storeID := uuid.New()
	otherStore := uuid.New()
	claims := testClaims(otherStore)

	router := setupOrderRouter(&mockOrderService{}, &mockOrderReadStore{})
	rr := doAuthRequest(t, router, "GET", "/stores/"+storeID.String()+"/orders/", nil, claims)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusForbidden)
	}
}
