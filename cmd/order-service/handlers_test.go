package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/mvergara-dev/shop-services/internal/httpx"
	ord "github.com/mvergara-dev/shop-services/internal/order"
)

//
// ---------- STUBS & FAKES ----------
//

// stubRepo implements ord.Repository in memory.
type stubRepo struct {
	lastOrder *ord.Order
	createErr error
}

func (s *stubRepo) Create(ctx context.Context, o *ord.Order) error {
	if s.createErr != nil {
		return s.createErr
	}
	cp := *o
	cp.CreatedAt = time.Now().UTC()
	cp.UpdatedAt = cp.CreatedAt
	s.lastOrder = &cp
	return nil
}

func (s *stubRepo) FindByIDAndOwner(ctx context.Context, id, ownerID string) (*ord.Order, error) {
	if s.lastOrder == nil || s.lastOrder.ID != id || s.lastOrder.UserID != ownerID {
		return nil, ord.ErrNotFound
	}
	cp := *s.lastOrder
	return &cp, nil
}

func (s *stubRepo) Update(ctx context.Context, o *ord.Order) error {
	if s.lastOrder == nil || s.lastOrder.ID != o.ID || s.lastOrder.UserID != o.UserID {
		return ord.ErrNotFound
	}
	s.lastOrder.Status = o.Status
	return nil
}

func (s *stubRepo) ListByOwner(ctx context.Context, ownerID string, f ord.ListFilter) ([]ord.Order, int, error) {
	if s.lastOrder != nil && s.lastOrder.UserID == ownerID {
		return []ord.Order{*s.lastOrder}, 1, nil
	}
	return []ord.Order{}, 0, nil
}

// productState serves GET/PUT /api/products/:id plus the availability probe,
// keeping stock in memory.
type productState struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Price  string `json:"price"`
	Stock  int    `json:"stock"`
	Status string `json:"status"`
}

func newProductServer(t *testing.T, initial productState) (*httptest.Server, *productState) {
	t.Helper()
	state := &productState{
		ID:     initial.ID,
		Name:   ifEmpty(initial.Name, "TestProd"),
		Price:  ifEmpty(initial.Price, "10.00"),
		Stock:  initial.Stock,
		Status: ifEmpty(initial.Status, "active"),
	}
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/api/products/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/availability") {
			if path.Base(path.Dir(r.URL.Path)) != state.ID {
				http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
				return
			}
			qty, _ := strconv.Atoi(r.URL.Query().Get("quantity"))
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"available":          state.Stock >= qty && state.Status == "active",
				"product_id":         state.ID,
				"stock":              state.Stock,
				"requested_quantity": qty,
			})
			return
		}

		if path.Base(r.URL.Path) != state.ID {
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		}
		switch r.Method {
		case http.MethodGet:
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(state)
		case http.MethodPut:
			var body struct {
				Stock *int `json:"stock"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Stock == nil {
				http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
				return
			}
			if *body.Stock < 0 {
				http.Error(w, `{"error":"stock must be non-negative"}`, http.StatusBadRequest)
				return
			}
			state.Stock = *body.Stock
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(state)
		default:
			http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, state
}

func ifEmpty(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// authAs replaces the real bearer-token middleware in tests.
func authAs(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(httpx.UserIDKey, userID)
		c.Next()
	}
}

func newTestRouter(repo ord.Repository, productBaseURL, userID string) *gin.Engine {
	log := logrus.New()
	log.SetOutput(io.Discard)

	gw := ord.NewHTTPGateway(productBaseURL)
	gw.HTTP = &http.Client{Timeout: 2 * time.Second}
	svc := ord.NewService(repo, gw, log)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api/orders", authAs(userID))
	api.POST("", createOrderHandler(svc))
	api.GET("", listOrdersHandler(svc))
	api.GET("/:id", getOrderHandler(svc))
	api.PUT("/:id/status", updateOrderStatusHandler(svc))
	api.POST("/:id/cancel", cancelOrderHandler(svc))
	return r
}

func seedOrder(repo *stubRepo, userID, productID string, qty int, status ord.Status) *ord.Order {
	price := decimal.RequireFromString("10.00")
	sub := price.Mul(decimal.NewFromInt(int64(qty)))
	o := &ord.Order{
		ID:     uuid.NewString(),
		UserID: userID,
		Status: status,
		Items: []ord.LineItem{{
			ProductID:   productID,
			ProductName: "TestProd",
			UnitPrice:   price,
			Quantity:    qty,
			Subtotal:    sub,
		}},
		TotalAmount: sub,
	}
	repo.lastOrder = o
	return o
}

//
// ---------- TESTS ----------
//

func TestCreateOrder_HappyPath(t *testing.T) {
	t.Parallel()

	prodID := uuid.NewString()
	psrv, pstate := newProductServer(t, productState{ID: prodID, Price: "15.00", Stock: 5})

	repo := &stubRepo{}
	userID := uuid.NewString()
	r := newTestRouter(repo, psrv.URL, userID)

	// 2 units => stock goes down
	body := fmt.Sprintf(`{"items":[{"product_id":%q,"quantity":2}]}`, prodID)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if repo.lastOrder == nil || len(repo.lastOrder.Items) != 1 {
		t.Fatalf("order/items not persisted")
	}
	if got := repo.lastOrder.TotalAmount; !got.Equal(decimal.RequireFromString("30.00")) {
		t.Fatalf("total=%s, expected 30.00", got)
	}
	if repo.lastOrder.Status != ord.StatusPending {
		t.Fatalf("status=%s, expected pending", repo.lastOrder.Status)
	}
	if pstate.Stock != 3 {
		t.Fatalf("stock expected=3, got=%d", pstate.Stock)
	}
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	t.Parallel()

	prodID := uuid.NewString()
	psrv, pstate := newProductServer(t, productState{ID: prodID, Price: "10.00", Stock: 1})

	repo := &stubRepo{}
	r := newTestRouter(repo, psrv.URL, uuid.NewString())

	body := fmt.Sprintf(`{"items":[{"product_id":%q,"quantity":2}]}`, prodID)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("status=%d body=%s (expected 409)", w.Code, w.Body.String())
	}
	var resp struct {
		ProductID         string `json:"product_id"`
		AvailableStock    int    `json:"available_stock"`
		RequestedQuantity int    `json:"requested_quantity"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.ProductID != prodID || resp.AvailableStock != 1 || resp.RequestedQuantity != 2 {
		t.Fatalf("unexpected error payload: %+v", resp)
	}
	if repo.lastOrder != nil {
		t.Fatalf("no order may be persisted on unavailability")
	}
	if pstate.Stock != 1 {
		t.Fatalf("stock must not change, got %d", pstate.Stock)
	}
}

func TestCreateOrder_EmptyItems(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{}
	r := newTestRouter(repo, "http://unused", uuid.NewString())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewBufferString(`{"items":[]}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s (expected 400)", w.Code, w.Body.String())
	}
}

func TestGetOrder_NotFound(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{}
	r := newTestRouter(repo, "http://unused", uuid.NewString())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/orders/"+uuid.NewString(), nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d body=%s (expected 404)", w.Code, w.Body.String())
	}
}

func TestGetOrder_OwnershipMasked(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{}
	owner := uuid.NewString()
	o := seedOrder(repo, owner, uuid.NewString(), 1, ord.StatusPending)

	// request as a DIFFERENT user: must look exactly like nonexistence
	r := newTestRouter(repo, "http://unused", uuid.NewString())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/orders/"+o.ID, nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d body=%s (expected 404 for foreign order)", w.Code, w.Body.String())
	}
}

func TestListOrders_OK(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{}
	userID := uuid.NewString()
	seedOrder(repo, userID, uuid.NewString(), 2, ord.StatusPending)
	r := newTestRouter(repo, "http://unused", userID)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/orders?page=1&limit=10", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s (expected 200)", w.Code, w.Body.String())
	}
	var got struct {
		Orders     []ord.Order `json:"orders"`
		Pagination struct {
			Page  int `json:"page"`
			Limit int `json:"limit"`
			Total int `json:"total"`
			Pages int `json:"pages"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(got.Orders) != 1 || got.Pagination.Total != 1 || got.Pagination.Pages != 1 {
		t.Fatalf("unexpected listing: %s", w.Body.String())
	}
}

func TestCancelOrder_PendingRestocks(t *testing.T) {
	t.Parallel()

	prodID := uuid.NewString()
	// initial stock 3; the order holds qty=2 -> after cancel it must be 5
	psrv, pstate := newProductServer(t, productState{ID: prodID, Price: "10.00", Stock: 3})

	repo := &stubRepo{}
	userID := uuid.NewString()
	o := seedOrder(repo, userID, prodID, 2, ord.StatusPending)
	r := newTestRouter(repo, psrv.URL, userID)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/orders/"+o.ID+"/cancel", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s (expected 200)", w.Code, w.Body.String())
	}
	if pstate.Stock != 5 {
		t.Fatalf("restock failed: stock=%d, expected=5", pstate.Stock)
	}
	if repo.lastOrder.Status != ord.StatusCancelled {
		t.Fatalf("final status=%s, expected cancelled", repo.lastOrder.Status)
	}
}

func TestCancelOrder_RestockFailureStillCancels(t *testing.T) {
	t.Parallel()

	// product server knows nothing about this product -> restore fails
	psrv, _ := newProductServer(t, productState{ID: uuid.NewString(), Stock: 3})

	repo := &stubRepo{}
	userID := uuid.NewString()
	o := seedOrder(repo, userID, uuid.NewString(), 2, ord.StatusPending)
	r := newTestRouter(repo, psrv.URL, userID)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/orders/"+o.ID+"/cancel", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s (restore failure must not fail the cancel)", w.Code, w.Body.String())
	}
	if repo.lastOrder.Status != ord.StatusCancelled {
		t.Fatalf("final status=%s, expected cancelled", repo.lastOrder.Status)
	}
}

func TestCancelOrder_AlreadyCancelled(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{}
	userID := uuid.NewString()
	o := seedOrder(repo, userID, uuid.NewString(), 1, ord.StatusCancelled)
	r := newTestRouter(repo, "http://unused", userID)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/orders/"+o.ID+"/cancel", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s (expected 400)", w.Code, w.Body.String())
	}
}

func TestCancelOrder_Shipped(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{}
	userID := uuid.NewString()
	o := seedOrder(repo, userID, uuid.NewString(), 1, ord.StatusShipped)
	r := newTestRouter(repo, "http://unused", userID)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/orders/"+o.ID+"/cancel", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s (expected 400)", w.Code, w.Body.String())
	}
	if repo.lastOrder.Status != ord.StatusShipped {
		t.Fatalf("status must stay shipped, got %s", repo.lastOrder.Status)
	}
}

func TestUpdateOrderStatus_PendingToDelivered_NoRestock(t *testing.T) {
	t.Parallel()

	prodID := uuid.NewString()
	psrv, pstate := newProductServer(t, productState{ID: prodID, Price: "10.00", Stock: 3})

	repo := &stubRepo{}
	userID := uuid.NewString()
	o := seedOrder(repo, userID, prodID, 2, ord.StatusPending)
	r := newTestRouter(repo, psrv.URL, userID)

	// the permissive path: pending -> delivered directly
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/orders/"+o.ID+"/status", bytes.NewBufferString(`{"status":"delivered"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s (expected 200)", w.Code, w.Body.String())
	}
	if pstate.Stock != 3 { // unchanged
		t.Fatalf("stock changed and must not: %d", pstate.Stock)
	}
	if repo.lastOrder.Status != ord.StatusDelivered {
		t.Fatalf("final status=%s, expected delivered", repo.lastOrder.Status)
	}
}

func TestUpdateOrderStatus_InvalidStatus(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{}
	userID := uuid.NewString()
	o := seedOrder(repo, userID, uuid.NewString(), 1, ord.StatusPending)
	r := newTestRouter(repo, "http://unused", userID)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/orders/"+o.ID+"/status", bytes.NewBufferString(`{"status":"wtf"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s (expected 400)", w.Code, w.Body.String())
	}
}

func init() {
	gin.SetMode(gin.TestMode)
	gin.DefaultWriter = io.Discard
}
