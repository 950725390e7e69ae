package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/safar/delivery-admin/internal/apperr"
	"github.com/safar/delivery-admin/internal/auth"
	"github.com/safar/delivery-admin/internal/board"
	"github.com/safar/delivery-admin/internal/catalog"
	"github.com/safar/delivery-admin/internal/dashboard"
	"github.com/safar/delivery-admin/internal/delivery"
	"github.com/safar/delivery-admin/internal/events"
	"github.com/safar/delivery-admin/internal/models"
	"github.com/safar/delivery-admin/internal/seed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAuth struct {
	registered []auth.RegisterCandidate
	gotImage   bool
	registerFn func() (int64, error)
	loginFn    func(email, password string) (*models.User, error)
	users      []models.User
	listErr    error
}

func (f *fakeAuth) Register(_ context.Context, c auth.RegisterCandidate, image *multipart.FileHeader) (int64, error) {
	f.registered = append(f.registered, c)
	f.gotImage = image != nil
	if f.registerFn != nil {
		return f.registerFn()
	}
	return 7, nil
}

func (f *fakeAuth) Login(_ context.Context, email, password string) (*models.User, error) {
	return f.loginFn(email, password)
}

func (f *fakeAuth) ListUsers(context.Context) ([]models.User, error) {
	return f.users, f.listErr
}

func (f *fakeAuth) GetUser(_ context.Context, id int64) (*models.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, apperr.NotFound("User not found")
}

type testServer struct {
	router *gin.Engine
	auth   *fakeAuth
	moves  *events.LogPublisher
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	moves := events.NewLogPublisher(logger, 100)

	b, err := board.New(seed.Orders(time.Now()), func(e board.Event) {
		_ = moves.Publish(context.Background(), e)
	})
	require.NoError(t, err)
	products, err := delivery.New(seed.Products(), seed.Services())
	require.NoError(t, err)

	d := dashboard.New(b, products, catalog.New(), logger)
	ctx, cancel := context.WithCancel(context.Background())
	go d.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-d.Done()
	})

	fa := &fakeAuth{}
	router := NewRouter(RouterConfig{
		Auth:      NewAuthHandler(fa, logger),
		Dashboard: NewDashboardHandler(d, moves, logger),
		Logger:    logger,
	})
	return &testServer{router: router, auth: fa, moves: moves}
}

func (s *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func registerRequest(t *testing.T, fields map[string]string, withImage bool) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if withImage {
		part, err := mw.CreateFormFile("profileImage", "me.png")
		require.NoError(t, err)
		_, err = part.Write([]byte("\x89PNG\r\n\x1a\n"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestRegister(t *testing.T) {
	s := newTestServer(t)

	req := registerRequest(t, map[string]string{
		"username":  "alice",
		"email":     "alice@x.com",
		"password":  "secret1",
		"firstName": "Alice",
		"lastName":  "Liddell",
		"role":      "admin",
	}, true)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "User registered successfully", body["message"])
	assert.Equal(t, float64(7), body["userId"])
	require.Len(t, s.auth.registered, 1)
	assert.Equal(t, "Liddell", s.auth.registered[0].LastName)
	assert.True(t, s.auth.gotImage)
	assert.NotEmpty(t, w.Header().Get(HeaderXRequestID))
}

func TestRegisterErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", apperr.Validation("All fields are required", map[string]string{"email": "required"}), http.StatusBadRequest, "All fields are required"},
		{"conflict", apperr.Conflict("Username or email already exists"), http.StatusConflict, "Username or email already exists"},
		{"infrastructure", apperr.Infrastructure("create user", errors.New("pq: connection refused")), http.StatusInternalServerError, "Server error during registration"},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError, "Server error during registration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			s.auth.registerFn = func() (int64, error) { return 0, tt.err }

			w := httptest.NewRecorder()
			s.router.ServeHTTP(w, registerRequest(t, map[string]string{"username": "alice"}, false))

			assert.Equal(t, tt.status, w.Code)
			body := decode(t, w)
			assert.Equal(t, tt.message, body["message"])
			assert.NotContains(t, w.Body.String(), "pq:")
			assert.False(t, s.auth.gotImage)
		})
	}
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	s.auth.loginFn = func(email, password string) (*models.User, error) {
		if email == "alice@x.com" && password == "secret1" {
			return &models.User{ID: 1, Username: "alice", Email: email, Role: models.RoleAdmin}, nil
		}
		return nil, apperr.ErrInvalidCredentials
	}

	w := s.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "alice@x.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Login successful", body["message"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "alice", user["username"])
	assert.NotContains(t, user, "password")

	wrong := s.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "alice@x.com", "password": "wrongpass"})
	unknown := s.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "nobody@x.com", "password": "whatever"})
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())

	bad := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("{"))
	bad.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUsers(t *testing.T) {
	s := newTestServer(t)
	s.auth.users = []models.User{{ID: 1, Username: "alice"}, {ID: 2, Username: "bob"}}

	w := s.do(http.MethodGet, "/api/users", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var users []models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	assert.Len(t, users, 2)

	w = s.do(http.MethodGet, "/api/users/2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "bob", decode(t, w)["username"])

	w = s.do(http.MethodGet, "/api/users/99", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User not found", decode(t, w)["message"])

	w = s.do(http.MethodGet, "/api/users/abc", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	s.auth.listErr = apperr.Infrastructure("list users", errors.New("timeout"))
	w = s.do(http.MethodGet, "/api/users", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Server error", decode(t, w)["message"])
}

func TestBoardMoveAndHistory(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/orders/move", map[string]any{
		"orderId": "order-1", "from": "pending", "to": "preparing", "index": 0,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Columns []board.Column `json:"columns"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Columns, 4)
	assert.Equal(t, models.OrderStatusPreparing, resp.Columns[1].Status)
	assert.Equal(t, "order-1", resp.Columns[1].Orders[0].ID)
	assert.Equal(t, models.OrderStatusPreparing, resp.Columns[1].Orders[0].Status)

	w = s.do(http.MethodGet, "/api/orders/moves", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var moves []board.Event
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &moves))
	require.Len(t, moves, 1)
	assert.Equal(t, "order-1", moves[0].OrderID)

	w = s.do(http.MethodPost, "/api/orders/move", map[string]any{"orderId": "order-1", "from": "pending", "to": "lost"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/orders/move", map[string]any{"from": "pending"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdvanceAndGetOrder(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/orders/order-4/advance", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["moved"])

	w = s.do(http.MethodGet, "/api/orders/order-4", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "delivered", decode(t, w)["status"])

	w = s.do(http.MethodPost, "/api/orders/order-4/advance", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["moved"])

	w = s.do(http.MethodGet, "/api/orders/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/api/orders/board", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["columns"], 4)
}

func TestCreateOrder(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/orders", map[string]any{
		"customer": "Ada",
		"phone":    "(555) 000-0000",
		"address":  "1 Analytical Way",
		"items":    []map[string]any{{"name": "Tea", "quantity": 2, "price": "3.00"}},
		"total":    "6.00",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "pending", body["status"])
	assert.True(t, strings.HasPrefix(body["id"].(string), "ORD-"))

	w = s.do(http.MethodPost, "/api/orders", map[string]any{"customer": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["errors"], "items")
}

func TestProductEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/products", map[string]any{
		"name": "W", "description": "short", "price": "abc", "category": "",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	errs := decode(t, w)["errors"].(map[string]any)
	assert.Len(t, errs, 4)

	w = s.do(http.MethodPost, "/api/products", map[string]any{
		"name":        "Pilot Watch",
		"description": "Large crown and a highly legible dial",
		"price":       219.5,
		"category":    "classic",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	id := created["id"].(string)
	assert.Equal(t, "in-stock", created["stock_status"])

	w = s.do(http.MethodPut, "/api/products/"+id, map[string]any{
		"name":        "Pilot Watch",
		"description": "Large crown and a highly legible dial",
		"price":       "199.00",
		"category":    "classic",
		"isAvailable": false,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "out-of-stock", decode(t, w)["stock_status"])

	w = s.do(http.MethodGet, "/api/products?status=out-of-stock&page_size=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode(t, w)
	assert.Equal(t, float64(2), page["total"])

	w = s.do(http.MethodGet, "/api/products?q=pilot", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["total"])

	w = s.do(http.MethodGet, "/api/products?page=922337203685477580", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Empty(t, decode(t, w)["items"])

	w = s.do(http.MethodGet, "/api/products?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodDelete, "/api/products/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(http.MethodDelete, "/api/products/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(http.MethodPut, "/api/products/"+id, map[string]any{"name": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeliveryEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPut, "/api/products/1/delivery", map[string]any{
		"serviceId": "1", "price": "12.50", "estimatedTime": "20-30 min",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assigned := decode(t, w)["assigned_delivery"].(map[string]any)
	assert.Equal(t, "12.5", assigned["price"])
	assert.Equal(t, "20-30 min", assigned["estimated_time"])

	w = s.do(http.MethodPut, "/api/products/1/delivery", map[string]any{"serviceId": "4"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPut, "/api/products/1/delivery", map[string]any{"serviceId": "1", "price": "cheap"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["errors"], "price")

	w = s.do(http.MethodPut, "/api/products/99/delivery", map[string]any{"serviceId": "1"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/api/delivery/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{"total": float64(5), "assigned_count": float64(1), "unassigned_count": float64(4)}, decode(t, w))

	w = s.do(http.MethodDelete, "/api/products/1/delivery", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, decode(t, w), "assigned_delivery")

	w = s.do(http.MethodGet, "/api/delivery/services", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var services []models.DeliveryService
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &services))
	assert.Len(t, services, 4)
}

func TestAnalyticsOverview(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/analytics/overview", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(6), body["total_orders"])
	assert.Equal(t, "31.24", body["total_revenue"])
}
