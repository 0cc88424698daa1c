package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yashrajoria/E-Commerce-storefront/services/common/auth"
	apperrors "github.com/yashrajoria/E-Commerce-storefront/services/common/errors"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/middleware"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/services"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/storage"
)

const testSecret = "controller-secret"

// --- Mock Registry ---
type MockRegistry struct {
	mock.Mock
}

func (m *MockRegistry) Open(ctx context.Context, token string) (*services.Workspace, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Workspace), args.Error(1)
}

func (m *MockRegistry) Login(ctx context.Context, email, password string) (string, *services.Workspace, error) {
	args := m.Called(ctx, email, password)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*services.Workspace), args.Error(2)
}

func (m *MockRegistry) Drop(userID string) {
	m.Called(userID)
}

// --- Fixtures ---

func signToken(t *testing.T, role string) string {
	t.Helper()
	auth.SetSecret(testSecret)
	t.Cleanup(func() { auth.SetSecret("") })
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "user-1",
		"email": "asha@example.com",
		"role":  role,
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	s, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func upstream(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/cart/byId":
			_, _ = w.Write([]byte(`{"items":[{"id":"i1","pid":"p1","name":"Soap","price":50,"quantity":2}]}`))
		case "/api/coupons/all":
			_, _ = w.Write([]byte(`[{"code":"SAVE10","type":"percentage","value":10}]`))
		case "/address/all":
			_, _ = w.Write([]byte(`[{"_id":"a1","house":"12","street":"MG Road","city":"Pune","state":"MH","pincode":"411001"}]`))
		case "/api/wishlist/all":
			_, _ = w.Write([]byte(`[]`))
		case "/api/cart/add":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newWorkspace(t *testing.T, baseURL, token string) *services.Workspace {
	t.Helper()
	ep := services.Endpoints{Cart: baseURL, Address: baseURL, Payment: baseURL, Auth: baseURL, Timeout: 2 * time.Second}
	ws := services.NewWorkspace("user-1", ep, storage.NewMemoryKV(), nil, nil)
	t.Cleanup(ws.Close)
	if token != "" {
		_, err := ws.Session.Establish(context.Background(), token)
		require.NoError(t, err)
	}
	return ws
}

func newRouter(ctrl *StorefrontController, reg *MockRegistry) *gin.Engine {
	r := gin.New()
	r.POST("/bff/auth/login", ctrl.Login)
	protected := r.Group("/bff")
	protected.Use(middleware.AuthMiddleware(reg))
	protected.GET("/cart", ctrl.GetCart)
	protected.POST("/cart/items", ctrl.AddToCart)
	protected.POST("/cart/coupon", ctrl.ApplyCoupon)
	protected.GET("/checkout", ctrl.CheckoutState)
	protected.POST("/checkout/begin", ctrl.BeginCheckout)
	protected.POST("/addresses", ctrl.SaveAddress)
	protected.PUT("/addresses/:id", ctrl.SaveAddress)
	protected.POST("/auth/logout", ctrl.Logout)
	protected.POST("/admin/coupons", ctrl.AdminCreateCoupon)
	return r
}

func doJSON(r *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	r.ServeHTTP(recorder, req)
	return recorder
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// --- Tests ---

func TestLoginController(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("Success - 200 OK", func(t *testing.T) {
		srv := upstream(t)
		token := signToken(t, auth.RoleCustomer)
		ws := newWorkspace(t, srv.URL, token)
		reg := new(MockRegistry)
		reg.On("Login", mock.Anything, "asha@example.com", "secret").Return(token, ws, nil).Once()

		rec := doJSON(newRouter(NewStorefrontController(reg, nil), reg), http.MethodPost, "/bff/auth/login", "",
			`{"email": "asha@example.com", "password": "secret"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, token, body["accessToken"])
		assert.Len(t, ws.Orchestrator.Cart().Items, 1)
		reg.AssertExpectations(t)
	})

	t.Run("Failure - Rejected Credentials - 401", func(t *testing.T) {
		reg := new(MockRegistry)
		reg.On("Login", mock.Anything, "asha@example.com", "wrong").
			Return("", nil, apperrors.Server(http.StatusUnauthorized, "Invalid email or password", "Login failed")).Once()

		rec := doJSON(newRouter(NewStorefrontController(reg, nil), reg), http.MethodPost, "/bff/auth/login", "",
			`{"email": "asha@example.com", "password": "wrong"}`)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid email or password")
		reg.AssertExpectations(t)
	})

	t.Run("Failure - Bad Request Body - 400", func(t *testing.T) {
		reg := new(MockRegistry)
		rec := doJSON(newRouter(NewStorefrontController(reg, nil), reg), http.MethodPost, "/bff/auth/login", "",
			`{"email": "asha@example.com"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		reg.AssertNotCalled(t, "Login")
	})
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("Missing token - 401 with relogin", func(t *testing.T) {
		reg := new(MockRegistry)
		rec := doJSON(newRouter(NewStorefrontController(reg, nil), reg), http.MethodGet, "/bff/cart", "", "")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, true, decodeBody(t, rec)["relogin"])
		reg.AssertNotCalled(t, "Open")
	})

	t.Run("Rejected token - 401", func(t *testing.T) {
		reg := new(MockRegistry)
		reg.On("Open", mock.Anything, "stale").Return(nil, apperrors.Session("expired")).Once()

		rec := doJSON(newRouter(NewStorefrontController(reg, nil), reg), http.MethodGet, "/bff/cart", "stale", "")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		reg.AssertExpectations(t)
	})
}

func TestCartController(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("Get cart - totals and coupons", func(t *testing.T) {
		srv := upstream(t)
		token := signToken(t, auth.RoleCustomer)
		reg := new(MockRegistry)
		reg.On("Open", mock.Anything, token).Return(newWorkspace(t, srv.URL, token), nil)

		rec := doJSON(newRouter(NewStorefrontController(reg, nil), reg), http.MethodGet, "/bff/cart", token, "")

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		totals := body["totals"].(map[string]interface{})
		assert.Equal(t, "100", totals["subtotal"])
		assert.Equal(t, "100", totals["finalPayable"])
		assert.EqualValues(t, 2, body["cartCount"])
		assert.Len(t, body["coupons"], 1)
	})

	t.Run("Add item - unreachable cart service - 502", func(t *testing.T) {
		token := signToken(t, auth.RoleCustomer)
		reg := new(MockRegistry)
		reg.On("Open", mock.Anything, token).Return(newWorkspace(t, "http://127.0.0.1:1", token), nil)

		rec := doJSON(newRouter(NewStorefrontController(reg, nil), reg), http.MethodPost, "/bff/cart/items", token, `{"pid": "p1", "quantity": 1}`)

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, apperrors.NetworkErrorMessage, decodeBody(t, rec)["error"])
	})

	t.Run("Apply coupon - blank code - 400 with field", func(t *testing.T) {
		srv := upstream(t)
		token := signToken(t, auth.RoleCustomer)
		reg := new(MockRegistry)
		reg.On("Open", mock.Anything, token).Return(newWorkspace(t, srv.URL, token), nil)

		rec := doJSON(newRouter(NewStorefrontController(reg, nil), reg), http.MethodPost, "/bff/cart/coupon", token, `{"code": "  "}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "couponCode", decodeBody(t, rec)["field"])
	})
}

func TestCheckoutController(t *testing.T) {
	gin.SetMode(gin.TestMode)

	srv := upstream(t)
	token := signToken(t, auth.RoleCustomer)
	ws := newWorkspace(t, srv.URL, token)
	reg := new(MockRegistry)
	reg.On("Open", mock.Anything, token).Return(ws, nil)
	router := newRouter(NewStorefrontController(reg, nil), reg)

	rec := doJSON(router, http.MethodGet, "/bff/checkout", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, string(services.CheckoutIdle), body["checkout"].(map[string]interface{})["state"])
	assert.Len(t, body["deliveryInstructionOptions"], 3)

	rec = doJSON(router, http.MethodPost, "/bff/checkout/begin", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, string(services.CheckoutAddressRequired), decodeBody(t, rec)["checkout"].(map[string]interface{})["state"])
}

func TestSaveAddressController(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var (
		mu    sync.Mutex
		calls []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls = append(calls, r.Method+" "+r.URL.Path)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/address/add":
			_, _ = w.Write([]byte(`{"_id":"a9","house":"7","street":"FC Road","city":"Pune","state":"MH","pincode":"411004"}`))
		case "/address/update/a1":
			w.WriteHeader(http.StatusOK)
		case "/address/all":
			_, _ = w.Write([]byte(`[{"_id":"a1","house":"7","street":"FC Road","city":"Pune","state":"MH","pincode":"411004"}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	token := signToken(t, auth.RoleCustomer)
	reg := new(MockRegistry)
	reg.On("Open", mock.Anything, token).Return(newWorkspace(t, srv.URL, token), nil)
	router := newRouter(NewStorefrontController(reg, nil), reg)
	body := `{"id": "a1", "house": "7", "street": "FC Road", "city": "Pune", "state": "MH", "pincode": "411004"}`

	t.Run("post always creates", func(t *testing.T) {
		rec := doJSON(router, http.MethodPost, "/bff/addresses", token, body)
		assert.Equal(t, http.StatusCreated, rec.Code)
		mu.Lock()
		defer mu.Unlock()
		assert.Contains(t, calls, "POST /address/add")
		assert.NotContains(t, calls, "PUT /address/update/a1")
	})

	t.Run("put updates by path id", func(t *testing.T) {
		rec := doJSON(router, http.MethodPut, "/bff/addresses/a1", token, body)
		assert.Equal(t, http.StatusOK, rec.Code)
		mu.Lock()
		defer mu.Unlock()
		assert.Contains(t, calls, "PUT /address/update/a1")
	})
}

func TestLogoutController(t *testing.T) {
	gin.SetMode(gin.TestMode)

	token := signToken(t, auth.RoleCustomer)
	ws := newWorkspace(t, "http://127.0.0.1:1", token)
	reg := new(MockRegistry)
	reg.On("Open", mock.Anything, token).Return(ws, nil)
	reg.On("Drop", "user-1").Once()

	rec := doJSON(newRouter(NewStorefrontController(reg, nil), reg), http.MethodPost, "/bff/auth/logout", token, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, ws.Session.Info())
	reg.AssertExpectations(t)
}

func TestAdminCouponController_CustomerForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)

	token := signToken(t, auth.RoleCustomer)
	reg := new(MockRegistry)
	reg.On("Open", mock.Anything, token).Return(newWorkspace(t, "http://127.0.0.1:1", token), nil)

	rec := doJSON(newRouter(NewStorefrontController(reg, nil), reg), http.MethodPost, "/bff/admin/coupons", token,
		`{"code": "SAVE10", "type": "percentage", "value": 10}`)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Admin access required", decodeBody(t, rec)["error"])
}

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctrl := NewStorefrontController(new(MockRegistry), nil)

	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", apperrors.FieldValidation("cvv", "Enter a valid CVV"), http.StatusBadRequest, "Enter a valid CVV"},
		{"transport hides cause", apperrors.Transport(context.DeadlineExceeded), http.StatusBadGateway, apperrors.NetworkErrorMessage},
		{"server verbatim", apperrors.Server(http.StatusUnprocessableEntity, "Coupon expired", "Failed"), http.StatusUnprocessableEntity, "Coupon expired"},
		{"session", apperrors.Session("Your session has expired. Please log in again."), http.StatusUnauthorized, "Your session has expired. Please log in again."},
		{"state", apperrors.IllegalState("An order is being placed"), http.StatusConflict, "An order is being placed"},
		{"unknown", assert.AnError, http.StatusInternalServerError, "Something went wrong. Please try again."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			c.Request, _ = http.NewRequest(http.MethodGet, "/", nil)

			ctrl.respondError(c, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.message, decodeBody(t, rec)["error"])
		})
	}
}
