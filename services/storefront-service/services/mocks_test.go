package services_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yashrajoria/E-Commerce-storefront/services/common/auth"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/models"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/repository"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/services"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/storage"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/store"
)

const testSecret = "test-secret"

var farFuture = time.Now().Add(24 * time.Hour)

// --- Mock Cart Client ---

type mockCartClient struct {
	mu        sync.Mutex
	cart      models.Cart
	coupons   []models.Coupon
	prices    map[models.ID]decimal.Decimal
	discounts map[string]decimal.Decimal
	errs      map[string]error
	calls     map[string]int

	// echo makes mutation endpoints answer with the cart body
	echo       bool
	quantities []int
}

func newMockCartClient() *mockCartClient {
	return &mockCartClient{
		cart:      models.EmptyCart(),
		coupons:   []models.Coupon{},
		prices:    map[models.ID]decimal.Decimal{},
		discounts: map[string]decimal.Decimal{},
		errs:      map[string]error{},
		calls:     map[string]int{},
		echo:      true,
	}
}

func (m *mockCartClient) record(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[name]++
	return m.errs[name]
}

func (m *mockCartClient) callCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *mockCartClient) setErr(name string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[name] = err
}

func (m *mockCartClient) reply() *models.Cart {
	if !m.echo {
		return nil
	}
	c := m.cart.Clone()
	return &c
}

func (m *mockCartClient) GetCart(_ context.Context) (*models.Cart, error) {
	if err := m.record("GetCart"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.cart.Clone()
	return &c, nil
}

func (m *mockCartClient) AddItem(_ context.Context, req models.AddItemRequest) error {
	if err := m.record("AddItem"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	price := m.prices[req.ProductID]
	m.cart.Items = append(m.cart.Items, models.CartItem{
		ID:                models.ID("line-" + req.ProductID.String()),
		ProductID:         req.ProductID,
		Name:              "Product " + req.ProductID.String(),
		UnitPrice:         price,
		UnitOriginalPrice: price,
		Quantity:          req.Quantity,
	})
	return nil
}

func (m *mockCartClient) UpdateQuantity(_ context.Context, itemID models.ID, quantity int) (*models.Cart, error) {
	if err := m.record("UpdateQuantity"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quantities = append(m.quantities, quantity)
	if idx := m.cart.ItemIndex(itemID); idx >= 0 {
		m.cart.Items[idx].Quantity = quantity
	}
	return m.reply(), nil
}

func (m *mockCartClient) RemoveItem(_ context.Context, itemID models.ID) (*models.Cart, error) {
	if err := m.record("RemoveItem"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if idx := m.cart.ItemIndex(itemID); idx >= 0 {
		m.cart.Items = append(m.cart.Items[:idx], m.cart.Items[idx+1:]...)
	}
	return m.reply(), nil
}

func (m *mockCartClient) ClearCart(_ context.Context) error {
	if err := m.record("ClearCart"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cart = models.EmptyCart()
	return nil
}

func (m *mockCartClient) ListCoupons(_ context.Context) ([]models.Coupon, error) {
	if err := m.record("ListCoupons"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Coupon, len(m.coupons))
	copy(out, m.coupons)
	return out, nil
}

func (m *mockCartClient) ApplyCoupon(_ context.Context, code string) (*models.Cart, error) {
	if err := m.record("ApplyCoupon"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cart.AppliedCoupon = &models.Coupon{Code: code, Type: models.CouponTypeFlat, Active: true}
	m.cart.DiscountAmount = m.discounts[code]
	return m.reply(), nil
}

func (m *mockCartClient) RemoveCoupon(_ context.Context) (*models.Cart, error) {
	if err := m.record("RemoveCoupon"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cart.AppliedCoupon = nil
	m.cart.DiscountAmount = decimal.Zero
	return m.reply(), nil
}

// --- Mock Address Client ---

type mockAddressClient struct {
	mu     sync.Mutex
	list   []models.Address
	nextID int
	errs   map[string]error
	calls  map[string]int
}

func newMockAddressClient(list ...models.Address) *mockAddressClient {
	return &mockAddressClient{list: list, errs: map[string]error{}, calls: map[string]int{}}
}

func (m *mockAddressClient) record(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[name]++
	return m.errs[name]
}

func (m *mockAddressClient) ListAddresses(_ context.Context) ([]models.Address, error) {
	if err := m.record("ListAddresses"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Address, len(m.list))
	copy(out, m.list)
	return out, nil
}

func (m *mockAddressClient) CreateAddress(_ context.Context, addr models.Address) (*models.Address, error) {
	if err := m.record("CreateAddress"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	addr.ID = models.ID(fmt.Sprintf("new-%d", m.nextID))
	m.list = append(m.list, addr)
	return &addr, nil
}

func (m *mockAddressClient) UpdateAddress(_ context.Context, addr models.Address) (*models.Address, error) {
	if err := m.record("UpdateAddress"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.list {
		if m.list[i].ID == addr.ID {
			m.list[i] = addr
		}
	}
	return &addr, nil
}

func (m *mockAddressClient) DeleteAddress(_ context.Context, id models.ID) error {
	if err := m.record("DeleteAddress"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.list[:0]
	for _, a := range m.list {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	m.list = kept
	return nil
}

// --- Mock Payment Client ---

type mockPaymentClient struct {
	mu       sync.Mutex
	err      error
	cod      []models.CODCheckoutRequest
	card     []models.CardCheckoutRequest
	started  chan struct{}
	release  chan struct{}
}

func (m *mockPaymentClient) wait() {
	if m.started != nil {
		m.started <- struct{}{}
	}
	if m.release != nil {
		<-m.release
	}
}

func (m *mockPaymentClient) PayCOD(_ context.Context, req models.CODCheckoutRequest) (*models.CheckoutResult, error) {
	m.wait()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cod = append(m.cod, req)
	if m.err != nil {
		return nil, m.err
	}
	return &models.CheckoutResult{OrderID: "srv-1"}, nil
}

func (m *mockPaymentClient) PayCard(_ context.Context, req models.CardCheckoutRequest) (*models.CheckoutResult, error) {
	m.wait()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.card = append(m.card, req)
	if m.err != nil {
		return nil, m.err
	}
	return &models.CheckoutResult{OrderID: "srv-2"}, nil
}

func (m *mockPaymentClient) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cod) + len(m.card)
}

// --- Mock Auth Client ---

type mockAuthClient struct {
	token string
	err   error
	calls int
}

func (m *mockAuthClient) Login(_ context.Context, _, _ string) (string, error) {
	m.calls++
	return m.token, m.err
}

// --- Mock Wishlist Client ---

type mockWishlistClient struct {
	items []models.WishlistItem
	err   error
}

func (m *mockWishlistClient) ListWishlist(_ context.Context) ([]models.WishlistItem, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]models.WishlistItem, len(m.items))
	copy(out, m.items)
	return out, nil
}

func (m *mockWishlistClient) AddToWishlist(_ context.Context, pid models.ID) error {
	if m.err != nil {
		return m.err
	}
	m.items = append(m.items, models.WishlistItem{ItemID: models.ID("w-" + pid.String()), ProductID: pid})
	return nil
}

func (m *mockWishlistClient) RemoveFromWishlist(_ context.Context, pid models.ID) error {
	if m.err != nil {
		return m.err
	}
	kept := m.items[:0]
	for _, it := range m.items {
		if it.ProductID != pid {
			kept = append(kept, it)
		}
	}
	m.items = kept
	return nil
}

// --- Mock Coupon Admin Client ---

type mockCouponAdminClient struct {
	created []models.CouponRequest
	updated map[string]models.CouponRequest
	deleted []string
}

func (m *mockCouponAdminClient) ListCoupons(_ context.Context) ([]models.Coupon, error) {
	return []models.Coupon{{Code: "SAVE20", Type: models.CouponTypeFlat, Value: decimal.NewFromInt(20), Active: true}}, nil
}

func (m *mockCouponAdminClient) CreateCoupon(_ context.Context, req models.CouponRequest) error {
	m.created = append(m.created, req)
	return nil
}

func (m *mockCouponAdminClient) UpdateCoupon(_ context.Context, code string, req models.CouponRequest) error {
	if m.updated == nil {
		m.updated = map[string]models.CouponRequest{}
	}
	m.updated[code] = req
	return nil
}

func (m *mockCouponAdminClient) DeleteCoupon(_ context.Context, code string) error {
	m.deleted = append(m.deleted, code)
	return nil
}

// --- Helpers ---

type harness struct {
	cart      *mockCartClient
	addrs     *mockAddressClient
	payment   *mockPaymentClient
	authc     *mockAuthClient
	kv        *storage.MemoryKV
	state     *repository.LocalState
	store     *store.Store
	session   *services.Session
	orch      *services.Orchestrator
	book      *services.AddressBook
	checkout  *services.Checkout
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := zap.NewNop()
	h := &harness{
		cart:    newMockCartClient(),
		addrs:   newMockAddressClient(),
		payment: &mockPaymentClient{},
		authc:   &mockAuthClient{},
		kv:      storage.NewMemoryKV(),
		store:   store.New(),
	}
	h.state = repository.NewLocalState(h.kv)
	h.session = services.NewSession(h.authc, h.state, h.store, nil, log)
	h.orch = services.NewOrchestrator(h.cart, h.store, h.session, nil, log)
	h.book = services.NewAddressBook(h.addrs, h.state, h.session, log)
	h.checkout = services.NewCheckout(h.orch, h.book, h.payment, h.state, h.session, nil, log)
	h.checkout.SetClock(func() time.Time { return time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC) })
	t.Cleanup(h.orch.Close)
	return h
}

func item(id string, price, original int64, qty int) models.CartItem {
	return models.CartItem{
		ID:                models.ID(id),
		ProductID:         models.ID("p-" + id),
		Name:              "Item " + id,
		UnitPrice:         decimal.NewFromInt(price),
		UnitOriginalPrice: decimal.NewFromInt(original),
		Quantity:          qty,
	}
}

func homeAddress(id string) models.Address {
	return models.Address{
		ID:      models.ID(id),
		Title:   "Home",
		House:   "12B",
		Street:  "MG Road",
		City:    "Pune",
		State:   "Maharashtra",
		Pincode: "411001",
		Name:    "Asha",
		Phone:   "9876543210",
	}
}

// seedCart puts items on the server and loads them
func (h *harness) seedCart(t *testing.T, items ...models.CartItem) {
	t.Helper()
	h.cart.mu.Lock()
	h.cart.cart = models.Cart{Items: items}
	h.cart.mu.Unlock()
	require.NoError(t, h.orch.LoadCart(context.Background()))
}

func assertAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func makeToken(t *testing.T, role string, exp time.Time) string {
	t.Helper()
	auth.SetSecret(testSecret)
	t.Cleanup(func() { auth.SetSecret("") })
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "user-1",
		"email": "asha@example.com",
		"role":  role,
		"exp":   exp.Unix(),
	})
	s, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}
