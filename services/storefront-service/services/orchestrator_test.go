package services_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/yashrajoria/E-Commerce-storefront/services/common/errors"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/models"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/services"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/store"
)

var errNetwork = apperrors.Transport(assert.AnError)

func cartJSON(t *testing.T, c models.Cart) string {
	t.Helper()
	b, err := json.Marshal(c)
	require.NoError(t, err)
	return string(b)
}

func TestLoadCart_ReplacesState(t *testing.T) {
	h := newHarness(t)
	h.cart.coupons = []models.Coupon{{Code: "SAVE20", Type: models.CouponTypeFlat, Value: decimal.NewFromInt(20), Active: true}}
	h.seedCart(t, item("1", 100, 120, 1), item("2", 50, 50, 2))

	cart := h.orch.Cart()
	require.Len(t, cart.Items, 2)
	assert.Equal(t, models.ID("2"), cart.Items[1].ID)
	assert.Len(t, h.orch.Coupons(), 1)

	h.cart.mu.Lock()
	h.cart.cart = models.Cart{Items: []models.CartItem{item("3", 10, 10, 1)}}
	h.cart.mu.Unlock()
	require.NoError(t, h.orch.LoadCart(context.Background()))

	cart = h.orch.Cart()
	require.Len(t, cart.Items, 1)
	assert.Equal(t, models.ID("3"), cart.Items[0].ID)
}

func TestLoadCart_FirstFailureInitialisesEmpty(t *testing.T) {
	h := newHarness(t)
	h.cart.setErr("GetCart", errNetwork)

	err := h.orch.LoadCart(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindTransport))
	assert.True(t, h.orch.Cart().IsEmpty())
}

func TestLoadCart_FailureKeepsLastKnownGood(t *testing.T) {
	h := newHarness(t)
	h.seedCart(t, item("1", 100, 100, 2))
	before := cartJSON(t, h.orch.Cart())

	h.cart.setErr("GetCart", errNetwork)
	require.Error(t, h.orch.LoadCart(context.Background()))
	assert.Equal(t, before, cartJSON(t, h.orch.Cart()))
}

func TestLoadCart_CouponFailureIsNotFatal(t *testing.T) {
	h := newHarness(t)
	h.cart.setErr("ListCoupons", errNetwork)
	h.seedCart(t, item("1", 100, 100, 1))
	assert.Len(t, h.orch.Cart().Items, 1)
	assert.Empty(t, h.orch.Coupons())
}

func TestAddItem_ResyncsFromServer(t *testing.T) {
	h := newHarness(t)
	h.cart.prices["p9"] = decimal.NewFromInt(45)
	h.seedCart(t)
	loads := h.cart.callCount("GetCart")

	require.NoError(t, h.orch.AddItem(context.Background(), "p9", 0))

	assert.Equal(t, loads+1, h.cart.callCount("GetCart"))
	cart := h.orch.Cart()
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 1, cart.Items[0].Quantity)
	assertAmount(t, "45", cart.Items[0].UnitPrice)
}

func TestAddItem_FailureLeavesStateUnchanged(t *testing.T) {
	h := newHarness(t)
	h.seedCart(t, item("1", 100, 100, 1))
	before := cartJSON(t, h.orch.Cart())
	h.cart.setErr("AddItem", apperrors.Server(409, "Out of stock", "Failed to add item to cart"))

	err := h.orch.AddItem(context.Background(), "p9", 1)
	require.Error(t, err)
	assert.Equal(t, "Out of stock", apperrors.UserMessage(err))
	assert.Equal(t, before, cartJSON(t, h.orch.Cart()))
}

func TestAddItem_RequiresProduct(t *testing.T) {
	h := newHarness(t)
	err := h.orch.AddItem(context.Background(), "", 1)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	assert.Zero(t, h.cart.callCount("AddItem"))
}

func TestSetItemQuantity_Optimistic(t *testing.T) {
	h := newHarness(t)
	h.seedCart(t, item("1", 100, 100, 1))

	require.NoError(t, h.orch.SetItemQuantity(context.Background(), "1", 4))
	assert.Equal(t, 4, h.orch.Cart().Items[0].Quantity)
	assert.Equal(t, []int{4}, h.cart.quantities)
}

func TestSetItemQuantity_KeepsOptimisticStateWithoutBody(t *testing.T) {
	h := newHarness(t)
	h.seedCart(t, item("1", 100, 100, 1))
	h.cart.echo = false

	require.NoError(t, h.orch.SetItemQuantity(context.Background(), "1", 3))
	assert.Equal(t, 3, h.orch.Cart().Items[0].Quantity)
}

func TestSetItemQuantity_PublishesBeforeServerConfirms(t *testing.T) {
	h := newHarness(t)
	h.seedCart(t, item("1", 100, 100, 1))
	h.cart.setErr("UpdateQuantity", errNetwork)

	var seen []int
	unsubscribe := h.store.Subscribe(func(s store.Snapshot) {
		if len(s.Cart.Items) > 0 {
			seen = append(seen, s.Cart.Items[0].Quantity)
		}
	})
	defer unsubscribe()

	require.Error(t, h.orch.SetItemQuantity(context.Background(), "1", 5))
	assert.Equal(t, []int{5, 1}, seen)
}

func TestQuantityFloor(t *testing.T) {
	h := newHarness(t)
	h.seedCart(t, item("1", 100, 100, 3))
	ctx := context.Background()

	for _, delta := range []int{-1, -100, -1, 2, -7, -1000000} {
		require.NoError(t, h.orch.AdjustItemQuantity(ctx, "1", delta))
		assert.GreaterOrEqual(t, h.orch.Cart().Items[0].Quantity, 1)
	}
	for _, q := range []int{0, -5, 1} {
		require.NoError(t, h.orch.SetItemQuantity(ctx, "1", q))
		assert.Equal(t, 1, h.orch.Cart().Items[0].Quantity)
	}
	for _, sent := range h.cart.quantities {
		assert.GreaterOrEqual(t, sent, 1)
	}
	assert.Len(t, h.orch.Cart().Items, 1)
}

func TestRollbackByteEquality(t *testing.T) {
	cases := []struct {
		name   string
		method string
		run    func(o *services.Orchestrator) error
	}{
		{"set quantity", "UpdateQuantity", func(o *services.Orchestrator) error {
			return o.SetItemQuantity(context.Background(), "2", 9)
		}},
		{"adjust quantity", "UpdateQuantity", func(o *services.Orchestrator) error {
			return o.AdjustItemQuantity(context.Background(), "1", -5)
		}},
		{"remove item", "RemoveItem", func(o *services.Orchestrator) error {
			return o.RemoveItem(context.Background(), "2")
		}},
		{"clear cart", "ClearCart", func(o *services.Orchestrator) error {
			return o.ClearCart(context.Background())
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			h.cart.discounts["SAVE20"] = decimal.NewFromInt(20)
			h.seedCart(t, item("1", 100, 120, 2), item("2", 30, 36, 1), item("3", 5, 5, 4))
			require.NoError(t, h.orch.ApplyCoupon(context.Background(), "save20"))

			before := cartJSON(t, h.orch.Cart())
			h.cart.setErr(tc.method, errNetwork)

			err := tc.run(h.orch)
			require.Error(t, err)
			assert.Equal(t, apperrors.NetworkErrorMessage, apperrors.UserMessage(err))
			assert.Equal(t, before, cartJSON(t, h.orch.Cart()))
		})
	}
}

func TestRemoveItem_RollbackRestoresPosition(t *testing.T) {
	h := newHarness(t)
	h.seedCart(t, item("1", 1, 1, 1), item("2", 2, 2, 1), item("3", 3, 3, 1))
	h.cart.setErr("RemoveItem", errNetwork)

	require.Error(t, h.orch.RemoveItem(context.Background(), "2"))

	var ids []models.ID
	for _, it := range h.orch.Cart().Items {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []models.ID{"1", "2", "3"}, ids)
}

func TestRemoveItem_Success(t *testing.T) {
	h := newHarness(t)
	h.seedCart(t, item("1", 1, 1, 1), item("2", 2, 2, 1))

	require.NoError(t, h.orch.RemoveItem(context.Background(), "1"))
	cart := h.orch.Cart()
	require.Len(t, cart.Items, 1)
	assert.Equal(t, models.ID("2"), cart.Items[0].ID)
}

func TestRemoveItem_UnknownItem(t *testing.T) {
	h := newHarness(t)
	h.seedCart(t, item("1", 1, 1, 1))

	err := h.orch.RemoveItem(context.Background(), "nope")
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	assert.Zero(t, h.cart.callCount("RemoveItem"))
}

func TestClearCart_Success(t *testing.T) {
	h := newHarness(t)
	h.seedCart(t, item("1", 1, 1, 1))

	require.NoError(t, h.orch.ClearCart(context.Background()))
	assert.True(t, h.orch.Cart().IsEmpty())
	assert.Equal(t, 1, h.cart.callCount("ClearCart"))
}

func TestApplyCoupon_MinimumOrderFastFail(t *testing.T) {
	h := newHarness(t)
	minOrder := decimal.NewFromInt(500)
	h.cart.coupons = []models.Coupon{{Code: "BIG500", Type: models.CouponTypeFlat, Value: decimal.NewFromInt(50), MinOrder: &minOrder, Active: true}}
	h.seedCart(t, item("1", 150, 200, 2))
	before := cartJSON(t, h.orch.Cart())

	err := h.orch.ApplyCoupon(context.Background(), "big500")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	assert.Contains(t, apperrors.UserMessage(err), "500")
	assert.Zero(t, h.cart.callCount("ApplyCoupon"))
	assert.Equal(t, before, cartJSON(t, h.orch.Cart()))
}

func TestApplyCoupon_MinimumCheckedBeforeFirstLoad(t *testing.T) {
	h := newHarness(t)
	minOrder := decimal.NewFromInt(500)
	h.cart.coupons = []models.Coupon{{Code: "BIG500", Type: models.CouponTypeFlat, Value: decimal.NewFromInt(50), MinOrder: &minOrder, Active: true}}
	h.cart.mu.Lock()
	h.cart.cart = models.Cart{Items: []models.CartItem{item("1", 150, 200, 2)}}
	h.cart.mu.Unlock()

	err := h.orch.ApplyCoupon(context.Background(), "BIG500")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	assert.Equal(t, 1, h.cart.callCount("GetCart"))
	assert.Zero(t, h.cart.callCount("ApplyCoupon"))
	assertAmount(t, "300", h.orch.Totals().DiscountedSubtotal)
}

func TestApplyCoupon_FailedFirstLoadDefersToServer(t *testing.T) {
	h := newHarness(t)
	minOrder := decimal.NewFromInt(500)
	h.cart.coupons = []models.Coupon{{Code: "BIG500", Type: models.CouponTypeFlat, Value: decimal.NewFromInt(50), MinOrder: &minOrder, Active: true}}
	h.cart.setErr("GetCart", errNetwork)

	_ = h.orch.ApplyCoupon(context.Background(), "BIG500")
	assert.Equal(t, 1, h.cart.callCount("ApplyCoupon"))
}

func TestApplyCoupon_MinimumMetCallsServer(t *testing.T) {
	h := newHarness(t)
	minOrder := decimal.NewFromInt(300)
	h.cart.coupons = []models.Coupon{{Code: "MIN300", Type: models.CouponTypeFlat, Value: decimal.NewFromInt(30), MinOrder: &minOrder, Active: true}}
	h.cart.discounts["MIN300"] = decimal.NewFromInt(30)
	h.seedCart(t, item("1", 150, 200, 2))

	require.NoError(t, h.orch.ApplyCoupon(context.Background(), " min300 "))
	assert.Equal(t, 1, h.cart.callCount("ApplyCoupon"))
	assertAmount(t, "270", services.ComputeDisplayTotals(h.orch.Cart()).FinalPayable)
}

func TestApplyCoupon_ServerMessageVerbatim(t *testing.T) {
	h := newHarness(t)
	h.seedCart(t, item("1", 100, 100, 1))
	before := cartJSON(t, h.orch.Cart())
	h.cart.setErr("ApplyCoupon", apperrors.Server(400, "This coupon has expired", "Failed to apply coupon"))

	err := h.orch.ApplyCoupon(context.Background(), "OLD10")
	require.Error(t, err)
	assert.Equal(t, "This coupon has expired", apperrors.UserMessage(err))
	assert.Equal(t, before, cartJSON(t, h.orch.Cart()))
}

func TestApplyCoupon_EmptyCode(t *testing.T) {
	h := newHarness(t)
	for _, code := range []string{"", "   "} {
		err := h.orch.ApplyCoupon(context.Background(), code)
		assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	}
	assert.Zero(t, h.cart.callCount("ApplyCoupon"))
}

func TestApplyCoupon_EmptyBodyReloads(t *testing.T) {
	h := newHarness(t)
	h.cart.discounts["SAVE20"] = decimal.NewFromInt(20)
	h.seedCart(t, item("1", 108, 108, 1))
	h.cart.echo = false
	loads := h.cart.callCount("GetCart")

	require.NoError(t, h.orch.ApplyCoupon(context.Background(), "SAVE20"))
	assert.Equal(t, loads+1, h.cart.callCount("GetCart"))
	assertAmount(t, "20", h.orch.Cart().DiscountAmount)
}

func TestCouponEndToEnd(t *testing.T) {
	h := newHarness(t)
	h.cart.discounts["SAVE20"] = decimal.NewFromInt(20)
	h.seedCart(t, item("1", 108, 108, 1))
	ctx := context.Background()

	assertAmount(t, "108", h.orch.Totals().FinalPayable)

	h.orch.SetCouponInput("save20")
	require.NoError(t, h.orch.ApplyCoupon(ctx, h.orch.CouponInput()))
	assertAmount(t, "88", h.orch.Totals().FinalPayable)
	require.NotNil(t, h.orch.Cart().AppliedCoupon)
	assert.Equal(t, "SAVE20", h.orch.Cart().AppliedCoupon.Code)

	require.NoError(t, h.orch.RemoveCoupon(ctx))
	assertAmount(t, "108", h.orch.Totals().FinalPayable)
	assert.Nil(t, h.orch.Cart().AppliedCoupon)
	assert.Empty(t, h.orch.CouponInput())
}

func TestRemoveCoupon_FailureKeepsInput(t *testing.T) {
	h := newHarness(t)
	h.seedCart(t, item("1", 108, 108, 1))
	h.orch.SetCouponInput("SAVE20")
	h.cart.setErr("RemoveCoupon", errNetwork)

	require.Error(t, h.orch.RemoveCoupon(context.Background()))
	assert.Equal(t, "SAVE20", h.orch.CouponInput())
}

func TestMutationsAreSerialised(t *testing.T) {
	h := newHarness(t)
	h.seedCart(t, item("1", 10, 10, 1))

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, h.orch.AdjustItemQuantity(context.Background(), "1", 1))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1+n, h.orch.Cart().Items[0].Quantity)
	h.cart.mu.Lock()
	defer h.cart.mu.Unlock()
	assert.Equal(t, 1+n, h.cart.cart.Items[0].Quantity)
	for i, q := range h.cart.quantities {
		assert.Equal(t, i+2, q)
	}
}

func TestCancelledContextNeverRuns(t *testing.T) {
	h := newHarness(t)
	h.seedCart(t, item("1", 10, 10, 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := h.orch.SetItemQuantity(ctx, "1", 5)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, h.cart.callCount("UpdateQuantity"))
	assert.Equal(t, 1, h.orch.Cart().Items[0].Quantity)
}

func TestClosedOrchestratorRejectsMutations(t *testing.T) {
	h := newHarness(t)
	h.orch.Close()

	err := h.orch.LoadCart(context.Background())
	assert.True(t, apperrors.Is(err, apperrors.KindState))
}

func TestSessionRejectionTearsDown(t *testing.T) {
	h := newHarness(t)
	h.seedCart(t, item("1", 10, 10, 1))
	_, err := h.session.Establish(context.Background(), makeToken(t, "ROLE_USER", farFuture))
	require.NoError(t, err)

	expired := 0
	h.session.OnSessionExpired(func(context.Context) { expired++ })
	h.cart.setErr("UpdateQuantity", apperrors.Server(401, "jwt expired", "Failed to update quantity"))

	err = h.orch.SetItemQuantity(context.Background(), "1", 2)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindSession))
	assert.Equal(t, 1, expired)
	assert.Nil(t, h.session.Info())
	assert.Empty(t, h.session.Token(context.Background()))

	tok, err := h.state.Token(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tok)
	assert.True(t, h.store.Snapshot().Cart.IsEmpty())
}
