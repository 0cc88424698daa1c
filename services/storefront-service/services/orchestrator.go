package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	aws_pkg "github.com/yashrajoria/E-Commerce-storefront/pkg/aws"
	apperrors "github.com/yashrajoria/E-Commerce-storefront/services/common/errors"
	"github.com/yashrajoria/E-Commerce-storefront/services/common/logger"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/clients"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/models"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/store"
)

// Orchestrator owns the client-visible cart and mediates every cart and coupon
// mutation against the cart service. The server stays authoritative: every
// response that carries a cart replaces local state wholesale.
type Orchestrator struct {
	cart    clients.CartClient
	store   *store.Store
	session *Session
	metrics aws_pkg.MetricsRecorder
	log     *zap.Logger
	queue   *mutationQueue

	mu          sync.RWMutex
	coupons     []models.Coupon
	couponInput string
	loaded      bool
}

// NewOrchestrator wires the cart client to st. session and metrics may be nil.
func NewOrchestrator(cart clients.CartClient, st *store.Store, session *Session, metrics aws_pkg.MetricsRecorder, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		cart:    cart,
		store:   st,
		session: session,
		metrics: metrics,
		log:     log,
		queue:   newMutationQueue(),
		coupons: []models.Coupon{},
	}
}

// Close stops the mutation queue. Calls made after Close fail.
func (o *Orchestrator) Close() {
	o.queue.Close()
}

// Cart returns a copy of the current cart
func (o *Orchestrator) Cart() models.Cart {
	return o.store.Cart()
}

// Coupons returns the last fetched coupon catalog
func (o *Orchestrator) Coupons() []models.Coupon {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]models.Coupon, len(o.coupons))
	copy(out, o.coupons)
	return out
}

func (o *Orchestrator) CouponInput() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.couponInput
}

func (o *Orchestrator) SetCouponInput(code string) {
	o.mu.Lock()
	o.couponInput = code
	o.mu.Unlock()
}

// Totals computes display totals for the current cart
func (o *Orchestrator) Totals() DisplayTotals {
	return ComputeDisplayTotals(o.store.Cart())
}

// LoadCart fetches the cart and coupon catalog and replaces local state.
// On failure the last good cart is kept; the very first failed load leaves an empty cart.
func (o *Orchestrator) LoadCart(ctx context.Context) error {
	return o.queue.Do(ctx, o.loadCart)
}

func (o *Orchestrator) loadCart(ctx context.Context) error {
	cart, err := o.cart.GetCart(ctx)
	if err != nil {
		o.mu.Lock()
		first := !o.loaded
		o.loaded = true
		o.mu.Unlock()
		if first {
			o.store.SetCart(models.EmptyCart())
		}
		o.warn(ctx, "Failed to load cart", zap.Error(err))
		return o.session.Guard(ctx, err)
	}
	o.store.SetCart(*cart)

	coupons, err := o.cart.ListCoupons(ctx)
	o.mu.Lock()
	o.loaded = true
	if err == nil {
		o.coupons = coupons
	}
	o.mu.Unlock()
	if err != nil {
		o.warn(ctx, "Failed to load coupon catalog", zap.Error(err))
		if apperrors.Is(err, apperrors.KindSession) {
			return o.session.Guard(ctx, err)
		}
	}
	return nil
}

// AddItem adds a product on the server, then reloads the cart since the
// server may reprice. Local state is untouched on failure.
func (o *Orchestrator) AddItem(ctx context.Context, productID models.ID, quantity int) error {
	if strings.TrimSpace(productID.String()) == "" {
		return apperrors.FieldValidation("productId", "Product is required")
	}
	if quantity < 1 {
		quantity = 1
	}
	return o.queue.Do(ctx, func(ctx context.Context) error {
		if err := o.cart.AddItem(ctx, models.AddItemRequest{ProductID: productID, Quantity: quantity}); err != nil {
			o.warn(ctx, "Failed to add item", zap.String("product_id", productID.String()), zap.Error(err))
			return o.session.Guard(ctx, err)
		}
		o.mutated(ctx, "add_item")
		return o.loadCart(ctx)
	})
}

// SetItemQuantity sets a line's quantity, clamping anything below 1 to 1
func (o *Orchestrator) SetItemQuantity(ctx context.Context, itemID models.ID, quantity int) error {
	return o.queue.Do(ctx, func(ctx context.Context) error {
		return o.setQuantity(ctx, itemID, func(int) int { return quantity })
	})
}

// AdjustItemQuantity adds delta to a line's quantity. The result never drops below 1.
func (o *Orchestrator) AdjustItemQuantity(ctx context.Context, itemID models.ID, delta int) error {
	return o.queue.Do(ctx, func(ctx context.Context) error {
		return o.setQuantity(ctx, itemID, func(current int) int { return current + delta })
	})
}

func (o *Orchestrator) setQuantity(ctx context.Context, itemID models.ID, next func(current int) int) error {
	cart := o.store.Cart()
	idx := cart.ItemIndex(itemID)
	if idx < 0 {
		return apperrors.FieldValidation("itemId", "Item not found in cart")
	}
	quantity := next(cart.Items[idx].Quantity)
	if quantity < 1 {
		quantity = 1
	}
	return o.optimistic(ctx, "set_quantity",
		func(c *models.Cart) { c.Items[idx].Quantity = quantity },
		func(ctx context.Context) (*models.Cart, error) {
			return o.cart.UpdateQuantity(ctx, itemID, quantity)
		},
	)
}

// RemoveItem deletes a line. On failure the line reappears at its original position.
func (o *Orchestrator) RemoveItem(ctx context.Context, itemID models.ID) error {
	return o.queue.Do(ctx, func(ctx context.Context) error {
		idx := o.store.Cart().ItemIndex(itemID)
		if idx < 0 {
			return apperrors.FieldValidation("itemId", "Item not found in cart")
		}
		return o.optimistic(ctx, "remove_item",
			func(c *models.Cart) { c.Items = append(c.Items[:idx], c.Items[idx+1:]...) },
			func(ctx context.Context) (*models.Cart, error) {
				return o.cart.RemoveItem(ctx, itemID)
			},
		)
	})
}

// ClearCart empties the cart locally and on the server
func (o *Orchestrator) ClearCart(ctx context.Context) error {
	return o.queue.Do(ctx, o.clearCart)
}

func (o *Orchestrator) clearCart(ctx context.Context) error {
	return o.optimistic(ctx, "clear_cart",
		func(c *models.Cart) { *c = models.EmptyCart() },
		func(ctx context.Context) (*models.Cart, error) {
			return nil, o.cart.ClearCart(ctx)
		},
	)
}

// ApplyCoupon applies code on the server and adopts the server's cart.
// A catalog coupon whose minimum order exceeds the discounted subtotal is
// rejected locally without calling apply. A cart that was never loaded is
// loaded first; if that load fails the server decides alone.
func (o *Orchestrator) ApplyCoupon(ctx context.Context, code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return apperrors.FieldValidation("couponCode", "Please enter a coupon code")
	}
	return o.queue.Do(ctx, func(ctx context.Context) error {
		checkMinimum := true
		if !o.isLoaded() {
			if err := o.loadCart(ctx); err != nil {
				if apperrors.Is(err, apperrors.KindSession) {
					return err
				}
				checkMinimum = false
			}
		}

		totals := ComputeDisplayTotals(o.store.Cart())
		if coupon, ok := models.FindCoupon(o.Coupons(), code); ok && checkMinimum && coupon.MinOrder != nil {
			if coupon.MinOrder.GreaterThan(totals.DiscountedSubtotal) {
				return apperrors.FieldValidation("couponCode",
					fmt.Sprintf("Minimum order value of ₹%s required for coupon %s", coupon.MinOrder.String(), code))
			}
		}

		cart, err := o.cart.ApplyCoupon(ctx, code)
		if err != nil {
			o.warn(ctx, "Failed to apply coupon", zap.String("code", code), zap.Error(err))
			return o.session.Guard(ctx, err)
		}
		o.SetCouponInput(code)
		o.mutated(ctx, "apply_coupon")
		if cart == nil {
			return o.loadCart(ctx)
		}
		o.store.SetCart(*cart)
		return nil
	})
}

// RemoveCoupon drops the applied coupon and clears the coupon input
func (o *Orchestrator) RemoveCoupon(ctx context.Context) error {
	return o.queue.Do(ctx, func(ctx context.Context) error {
		cart, err := o.cart.RemoveCoupon(ctx)
		if err != nil {
			o.warn(ctx, "Failed to remove coupon", zap.Error(err))
			return o.session.Guard(ctx, err)
		}
		o.SetCouponInput("")
		o.mutated(ctx, "remove_coupon")
		if cart == nil {
			return o.loadCart(ctx)
		}
		o.store.SetCart(*cart)
		return nil
	})
}

func (o *Orchestrator) isLoaded() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.loaded
}

// exclusive runs fn in the mutation queue so no cart mutation interleaves with it
func (o *Orchestrator) exclusive(ctx context.Context, fn func(ctx context.Context) error) error {
	return o.queue.Do(ctx, fn)
}

func (o *Orchestrator) mutated(ctx context.Context, op string) {
	o.log.Info("Cart mutation succeeded",
		zap.String("op", op),
		zap.String("request_id", logger.RequestID(ctx)),
	)
}

func (o *Orchestrator) rolledBack(ctx context.Context, op string, err error) {
	o.log.Warn("Cart mutation rolled back",
		zap.String("op", op),
		zap.String("request_id", logger.RequestID(ctx)),
		zap.Error(err),
	)
	recordCount(ctx, o.metrics, o.log, aws_pkg.MetricCartRollbacks, map[string]string{"op": op})
}

func (o *Orchestrator) warn(ctx context.Context, msg string, fields ...zap.Field) {
	o.log.Warn(msg, append(fields, zap.String("request_id", logger.RequestID(ctx)))...)
}
