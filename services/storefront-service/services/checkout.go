package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	aws_pkg "github.com/yashrajoria/E-Commerce-storefront/pkg/aws"
	apperrors "github.com/yashrajoria/E-Commerce-storefront/services/common/errors"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/clients"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/models"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/repository"
)

// CheckoutState is a step of the checkout flow
type CheckoutState string

const (
	CheckoutIdle                   CheckoutState = "idle"
	CheckoutAddressRequired        CheckoutState = "address_required"
	CheckoutPaymentMethodSelection CheckoutState = "payment_method_selection"
	CheckoutSubmitting             CheckoutState = "submitting"
	CheckoutSuccess                CheckoutState = "success"
	CheckoutFailed                 CheckoutState = "failed"
)

// IsTerminal reports whether the flow has finished
func (s CheckoutState) IsTerminal() bool {
	return s == CheckoutSuccess || s == CheckoutFailed
}

// CheckoutView is what callers see of the flow
type CheckoutView struct {
	State         CheckoutState        `json:"state"`
	PaymentMethod models.PaymentMethod `json:"paymentMethod,omitempty"`
	Error         string               `json:"error,omitempty"`
	Receipt       *models.Order        `json:"receipt,omitempty"`
}

// Checkout drives address → payment method → confirmation
type Checkout struct {
	orch      *Orchestrator
	addresses *AddressBook
	payment   clients.PaymentClient
	state     *repository.LocalState
	session   *Session
	metrics   aws_pkg.MetricsRecorder
	log       *zap.Logger
	now       func() time.Time

	mu      sync.Mutex
	current CheckoutState
	method  models.PaymentMethod
	card    *models.CardDetails
	lastErr string
	receipt *models.Order
}

func NewCheckout(
	orch *Orchestrator,
	addresses *AddressBook,
	payment clients.PaymentClient,
	state *repository.LocalState,
	session *Session,
	metrics aws_pkg.MetricsRecorder,
	log *zap.Logger,
) *Checkout {
	if log == nil {
		log = zap.NewNop()
	}
	return &Checkout{
		orch:      orch,
		addresses: addresses,
		payment:   payment,
		state:     state,
		session:   session,
		metrics:   metrics,
		log:       log,
		now:       time.Now,
		current:   CheckoutIdle,
	}
}

// SetClock replaces the clock used for card expiry and receipts
func (c *Checkout) SetClock(now func() time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

func (c *Checkout) View() CheckoutView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

func (c *Checkout) viewLocked() CheckoutView {
	v := CheckoutView{State: c.current, PaymentMethod: c.method, Error: c.lastErr}
	if c.receipt != nil {
		r := *c.receipt
		v.Receipt = &r
	}
	return v
}

// Begin starts the flow, asking for an address when none is selected
func (c *Checkout) Begin(ctx context.Context) (CheckoutView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == CheckoutSubmitting {
		return c.viewLocked(), apperrors.IllegalState("An order is being placed")
	}
	c.reset()
	if c.addresses.Selected(ctx) == nil {
		c.current = CheckoutAddressRequired
	} else {
		c.current = CheckoutPaymentMethodSelection
	}
	return c.viewLocked(), nil
}

// ProvideAddress selects id and moves on to payment
func (c *Checkout) ProvideAddress(ctx context.Context, id models.ID) (CheckoutView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != CheckoutAddressRequired {
		return c.viewLocked(), apperrors.IllegalState("No address is being requested")
	}
	if _, err := c.addresses.Select(ctx, id); err != nil {
		return c.viewLocked(), err
	}
	c.current = CheckoutPaymentMethodSelection
	return c.viewLocked(), nil
}

// SelectPaymentMethod picks COD or card. Card details are validated locally;
// a rejected card keeps the flow on this step.
func (c *Checkout) SelectPaymentMethod(method models.PaymentMethod, card *models.CardDetails) (CheckoutView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != CheckoutPaymentMethodSelection && c.current != CheckoutFailed {
		return c.viewLocked(), apperrors.IllegalState("Payment method cannot be chosen now")
	}
	c.current = CheckoutPaymentMethodSelection
	c.lastErr = ""

	switch method {
	case models.PaymentMethodCOD:
		c.method, c.card = method, nil
	case models.PaymentMethodCard:
		if card == nil {
			return c.viewLocked(), apperrors.FieldValidation("card", "Card details are required")
		}
		valid, err := ValidateCard(*card, c.now())
		if err != nil {
			return c.viewLocked(), err
		}
		c.method, c.card = method, &valid
	default:
		return c.viewLocked(), apperrors.FieldValidation("paymentMethod", "Choose cash on delivery or card")
	}
	return c.viewLocked(), nil
}

// Submit places the order. On success the receipt is appended to order
// history and the cart is cleared. On failure nothing local changes and
// Submit may be retried.
func (c *Checkout) Submit(ctx context.Context, instructions []string) (*models.Order, error) {
	c.mu.Lock()
	if c.current != CheckoutPaymentMethodSelection && c.current != CheckoutFailed {
		c.mu.Unlock()
		return nil, apperrors.IllegalState("Checkout is not ready to submit")
	}
	if !c.method.Valid() {
		c.mu.Unlock()
		return nil, apperrors.FieldValidation("paymentMethod", "Choose a payment method")
	}
	method := c.method
	var card *models.CardDetails
	if c.card != nil {
		cd := *c.card
		card = &cd
	}

	cart := c.orch.Cart()
	if cart.IsEmpty() {
		c.mu.Unlock()
		return nil, apperrors.Validation("Your cart is empty")
	}
	address := c.addresses.Selected(ctx)
	if address == nil {
		c.mu.Unlock()
		return nil, apperrors.FieldValidation("addressId", "Please select a delivery address")
	}
	c.current = CheckoutSubmitting
	c.lastErr = ""
	now := c.now
	c.mu.Unlock()

	instructions = cleanInstructions(instructions)
	var order *models.Order
	// in-flight submissions are not cancellable
	submitCtx := context.WithoutCancel(ctx)
	err := c.orch.exclusive(submitCtx, func(ctx context.Context) error {
		cart := c.orch.Cart()
		if cart.IsEmpty() {
			return apperrors.Validation("Your cart is empty")
		}
		couponCode := ""
		if cart.AppliedCoupon != nil {
			couponCode = cart.AppliedCoupon.Code
		}

		result, err := c.pay(ctx, method, card, address.ID, instructions, couponCode)
		if err != nil {
			return c.session.Guard(ctx, err)
		}

		receipt := models.Order{
			OrderID:              uuid.NewString(),
			OrderDate:            now().UTC(),
			Status:               models.OrderStatusConfirmed,
			PaymentMethod:        method,
			Items:                cart.Clone().Items,
			TotalAmount:          ComputeDisplayTotals(cart).FinalPayable,
			Address:              *address,
			DeliveryInstructions: instructions,
			CouponCode:           couponCode,
			ServerOrderID:        result.OrderID.String(),
		}
		if err := c.state.AppendOrder(ctx, receipt); err != nil {
			c.log.Warn("Failed to record order history", zap.String("order_id", receipt.OrderID), zap.Error(err))
		}
		if err := c.orch.clearCart(ctx); err != nil {
			c.log.Warn("Order placed but cart clear failed", zap.String("order_id", receipt.OrderID), zap.Error(err))
			_ = c.orch.loadCart(ctx)
		}
		order = &receipt
		return nil
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.current = CheckoutFailed
		c.lastErr = apperrors.UserMessage(err)
		c.log.Warn("Checkout failed", zap.String("payment_method", string(method)), zap.Error(err))
		recordCount(ctx, c.metrics, c.log, aws_pkg.MetricCheckoutFailed, map[string]string{"method": string(method)})
		return nil, err
	}
	c.current = CheckoutSuccess
	c.receipt = order
	c.card = nil
	c.log.Info("Order placed", zap.String("order_id", order.OrderID), zap.String("payment_method", string(method)))
	recordCount(ctx, c.metrics, c.log, aws_pkg.MetricCheckoutSucceeded, map[string]string{"method": string(method)})
	r := *order
	return &r, nil
}

// Cancel returns to Idle. It is rejected while an order is being placed.
func (c *Checkout) Cancel() (CheckoutView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == CheckoutSubmitting {
		return c.viewLocked(), apperrors.IllegalState("An order is being placed")
	}
	c.reset()
	return c.viewLocked(), nil
}

// OrderHistory returns the local, best-effort receipts
func (c *Checkout) OrderHistory(ctx context.Context) ([]models.Order, error) {
	return c.state.OrderHistory(ctx)
}

func (c *Checkout) pay(ctx context.Context, method models.PaymentMethod, card *models.CardDetails, addressID models.ID, instructions []string, couponCode string) (*models.CheckoutResult, error) {
	if method == models.PaymentMethodCard {
		if card == nil {
			return nil, apperrors.FieldValidation("card", "Card details are required")
		}
		return c.payment.PayCard(ctx, models.CardCheckoutRequest{
			CardDetails: *card,
			AddressID:   addressID,
			CouponCode:  couponCode,
		})
	}
	return c.payment.PayCOD(ctx, models.CODCheckoutRequest{
		AddressID:            addressID,
		DeliveryInstructions: instructions,
		CouponCode:           couponCode,
	})
}

func (c *Checkout) reset() {
	c.current = CheckoutIdle
	c.method = ""
	c.card = nil
	c.lastErr = ""
	c.receipt = nil
}

func cleanInstructions(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
