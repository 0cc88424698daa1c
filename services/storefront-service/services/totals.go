package services

import (
	"github.com/shopspring/decimal"

	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/models"
)

// DisplayTotals are the amounts shown on the cart summary
type DisplayTotals struct {
	Subtotal           decimal.Decimal `json:"subtotal"`
	DiscountedSubtotal decimal.Decimal `json:"discountedSubtotal"`
	CouponDiscount     decimal.Decimal `json:"couponDiscount"`
	FinalPayable       decimal.Decimal `json:"finalPayable"`
	Savings            decimal.Decimal `json:"savings"`
	ItemCount          int             `json:"itemCount"`
}

// ComputeDisplayTotals derives the summary from cart alone.
// finalPayable never goes below zero.
func ComputeDisplayTotals(cart models.Cart) DisplayTotals {
	t := DisplayTotals{
		Subtotal:           decimal.Zero,
		DiscountedSubtotal: decimal.Zero,
		CouponDiscount:     cart.DiscountAmount,
	}
	for _, item := range cart.Items {
		t.Subtotal = t.Subtotal.Add(item.LineOriginalTotal())
		t.DiscountedSubtotal = t.DiscountedSubtotal.Add(item.LineTotal())
		t.ItemCount += item.Quantity
	}
	t.FinalPayable = decimal.Max(decimal.Zero, t.DiscountedSubtotal.Sub(t.CouponDiscount))
	t.Savings = t.Subtotal.Sub(t.FinalPayable)
	return t
}
