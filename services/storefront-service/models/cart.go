package models

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// CartItem is the client projection of one server-owned cart line
type CartItem struct {
	ID                ID              `json:"id"`
	ProductID         ID              `json:"pid"`
	Name              string          `json:"name"`
	Pack              string          `json:"pack,omitempty"`
	UnitPrice         decimal.Decimal `json:"price"`
	UnitOriginalPrice decimal.Decimal `json:"originalPrice"`
	Quantity          int             `json:"quantity"`
	ImageRef          string          `json:"image,omitempty"`
}

func (i *CartItem) UnmarshalJSON(b []byte) error {
	type plain CartItem
	var aux struct {
		plain
		ProductIDCamel ID               `json:"productId"`
		ProductIDSnake ID               `json:"product_id"`
		ItemID         ID               `json:"itemId"`
		Original       *decimal.Decimal `json:"original_price"`
		ImageURL       string           `json:"imageUrl"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*i = CartItem(aux.plain)
	i.ID = firstID(i.ID, aux.ItemID)
	i.ProductID = firstID(i.ProductID, aux.ProductIDCamel, aux.ProductIDSnake)
	i.ImageRef = firstString(i.ImageRef, aux.ImageURL)
	if i.UnitOriginalPrice.IsZero() {
		if aux.Original != nil {
			i.UnitOriginalPrice = *aux.Original
		} else {
			i.UnitOriginalPrice = i.UnitPrice
		}
	}
	return nil
}

// LineTotal is price × quantity
func (i CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// LineOriginalTotal is originalPrice × quantity
func (i CartItem) LineOriginalTotal() decimal.Decimal {
	return i.UnitOriginalPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is the client view of the remote cart. It is never locally authoritative.
type Cart struct {
	Items          []CartItem      `json:"items"`
	AppliedCoupon  *Coupon         `json:"appliedCoupon,omitempty"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
}

func (c *Cart) UnmarshalJSON(b []byte) error {
	var aux struct {
		Items          []CartItem       `json:"items"`
		CartItems      []CartItem       `json:"cart_items"`
		AppliedCoupon  json.RawMessage  `json:"appliedCoupon"`
		CouponCode     string           `json:"couponCode"`
		DiscountAmount *decimal.Decimal `json:"discountAmount"`
		Discount       *decimal.Decimal `json:"discount"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	*c = Cart{Items: aux.Items}
	if c.Items == nil {
		c.Items = aux.CartItems
	}
	if c.Items == nil {
		c.Items = []CartItem{}
	}

	switch {
	case aux.DiscountAmount != nil:
		c.DiscountAmount = *aux.DiscountAmount
	case aux.Discount != nil:
		c.DiscountAmount = *aux.Discount
	}

	raw := strings.TrimSpace(string(aux.AppliedCoupon))
	switch {
	case raw == "" || raw == "null":
		if aux.CouponCode != "" {
			c.AppliedCoupon = &Coupon{Code: strings.ToUpper(aux.CouponCode), Type: CouponTypeUnknown, Active: true}
		}
	case raw[0] == '"':
		var code string
		if err := json.Unmarshal(aux.AppliedCoupon, &code); err != nil {
			return err
		}
		if code != "" {
			c.AppliedCoupon = &Coupon{Code: strings.ToUpper(code), Type: CouponTypeUnknown, Active: true}
		}
	default:
		var coupon Coupon
		if err := json.Unmarshal(aux.AppliedCoupon, &coupon); err != nil {
			return err
		}
		c.AppliedCoupon = &coupon
	}
	return nil
}

// EmptyCart returns a cart with no items and no coupon
func EmptyCart() Cart {
	return Cart{Items: []CartItem{}}
}

// Clone returns a deep copy safe to mutate independently
func (c Cart) Clone() Cart {
	out := Cart{
		Items:          make([]CartItem, len(c.Items)),
		DiscountAmount: c.DiscountAmount,
	}
	copy(out.Items, c.Items)
	if c.AppliedCoupon != nil {
		coupon := c.AppliedCoupon.Clone()
		out.AppliedCoupon = &coupon
	}
	return out
}

// IsEmpty reports whether the cart has no lines
func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// ItemIndex returns the position of a line or -1
func (c Cart) ItemIndex(itemID ID) int {
	for i, item := range c.Items {
		if item.ID == itemID {
			return i
		}
	}
	return -1
}

// ItemCount is the total number of units across all lines
func (c Cart) ItemCount() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// AddItemRequest is the body of the cart add endpoint
type AddItemRequest struct {
	ProductID ID  `json:"pid"`
	Quantity  int `json:"quantity"`
}

// ApplyCouponRequest is the body of the apply-coupon endpoint
type ApplyCouponRequest struct {
	Code string `json:"code"`
}
