package models

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// CouponType represents the type of discount a coupon provides.
type CouponType string

const (
	CouponTypePercentage   CouponType = "percentage"
	CouponTypeFlat         CouponType = "flat"
	CouponTypeFreeShipping CouponType = "freeshipping"
	CouponTypeUnknown      CouponType = "unknown"
)

// ParseCouponType maps the spellings used by the cart and coupon services onto CouponType.
func ParseCouponType(s string) CouponType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "percentage", "percent":
		return CouponTypePercentage
	case "flat", "fixed", "fixed_range":
		return CouponTypeFlat
	case "freeship", "freeshipping", "free_shipping":
		return CouponTypeFreeShipping
	default:
		return CouponTypeUnknown
	}
}

// AdminWireName is the spelling the coupon administration endpoints expect
func (t CouponType) AdminWireName() string {
	switch t {
	case CouponTypePercentage:
		return "PERCENTAGE"
	case CouponTypeFlat:
		return "FLAT"
	case CouponTypeFreeShipping:
		return "FREESHIP"
	default:
		return strings.ToUpper(string(t))
	}
}

// Coupon is a discount rule advertised by the cart service.
type Coupon struct {
	Code        string           `json:"code"`
	Type        CouponType       `json:"type"`
	RawType     string           `json:"-"`
	Value       decimal.Decimal  `json:"value"`                 // discount amount or percentage
	MaxDiscount *decimal.Decimal `json:"maxDiscount,omitempty"` // cap for percentage coupons
	MinOrder    *decimal.Decimal `json:"minOrder,omitempty"`    // minimum discounted subtotal
	Description string           `json:"description,omitempty"`
	Active      bool             `json:"active"`
}

func (c *Coupon) UnmarshalJSON(b []byte) error {
	var aux struct {
		Code          string           `json:"code"`
		CouponCode    string           `json:"couponCode"`
		Type          string           `json:"type"`
		CouponType    string           `json:"couponType"`
		Value         *decimal.Decimal `json:"value"`
		Percent       *decimal.Decimal `json:"percent"`
		MinSavings    *decimal.Decimal `json:"minSavings"`
		MaxDiscount   *decimal.Decimal `json:"maxDiscount"`
		MaxSavings    *decimal.Decimal `json:"maxSavings"`
		MinOrder      *decimal.Decimal `json:"minOrder"`
		MinOrderValue *decimal.Decimal `json:"min_order_value"`
		Description   string           `json:"description"`
		Title         string           `json:"title"`
		Active        *bool            `json:"active"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	raw := firstString(aux.Type, aux.CouponType)
	*c = Coupon{
		Code:        strings.ToUpper(strings.TrimSpace(firstString(aux.Code, aux.CouponCode))),
		Type:        ParseCouponType(raw),
		RawType:     raw,
		MaxDiscount: firstDecimal(aux.MaxDiscount, aux.MaxSavings),
		MinOrder:    firstDecimal(aux.MinOrder, aux.MinOrderValue),
		Description: firstString(aux.Description, aux.Title),
		Active:      aux.Active == nil || *aux.Active,
	}
	if v := firstDecimal(aux.Value, aux.Percent, aux.MinSavings); v != nil {
		c.Value = *v
	}
	return nil
}

// Clone returns a copy that shares no pointers with c
func (c Coupon) Clone() Coupon {
	out := c
	if c.MaxDiscount != nil {
		v := *c.MaxDiscount
		out.MaxDiscount = &v
	}
	if c.MinOrder != nil {
		v := *c.MinOrder
		out.MinOrder = &v
	}
	return out
}

// Matches compares codes case-insensitively
func (c Coupon) Matches(code string) bool {
	return strings.EqualFold(c.Code, strings.TrimSpace(code))
}

// FindCoupon returns the catalog entry for code
func FindCoupon(catalog []Coupon, code string) (Coupon, bool) {
	for _, c := range catalog {
		if c.Matches(code) {
			return c, true
		}
	}
	return Coupon{}, false
}

// CouponRequest is the payload for creating or updating a coupon through the admin endpoints.
type CouponRequest struct {
	Code        string           `json:"code" validate:"required,min=3,max=64"`
	Type        CouponType       `json:"-" validate:"required,oneof=percentage flat freeshipping"`
	Value       decimal.Decimal  `json:"value"`
	MaxDiscount *decimal.Decimal `json:"maxDiscount,omitempty"`
	MinOrder    *decimal.Decimal `json:"minOrder,omitempty"`
	Description string           `json:"description"`
	Active      bool             `json:"active"`
}

func (r CouponRequest) MarshalJSON() ([]byte, error) {
	type plain CouponRequest
	return json.Marshal(struct {
		plain
		Type string `json:"type"`
	}{plain: plain(r), Type: r.Type.AdminWireName()})
}

// UnmarshalJSON accepts any coupon type spelling. A missing active flag means active.
func (r *CouponRequest) UnmarshalJSON(data []byte) error {
	type plain CouponRequest
	aux := struct {
		*plain
		Type   string `json:"type"`
		Active *bool  `json:"active"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.Type = ""
	if strings.TrimSpace(aux.Type) != "" {
		r.Type = ParseCouponType(aux.Type)
	}
	r.Active = aux.Active == nil || *aux.Active
	return nil
}

func firstDecimal(values ...*decimal.Decimal) *decimal.Decimal {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
