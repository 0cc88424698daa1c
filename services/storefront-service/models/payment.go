package models

import "fmt"

// CardDetails holds card input. It must never be logged or persisted.
type CardDetails struct {
	CardNumber     string `json:"cardNumber"`
	CardHolderName string `json:"cardHolderName"`
	ExpiryDate     string `json:"expiryDate"`
	CVV            string `json:"cvv"`
}

// String masks everything but the last four digits
func (c CardDetails) String() string {
	n := len(c.CardNumber)
	if n > 4 {
		return fmt.Sprintf("card ****%s", c.CardNumber[n-4:])
	}
	return "card ****"
}

// CODCheckoutRequest is the body of the cash-on-delivery endpoint
type CODCheckoutRequest struct {
	AddressID            ID       `json:"addressId"`
	DeliveryInstructions []string `json:"deliveryInstructions"`
	CouponCode           string   `json:"couponCode,omitempty"`
}

// CardCheckoutRequest is the body of the card payment endpoint
type CardCheckoutRequest struct {
	CardDetails
	AddressID  ID     `json:"addressId"`
	CouponCode string `json:"couponCode,omitempty"`
}

// CheckoutResult is the payment service's answer. A 2xx response with success=false is a failure.
type CheckoutResult struct {
	Success *bool  `json:"success,omitempty"`
	Message string `json:"message,omitempty"`
	OrderID ID     `json:"orderId,omitempty"`
}

// Failed reports whether the payment service explicitly refused the order
func (r CheckoutResult) Failed() bool {
	return r.Success != nil && !*r.Success
}
