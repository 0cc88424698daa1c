package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentMethodCOD  PaymentMethod = "cod"
	PaymentMethodCard PaymentMethod = "card"
)

// Valid reports whether m is a supported payment method
func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCOD || m == PaymentMethodCard
}

type OrderStatus string

// OrderStatusConfirmed is the only status the client records; the payment service owns the rest.
const OrderStatusConfirmed OrderStatus = "confirmed"

// Order is the local receipt written after a successful checkout
type Order struct {
	OrderID              string          `json:"orderId"`
	OrderDate            time.Time       `json:"orderDate"`
	Status               OrderStatus     `json:"status"`
	PaymentMethod        PaymentMethod   `json:"paymentMethod"`
	Items                []CartItem      `json:"items"`
	TotalAmount          decimal.Decimal `json:"totalAmount"`
	Address              Address         `json:"address"`
	DeliveryInstructions []string        `json:"deliveryInstructions"`
	CouponCode           string          `json:"couponCode,omitempty"`
	ServerOrderID        string          `json:"serverOrderId,omitempty"`
}

// DeliveryInstructionOptions are the instructions offered at checkout
var DeliveryInstructionOptions = []string{
	"Beware of pet",
	"Don't ring the bell",
	"Don't contact",
}
