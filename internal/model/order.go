package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped},
	OrderStatusShipped:    {OrderStatusDelivered},
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// LabelAR returns the Arabic display label of the status.
func (s OrderStatus) LabelAR() string {
	switch s {
	case OrderStatusPending:
		return "قيد الانتظار"
	case OrderStatusProcessing:
		return "قيد التجهيز"
	case OrderStatusShipped:
		return "تم الشحن"
	case OrderStatusDelivered:
		return "تم التوصيل"
	case OrderStatusCancelled:
		return "ملغي"
	default:
		return string(s)
	}
}

// PaymentStatus is tracked separately from the fulfilment status.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// ShippingSnapshot is the address copied onto an order at checkout time.
type ShippingSnapshot struct {
	Governorate string `json:"governorate"`
	City        string `json:"city"`
	Street      string `json:"street"`
	Notes       string `json:"notes,omitempty"`
}

// Order represents a placed customer order.
type Order struct {
	ID            uuid.UUID        `json:"id" db:"id"`
	UserID        uuid.UUID        `json:"userId" db:"user_id"`
	TotalAmount   decimal.Decimal  `json:"totalAmount" db:"total_amount"`
	Status        OrderStatus      `json:"status" db:"status"`
	PaymentStatus PaymentStatus    `json:"paymentStatus" db:"payment_status"`
	Shipping      ShippingSnapshot `json:"shipping"`
	CreatedAt     time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time        `json:"updatedAt" db:"updated_at"`
	Lines         []OrderLine      `json:"lines,omitempty"`
}

// OrderLine is one product-quantity-price snapshot within an order.
type OrderLine struct {
	ID        uuid.UUID        `json:"id" db:"id"`
	OrderID   uuid.UUID        `json:"orderId" db:"order_id"`
	ProductID int64            `json:"productId" db:"product_id"`
	Quantity  int              `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal  `json:"unitPrice" db:"unit_price"`
	Product   *ProductSnapshot `json:"product,omitempty" db:"-"`
}

// LineTotal returns quantity times unit price. Any stored total is ignored.
func (l OrderLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// DisplayProduct returns the related product or the missing-product fallback.
func (l OrderLine) DisplayProduct() ProductSnapshot {
	if l.Product == nil {
		return MissingProduct(l.ProductID)
	}
	return *l.Product
}

// LinesTotal sums the derived totals of lines.
func LinesTotal(lines []OrderLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.LineTotal())
	}
	return total
}

// CheckoutRequest is the payload for placing an order.
type CheckoutRequest struct {
	AddressID *uuid.UUID `json:"addressId"`
}
