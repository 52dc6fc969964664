package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

// PaymentStatus is the settlement state of an order.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// PaymentMethod is how the customer pays.
type PaymentMethod string

const (
	PaymentCard           PaymentMethod = "card"
	PaymentBankTransfer   PaymentMethod = "bank-transfer"
	PaymentCashOnDelivery PaymentMethod = "cash-on-delivery"
)

// transitions lists the statuses reachable from each status.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered, StatusCancelled},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether no further transitions are possible from s.
func (s OrderStatus) Terminal() bool {
	return len(transitions[s]) == 0
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Valid reports whether p is a known payment status.
func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentPending, PaymentPaid, PaymentRefunded:
		return true
	}
	return false
}

// Order represents a customer order.
type Order struct {
	ID              uuid.UUID            `json:"id" db:"id"`
	OrderNumber     string               `json:"orderNumber" db:"order_number"`
	UserID          uuid.UUID            `json:"userId" db:"user_id"`
	Items           []OrderItem          `json:"items"`
	ShippingAddress ShippingAddress      `json:"shippingAddress" db:"shipping_address"`
	PaymentMethod   PaymentMethod        `json:"paymentMethod" db:"payment_method"`
	Status          OrderStatus          `json:"status" db:"status"`
	PaymentStatus   PaymentStatus        `json:"paymentStatus" db:"payment_status"`
	StatusHistory   []StatusHistoryEntry `json:"statusHistory"`
	CouponCode      *string              `json:"couponCode,omitempty" db:"coupon_code"`
	Subtotal        float64              `json:"subtotal" db:"subtotal"`
	Discount        float64              `json:"discount" db:"discount"`
	ShippingCost    float64              `json:"shippingCost" db:"shipping_cost"`
	TotalAmount     float64              `json:"totalAmount" db:"total_amount"`
	CreatedAt       time.Time            `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time            `json:"updatedAt" db:"updated_at"`
}

// OrderItem is a snapshot of a product captured when the order was placed.
type OrderItem struct {
	ID        uuid.UUID `json:"-" db:"id"`
	OrderID   uuid.UUID `json:"-" db:"order_id"`
	ProductID uuid.UUID `json:"productId" db:"product_id"`
	Name      string    `json:"name" db:"name"`
	Price     float64   `json:"price" db:"price"`
	Quantity  int       `json:"quantity" db:"quantity"`
	Image     string    `json:"image,omitempty" db:"image"`
}

// ShippingAddress is a copy of the delivery address, independent of the address book.
type ShippingAddress struct {
	RecipientName string `json:"recipientName" validate:"required,max=120"`
	Phone         string `json:"phone" validate:"required,max=32"`
	Address       string `json:"address" validate:"required,max=500"`
	City          string `json:"city" validate:"required,max=100"`
	District      string `json:"district" validate:"max=100"`
	PostalCode    string `json:"postalCode" validate:"max=20"`
	Country       string `json:"country" validate:"max=100"`
}

// StatusHistoryEntry records one status change.
type StatusHistoryEntry struct {
	Status    OrderStatus `json:"status" db:"status"`
	Note      string      `json:"note,omitempty" db:"note"`
	Timestamp time.Time   `json:"timestamp" db:"created_at"`
}

// UpdateStatus moves the order to next and appends a history entry.
func (o *Order) UpdateStatus(next OrderStatus, note string, at time.Time) error {
	if !next.Valid() {
		return NewValidationError(fmt.Sprintf("unknown order status %q", next))
	}
	if !o.Status.CanTransitionTo(next) {
		return NewDomainError(KindInvalidState, ErrCodeInvalidTransition,
			fmt.Sprintf("cannot change order status from %s to %s", o.Status, next))
	}
	o.apply(next, note, at)
	return nil
}

// Cancel forces the order into the cancelled state.
func (o *Order) Cancel(note string, at time.Time) error {
	if o.Status.Terminal() {
		return NewDomainError(KindInvalidState, ErrCodeInvalidTransition,
			fmt.Sprintf("cannot cancel an order that is %s", o.Status))
	}
	if note == "" {
		note = "Order cancelled"
	}
	o.apply(StatusCancelled, note, at)
	return nil
}

// Refund cancels the order and marks its payment refunded.
// It returns whether the status changed, i.e. whether stock must be restored.
func (o *Order) Refund(note string, at time.Time) (bool, error) {
	if o.PaymentStatus == PaymentRefunded {
		return false, ErrAlreadyRefunded
	}
	if note == "" {
		note = "Order refunded"
	}
	wasCancelled := o.Status == StatusCancelled
	o.PaymentStatus = PaymentRefunded
	o.apply(StatusCancelled, note, at)
	return !wasCancelled, nil
}

// UpdatePaymentStatus sets the payment status without touching the history.
func (o *Order) UpdatePaymentStatus(status PaymentStatus, at time.Time) error {
	if !status.Valid() {
		return NewValidationError(fmt.Sprintf("unknown payment status %q", status))
	}
	o.PaymentStatus = status
	o.UpdatedAt = at
	return nil
}

func (o *Order) apply(status OrderStatus, note string, at time.Time) {
	o.Status = status
	o.UpdatedAt = at
	o.StatusHistory = append(o.StatusHistory, StatusHistoryEntry{
		Status:    status,
		Note:      note,
		Timestamp: at,
	})
}

// FormatOrderNumber renders the human-readable order number for the n-th order of the day.
func FormatOrderNumber(day time.Time, n int64) string {
	return fmt.Sprintf("%s-%04d", day.Format("060102"), n)
}

// OrderRequest represents the request payload for creating an order.
type OrderRequest struct {
	Items           []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	ShippingAddress ShippingAddress    `json:"shippingAddress" validate:"required"`
	PaymentMethod   PaymentMethod      `json:"paymentMethod" validate:"required,oneof=card bank-transfer cash-on-delivery"`
	ShippingCost    float64            `json:"shippingCost" validate:"gte=0"`
	TotalAmount     *float64           `json:"totalAmount,omitempty" validate:"omitempty,gte=0"`
	CouponCode      *string            `json:"couponCode,omitempty" validate:"omitempty,max=50"`
}

// OrderItemRequest represents a single item in an order request.
type OrderItemRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gte=1"`
}

// StatusUpdateRequest changes an order's status.
type StatusUpdateRequest struct {
	Status OrderStatus `json:"status" validate:"required,oneof=pending processing shipped delivered cancelled"`
	Note   string      `json:"note" validate:"max=500"`
}

// NoteRequest carries an optional note for cancel and refund.
type NoteRequest struct {
	Note string `json:"note" validate:"max=500"`
}

// PaymentStatusRequest changes an order's payment status.
type PaymentStatusRequest struct {
	PaymentStatus PaymentStatus `json:"paymentStatus" validate:"required,oneof=pending paid refunded"`
}

// OrderFilter narrows an order listing.
type OrderFilter struct {
	UserID *uuid.UUID
	Status OrderStatus
	Limit  int
	Offset int
}
