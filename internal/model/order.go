package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus описывает этап выполнения заказа.
type OrderStatus string

const (
	OrderPlaced    OrderStatus = "Placed"
	OrderPacked    OrderStatus = "Packed"
	OrderShipped   OrderStatus = "Shipped"
	OrderDelivered OrderStatus = "Delivered"
	OrderCancelled OrderStatus = "Cancelled"
	OrderReturned  OrderStatus = "Returned"
)

var orderTransitions = map[OrderStatus]map[OrderStatus]bool{
	OrderPlaced:    {OrderPacked: true, OrderCancelled: true, OrderReturned: true},
	OrderPacked:    {OrderShipped: true, OrderCancelled: true, OrderReturned: true},
	OrderShipped:   {OrderDelivered: true, OrderCancelled: true, OrderReturned: true},
	OrderDelivered: {OrderReturned: true},
	OrderCancelled: {},
	OrderReturned:  {},
}

// Valid проверяет, что статус заказа известен.
func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// CanTransition сообщает, допустим ли переход заказа из from в to.
func CanTransition(from, to OrderStatus) bool {
	return orderTransitions[from][to]
}

// PaymentStatus описывает состояние оплаты в заказе.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "Pending"
	PaymentPaid    PaymentStatus = "Paid"
	PaymentFailed  PaymentStatus = "Failed"
)

var paymentTransitions = map[PaymentStatus]map[PaymentStatus]bool{
	PaymentPending: {PaymentPaid: true, PaymentFailed: true},
	PaymentFailed:  {PaymentPaid: true, PaymentPending: true},
	PaymentPaid:    {},
}

// Valid проверяет, что статус оплаты известен.
func (s PaymentStatus) Valid() bool {
	_, ok := paymentTransitions[s]
	return ok
}

// PaymentMethod описывает способ оплаты.
type PaymentMethod string

const (
	MethodCOD        PaymentMethod = "COD"
	MethodRazorpay   PaymentMethod = "RAZORPAY"
	MethodUPI        PaymentMethod = "UPI"
	MethodCard       PaymentMethod = "Card"
	MethodNetBanking PaymentMethod = "NetBanking"
)

// Valid проверяет, что способ оплаты поддерживается.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCOD, MethodRazorpay, MethodUPI, MethodCard, MethodNetBanking:
		return true
	}
	return false
}

// IsCashOnDelivery сообщает, что оплата производится при получении.
func (m PaymentMethod) IsCashOnDelivery() bool {
	return m == MethodCOD
}

// PaymentRecordStatus описывает состояние платёжной записи.
type PaymentRecordStatus string

const (
	PaymentRecordPending  PaymentRecordStatus = "Pending"
	PaymentRecordSuccess  PaymentRecordStatus = "Success"
	PaymentRecordFailed   PaymentRecordStatus = "Failed"
	PaymentRecordRefunded PaymentRecordStatus = "Refunded"
)

// ShippingAddress описывает адрес доставки заказа.
type ShippingAddress struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	Pincode string `json:"pincode"`
}

// OrderItem описывает снимок позиции корзины в заказе.
type OrderItem struct {
	InventoryID int64           `json:"inventoryId"`
	PerfumeName string          `json:"perfumeName"`
	Size        int             `json:"size"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// Payment описывает попытку оплаты заказа.
type Payment struct {
	ID            int64               `json:"id"`
	OrderID       int64               `json:"orderId"`
	TransactionID *string             `json:"transactionId"`
	Method        PaymentMethod       `json:"method"`
	Amount        decimal.Decimal     `json:"amount"`
	Status        PaymentRecordStatus `json:"status"`
	PaidAt        *time.Time          `json:"paidAt"`
	CreatedAt     time.Time           `json:"createdAt"`
}

// Order описывает оформленный заказ.
type Order struct {
	ID              int64           `json:"id"`
	OrderNumber     string          `json:"orderNumber"`
	AccountID       int64           `json:"userId"`
	Items           []OrderItem     `json:"items"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	PaymentID       *int64          `json:"paymentId"`
	Payment         *Payment        `json:"payment,omitempty"`
	OrderStatus     OrderStatus     `json:"orderStatus"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// NewOrder формирует заказ из корзины. Позиции копируются, корзина не изменяется.
func NewOrder(accountID int64, number string, cart *Cart, addr ShippingAddress, method PaymentMethod) *Order {
	items := make([]OrderItem, 0, len(cart.Items))
	for _, ci := range cart.Items {
		items = append(items, OrderItem{
			InventoryID: ci.InventoryID,
			PerfumeName: ci.PerfumeName,
			Size:        ci.Size,
			Quantity:    ci.Quantity,
			Price:       ci.PriceAtTime,
			Subtotal:    ci.Subtotal(),
		})
	}

	paymentStatus := PaymentPaid
	if method.IsCashOnDelivery() {
		paymentStatus = PaymentPending
	}

	return &Order{
		OrderNumber:     number,
		AccountID:       accountID,
		Items:           items,
		TotalAmount:     cart.TotalAmount,
		PaymentMethod:   method,
		OrderStatus:     OrderPlaced,
		PaymentStatus:   paymentStatus,
		ShippingAddress: addr,
	}
}

// NewPayment формирует платёжную запись для заказа. Для наложенного платежа
// идентификатор транзакции и время оплаты не заполняются.
func NewPayment(o *Order, transactionID string, now time.Time) *Payment {
	p := &Payment{
		OrderID: o.ID,
		Method:  o.PaymentMethod,
		Amount:  o.TotalAmount,
		Status:  PaymentRecordPending,
	}

	if !o.PaymentMethod.IsCashOnDelivery() {
		paidAt := now
		p.TransactionID = &transactionID
		p.Status = PaymentRecordSuccess
		p.PaidAt = &paidAt
	}

	return p
}

// TransitionTo переводит заказ в новый статус, если переход допустим.
func (o *Order) TransitionTo(status OrderStatus) error {
	if !CanTransition(o.OrderStatus, status) {
		return ErrIllegalTransition
	}
	o.OrderStatus = status
	return nil
}

// SetPaymentStatus меняет статус оплаты заказа и синхронизирует платёжную запись.
func (o *Order) SetPaymentStatus(status PaymentStatus, now time.Time) error {
	if !paymentTransitions[o.PaymentStatus][status] {
		return ErrIllegalTransition
	}
	o.PaymentStatus = status

	if o.Payment == nil {
		return nil
	}

	switch status {
	case PaymentPaid:
		paidAt := now
		o.Payment.Status = PaymentRecordSuccess
		o.Payment.PaidAt = &paidAt
	case PaymentFailed:
		o.Payment.Status = PaymentRecordFailed
	case PaymentPending:
		o.Payment.Status = PaymentRecordPending
	}

	return nil
}
