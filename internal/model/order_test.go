package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from OrderStatus
		to   OrderStatus
		want bool
	}{
		{OrderPlaced, OrderPacked, true},
		{OrderPacked, OrderShipped, true},
		{OrderShipped, OrderDelivered, true},
		{OrderPlaced, OrderCancelled, true},
		{OrderShipped, OrderReturned, true},
		{OrderDelivered, OrderReturned, true},
		{OrderDelivered, OrderPlaced, false},
		{OrderDelivered, OrderCancelled, false},
		{OrderPlaced, OrderShipped, false},
		{OrderCancelled, OrderPlaced, false},
		{OrderReturned, OrderDelivered, false},
		{OrderPlaced, OrderPlaced, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Fatalf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func twoLineCart(t *testing.T) *Cart {
	t.Helper()
	c := &Cart{}
	require.NoError(t, c.Add(NewCartItem(testInventory(1, 500), 2)))
	require.NoError(t, c.Add(NewCartItem(testInventory(2, 300), 1)))
	return c
}

func TestNewOrderSnapshotsCart(t *testing.T) {
	c := twoLineCart(t)
	addr := ShippingAddress{Name: "Asha", Phone: "9876543210", City: "Pune", Pincode: "411001"}

	o := NewOrder(10, "ORD1", c, addr, MethodCOD)

	require.Len(t, o.Items, 2)
	assert.True(t, o.Items[0].Subtotal.Equal(decimal.NewFromInt(1000)))
	assert.True(t, o.Items[1].Subtotal.Equal(decimal.NewFromInt(300)))
	assert.True(t, o.TotalAmount.Equal(decimal.NewFromInt(1300)))
	assert.Equal(t, OrderPlaced, o.OrderStatus)
	assert.Equal(t, PaymentPending, o.PaymentStatus)
	assert.Equal(t, addr, o.ShippingAddress)

	c.Clear()
	assert.Len(t, o.Items, 2, "order items must survive cart clear")
}

func TestNewOrderPrepaidIsPaid(t *testing.T) {
	o := NewOrder(10, "ORD2", twoLineCart(t), ShippingAddress{}, MethodUPI)
	assert.Equal(t, PaymentPaid, o.PaymentStatus)
}

func TestNewPayment(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	cod := NewOrder(1, "ORD1", twoLineCart(t), ShippingAddress{}, MethodCOD)
	cod.ID = 5
	p := NewPayment(cod, "TXN-1", now)
	assert.Equal(t, int64(5), p.OrderID)
	assert.Equal(t, PaymentRecordPending, p.Status)
	assert.Nil(t, p.TransactionID)
	assert.Nil(t, p.PaidAt)
	assert.True(t, p.Amount.Equal(decimal.NewFromInt(1300)))

	card := NewOrder(1, "ORD2", twoLineCart(t), ShippingAddress{}, MethodCard)
	p = NewPayment(card, "TXN-2", now)
	assert.Equal(t, PaymentRecordSuccess, p.Status)
	require.NotNil(t, p.TransactionID)
	assert.Equal(t, "TXN-2", *p.TransactionID)
	require.NotNil(t, p.PaidAt)
	assert.Equal(t, now, *p.PaidAt)
}

func TestOrderTransitionTo(t *testing.T) {
	o := &Order{OrderStatus: OrderPlaced}

	require.NoError(t, o.TransitionTo(OrderPacked))
	assert.ErrorIs(t, o.TransitionTo(OrderPlaced), ErrIllegalTransition)
	assert.Equal(t, OrderPacked, o.OrderStatus)
}

func TestOrderSetPaymentStatusMirrorsPayment(t *testing.T) {
	now := time.Now()
	o := &Order{
		PaymentStatus: PaymentPending,
		Payment:       &Payment{Status: PaymentRecordPending},
	}

	require.NoError(t, o.SetPaymentStatus(PaymentPaid, now))
	assert.Equal(t, PaymentRecordSuccess, o.Payment.Status)
	require.NotNil(t, o.Payment.PaidAt)

	assert.ErrorIs(t, o.SetPaymentStatus(PaymentFailed, now), ErrIllegalTransition)
}
