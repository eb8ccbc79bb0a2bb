package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// 遷移表にあるペアだけ通る
func TestOrderStatus_CanTransitionTo(t *testing.T) {
	allowed := []struct {
		from OrderStatus
		to   OrderStatus
	}{
		{OrderStatusPlaced, OrderStatusProcessing},
		{OrderStatusPlaced, OrderStatusCancelled},
		{OrderStatusProcessing, OrderStatusShipped},
		{OrderStatusProcessing, OrderStatusCancelled},
		{OrderStatusShipped, OrderStatusOutForDelivery},
		{OrderStatusShipped, OrderStatusDelivered},
		{OrderStatusOutForDelivery, OrderStatusDelivered},
	}
	for _, tc := range allowed {
		assert.True(t, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}

	denied := []struct {
		from OrderStatus
		to   OrderStatus
	}{
		{OrderStatusPlaced, OrderStatusShipped},
		{OrderStatusPlaced, OrderStatusDelivered},
		{OrderStatusProcessing, OrderStatusPlaced},
		{OrderStatusProcessing, OrderStatusDelivered},
		{OrderStatusShipped, OrderStatusCancelled},
		{OrderStatusOutForDelivery, OrderStatusCancelled},
		{OrderStatusDelivered, OrderStatusProcessing},
		{OrderStatusCancelled, OrderStatusPlaced},

		//自分自身への「遷移」も無い
		{OrderStatusPlaced, OrderStatusPlaced},
		{OrderStatusDelivered, OrderStatusDelivered},
	}
	for _, tc := range denied {
		assert.False(t, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

// delivered / cancelled は終端
func TestOrderStatus_IsTerminal(t *testing.T) {
	assert.True(t, OrderStatusDelivered.IsTerminal())
	assert.True(t, OrderStatusCancelled.IsTerminal())

	assert.False(t, OrderStatusPlaced.IsTerminal())
	assert.False(t, OrderStatusProcessing.IsTerminal())
	assert.False(t, OrderStatusShipped.IsTerminal())
	assert.False(t, OrderStatusOutForDelivery.IsTerminal())
}

func TestParseOrderStatus(t *testing.T) {
	st, ok := ParseOrderStatus("out_for_delivery")
	assert.True(t, ok)
	assert.Equal(t, OrderStatusOutForDelivery, st)

	_, ok = ParseOrderStatus("returned")
	assert.False(t, ok)

	_, ok = ParseOrderStatus("")
	assert.False(t, ok)
}

func TestNextStatuses(t *testing.T) {
	assert.ElementsMatch(t,
		[]OrderStatus{OrderStatusProcessing, OrderStatusCancelled},
		NextStatuses(OrderStatusPlaced))
	assert.Empty(t, NextStatuses(OrderStatusDelivered))

	//未知の値は空
	assert.Empty(t, NextStatuses(OrderStatus("returned")))
}

func TestParsePaymentMethod(t *testing.T) {
	m, ok := ParsePaymentMethod("gateway")
	assert.True(t, ok)
	assert.Equal(t, PaymentMethodGateway, m)

	m, ok = ParsePaymentMethod("cod")
	assert.True(t, ok)
	assert.Equal(t, PaymentMethodCOD, m)

	_, ok = ParsePaymentMethod("upi")
	assert.False(t, ok)
}
