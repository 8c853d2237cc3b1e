package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{OrderStatusPending, OrderStatusProcessing, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusShipped, false},
		{OrderStatusPending, OrderStatusDelivered, false},
		{OrderStatusProcessing, OrderStatusShipped, true},
		{OrderStatusProcessing, OrderStatusCancelled, true},
		{OrderStatusProcessing, OrderStatusPending, false},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusCancelled, false},
		{OrderStatusDelivered, OrderStatusRefunded, true},
		{OrderStatusCancelled, OrderStatusRefunded, true},
		{OrderStatusRefunded, OrderStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestOrderStatus_IsTerminal(t *testing.T) {
	assert.True(t, OrderStatusRefunded.IsTerminal())
	assert.False(t, OrderStatusPending.IsTerminal())
	assert.False(t, OrderStatusCancelled.IsTerminal())
	assert.False(t, OrderStatusDelivered.IsTerminal())
}

func TestCart_DerivedTotals(t *testing.T) {
	cart := &Cart{
		Lines: []CartLine{
			{ItemID: "med_1", UnitPrice: 50, Quantity: 2},
			{ItemID: "lab_1", UnitPrice: 300, Quantity: 1},
		},
	}

	assert.Equal(t, 400.0, cart.Subtotal())
	assert.Equal(t, 3, cart.TotalItemCount())

	cart.Lines[0].Quantity = 5
	assert.Equal(t, 550.0, cart.Subtotal())
	assert.Equal(t, 6, cart.TotalItemCount())
}

func TestCart_Clone_IsDeep(t *testing.T) {
	cart := &Cart{
		SessionID: "s1",
		Lines:     []CartLine{{ItemID: "med_1", UnitPrice: 50, Quantity: 2}},
	}

	cp := cart.Clone()
	cp.Lines[0].Quantity = 99

	assert.Equal(t, 2, cart.Lines[0].Quantity)
}
