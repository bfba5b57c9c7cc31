package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusTransitions(t *testing.T) {
	assert.True(t, OrderStatusPlaced.CanTransitionTo(OrderStatusConfirmed))
	assert.True(t, OrderStatusPlaced.CanTransitionTo(OrderStatusCancelled))
	assert.True(t, OrderStatusConfirmed.CanTransitionTo(OrderStatusShipped))
	assert.True(t, OrderStatusConfirmed.CanTransitionTo(OrderStatusCancelled))
	assert.True(t, OrderStatusShipped.CanTransitionTo(OrderStatusDelivered))

	// No skipping ahead or moving backwards.
	assert.False(t, OrderStatusPlaced.CanTransitionTo(OrderStatusShipped))
	assert.False(t, OrderStatusPlaced.CanTransitionTo(OrderStatusDelivered))
	assert.False(t, OrderStatusShipped.CanTransitionTo(OrderStatusCancelled))
	assert.False(t, OrderStatusConfirmed.CanTransitionTo(OrderStatusPlaced))

	// Terminal states stay terminal.
	for _, next := range []OrderStatus{OrderStatusPlaced, OrderStatusConfirmed, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled} {
		assert.False(t, OrderStatusDelivered.CanTransitionTo(next))
		assert.False(t, OrderStatusCancelled.CanTransitionTo(next))
	}
}

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole("user"))
	assert.True(t, ValidRole("employee"))
	assert.True(t, ValidRole("admin"))
	assert.False(t, ValidRole(""))
	assert.False(t, ValidRole("superuser"))
	assert.False(t, ValidRole("Admin"))
}
