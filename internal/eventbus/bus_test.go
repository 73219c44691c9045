package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arclight-sim/elevator-traffic-sim/internal/domain"
)

func TestPublish_DeliversInSubscriptionOrder(t *testing.T) {
	bus := New()
	var order []string

	bus.Subscribe(func(domain.Event) { order = append(order, "a") })
	bus.Subscribe(func(domain.Event) { order = append(order, "b") })
	bus.Subscribe(func(domain.Event) { order = append(order, "c") })

	bus.Publish(domain.RunStarted{})

	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestUnsubscribe_StopsDelivery(t *testing.T) {
	bus := New()
	count := 0
	sub := bus.Subscribe(func(domain.Event) { count++ })

	bus.Publish(domain.RunStarted{})
	sub.Unsubscribe()
	bus.Publish(domain.RunStarted{})

	assert.Equal(t, 1, count)
}

func TestUnsubscribe_Idempotent(t *testing.T) {
	bus := New()
	sub := bus.Subscribe(func(domain.Event) {})
	sub.Unsubscribe()
	assert.NotPanics(t, func() { sub.Unsubscribe() })
}

func TestSubscribe_DuringHandlerDoesNotDeadlock(t *testing.T) {
	bus := New()
	var secondFired bool
	bus.Subscribe(func(domain.Event) {
		bus.Subscribe(func(domain.Event) { secondFired = true })
	})

	bus.Publish(domain.RunStarted{})
	bus.Publish(domain.RunStarted{})

	assert.True(t, secondFired)
}
