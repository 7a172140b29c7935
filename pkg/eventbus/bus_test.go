package eventbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesSubscribersOfTopic(t *testing.T) {
	bus := New(4)
	defer bus.Close()

	a, cancelA := bus.Subscribe("simulator.outbound")
	defer cancelA()
	other, cancelOther := bus.Subscribe("other")
	defer cancelOther()

	require.NoError(t, bus.Publish("simulator.outbound", "hello"))

	select {
	case env := <-a:
		assert.Equal(t, "hello", env.Payload)
		assert.Equal(t, "simulator.outbound", env.Topic)
		assert.False(t, env.PublishedAt.IsZero())
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}

	select {
	case <-other:
		t.Fatal("unexpected delivery to other topic")
	default:
	}
}

func TestPublishDoesNotBlockOnFullSubscriber(t *testing.T) {
	bus := New(1)
	defer bus.Close()

	_, cancel := bus.Subscribe("t")
	defer cancel()

	require.NoError(t, bus.Publish("t", 1))
	require.NoError(t, bus.Publish("t", 2))
	assert.EqualValues(t, 1, bus.Dropped())
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := New(1)
	ch, cancel := bus.Subscribe("t")
	assert.Equal(t, 1, bus.Subscribers("t"))

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)
	assert.Zero(t, bus.Subscribers("t"))
}

func TestCloseRejectsPublish(t *testing.T) {
	bus := New(1)
	ch, cancel := bus.Subscribe("t")
	bus.Close()
	cancel()

	_, open := <-ch
	assert.False(t, open)
	assert.ErrorIs(t, bus.Publish("t", 1), ErrClosed)

	late, _ := bus.Subscribe("t")
	_, open = <-late
	assert.False(t, open)
}
