package signal

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_GetReturnsInitial(t *testing.T) {
	v := NewValue(3)
	assert.Equal(t, 3, v.Get())
}

func TestValue_SetNotifiesOnChange(t *testing.T) {
	v := NewValue("a")

	var got []string
	v.Subscribe(func(s string) { got = append(got, s) })

	assert.True(t, v.Set("b"))
	assert.False(t, v.Set("b"))
	assert.True(t, v.Set("c"))

	assert.Equal(t, []string{"b", "c"}, got)
	assert.Equal(t, "c", v.Get())
}

func TestValue_SubscribeDoesNotReplayCurrent(t *testing.T) {
	v := NewValue(true)
	calls := 0
	v.Subscribe(func(bool) { calls++ })
	assert.Equal(t, 0, calls)
}

func TestValue_Unsubscribe(t *testing.T) {
	v := NewValue(0)
	calls := 0
	cancel := v.Subscribe(func(int) { calls++ })

	v.Set(1)
	cancel()
	cancel() // second call is a no-op
	v.Set(2)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, v.Subscribers())
}

func TestValue_SubscribersCalledInOrder(t *testing.T) {
	v := NewValue(0)
	var order []string
	v.Subscribe(func(int) { order = append(order, "first") })
	v.Subscribe(func(int) { order = append(order, "second") })

	v.Set(1)

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestValue_ConcurrentSetDeliversEveryChangeOnce(t *testing.T) {
	v := NewValue(0)
	var mu sync.Mutex
	seen := make(map[int]int)
	v.Subscribe(func(n int) {
		mu.Lock()
		seen[n]++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			v.Set(n)
		}(i)
	}
	wg.Wait()

	for n, count := range seen {
		assert.Equal(t, 1, count, "value %d delivered more than once", n)
	}
}

func TestEvent_SendDelivers(t *testing.T) {
	e := NewEvent[string]()
	received, cancel := Collect(e)
	defer cancel()

	e.Send("x")
	e.Send("x")

	assert.Equal(t, []string{"x", "x"}, received())
}

func TestEvent_NoSubscribers(t *testing.T) {
	e := NewEvent[int]()
	require.NotPanics(t, func() { e.Send(1) })
	assert.Equal(t, 0, e.Subscribers())
}

func TestEvent_UnsubscribeDuringDelivery(t *testing.T) {
	e := NewEvent[int]()
	var cancel func()
	calls := 0
	cancel = e.Subscribe(func(int) {
		calls++
		cancel()
	})

	e.Send(1)
	e.Send(2)

	assert.Equal(t, 1, calls)
}
