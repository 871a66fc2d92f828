package terminal

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFanoutDeliversInRegistrationOrder(t *testing.T) {
	f := NewFanout(nil)

	var order []string
	for _, name := range []string{"first", "second", "third"} {
		name := name
		_, err := f.Subscribe(func(chunk []byte) {
			order = append(order, name+":"+string(chunk))
		}, nil)
		require.NoError(t, err)
	}

	f.Publish([]byte("a"))
	f.Publish([]byte("b"))

	assert.Equal(t, []string{
		"first:a", "second:a", "third:a",
		"first:b", "second:b", "third:b",
	}, order)
}

func TestFanoutDisposeDuringDelivery(t *testing.T) {
	f := NewFanout(nil)

	var second *Subscription
	var got []string

	_, err := f.Subscribe(func(chunk []byte) {
		got = append(got, "first")
		second.Dispose()
	}, nil)
	require.NoError(t, err)

	second, err = f.Subscribe(func(chunk []byte) {
		got = append(got, "second")
	}, nil)
	require.NoError(t, err)

	f.Publish([]byte("x"))

	assert.Equal(t, []string{"first"}, got)
	assert.False(t, second.Active())
	assert.Equal(t, 1, f.Len())
}

func TestSubscriptionDisposeIsIdempotent(t *testing.T) {
	f := NewFanout(nil)

	sub, err := f.Subscribe(func([]byte) {}, nil)
	require.NoError(t, err)
	other, err := f.Subscribe(func([]byte) {}, nil)
	require.NoError(t, err)

	sub.Dispose()
	sub.Dispose()

	assert.Equal(t, 1, f.Len())
	assert.True(t, other.Active())
}

func TestFanoutIsolatesPanickingSubscriber(t *testing.T) {
	f := NewFanout(nil)

	_, err := f.Subscribe(func([]byte) { panic("boom") }, nil)
	require.NoError(t, err)

	var received []byte
	_, err = f.Subscribe(func(chunk []byte) { received = append(received, chunk...) }, nil)
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		f.Publish([]byte("ok"))
	})
	assert.Equal(t, "ok", string(received))
}

func TestFanoutClose(t *testing.T) {
	f := NewFanout(nil)

	closed := 0
	live, err := f.Subscribe(func([]byte) {}, func() { closed++ })
	require.NoError(t, err)

	disposed, err := f.Subscribe(func([]byte) {}, func() { closed += 100 })
	require.NoError(t, err)
	disposed.Dispose()

	f.Close()
	f.Close()

	assert.Equal(t, 1, closed)
	assert.False(t, live.Active())
	assert.Equal(t, 0, f.Len())

	_, err = f.Subscribe(func([]byte) {}, nil)
	assert.ErrorIs(t, err, ErrStreamClosed)

	assert.NotPanics(t, func() {
		f.Publish([]byte("late"))
		live.Dispose()
	})
}

func TestFanoutRequiresCallback(t *testing.T) {
	f := NewFanout(nil)
	_, err := f.Subscribe(nil, nil)
	assert.Error(t, err)
}

func TestFanoutConcurrentSubscribers(t *testing.T) {
	f := NewFanout(nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub, err := f.Subscribe(func([]byte) {}, nil)
			if err != nil {
				return
			}
			f.Publish([]byte("x"))
			sub.Dispose()
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, f.Len())
}
