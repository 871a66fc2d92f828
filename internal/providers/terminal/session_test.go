package terminal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuffer(t *testing.T) {
	t.Run("retains everything under capacity", func(t *testing.T) {
		b := NewBuffer(16)
		b.Write([]byte("hello "))
		b.Write([]byte("world"))

		assert.Equal(t, "hello world", string(b.Bytes()))
		assert.Equal(t, 11, b.Len())
		assert.Equal(t, int64(11), b.Total())
	})

	t.Run("evicts oldest bytes", func(t *testing.T) {
		b := NewBuffer(5)
		b.Write([]byte("abc"))
		b.Write([]byte("defg"))

		assert.Equal(t, "cdefg", string(b.Bytes()))
		assert.Equal(t, 5, b.Len())
		assert.Equal(t, int64(7), b.Total())
	})

	t.Run("snapshot pairs bytes with total", func(t *testing.T) {
		b := NewBuffer(4)
		b.Write([]byte("abcdef"))

		data, total := b.Snapshot()
		assert.Equal(t, "cdef", string(data))
		assert.Equal(t, int64(6), total)
	})

	t.Run("oversized write keeps tail", func(t *testing.T) {
		b := NewBuffer(4)
		b.Write([]byte("xy"))
		b.Write([]byte("0123456789"))

		assert.Equal(t, "6789", string(b.Bytes()))

		b.Write([]byte("a"))
		assert.Equal(t, "789a", string(b.Bytes()))
	})

	t.Run("bytes is a copy", func(t *testing.T) {
		b := NewBuffer(8)
		b.Write([]byte("abc"))

		out := b.Bytes()
		out[0] = 'z'
		assert.Equal(t, "abc", string(b.Bytes()))
	})

	t.Run("non positive size", func(t *testing.T) {
		b := NewBuffer(0)
		b.Write([]byte("ab"))
		assert.Equal(t, "b", string(b.Bytes()))
	})
}
