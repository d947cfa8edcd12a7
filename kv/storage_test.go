package kv

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStorage(t *testing.T) {
	getHeaders := func() *Storage {
		return New().
			Add("Foo", "bar").
			Add("Hello", "World").
			Add("Lorem", "ipsum").
			Add("hello", "Pavlo")
	}

	t.Run("case-insensitive lookup", func(t *testing.T) {
		kv := getHeaders()
		require.True(t, kv.Has("HELLO"))
		require.Equal(t, "World", kv.Value("hELLo"))
		require.Equal(t, "bar", kv.ValueOr("foo", "fallback"))
		require.Equal(t, "fallback", kv.ValueOr("nonexistent", "fallback"))
	})

	t.Run("first against last occurrence", func(t *testing.T) {
		kv := getHeaders()

		first, found := kv.Get("hello")
		require.True(t, found)
		require.Equal(t, "World", first)

		last, found := kv.Last("hello")
		require.True(t, found)
		require.Equal(t, "Pavlo", last)

		_, found = kv.Last("nonexistent")
		require.False(t, found)
	})

	t.Run("values", func(t *testing.T) {
		kv := getHeaders()
		require.Equal(t, []string{"World", "Pavlo"}, kv.Values("Hello"))
		require.Nil(t, kv.Values("nonexistent"))
	})

	t.Run("remove", func(t *testing.T) {
		kv := getHeaders().Remove("HELLO")

		want := []Pair{
			{"Foo", "bar"},
			{"Lorem", "ipsum"},
		}
		require.Equal(t, want, kv.Expose())
		require.False(t, kv.Has("hello"))
	})

	t.Run("set", func(t *testing.T) {
		kv := getHeaders().Set("HELLO", "no more Pavlo")

		require.Equal(t, 3, kv.Len())
		require.Equal(t, []string{"no more Pavlo"}, kv.Values("hello"))
	})

	t.Run("from map", func(t *testing.T) {
		kv := NewFromMap(map[string][]string{
			"Connection": {"keep-alive"},
		})
		require.Equal(t, 1, kv.Len())
		require.Equal(t, "keep-alive", kv.Value("connection"))
	})

	t.Run("clear", func(t *testing.T) {
		kv := getHeaders().Clear()
		require.True(t, kv.Empty())
		require.Zero(t, kv.Len())
	})
}
