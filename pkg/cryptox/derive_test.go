package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeriveKey(t *testing.T) {
	secret := []byte("0123456789abcdef0123456789abcdef")

	t.Run("deterministic", func(t *testing.T) {
		a, err := DeriveKey(secret, "credential", 32)
		require.NoError(t, err)
		b, err := DeriveKey(secret, "credential", 32)
		require.NoError(t, err)

		require.Len(t, a, 32)
		require.Equal(t, a, b)
	})

	t.Run("purpose separates keys", func(t *testing.T) {
		a, err := DeriveKey(secret, "credential", 32)
		require.NoError(t, err)
		b, err := DeriveKey(secret, "other", 32)
		require.NoError(t, err)

		require.NotEqual(t, a, b)
	})

	t.Run("empty secret", func(t *testing.T) {
		_, err := DeriveKey(nil, "credential", 32)
		require.ErrorIs(t, err, ErrEmptySecret)
	})

	t.Run("bad size", func(t *testing.T) {
		_, err := DeriveKey(secret, "credential", 0)
		require.Error(t, err)
	})
}

func TestKeyID(t *testing.T) {
	a := KeyID([]byte("key-a"))
	require.Len(t, a, 12)
	require.Equal(t, a, KeyID([]byte("key-a")))
	require.NotEqual(t, a, KeyID([]byte("key-b")))
}
