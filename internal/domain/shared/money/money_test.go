package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCode(t *testing.T) {
	for raw, want := range map[string]string{" cop ": "COP", "usd": "USD"} {
		got, err := Code(raw)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	for _, raw := range []string{"", "PESO", "U$D", "12A"} {
		_, err := Code(raw)
		assert.ErrorIs(t, err, ErrInvalidCurrency, raw)
	}
}

func TestNew(t *testing.T) {
	m, err := New(400, " cop ")
	require.NoError(t, err)
	assert.Equal(t, Money{Amount: 400, Currency: "COP"}, m)

	_, err = New(1, "PESO")
	assert.ErrorIs(t, err, ErrInvalidCurrency)
	assert.Panics(t, func() { Must(1, "") })
}
