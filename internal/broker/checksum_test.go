package broker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksum(t *testing.T) {
	payload := map[string]interface{}{
		"stock_code": "NIFTY",
		"quantity":   75,
	}

	t.Run("is deterministic", func(t *testing.T) {
		a, err := Checksum("2025-08-26T09:15:00.000Z", payload, "secret")
		require.NoError(t, err)
		b, err := Checksum("2025-08-26T09:15:00.000Z", payload, "secret")
		require.NoError(t, err)
		assert.Equal(t, a, b)
		assert.Len(t, a, 64)
	})

	t.Run("changes with every input", func(t *testing.T) {
		base, err := Checksum("2025-08-26T09:15:00.000Z", payload, "secret")
		require.NoError(t, err)

		ts, err := Checksum("2025-08-26T09:15:01.000Z", payload, "secret")
		require.NoError(t, err)
		assert.NotEqual(t, base, ts)

		sec, err := Checksum("2025-08-26T09:15:00.000Z", payload, "other")
		require.NoError(t, err)
		assert.NotEqual(t, base, sec)

		body, err := Checksum("2025-08-26T09:15:00.000Z", map[string]interface{}{"quantity": 150}, "secret")
		require.NoError(t, err)
		assert.NotEqual(t, base, body)
	})

	t.Run("rejects unmarshalable payload", func(t *testing.T) {
		_, err := Checksum("ts", func() {}, "secret")
		assert.Error(t, err)
	})
}
