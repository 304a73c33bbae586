package broker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeRight(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"call", "Call"},
		{"CALL", "Call"},
		{"Call", "Call"},
		{"c", "Call"},
		{"", "Call"},
		{"put", "Put"},
		{"PUT", "Put"},
		{"p", "Put"},
		{"others", "Put"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeRight(tc.in), "input %q", tc.in)
	}
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "24500", formatFloat(24500))
	assert.Equal(t, "24512.5", formatFloat(24512.5))
	assert.Equal(t, "0", formatFloat(0))
}

func TestResponseHelpers(t *testing.T) {
	t.Run("rows from a list payload", func(t *testing.T) {
		r := &Response{Status: 200, Success: []interface{}{
			map[string]interface{}{"a": 1.0},
			map[string]interface{}{"a": 2.0},
		}}
		assert.Len(t, r.Rows(), 2)
	})

	t.Run("rows from a single object payload", func(t *testing.T) {
		r := &Response{Status: 200, Success: map[string]interface{}{"a": 1.0}}
		assert.Len(t, r.Rows(), 1)
	})

	t.Run("order id from the success object", func(t *testing.T) {
		r := &Response{Status: 200, Success: map[string]interface{}{"order_id": "OID-7"}}
		assert.Equal(t, "OID-7", r.OrderID())
	})

	t.Run("nil response is not OK", func(t *testing.T) {
		var r *Response
		assert.False(t, r.OK())
	})
}
