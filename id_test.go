package jsonrpc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		id   Id
		json string
	}{
		{"null", NullId, "null"},
		{"number", NumberId(42), "42"},
		{"zero", NumberId(0), "0"},
		{"text", TextId("abc-123"), `"abc-123"`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			out, err := json.Marshal(c.id)
			require.NoError(t, err)
			assert.JSONEq(t, c.json, string(out))

			var decoded Id
			require.NoError(t, json.Unmarshal(out, &decoded))
			assert.Equal(t, c.id, decoded)
		})
	}
}

func TestIdRejectsNonU64(t *testing.T) {
	cases := []string{"-1", "1.5", "true", "[1]", "{}"}
	for _, c := range cases {
		var id Id
		err := json.Unmarshal([]byte(c), &id)
		assert.Errorf(t, err, "expected %q to be rejected", c)
	}
}

func TestIdAsMapKey(t *testing.T) {
	m := map[Id]string{
		NumberId(1): "one",
		TextId("x"): "ex",
	}
	assert.Equal(t, "one", m[NumberId(1)])
	assert.Equal(t, "ex", m[TextId("x")])
	_, ok := m[NumberId(2)]
	assert.False(t, ok)
}
