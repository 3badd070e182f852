package conv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigGet(t *testing.T) {
	m := map[string]any{"expr": "item.score > 0.5", "n": 5}

	assert.Equal(t, "item.score > 0.5", ConfigGet(m, "expr", ""))
	assert.Equal(t, "fallback", ConfigGet(m, "missing", "fallback"))
	assert.Equal(t, "fallback", ConfigGet(m, "n", "fallback"))
	assert.Equal(t, "fallback", ConfigGet(nil, "expr", "fallback"))
}

func TestConfigGetInt(t *testing.T) {
	tests := []struct {
		name string
		v    any
		want int
	}{
		{"yaml int", 5, 5},
		{"yaml int64", int64(6), 6},
		{"json whole float", 7.0, 7},
		{"json fraction", 7.5, 1},
		{"string", "8", 1},
		{"missing", nil, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := map[string]any{}
			if tt.v != nil {
				m["n"] = tt.v
			}
			assert.Equal(t, tt.want, ConfigGetInt(m, "n", 1))
		})
	}
	assert.Equal(t, 3, ConfigGetInt(nil, "n", 3))
}
