package gokeyset

import (
	"math/big"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func Test_Marker_basics(t *testing.T) {
	m := NewMarker(false, "Joseph Heller", 123)

	assert.False(t, m.IsSentinel())
	assert.True(t, Sentinel(true).IsSentinel())
	assert.True(t, Marker{Values: []any{}}.IsSentinel())

	r := m.Reversed()
	assert.True(t, r.Backwards)
	assert.Equal(t, m.Values, r.Values)
	assert.False(t, m.Backwards)

	assert.Equal(t, ">s:Joseph Heller~i:123", m.String())
	assert.Equal(t, "<s:Joseph Heller~i:123", r.String())
}

type tStatus string

type tWeight float32

func Test_Marker_Equal(t *testing.T) {
	at := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	big1 := big.NewInt(1)

	tests := []struct {
		name string
		a, b Marker
		want bool
	}{
		{"sentinels", Sentinel(false), Sentinel(false), true},
		{"sentinel directions differ", Sentinel(false), Sentinel(true), false},
		{"direction differs", NewMarker(false, 1), NewMarker(true, 1), false},
		{"length differs", NewMarker(false, 1), NewMarker(false, 1, 2), false},
		{"integer types differ", NewMarker(false, int32(1), uint8(2)), NewMarker(false, int64(1), 2), true},
		{"big integer", NewMarker(false, big1), NewMarker(false, int64(1)), true},
		{"integer vs string", NewMarker(false, 1), NewMarker(false, "1"), false},
		{"float widths", NewMarker(false, float32(0.5)), NewMarker(false, 0.5), true},
		{"times by instant", NewMarker(false, at), NewMarker(false, at.In(time.FixedZone("", 3600))), true},
		{"different times", NewMarker(false, at), NewMarker(false, at.Add(time.Nanosecond)), false},
		{"decimals by value", NewMarker(false, decimal.RequireFromString("1.50")), NewMarker(false, decimal.RequireFromString("1.5")), true},
		{"dates", NewMarker(false, datatypes.Date(at)), NewMarker(false, datatypes.Date(at)), true},
		{"dates by calendar day", NewMarker(false, datatypes.Date(at)), NewMarker(false, datatypes.Date(time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC))), true},
		{"different dates", NewMarker(false, datatypes.Date(at)), NewMarker(false, datatypes.Date(at.AddDate(0, 0, 1))), false},
		{"named string", NewMarker(false, tStatus("open")), NewMarker(false, "open"), true},
		{"different named strings", NewMarker(false, tStatus("open")), NewMarker(false, tStatus("closed")), false},
		{"named float", NewMarker(false, tWeight(1.5)), NewMarker(false, 1.5), true},
		{"float vs string", NewMarker(false, 1.5), NewMarker(false, "1.5"), false},
		{"bytes", NewMarker(false, []byte("ab")), NewMarker(false, []byte("ab")), true},
		{"nil vs value", NewMarker(false, nil), NewMarker(false, 0), false},
		{"nils", NewMarker(false, nil), NewMarker(false, nil), true},
		{"booleans", NewMarker(false, true), NewMarker(false, false), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
			assert.Equal(t, tt.want, tt.b.Equal(tt.a))
		})
	}
}
