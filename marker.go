package gokeyset

import (
	"bytes"
	"fmt"
	"math/big"
	"reflect"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Marker identifies a place in an ordered result set together with the
// direction to page in from there.
//
// Values holds one value per ordering column, in ordering order. A marker
// with no values is the sentinel: the start of the result set when paging
// forwards, its end when paging backwards.
type Marker struct {
	Values    []any
	Backwards bool
}

// NewMarker returns a marker positioned at values.
func NewMarker(backwards bool, values ...any) Marker {
	return Marker{Values: values, Backwards: backwards}
}

// Sentinel returns the marker for the first page, or the last page when
// backwards is set.
func Sentinel(backwards bool) Marker {
	return Marker{Backwards: backwards}
}

// IsSentinel reports whether the marker has no place.
func (m Marker) IsSentinel() bool {
	return len(m.Values) == 0
}

// Reversed returns the same place with the opposite direction.
func (m Marker) Reversed() Marker {
	return Marker{Values: m.Values, Backwards: !m.Backwards}
}

// String returns the bookmark form of the marker using the default registry.
// It returns an empty string when the marker cannot be serialized.
func (m Marker) String() string {
	s, err := SerializeMarker(m)
	if err != nil {
		return ""
	}

	return s
}

// Equal reports whether both markers have the same direction and equal values.
// Integers, floats and strings compare by value regardless of their Go type,
// times by instant, dates by calendar day.
func (m Marker) Equal(other Marker) bool {
	if m.Backwards != other.Backwards || len(m.Values) != len(other.Values) {
		return false
	}

	for i := range m.Values {
		if !valuesEqual(m.Values[i], other.Values[i]) {
			return false
		}
	}

	return true
}

var _ fmt.Stringer = Marker{}

func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if ai, ok := asBigInt(a); ok {
		bi, ok := asBigInt(b)
		return ok && ai.Cmp(bi) == 0
	}

	if af, abits, ok := asFloat(a); ok {
		bf, bbits, ok := asFloat(b)
		if !ok {
			return false
		}
		if abits == 32 || bbits == 32 {
			return float32(af) == float32(bf)
		}
		return af == bf
	}

	if as, ok := asString(a); ok {
		bs, ok := asString(b)
		return ok && as == bs
	}

	switch av := a.(type) {
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	case datatypes.Date:
		bv, ok := b.(datatypes.Date)
		if !ok {
			return false
		}
		ay, am, ad := time.Time(av).Date()
		by, bm, bd := time.Time(bv).Date()
		return ay == by && am == bm && ad == bd
	case decimal.Decimal:
		bv, ok := b.(decimal.Decimal)
		return ok && av.Equal(bv)
	case []byte:
		bv, ok := b.([]byte)
		return ok && bytes.Equal(av, bv)
	}

	return reflect.DeepEqual(a, b)
}

func asBigInt(v any) (*big.Int, bool) {
	if b, ok := v.(*big.Int); ok {
		return b, b != nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return big.NewInt(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return new(big.Int).SetUint64(rv.Uint()), true
	default:
		return nil, false
	}
}

func asFloat(v any) (float64, int, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32:
		return rv.Float(), 32, true
	case reflect.Float64:
		return rv.Float(), 64, true
	default:
		return 0, 0, false
	}
}

func asString(v any) (string, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.String {
		return "", false
	}

	return rv.String(), true
}
