package gokeyset

import (
	"database/sql/driver"
	"encoding/base64"
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Type tags of the builtin bookmark value kinds.
const (
	TagString   = "s"
	TagBytes    = "b"
	TagInteger  = "i"
	TagFloat    = "f"
	TagDecimal  = "n"
	TagDate     = "d"
	TagDateTime = "dt"
	TagTime     = "t"
	TagUUID     = "uuid"
)

// Values serialized without a type tag.
const (
	literalNil   = "x"
	literalTrue  = "true"
	literalFalse = "false"
)

type (
	// Serializer turns a value of a registered type into its textual payload.
	Serializer func(v any) (string, error)

	// Deserializer is the inverse of Serializer.
	Deserializer func(payload string) (any, error)

	typeCodec struct {
		tag         string
		serialize   Serializer
		deserialize Deserializer
	}
)

// TypeRegistry maps Go value types to bookmark type tags and back.
//
// A registry is append-only. Register all custom types at startup, before
// any bookmark referencing them is parsed, and optionally Freeze it.
type TypeRegistry struct {
	mu     sync.RWMutex
	frozen bool
	byType map[reflect.Type]*typeCodec
	byTag  map[string]*typeCodec
}

var _defaultRegistry = NewTypeRegistry()

// DefaultRegistry returns the process-wide registry used by the package-level
// codec functions.
func DefaultRegistry() *TypeRegistry {
	return _defaultRegistry
}

// NewTypeRegistry returns a registry populated with the builtin value kinds.
func NewTypeRegistry() *TypeRegistry {
	r := &TypeRegistry{
		byType: make(map[reflect.Type]*typeCodec),
		byTag:  make(map[string]*typeCodec),
	}

	integer := &typeCodec{tag: TagInteger, serialize: serializeInteger, deserialize: deserializeInteger}
	for _, sample := range []any{
		int(0), int8(0), int16(0), int32(0), int64(0),
		uint(0), uint8(0), uint16(0), uint32(0), uint64(0),
		(*big.Int)(nil),
	} {
		r.byType[reflect.TypeOf(sample)] = integer
	}
	r.byTag[TagInteger] = integer

	float := &typeCodec{tag: TagFloat, serialize: serializeFloat, deserialize: deserializeFloat}
	r.byType[reflect.TypeOf(float32(0))] = float
	r.byType[reflect.TypeOf(float64(0))] = float
	r.byTag[TagFloat] = float

	r.mustRegisterBuiltin("", TagString,
		func(v any) (string, error) { return reflect.ValueOf(v).String(), nil },
		func(s string) (any, error) { return s, nil },
	)
	r.mustRegisterBuiltin([]byte(nil), TagBytes,
		func(v any) (string, error) { return base64.StdEncoding.EncodeToString(v.([]byte)), nil },
		func(s string) (any, error) { return base64.StdEncoding.DecodeString(s) },
	)
	r.mustRegisterBuiltin(decimal.Decimal{}, TagDecimal,
		func(v any) (string, error) { return v.(decimal.Decimal).String(), nil },
		func(s string) (any, error) { return decimal.NewFromString(s) },
	)
	r.mustRegisterBuiltin(uuid.UUID{}, TagUUID,
		func(v any) (string, error) { return v.(uuid.UUID).String(), nil },
		func(s string) (any, error) { return uuid.Parse(s) },
	)
	r.mustRegisterBuiltin(datatypes.Date{}, TagDate, serializeDate, deserializeDate)
	r.mustRegisterBuiltin(datatypes.Time(0), TagTime, serializeTimeOfDay, deserializeTimeOfDay)
	r.mustRegisterBuiltin(time.Time{}, TagDateTime, serializeDateTime, deserializeDateTime)

	return r
}

func (r *TypeRegistry) mustRegisterBuiltin(sample any, tag string, serialize Serializer, deserialize Deserializer) {
	if err := r.Register(sample, tag, serialize, deserialize); err != nil {
		panic(err)
	}
}

// Register adds a bookmark codec for the runtime type of sample under tag.
//
// Tags must be alphanumeric and unique; a type can be registered only once.
func (r *TypeRegistry) Register(sample any, tag string, serialize Serializer, deserialize Deserializer) error {
	if sample == nil {
		return fmt.Errorf("%w: cannot register the nil type", ErrConfiguration)
	}
	if serialize == nil || deserialize == nil {
		return fmt.Errorf("%w: serializer and deserializer are required for tag '%s'", ErrConfiguration, tag)
	}
	if err := validateTag(tag); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return fmt.Errorf("%w: registry is frozen", ErrConfiguration)
	}

	typ := reflect.TypeOf(sample)
	if _, ok := r.byType[typ]; ok {
		return fmt.Errorf("%w: type %s already has a serializer registered", ErrConfiguration, typ)
	}
	if _, ok := r.byTag[tag]; ok {
		return fmt.Errorf("%w: type tag '%s' is already in use", ErrConfiguration, tag)
	}

	codec := &typeCodec{tag: tag, serialize: serialize, deserialize: deserialize}
	r.byType[typ] = codec
	r.byTag[tag] = codec

	return nil
}

// Freeze makes the registry read-only. Subsequent registrations fail.
func (r *TypeRegistry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// RegisterType registers a bookmark codec for T in the default registry.
//
// Usage:
//
//	err := gokeyset.RegisterType("money",
//		func(m Money) (string, error) { return m.String(), nil },
//		ParseMoney,
//	)
func RegisterType[T any](tag string, serialize func(T) (string, error), deserialize func(string) (T, error)) error {
	return RegisterTypeIn(_defaultRegistry, tag, serialize, deserialize)
}

// RegisterTypeIn is RegisterType for an explicit registry.
func RegisterTypeIn[T any](r *TypeRegistry, tag string, serialize func(T) (string, error), deserialize func(string) (T, error)) error {
	if serialize == nil || deserialize == nil {
		return fmt.Errorf("%w: serializer and deserializer are required for tag '%s'", ErrConfiguration, tag)
	}

	var zero T
	if reflect.TypeOf(&zero).Elem().Kind() == reflect.Interface {
		return fmt.Errorf("%w: cannot register interface type %T", ErrConfiguration, &zero)
	}

	return r.Register(zero, tag,
		func(v any) (string, error) { return serialize(v.(T)) },
		func(s string) (any, error) { return deserialize(s) },
	)
}

// lookupValue finds the codec for a value. Named types without their own
// registration fall back to the codec of their underlying integer, float or
// string kind.
func (r *TypeRegistry) lookupValue(v any) (*typeCodec, bool) {
	typ := reflect.TypeOf(v)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if codec, ok := r.byType[typ]; ok {
		return codec, true
	}

	switch typ.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return r.byTag[TagInteger], true
	case reflect.Float32, reflect.Float64:
		return r.byTag[TagFloat], true
	case reflect.String:
		return r.byTag[TagString], true
	default:
		return nil, false
	}
}

func (r *TypeRegistry) lookupTag(tag string) (*typeCodec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	codec, ok := r.byTag[tag]

	return codec, ok
}

// comparable reports whether v can be bound into a paging condition.
func (r *TypeRegistry) comparable(v any) bool {
	switch v.(type) {
	case nil, bool, driver.Valuer:
		return true
	}

	_, ok := r.lookupValue(v)

	return ok
}

func validateTag(tag string) error {
	if tag == "" {
		return fmt.Errorf("%w: empty type tag", ErrConfiguration)
	}
	if tag == literalNil || tag == literalTrue || tag == literalFalse {
		return fmt.Errorf("%w: type tag '%s' is reserved", ErrConfiguration, tag)
	}
	for _, r := range tag {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return fmt.Errorf("%w: type tag '%s' must be alphanumeric", ErrConfiguration, tag)
		}
	}

	return nil
}

func serializeInteger(v any) (string, error) {
	if b, ok := v.(*big.Int); ok {
		if b == nil {
			return "", fmt.Errorf("nil *big.Int")
		}
		return b.String(), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	default:
		return "", fmt.Errorf("%T is not an integer", v)
	}
}

// deserializeInteger returns an int64, or a *big.Int for values out of its
// range.
func deserializeInteger(s string) (any, error) {
	i, err := strconv.ParseInt(s, 10, 64)
	if err == nil {
		return i, nil
	}

	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid integer '%s'", s)
	}

	return b, nil
}

func serializeFloat(v any) (string, error) {
	rv := reflect.ValueOf(v)
	bitSize := 64
	if rv.Kind() == reflect.Float32 {
		bitSize = 32
	}

	s := strconv.FormatFloat(rv.Float(), 'g', -1, bitSize)
	if !strings.ContainsAny(s, ".eEIN") {
		s += ".0"
	}

	return s, nil
}

func deserializeFloat(s string) (any, error) {
	return strconv.ParseFloat(s, 64)
}

const (
	_dateLayout     = "2006-01-02"
	_dateTimeLayout = "2006-01-02 15:04:05.999999999-07:00"
)

var _dateTimeLayouts = []string{
	_dateTimeLayout,
	"2006-01-02 15:04:05.999999999Z07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

func serializeDate(v any) (string, error) {
	return time.Time(v.(datatypes.Date)).Format(_dateLayout), nil
}

func deserializeDate(s string) (any, error) {
	t, err := time.Parse(_dateLayout, s)
	if err != nil {
		return nil, err
	}

	return datatypes.Date(t), nil
}

func serializeDateTime(v any) (string, error) {
	return v.(time.Time).Format(_dateTimeLayout), nil
}

// deserializeDateTime accepts values with and without a zone offset. Values
// without one are read as UTC.
func deserializeDateTime(s string) (any, error) {
	var lastErr error
	for _, layout := range _dateTimeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}

	return nil, lastErr
}

func serializeTimeOfDay(v any) (string, error) {
	d := time.Duration(v.(datatypes.Time))
	if d < 0 || d >= 24*time.Hour {
		return "", fmt.Errorf("time of day out of range: %s", d)
	}

	hours := d / time.Hour
	minutes := (d % time.Hour) / time.Minute
	seconds := (d % time.Minute) / time.Second
	nanos := int64(d % time.Second)

	s := fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	switch {
	case nanos == 0:
		return s, nil
	case nanos%1000 == 0:
		return fmt.Sprintf("%s.%06d", s, nanos/1000), nil
	default:
		return fmt.Sprintf("%s.%09d", s, nanos), nil
	}
}

func deserializeTimeOfDay(s string) (any, error) {
	clock, fraction, hasFraction := strings.Cut(s, ".")

	parts := strings.Split(clock, ":")
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid time of day '%s'", s)
	}

	limits := [3]int{24, 60, 60}
	var hms [3]int
	for i, part := range parts {
		if len(part) != 2 {
			return nil, fmt.Errorf("invalid time of day '%s'", s)
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n >= limits[i] {
			return nil, fmt.Errorf("invalid time of day '%s'", s)
		}
		hms[i] = n
	}

	var nanos int
	if hasFraction {
		if fraction == "" || len(fraction) > 9 {
			return nil, fmt.Errorf("invalid time of day fraction '%s'", s)
		}
		n, err := strconv.Atoi(fraction + strings.Repeat("0", 9-len(fraction)))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid time of day fraction '%s'", s)
		}
		nanos = n
	}

	return datatypes.NewTime(hms[0], hms[1], hms[2], nanos), nil
}
