package gokeyset

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Direction sigils opening every bookmark.
const (
	SigilForward  = '>'
	SigilBackward = '<'
)

// Codec converts markers to bookmark strings and back.
//
// A bookmark is a direction sigil followed by one field per ordering column,
// separated by '~'. A field is "tag:payload", except for nil, true and false,
// which are written as the bare literals x, true and false:
//
//	>s:Joseph Heller~s:Catch 22~i:123
//	<i:1~true
//
// Separators, quotes, backslashes and line breaks inside fields are escaped
// with a backslash. The sentinel marker is the sigil alone.
type Codec struct {
	registry *TypeRegistry
}

var _defaultCodec = NewCodec(nil)

// NewCodec returns a codec resolving value types through registry, or
// through the default registry when registry is nil.
func NewCodec(registry *TypeRegistry) *Codec {
	if registry == nil {
		registry = _defaultRegistry
	}

	return &Codec{registry: registry}
}

// DefaultCodec returns the codec bound to the default registry.
func DefaultCodec() *Codec {
	return _defaultCodec
}

// SerializeMarker serializes a marker with the default registry.
func SerializeMarker(m Marker) (string, error) {
	return _defaultCodec.Serialize(m)
}

// DeserializeMarker parses a bookmark with the default registry. When arity is
// positive, a non-sentinel bookmark must carry exactly arity values.
func DeserializeMarker(bookmark string, arity int) (Marker, error) {
	return _defaultCodec.Deserialize(bookmark, arity)
}

// Serialize returns the bookmark form of m.
func (c *Codec) Serialize(m Marker) (string, error) {
	sigil := string(lo.Ternary(m.Backwards, SigilBackward, SigilForward))
	if m.IsSentinel() {
		return sigil, nil
	}

	fields := make([]string, 0, len(m.Values))
	for _, v := range m.Values {
		field, err := c.serializeValue(v)
		if err != nil {
			return "", err
		}
		fields = append(fields, field)
	}

	return sigil + joinFields(fields), nil
}

// Deserialize parses a bookmark produced by Serialize. An empty bookmark is
// the forward sentinel.
func (c *Codec) Deserialize(bookmark string, arity int) (Marker, error) {
	if bookmark == "" {
		return Sentinel(false), nil
	}

	var backwards bool
	switch bookmark[0] {
	case SigilForward:
	case SigilBackward:
		backwards = true
	default:
		return Marker{}, fmt.Errorf("%w: doesn't start with a direction marker", ErrBadBookmark)
	}

	body := bookmark[1:]
	if body == "" {
		return Sentinel(backwards), nil
	}

	fields, err := splitFields(body)
	if err != nil {
		return Marker{}, err
	}

	if arity > 0 && len(fields) != arity {
		return Marker{}, fmt.Errorf("%w: bookmark has %d values, expected %d", ErrBadBookmark, len(fields), arity)
	}

	values := make([]any, 0, len(fields))
	for _, field := range fields {
		v, err := c.deserializeValue(field)
		if err != nil {
			return Marker{}, err
		}
		values = append(values, v)
	}

	return Marker{Values: values, Backwards: backwards}, nil
}

func (c *Codec) serializeValue(v any) (string, error) {
	switch tv := v.(type) {
	case nil:
		return literalNil, nil
	case bool:
		return lo.Ternary(tv, literalTrue, literalFalse), nil
	}

	codec, ok := c.registry.lookupValue(v)
	if !ok {
		return "", fmt.Errorf("%w: don't know how to serialize %v (%T)", ErrUnregisteredType, v, v)
	}

	payload, err := codec.serialize(v)
	if err != nil {
		return "", fmt.Errorf("%w: tag '%s': %w", ErrSerialization, codec.tag, err)
	}

	return codec.tag + ":" + payload, nil
}

func (c *Codec) deserializeValue(field string) (any, error) {
	tag, payload, ok := strings.Cut(field, ":")
	if !ok {
		switch field {
		case literalNil:
			return nil, nil
		case literalTrue:
			return true, nil
		case literalFalse:
			return false, nil
		default:
			return nil, fmt.Errorf("%w: unrecognized value '%s'", ErrBadBookmark, field)
		}
	}

	codec, ok := c.registry.lookupTag(tag)
	if !ok {
		return nil, fmt.Errorf("%w: unrecognized type tag in '%s'", ErrBadBookmark, field)
	}

	v, err := codec.deserialize(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot parse '%s': %w", ErrBadBookmark, field, err)
	}

	return v, nil
}
