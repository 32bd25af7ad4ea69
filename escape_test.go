package gokeyset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_joinFields_splitFields(t *testing.T) {
	tests := []struct {
		name   string
		fields []string
		joined string
	}{
		{"single", []string{"i:1"}, "i:1"},
		{"several", []string{"s:a", "i:2", "true"}, "s:a~i:2~true"},
		{"empty fields", []string{"", ""}, "~"},
		{"separator", []string{"s:a~b"}, `s:a\~b`},
		{"backslash", []string{`s:a\b`}, `s:a\\b`},
		{"quote", []string{`s:"q"`}, `s:\"q\"`},
		{"line breaks", []string{"s:a\r\nb"}, `s:a\r\nb`},
		{"unicode", []string{"s:Ле Гуин", "s:∑"}, "s:Ле Гуин~s:∑"},
		{"invalid utf-8", []string{"s:a\xffb", "s:\xc3"}, "s:a\xffb~s:\xc3"},
		{"invalid utf-8 before separator", []string{"s:\xe2~\x82"}, "s:\xe2\\~\x82"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.joined, joinFields(tt.fields))

			got, err := splitFields(tt.joined)
			require.NoError(t, err)
			assert.Equal(t, tt.fields, got)
		})
	}
}

func Test_splitFields_errors(t *testing.T) {
	for _, in := range []string{`a\`, `a\x`, `\t~b`, `a~b\`, "a\\\xff"} {
		_, err := splitFields(in)
		require.ErrorIs(t, err, ErrBadBookmark, in)
	}
}
