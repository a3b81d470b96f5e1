package delivery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeConcerns(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "nil",
			in:   nil,
			want: []string{},
		},
		{
			name: "plain list kept",
			in:   []string{"leaky box", "late truck"},
			want: []string{"leaky box", "late truck"},
		},
		{
			name: "whitespace collapsed and trimmed",
			in:   []string{"  leaky \t box ", "late truck"},
			want: []string{"leaky box", "late truck"},
		},
		{
			name: "empties dropped",
			in:   []string{"", "   ", "leaky box"},
			want: []string{"leaky box"},
		},
		{
			name: "duplicates first wins",
			in:   []string{"leaky box", "late truck", "leaky box"},
			want: []string{"leaky box", "late truck"},
		},
		{
			name: "no-concern synonym empties the list",
			in:   []string{"No Concerns", "leaky box"},
			want: []string{},
		},
		{
			name: "misspelled synonym",
			in:   []string{"no cencern"},
			want: []string{},
		},
		{
			name: "punctuated synonym",
			in:   []string{"N/A"},
			want: []string{},
		},
		{
			name: "none anywhere in the list",
			in:   []string{"leaky box", "none"},
			want: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeConcerns(tt.in))
		})
	}
}

func TestParseStringList(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"empty", "", []string{}},
		{"json array", `["a","b"]`, []string{"a", "b"}},
		{"json array skips empties", `["a","",3]`, []string{"a"}},
		{"comma separated", "a, b ,c", []string{"a", "b", "c"}},
		{"single value", "leaky box", []string{"leaky box"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseStringList(tt.raw))
		})
	}
}
