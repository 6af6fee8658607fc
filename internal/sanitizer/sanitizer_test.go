package sanitizer_test

import (
	"strings"
	"testing"

	"github.com/aretw0/blueprint/internal/sanitizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "a store for bikes", "a store for bikes"},
		{"keeps whitespace", "line1\nline2\tx\r\n", "line1\nline2\tx\r\n"},
		{"strips ansi", "\x1b[31mred\x1b[0m", "[31mred[0m"},
		{"strips nul and bel", "a\x00b\x07c", "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sanitizer.Input(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInput_Rejects(t *testing.T) {
	_, err := sanitizer.Input("bad \xff utf8")
	assert.ErrorIs(t, err, sanitizer.ErrInvalidUTF8)

	t.Setenv(sanitizer.EnvMaxInputSize, "8")
	_, err = sanitizer.Input(strings.Repeat("x", 9))
	assert.ErrorIs(t, err, sanitizer.ErrInputTooLarge)
}
