package tui_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aretw0/blueprint/internal/presentation/tui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRenderer_Plain(t *testing.T) {
	render, err := tui.NewRenderer(false, 0)
	require.NoError(t, err)

	out, err := render("# Title")
	require.NoError(t, err)
	assert.Equal(t, "# Title", out)
}

func TestNewRenderer_Styled(t *testing.T) {
	render, err := tui.NewRenderer(true, 60)
	require.NoError(t, err)

	out, err := render("# Title\n\nhello")
	require.NoError(t, err)
	assert.Contains(t, out, "hello")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintBanner(&buf)
	assert.GreaterOrEqual(t, strings.Count(buf.String(), "\n"), 5)
}
