package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/cyborgbench/internal/evaluator"
)

func TestTerminal_chatLines(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf)
	require.NoError(t, term.RenderUser("hello"))
	require.NoError(t, term.RenderBot("first\nsecond"))
	require.NoError(t, term.RenderError(ConnectivityErrorText))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "hello")
	assert.Contains(t, lines[1], "first")
	assert.Equal(t, "second", strings.TrimSpace(lines[2]))
	assert.Contains(t, lines[3], "Error connecting to server.")
}

func TestTerminal_dashboard(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf)
	require.NoError(t, term.RenderDashboard(evaluator.DisplayModel{
		Mode:    evaluator.ModeSearch,
		Latency: map[evaluator.Backend]string{evaluator.BackendCyborg: "0.0150s", evaluator.BackendFaiss: "0.0100s"},
		Overhead: map[evaluator.Backend]evaluator.Overhead{
			evaluator.BackendFaiss:  {Text: "50% Slower", Qualifier: evaluator.Slower},
			evaluator.BackendChroma: {Text: "N/A", Qualifier: evaluator.NotAvailable},
		},
		MetricsUpdated: true,
	}))
	out := buf.String()
	assert.Contains(t, out, "Router: SEARCH")
	assert.Contains(t, out, "0.0150s")
	assert.Contains(t, out, "50% Slower")
	assert.Contains(t, out, "N/A")
	assert.Equal(t, 6, strings.Count(out, "\n"))
}
