package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	// Disable color for tests
	color.NoColor = true
}

// capture redirects output into a buffer during f
func capture(f func()) string {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nil)
	f()
	return buf.String()
}

func TestJSON(t *testing.T) {
	t.Run("struct", func(t *testing.T) {
		type check struct {
			Name   string `json:"name"`
			Status string `json:"status"`
		}
		out := capture(func() {
			require.NoError(t, JSON(check{Name: "heroku", Status: "success"}))
		})

		var result check
		require.NoError(t, json.Unmarshal([]byte(out), &result))
		assert.Equal(t, check{Name: "heroku", Status: "success"}, result)
		assert.Contains(t, out, "\n  \"name\"", "two-space indentation")
	})

	t.Run("slice", func(t *testing.T) {
		out := capture(func() {
			require.NoError(t, JSON([]string{"www.example.com", "api.example.com"}))
		})

		var result []string
		require.NoError(t, json.Unmarshal([]byte(out), &result))
		assert.Len(t, result, 2)
	})

	t.Run("empty object", func(t *testing.T) {
		out := capture(func() {
			require.NoError(t, JSON(map[string]interface{}{}))
		})
		assert.Contains(t, out, "{}")
	})
}

func TestTable(t *testing.T) {
	t.Run("basic table", func(t *testing.T) {
		out := capture(func() {
			Table([]string{"DOMAIN", "DAYS LEFT"}, [][]string{
				{"www.example.com", "12"},
				{"api.example.com", "3"},
			})
		})

		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, 4, out)
		assert.Equal(t, "DOMAIN           DAYS LEFT", lines[0])
		assert.True(t, strings.HasPrefix(lines[1], "---------------"), lines[1])
		assert.Equal(t, "www.example.com  12", lines[2])
	})

	t.Run("empty headers", func(t *testing.T) {
		out := capture(func() {
			Table([]string{}, [][]string{{"data"}})
		})
		assert.Empty(t, out)
	})

	t.Run("empty rows", func(t *testing.T) {
		out := capture(func() {
			Table([]string{"COL1", "COL2"}, nil)
		})
		assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 2, "header + separator")
	})

	t.Run("uneven columns", func(t *testing.T) {
		out := capture(func() {
			Table([]string{"COL1", "COL2", "COL3"}, [][]string{
				{"a", "b"},
				{"x", "y", "z", "w"},
			})
		})
		assert.NotContains(t, out, "w", "extra column should be ignored")
	})
}

func TestStatusLines(t *testing.T) {
	tests := []struct {
		name  string
		fn    func(string, ...interface{})
		glyph string
	}{
		{"success", Success, "✓ "},
		{"error", Error, "✗ "},
		{"warn", Warn, "! "},
		{"info", Info, "→ "},
		{"print", Print, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := capture(func() {
				tt.fn("Logged in as %s", "dev@example.com")
			})
			assert.Equal(t, tt.glyph+"Logged in as dev@example.com\n", out)
		})
	}
}

func TestIndented(t *testing.T) {
	out := capture(func() {
		Info("Checking sites")
		Indented(1).Success("my-app (www.example.com)")
		Indented(2).Error("not Challenge Post protocol compliant")
		Indented(-1).Print("clamped")
	})

	want := "→ Checking sites\n" +
		"  ✓ my-app (www.example.com)\n" +
		"    ✗ not Challenge Post protocol compliant\n" +
		"clamped\n"
	assert.Equal(t, want, out)
}

func TestPromptWriter(t *testing.T) {
	var buf bytes.Buffer
	n, err := PromptWriter(&buf).Write([]byte("Is this ok? [Y/n] "))
	require.NoError(t, err)
	assert.Equal(t, len("Is this ok? [Y/n] "), n)
	assert.Equal(t, "Is this ok? [Y/n] ", buf.String())
}
