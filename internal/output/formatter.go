package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed)
	warnColor    = color.New(color.FgYellow)
	infoColor    = color.New(color.FgCyan)
	promptColor  = color.New(color.FgMagenta, color.Bold)
)

var (
	mu  sync.Mutex
	out io.Writer = os.Stdout
)

// SetOutput redirects all output. nil restores os.Stdout.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = os.Stdout
	}
	out = w
}

// Writer returns the current output destination
func Writer() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return out
}

// JSON outputs data as JSON
func JSON(data interface{}) error {
	encoder := json.NewEncoder(Writer())
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// Table outputs data as a formatted table
func Table(headers []string, rows [][]string) {
	if len(headers) == 0 {
		return
	}
	w := Writer()

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	line := func(cells []string) {
		parts := make([]string, len(headers))
		for i := range headers {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			parts[i] = fmt.Sprintf("%-*s", widths[i], cell)
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
	}

	line(headers)
	sep := make([]string, len(headers))
	for i, width := range widths {
		sep[i] = strings.Repeat("-", width)
	}
	line(sep)
	for _, row := range rows {
		line(row)
	}
}

// Printer writes status lines at a fixed indentation level. Nested steps of
// a run (a site under a check, an app under a deployment) use deeper levels.
type Printer struct {
	prefix string
}

// Indented returns a Printer that indents by level steps of two spaces
func Indented(level int) Printer {
	if level < 0 {
		level = 0
	}
	return Printer{prefix: strings.Repeat("  ", level)}
}

func (p Printer) print(c *color.Color, glyph, format string, args ...interface{}) {
	_, _ = c.Fprintf(Writer(), p.prefix+glyph+format+"\n", args...)
}

// Success prints a success line
func (p Printer) Success(format string, args ...interface{}) {
	p.print(successColor, "✓ ", format, args...)
}

// Error prints an error line
func (p Printer) Error(format string, args ...interface{}) {
	p.print(errorColor, "✗ ", format, args...)
}

// Warn prints a warning line
func (p Printer) Warn(format string, args ...interface{}) {
	p.print(warnColor, "! ", format, args...)
}

// Info prints an info line
func (p Printer) Info(format string, args ...interface{}) {
	p.print(infoColor, "→ ", format, args...)
}

// Print prints a plain line
func (p Printer) Print(format string, args ...interface{}) {
	fmt.Fprintf(Writer(), p.prefix+format+"\n", args...)
}

var top = Indented(0)

// Success prints a success message
func Success(format string, args ...interface{}) {
	top.Success(format, args...)
}

// Error prints an error message
func Error(format string, args ...interface{}) {
	top.Error(format, args...)
}

// Warn prints a warning message
func Warn(format string, args ...interface{}) {
	top.Warn(format, args...)
}

// Info prints an info message
func Info(format string, args ...interface{}) {
	top.Info(format, args...)
}

// Print prints a plain message
func Print(format string, args ...interface{}) {
	top.Print(format, args...)
}

// PromptWriter returns a writer that colors prompt text, for use by input
// prompters.
func PromptWriter(w io.Writer) io.Writer {
	return promptWriter{w: w}
}

type promptWriter struct {
	w io.Writer
}

func (p promptWriter) Write(b []byte) (int, error) {
	if _, err := promptColor.Fprint(p.w, string(b)); err != nil {
		return 0, err
	}
	return len(b), nil
}
