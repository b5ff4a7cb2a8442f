// Package output renders CLI results, styled when stdout is a terminal
// and plain otherwise.
package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Color palette, 256-color indexes.
const (
	colorHeader  = "255"
	colorGood    = "154"
	colorWarning = "220"
	colorBad     = "196"
	colorDim     = "245"
)

// Styles holds the render styles.
type Styles struct {
	Header  lipgloss.Style
	Good    lipgloss.Style
	Warning lipgloss.Style
	Bad     lipgloss.Style
	Dim     lipgloss.Style
}

// DefaultStyles returns colored styles for terminal output.
func DefaultStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorHeader)),
		Good:    lipgloss.NewStyle().Foreground(lipgloss.Color(colorGood)),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color(colorWarning)),
		Bad:     lipgloss.NewStyle().Foreground(lipgloss.Color(colorBad)),
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color(colorDim)),
	}
}

// PlainStyles returns unstyled output for pipes and --plain.
func PlainStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle(),
		Good:    lipgloss.NewStyle(),
		Warning: lipgloss.NewStyle(),
		Bad:     lipgloss.NewStyle(),
		Dim:     lipgloss.NewStyle(),
	}
}

// Writer renders results to a stream.
type Writer struct {
	out    io.Writer
	styles Styles
}

// New creates a Writer. With plain set, or when out is not a terminal,
// output carries no styling.
func New(out io.Writer, plain bool) *Writer {
	styles := PlainStyles()
	if !plain && isTerminal(out) {
		styles = DefaultStyles()
	}
	return &Writer{out: out, styles: styles}
}

// NewStyled creates a Writer with explicit styles, for tests.
func NewStyled(out io.Writer, styles Styles) *Writer {
	return &Writer{out: out, styles: styles}
}

func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Printf writes formatted unstyled text.
func (w *Writer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(w.out, format, args...)
}

// Header writes a section header.
func (w *Writer) Header(text string) {
	_, _ = fmt.Fprintln(w.out, w.styles.Header.Render(text))
}

// Good writes a success line.
func (w *Writer) Good(text string) {
	_, _ = fmt.Fprintln(w.out, w.styles.Good.Render(text))
}

// Warning writes a warning line.
func (w *Writer) Warning(text string) {
	_, _ = fmt.Fprintln(w.out, w.styles.Warning.Render(text))
}

// Bad writes an error line.
func (w *Writer) Bad(text string) {
	_, _ = fmt.Fprintln(w.out, w.styles.Bad.Render(text))
}

// List writes one item per line, indented.
func (w *Writer) List(items []string) {
	for _, item := range items {
		_, _ = fmt.Fprintf(w.out, "  %s\n", item)
	}
}

// CheckList writes a labeled file list, or a "none" line when empty.
func (w *Writer) CheckList(label string, files []string) {
	if len(files) == 0 {
		_, _ = fmt.Fprintf(w.out, "%s %s\n",
			w.styles.Good.Render("ok"), label)
		return
	}
	_, _ = fmt.Fprintf(w.out, "%s %s (%d)\n",
		w.styles.Warning.Render("!!"), label, len(files))
	w.List(files)
}

// Table writes a column-aligned summary table. The file column comes
// first, keyword columns follow in the given order.
func (w *Writer) Table(columns []string, table map[string][]string) {
	widths := make([]int, len(columns))
	for i, col := range columns {
		widths[i] = len(col)
		for _, v := range table[col] {
			if len(v) > widths[i] {
				widths[i] = len(v)
			}
		}
	}

	var header strings.Builder
	for i, col := range columns {
		header.WriteString(pad(col, widths[i]))
		if i < len(columns)-1 {
			header.WriteString("  ")
		}
	}
	_, _ = fmt.Fprintln(w.out, w.styles.Header.Render(header.String()))

	rows := 0
	if len(columns) > 0 {
		rows = len(table[columns[0]])
	}
	for r := 0; r < rows; r++ {
		var line strings.Builder
		for i, col := range columns {
			line.WriteString(pad(table[col][r], widths[i]))
			if i < len(columns)-1 {
				line.WriteString("  ")
			}
		}
		_, _ = fmt.Fprintln(w.out, strings.TrimRight(line.String(), " "))
	}
}

// SortedKeys returns map keys in sorted order, for deterministic output.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
