// Package report writes the human readable progress lines of mrspy
// commands.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/simplesurance/mrspy/internal/stringutils"
)

const (
	infoPrefix    = "> "
	successPrefix = "✓ "
	failurePrefix = "𐄂 "
	indent        = "  "
)

type styles struct {
	info    lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
}

type output struct {
	lock   sync.Mutex
	w      io.Writer
	styles *styles
}

// Reporter writes report lines indented by its depth.
// Reporters returned by Nested share the output of their parent and can be
// used concurrently.
type Reporter struct {
	out   *output
	depth int
}

// New returns a Reporter writing to w. If colored is true, lines are
// colored.
func New(w io.Writer, colored bool) *Reporter {
	out := output{w: w}

	if colored {
		r := lipgloss.NewRenderer(w)
		out.styles = &styles{
			info:    r.NewStyle().Foreground(lipgloss.Color("12")),
			success: r.NewStyle().Foreground(lipgloss.Color("10")),
			failure: r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		}
	}

	return &Reporter{out: &out}
}

// NewStdout returns a Reporter writing to stdout. Lines are colored when
// stdout is a terminal.
func NewStdout() *Reporter {
	fd := os.Stdout.Fd()
	return New(os.Stdout, isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd))
}

// Discard returns a Reporter that drops all lines.
func Discard() *Reporter {
	return New(io.Discard, false)
}

// Nested returns a Reporter that writes lines with one more level of
// indentation.
func (r *Reporter) Nested() *Reporter {
	return &Reporter{out: r.out, depth: r.depth + 1}
}

func (r *Reporter) Info(format string, a ...any) {
	r.write(infoPrefix, func(s *styles) lipgloss.Style { return s.info }, format, a...)
}

func (r *Reporter) Success(format string, a ...any) {
	r.write(successPrefix, func(s *styles) lipgloss.Style { return s.success }, format, a...)
}

func (r *Reporter) Failure(format string, a ...any) {
	r.write(failurePrefix, func(s *styles) lipgloss.Style { return s.failure }, format, a...)
}

func (r *Reporter) write(prefix string, style func(*styles) lipgloss.Style, format string, a ...any) {
	line := prefix + fmt.Sprintf(format, a...)

	if r.out.styles != nil {
		line = style(r.out.styles).Render(line)
	}

	line = stringutils.IndentString(line, strings.Repeat(indent, r.depth))

	r.out.lock.Lock()
	defer r.out.lock.Unlock()

	_, _ = fmt.Fprintln(r.out.w, line)
}
