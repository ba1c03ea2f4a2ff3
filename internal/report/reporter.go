// Package report renders per-stack progress lines for the terminal. Labels
// are right-aligned in a fixed column so the stack names line up, the way
// package managers print their transcript.
package report

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
)

const labelWidth = 14

// Reporter writes aligned, colorized status lines. It is safe for
// concurrent use; each line is emitted atomically.
type Reporter struct {
	mu  sync.Mutex
	out io.Writer
}

func New(out io.Writer) *Reporter {
	return &Reporter{out: out}
}

// line pads the label to the fixed width before colorizing it. Padding after
// colorizing would count the escape codes and break the alignment.
func (r *Reporter) line(c *color.Color, label, rest string) {
	padded := fmt.Sprintf("%*s", labelWidth, label)
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "%s %s\n", c.Sprint(padded), rest)
}

// Preview reports what a dry run would do.
func (r *Reporter) Preview(label, name, summary string) {
	rest := name
	if summary != "" {
		rest = fmt.Sprintf("%s (%s)", name, summary)
	}
	r.line(color.New(color.FgYellow), label, rest)
}

// Progress reports an action that is underway.
func (r *Reporter) Progress(label, name string) {
	r.line(color.New(color.FgCyan), label, name)
}

// Done reports a completed action and the target it ran against.
func (r *Reporter) Done(label, name, target string) {
	r.line(color.New(color.FgGreen, color.Bold), label, fmt.Sprintf("%s on %s", name, target))
}

// NoOp reports a stack that needs nothing, with the reason.
func (r *Reporter) NoOp(name, summary string) {
	label := "Skipped"
	if summary == "up to date" {
		label = "Up-to-Date"
	}
	rest := name
	if summary != "" && label != "Up-to-Date" {
		rest = fmt.Sprintf("%s (%s)", name, summary)
	}
	r.line(color.New(color.Faint), label, rest)
}

// Failed reports a stack whose action failed.
func (r *Reporter) Failed(name string, err error) {
	r.line(color.New(color.FgRed, color.Bold), "Failed", fmt.Sprintf("%s: %v", name, err))
}

// Detail prints a pre-rendered block (a diff, usually) indented under the
// preceding line.
func (r *Reporter) Detail(block string) {
	if block == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range strings.Split(strings.TrimRight(block, "\n"), "\n") {
		fmt.Fprintf(r.out, "    %s\n", l)
	}
}
