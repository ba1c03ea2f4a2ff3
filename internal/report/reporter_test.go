package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func plainReporter() (*bytes.Buffer, *Reporter) {
	color.NoColor = true
	var buf bytes.Buffer
	return &buf, New(&buf)
}

func TestLabelsAlignAcrossLines(t *testing.T) {
	buf, r := plainReporter()
	r.Progress("Creating", "web")
	r.Done("Created", "web", "portainer.lan")
	r.NoOp("db", "up to date")

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %q", buf.String())
	}
	for _, l := range lines {
		idx := strings.IndexByte(l, ' ')
		// Right-aligned labels end at the same column.
		if !strings.HasSuffix(l[:labelWidth+1], " ") {
			t.Fatalf("label column misaligned in %q (space at %d)", l, idx)
		}
	}
	if !strings.Contains(lines[1], "web on portainer.lan") {
		t.Fatalf("expected target in done line, got %q", lines[1])
	}
}

func TestNoOpReasonRendering(t *testing.T) {
	buf, r := plainReporter()
	r.NoOp("web", "up to date")
	r.NoOp("db", "disabled, already stopped")

	out := buf.String()
	if !strings.Contains(out, "Up-to-Date web") {
		t.Fatalf("expected up-to-date line, got %q", out)
	}
	if !strings.Contains(out, "Skipped db (disabled, already stopped)") {
		t.Fatalf("expected skip reason, got %q", out)
	}
}

func TestPreviewCarriesSummary(t *testing.T) {
	buf, r := plainReporter()
	r.Preview("Would Update", "web", "compose changed")
	if !strings.Contains(buf.String(), "Would Update web (compose changed)") {
		t.Fatalf("unexpected preview: %q", buf.String())
	}
}

func TestDetailIndentsEveryLine(t *testing.T) {
	buf, r := plainReporter()
	r.Detail("--- a\n+++ b\n-old\n+new\n")
	for _, l := range strings.Split(strings.TrimRight(buf.String(), "\n"), "\n") {
		if !strings.HasPrefix(l, "    ") {
			t.Fatalf("detail line not indented: %q", l)
		}
	}
}
