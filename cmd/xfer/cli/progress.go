package cli

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dustin/go-humanize"
	"golang.org/x/term"
)

// showProgress reports whether progress should be rendered for mode:
// "tty" forces it, "plain" disables it, "auto" follows terminal detection.
func showProgress(mode string) bool {
	switch mode {
	case "plain":
		return false
	case "tty":
		return true
	default:
		return term.IsTerminal(int(os.Stderr.Fd())) //nolint:gosec // fd fits in int
	}
}

// progressLine renders a single self-overwriting progress line.
type progressLine struct {
	mu    sync.Mutex
	w     io.Writer
	label string
	shown bool
}

func newProgressLine(w io.Writer, label string) *progressLine {
	return &progressLine{w: w, label: label}
}

// Update redraws the line for processed out of target bytes.
func (p *progressLine) Update(processed, target int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	percent := 100.0
	if target > 0 {
		percent = float64(processed) * 100 / float64(target)
	}
	fmt.Fprintf(p.w, "\r%s %s / %s (%.0f%%)\x1b[K", p.label,
		humanize.IBytes(uint64(max(processed, 0))), //nolint:gosec // clamped
		humanize.IBytes(uint64(max(target, 0))),    //nolint:gosec // clamped
		percent)
	p.shown = true
}

// Finish ends the line.
func (p *progressLine) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.shown {
		fmt.Fprintln(p.w)
		p.shown = false
	}
}

// newProgress returns a progress callback and a finish function. The
// callback is nil when progress is not shown.
func newProgress(mode, label string) (func(processed, target int64), func()) {
	if !showProgress(mode) {
		return nil, func() {}
	}
	line := newProgressLine(os.Stderr, label)
	return line.Update, line.Finish
}
