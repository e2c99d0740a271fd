package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/dmitrijs2005/mediaupload/internal/client/models"
)

const (
	barWidth = 30
	// milestone is the step between plain progress lines when the output
	// is not a terminal.
	milestone = 25
)

// progressPrinter redraws a single bar on a terminal and prints one line per
// milestone or method switch otherwise.
type progressPrinter struct {
	mu          sync.Mutex
	w           io.Writer
	interactive bool
	printed     bool
	last        int
	method      models.Method
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	p := &progressPrinter{w: w, last: -1}
	if f, ok := w.(*os.File); ok {
		p.interactive = isTerminal(int(f.Fd()))
	}
	return p
}

func (p *progressPrinter) Report(percent int, method models.Method) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.interactive {
		fmt.Fprintf(p.w, "\r%s %3d%% %-16s", renderBar(percent), percent, method)
		p.printed = true
		return
	}

	step := percent / milestone * milestone
	if method == p.method && step <= p.last {
		return
	}
	p.method, p.last = method, step
	fmt.Fprintf(p.w, "  %s %d%%\n", method, step)
}

func (p *progressPrinter) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.printed {
		fmt.Fprintln(p.w)
	}
}

func renderBar(percent int) string {
	percent = max(0, min(100, percent))
	filled := percent * barWidth / 100
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", barWidth-filled) + "]"
}
