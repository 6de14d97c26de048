// Package progress draws task progress for the CLI: a spinner while a task
// runs on a terminal, plain lines otherwise.
package progress

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"
)

// Reporter shows one task at a time. It is safe for concurrent use, which
// watch mode needs since every bundle reports from its own goroutine.
type Reporter struct {
	mu      sync.Mutex
	out     io.Writer
	caps    Capabilities
	symbols Symbols
	spin    *spinner.Spinner
}

// New returns a Reporter writing to out.
func New(out io.Writer, caps Capabilities) *Reporter {
	return &Reporter{out: out, caps: caps, symbols: SelectSymbols(caps)}
}

// Running starts the spinner for task, replacing any running one.
func (r *Reporter) Running(task string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopLocked()
	if !r.caps.IsTTY {
		fmt.Fprintln(r.out, task)
		return
	}
	r.spin = spinner.New(spinner.CharSets[r.symbols.SpinnerSet], 100*time.Millisecond, spinner.WithWriter(r.out))
	r.spin.Suffix = " " + task
	r.spin.Start()
}

// Succeeded stops the spinner and prints task with a success mark.
func (r *Reporter) Succeeded(task string) {
	r.finish(successMark(r.symbols, r.caps.SupportsColor), task)
}

// Failed stops the spinner and prints task with a failure mark.
func (r *Reporter) Failed(task string) {
	r.finish(failureMark(r.symbols, r.caps.SupportsColor), task)
}

// Stop clears a running spinner without printing anything.
func (r *Reporter) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
}

func (r *Reporter) finish(mark, task string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopLocked()
	fmt.Fprintf(r.out, "%s %s\n", mark, task)
}

func (r *Reporter) stopLocked() {
	if r.spin != nil {
		r.spin.Stop()
		r.spin = nil
	}
}

// Nop discards all progress. Used with --silent.
type Nop struct{}

func (Nop) Running(string)   {}
func (Nop) Succeeded(string) {}
func (Nop) Failed(string)    {}
