package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// spinner redraws a single status line on every heartbeat
type spinner struct {
	mu     sync.Mutex
	w      io.Writer
	label  string
	frame  int
	beats  int
	colors *color.Color
}

func newSpinner(w io.Writer, label string, noColor bool) *spinner {
	c := color.New(color.FgCyan)
	if noColor {
		c.DisableColor()
	}
	return &spinner{w: w, label: label, colors: c}
}

// Beat draws the next frame. It is used as a poll heartbeat.
func (s *spinner) Beat() {
	s.mu.Lock()
	defer s.mu.Unlock()

	fmt.Fprintf(s.w, "\r%s %s (poll %d)", s.colors.Sprint(spinnerFrames[s.frame]), s.label, s.beats+1)
	s.frame = (s.frame + 1) % len(spinnerFrames)
	s.beats++
}

// Done clears the status line if anything was drawn
func (s *spinner) Done() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.beats > 0 {
		fmt.Fprint(s.w, "\r\033[K")
	}
}
