package style

import (
	"io"
	"time"

	"github.com/briandowns/spinner"
)

type Spinner interface {
	SetSuffix(suffix string)
	SetFinalMSG(finalMSG string)
	Start()
	Stop()
}

// TerminalSpinner wraps briandowns/spinner. It draws nothing when the
// writer is not a terminal, so piped and test output stay clean.
type TerminalSpinner struct {
	spinner *spinner.Spinner
}

func NewTerminalSpinner(cs []string, d time.Duration, options ...spinner.Option) *TerminalSpinner {
	return &TerminalSpinner{
		spinner: spinner.New(cs, d, options...),
	}
}

func (s *TerminalSpinner) SetSuffix(suffix string) {
	s.spinner.Lock()
	s.spinner.Suffix = suffix
	s.spinner.Unlock()
}

func (s *TerminalSpinner) SetFinalMSG(finalMSG string) {
	s.spinner.Lock()
	s.spinner.FinalMSG = finalMSG
	s.spinner.Unlock()
}

func (s *TerminalSpinner) Start() {
	s.spinner.Start()
}

func (s *TerminalSpinner) Stop() {
	s.spinner.Stop()
}

// NewSpinner returns a spinner writing to w
func NewSpinner(w io.Writer) Spinner {
	return NewTerminalSpinner(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(w))
}
