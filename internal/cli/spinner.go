package cli

import (
	"io"
	"time"

	"github.com/briandowns/spinner"
)

// StartSpinner shows a spinner with suffix on w until the returned
// function is called. With quiet set it does nothing.
func StartSpinner(w io.Writer, suffix string, quiet bool) func() {
	if quiet {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " " + suffix
	s.Start()
	return s.Stop
}
