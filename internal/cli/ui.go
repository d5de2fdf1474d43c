//go:generate mockgen -source=ui.go -destination=mocks/mock_ui.go -package=mocks

package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"

	"github.com/agbru/primecount/internal/format"
	"github.com/agbru/primecount/internal/orchestration"
	"github.com/agbru/primecount/internal/progress"
)

const (
	// ProgressRefreshRate defines the refresh frequency of the progress bar.
	ProgressRefreshRate = 200 * time.Millisecond
	// ProgressBarWidth defines the width in characters of the progress bar.
	ProgressBarWidth = 40
)

// Spinner abstracts a terminal spinner so that DisplayProgress can be tested
// without a terminal.
type Spinner interface {
	// Start begins the spinner animation.
	Start()
	// Stop halts the spinner animation.
	Stop()
	// UpdateSuffix sets the text that is displayed after the spinner.
	UpdateSuffix(suffix string)
}

// realSpinner adapts spinner.Spinner to the Spinner interface.
type realSpinner struct {
	s *spinner.Spinner
}

func (rs *realSpinner) Start() { rs.s.Start() }

func (rs *realSpinner) Stop() { rs.s.Stop() }

func (rs *realSpinner) UpdateSuffix(suffix string) {
	rs.s.Lock()
	rs.s.Suffix = suffix
	rs.s.Unlock()
}

var newSpinner = func(options ...spinner.Option) Spinner {
	s := spinner.New(spinner.CharSets[14], ProgressRefreshRate, options...)
	return &realSpinner{s}
}

// DisplayProgress shows a spinner with an aggregated progress bar and ETA
// until progressChan is closed. It must run in its own goroutine and calls
// wg.Done on return.
//
// Parameters:
//   - wg: Signaled when the display has stopped.
//   - progressChan: Updates from the counters.
//   - numCounters: The number of counters reporting on the channel.
//   - out: The writer the spinner draws on.
func DisplayProgress(wg *sync.WaitGroup, progressChan <-chan progress.ProgressUpdate, numCounters int, out io.Writer) {
	defer wg.Done()
	agg := orchestration.NewProgressAggregator(numCounters)
	if agg == nil {
		orchestration.DrainChannel(progressChan)
		return
	}

	s := newSpinner(spinner.WithWriter(out), spinner.WithHiddenCursor(true))
	label := "Counting"
	if agg.IsMultiCounter() {
		label = fmt.Sprintf("Counting (%d counters)", numCounters)
	}
	render := func(avg float64, eta time.Duration) {
		s.UpdateSuffix(fmt.Sprintf(" %s %s", label, format.FormatProgressBarWithETA(avg, eta, ProgressBarWidth)))
	}
	render(0, 0)
	s.Start()
	defer s.Stop()

	ticker := time.NewTicker(ProgressRefreshRate)
	defer ticker.Stop()
	for {
		select {
		case update, ok := <-progressChan:
			if !ok {
				render(agg.CalculateAverage(), 0)
				return
			}
			p := agg.Update(update)
			render(p.AverageProgress, p.ETA)
		case <-ticker.C:
			render(agg.CalculateAverage(), agg.GetETA())
		}
	}
}
