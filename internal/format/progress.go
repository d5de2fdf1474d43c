package format

import (
	"fmt"
	"strings"
	"time"
)

// ProgressState tracks the completion ratio of several concurrent counters.
// It is not safe for concurrent use; the display goroutine owns it.
type ProgressState struct {
	progresses  []float64
	numCounters int
}

// NewProgressState creates a state for numCounters counters, all at zero.
func NewProgressState(numCounters int) *ProgressState {
	if numCounters < 0 {
		numCounters = 0
	}
	return &ProgressState{
		progresses:  make([]float64, numCounters),
		numCounters: numCounters,
	}
}

// Update records the progress of the counter at index. Out-of-range indices
// are ignored and values are clamped to [0, 1].
func (ps *ProgressState) Update(index int, value float64) {
	if index < 0 || index >= len(ps.progresses) {
		return
	}
	ps.progresses[index] = clamp01(value)
}

// CalculateAverage returns the mean progress across all counters.
func (ps *ProgressState) CalculateAverage() float64 {
	if ps.numCounters == 0 {
		return 0
	}
	var total float64
	for _, p := range ps.progresses {
		total += p
	}
	return total / float64(ps.numCounters)
}

// maxETA caps estimates so a stalled counter does not print absurd values.
const maxETA = 24 * time.Hour

// etaSmoothing is the weight of the newest rate sample in the exponential
// moving average.
const etaSmoothing = 0.3

// ProgressWithETA extends ProgressState with a smoothed progress rate used to
// estimate the remaining time.
type ProgressWithETA struct {
	*ProgressState
	now          func() time.Time
	startTime    time.Time
	lastUpdate   time.Time
	lastProgress float64
	progressRate float64 // progress units per second
}

// NewProgressWithETA creates a progress tracker with ETA estimation.
func NewProgressWithETA(numCounters int) *ProgressWithETA {
	return newProgressWithClock(numCounters, time.Now)
}

func newProgressWithClock(numCounters int, now func() time.Time) *ProgressWithETA {
	start := now()
	return &ProgressWithETA{
		ProgressState: NewProgressState(numCounters),
		now:           now,
		startTime:     start,
		lastUpdate:    start,
	}
}

// UpdateWithETA records an update and returns the new average progress and
// the estimated time remaining. The rate only moves when the average moves
// forward.
func (p *ProgressWithETA) UpdateWithETA(index int, value float64) (float64, time.Duration) {
	p.Update(index, value)
	avg := p.CalculateAverage()

	at := p.now()
	if dt := at.Sub(p.lastUpdate).Seconds(); dt > 0 && avg > p.lastProgress {
		sample := (avg - p.lastProgress) / dt
		if p.progressRate == 0 {
			p.progressRate = sample
		} else {
			p.progressRate += etaSmoothing * (sample - p.progressRate)
		}
		p.lastProgress = avg
		p.lastUpdate = at
	}
	return avg, p.GetETA()
}

// GetETA returns the estimated time remaining, zero when there is not
// enough data yet, and at most maxETA.
func (p *ProgressWithETA) GetETA() time.Duration {
	avg := p.CalculateAverage()
	if p.progressRate <= 0 || avg >= 1 {
		return 0
	}
	eta := time.Duration((1 - avg) / p.progressRate * float64(time.Second))
	if eta > maxETA || eta < 0 {
		return maxETA
	}
	return eta
}

// FormatETA renders an ETA compactly: "< 1s", "45s", "2m30s", "1h15m".
func FormatETA(eta time.Duration) string {
	if eta <= 0 {
		return "calculating..."
	}
	if eta < time.Second {
		return "< 1s"
	}
	eta = eta.Round(time.Second)
	h := int(eta / time.Hour)
	m := int((eta % time.Hour) / time.Minute)
	s := int((eta % time.Minute) / time.Second)
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh%dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	case m > 0 && s > 0:
		return fmt.Sprintf("%dm%ds", m, s)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// ProgressBar renders a bar of length runes.
func ProgressBar(progress float64, length int) string {
	if length <= 0 {
		return ""
	}
	filled := int(clamp01(progress) * float64(length))
	return strings.Repeat("█", filled) + strings.Repeat("░", length-filled)
}

// FormatProgressBarWithETA renders "[bar]  42.00% ETA: 1m5s".
func FormatProgressBarWithETA(progress float64, eta time.Duration, width int) string {
	return fmt.Sprintf("[%s] %6.2f%% ETA: %s", ProgressBar(progress, width), clamp01(progress)*100, FormatETA(eta))
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// Elapsed returns the time since the tracker was created.
func (p *ProgressWithETA) Elapsed() time.Duration {
	return p.now().Sub(p.startTime)
}
