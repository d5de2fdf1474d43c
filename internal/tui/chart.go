package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/agbru/primecount/internal/format"
)

const (
	// sparklineWidth is the horizontal space taken by the label and value
	// around a sparkline.
	sparklineWidth = 17
	// minSparklineHeight is the panel height below which sparklines are
	// hidden.
	minSparklineHeight = 10
	// minProgressBarWidth is the panel width below which the bar is hidden.
	minProgressBarWidth = 20
)

// ChartModel renders the overall progress, the ETA and sparklines of system
// load and counting throughput.
type ChartModel struct {
	averageProgress float64
	eta             time.Duration
	elapsed         time.Duration
	done            bool
	cpuHistory      *SampleWindow
	memHistory      *SampleWindow
	rateHistory     *SampleWindow
	width           int
	height          int
}

// NewChartModel creates a new chart panel.
func NewChartModel() ChartModel {
	return ChartModel{
		cpuHistory:  NewSampleWindow(32),
		memHistory:  NewSampleWindow(32),
		rateHistory: NewSampleWindow(32),
	}
}

// SetSize updates dimensions and resizes the sparkline buffers to the
// available width.
func (c *ChartModel) SetSize(w, h int) {
	c.width = w
	c.height = h
	if n := w - sparklineWidth; n > 0 {
		c.cpuHistory.Resize(n)
		c.memHistory.Resize(n)
		c.rateHistory.Resize(n)
	}
}

// AddDataPoint records the latest progress.
func (c *ChartModel) AddDataPoint(value, average float64, eta time.Duration) {
	c.averageProgress = average
	c.eta = eta
}

// AddThroughput records a throughput sample in integers per second.
func (c *ChartModel) AddThroughput(perSecond float64) {
	c.rateHistory.Push(perSecond)
}

// UpdateSysStats records a system load sample.
func (c *ChartModel) UpdateSysStats(cpuPercent, memPercent float64) {
	c.cpuHistory.Push(cpuPercent)
	c.memHistory.Push(memPercent)
}

// SetDone freezes the chart at completion.
func (c *ChartModel) SetDone(elapsed time.Duration) {
	c.done = true
	c.elapsed = elapsed
	c.averageProgress = 1
	c.eta = 0
}

// Reset clears all samples.
func (c *ChartModel) Reset() {
	c.averageProgress = 0
	c.eta = 0
	c.elapsed = 0
	c.done = false
	c.cpuHistory.Reset()
	c.memHistory.Reset()
	c.rateHistory.Reset()
}

// renderProgressBar draws the average progress of all counters, or nothing
// when the panel is too narrow.
func (c ChartModel) renderProgressBar() string {
	barWidth := c.width - 14
	if c.width < minProgressBarWidth || barWidth <= 0 {
		return ""
	}
	return fmt.Sprintf(" %s %5.1f%%",
		styles.accent.Render(format.ProgressBar(c.averageProgress, barWidth)),
		c.averageProgress*100)
}

// View renders the chart panel.
func (c ChartModel) View() string {
	var b strings.Builder
	b.WriteString(" " + styles.title.Render("Progress Chart"))
	if bar := c.renderProgressBar(); bar != "" {
		b.WriteString("\n" + bar)
	}

	status := "ETA: " + format.FormatETA(c.eta)
	if c.done {
		status = "Completed in " + format.FormatExecutionDuration(c.elapsed)
	}
	b.WriteString("\n " + styles.muted.Render(status))

	if c.height >= minSparklineHeight {
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("\n %s %s %5.1f%%", styles.muted.Render("CPU "),
			styles.cpuSpark.Render(RenderSparkline(c.cpuHistory.Slice(), 100)), c.cpuHistory.Last()))
		b.WriteString(fmt.Sprintf("\n %s %s %5.1f%%", styles.muted.Render("MEM "),
			styles.memSpark.Render(RenderSparkline(c.memHistory.Slice(), 100)), c.memHistory.Last()))
		if c.rateHistory.Len() > 0 {
			b.WriteString(fmt.Sprintf("\n %s %s %s", styles.muted.Render("RATE"),
				styles.rateSpark.Render(c.rateSparkline()), format.FormatRate(c.rateHistory.Last())))
		}
	}

	return styles.panel.
		Width(max(c.width-2, 0)).
		Height(max(c.height-2, 0)).
		Render(b.String())
}

// rateSparkline scales the counting rate against the fastest sample still
// in the window, so a slowdown late in the range stays visible.
func (c ChartModel) rateSparkline() string {
	return RenderSparkline(c.rateHistory.Slice(), c.rateHistory.Peak())
}
