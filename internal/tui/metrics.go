package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/primecount/internal/format"
	"github.com/agbru/primecount/internal/metrics"
)

// minSampleGap is the shortest interval between two progress samples that
// feeds the speed estimate. Closer samples are dropped.
const minSampleGap = 50 * time.Millisecond

// speedSmoothing is the weight of the newest sample in the speed average.
const speedSmoothing = 0.3

// rateEstimator tracks a smoothed rate of change of a value in [0, 1].
type rateEstimator struct {
	value float64
	rate  float64 // value units per second
	at    time.Time
}

func (e *rateEstimator) observe(at time.Time, value float64) {
	dt := at.Sub(e.at)
	if dt < minSampleGap {
		return
	}
	if dv := value - e.value; dv > 0 {
		instant := dv / dt.Seconds()
		if e.rate == 0 {
			e.rate = instant
		} else {
			e.rate += speedSmoothing * (instant - e.rate)
		}
	}
	e.value = value
	e.at = at
}

// remaining estimates the time until the value reaches 1.
func (e rateEstimator) remaining() (time.Duration, bool) {
	if e.rate <= 0 {
		return 0, false
	}
	return time.Duration((1 - e.value) / e.rate * float64(time.Second)), true
}

// metricCell is one label and value pair of the metrics grid.
type metricCell struct {
	label string
	value string
}

// MetricsModel displays runtime memory, counting speed and, once the run
// has finished, the prime density of the range.
type MetricsModel struct {
	mem        MemStatsMsg
	progress   rateEstimator
	throughput float64 // integers per second
	report     *metrics.RunReport
	now        func() time.Time
	width      int
	height     int
}

// NewMetricsModel creates a new metrics panel.
func NewMetricsModel() MetricsModel {
	m := MetricsModel{now: time.Now}
	m.progress.at = m.now()
	return m
}

// SetSize updates dimensions.
func (m *MetricsModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// UpdateMemStats stores the latest runtime sample.
func (m *MetricsModel) UpdateMemStats(msg MemStatsMsg) {
	m.mem = msg
}

// UpdateProgress feeds the average progress of the counters to the speed
// estimate.
func (m *MetricsModel) UpdateProgress(progress float64) {
	m.progress.observe(m.now(), progress)
}

// UpdateThroughput sets the live integers-per-second estimate.
func (m *MetricsModel) UpdateThroughput(perSecond float64) {
	m.throughput = perSecond
}

// UpdateReport stores the report of the finished run.
func (m *MetricsModel) UpdateReport(report metrics.RunReport) {
	m.report = &report
}

// cells lists the grid content in row-major order for two columns.
func (m MetricsModel) cells() []metricCell {
	gcPause := time.Duration(m.mem.PauseTotalNs)
	cells := []metricCell{
		{"Heap alloc", format.FormatBytes(m.mem.HeapAlloc)},
		{"Heap sys", format.FormatBytes(m.mem.HeapSys)},
		{"GC", fmt.Sprintf("%d (%s)", m.mem.NumGC, format.FormatExecutionDuration(gcPause))},
		{"Goroutines", strconv.Itoa(m.mem.NumGoroutine)},
	}

	if m.report != nil {
		return append(cells,
			metricCell{"Primes", format.FormatUint(m.report.Primes)},
			metricCell{"Density", fmt.Sprintf("%.6f", m.report.Density())},
			metricCell{"Final rate", format.FormatRate(m.report.Throughput())},
			metricCell{"Live rate", format.FormatRate(m.throughput)},
		)
	}

	eta := "-"
	if d, ok := m.progress.remaining(); ok {
		eta = format.FormatETA(d)
	}
	return append(cells,
		metricCell{"Progress", fmt.Sprintf("%.1f%%", m.progress.value*100)},
		metricCell{"Speed", fmt.Sprintf("%.1f%%/s", m.progress.rate*100)},
		metricCell{"Rate", format.FormatRate(m.throughput)},
		metricCell{"ETA", eta},
	)
}

// View renders the metrics panel.
func (m MetricsModel) View() string {
	colWidth := max((m.width-6)/2, 0)

	var b strings.Builder
	b.WriteString(" " + styles.title.Render("Metrics"))
	cells := m.cells()
	for i := 0; i < len(cells); i += 2 {
		b.WriteString("\n")
		b.WriteString(renderCell(cells[i], colWidth))
		if i+1 < len(cells) {
			b.WriteString(renderCell(cells[i+1], colWidth))
		}
	}

	return styles.panel.
		Width(max(m.width-2, 0)).
		Height(max(m.height-2, 0)).
		Render(b.String())
}

// renderCell pads a cell to colWidth visible columns.
func renderCell(c metricCell, colWidth int) string {
	cell := " " + styles.muted.Render(fmt.Sprintf("%-12s", c.label+":")) + " " + styles.strong.Render(c.value)
	if pad := colWidth - lipgloss.Width(cell); pad > 0 {
		cell += strings.Repeat(" ", pad)
	}
	return cell
}
