package tui

import "strings"

// sparkBlocks are the eight cell heights of a sparkline, lowest first.
var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// SampleWindow keeps the most recent samples of one gauge, oldest first. The
// chart panel holds one per sparkline (CPU, memory and counting rate) and
// sizes it to the columns the sparkline can use.
type SampleWindow struct {
	samples []float64
	size    int
}

// NewSampleWindow returns an empty window holding at most size samples.
// Sizes below one are raised to one.
func NewSampleWindow(size int) *SampleWindow {
	return &SampleWindow{size: max(size, 1)}
}

// Push appends v and drops the oldest sample once the window is full.
func (w *SampleWindow) Push(v float64) {
	if len(w.samples) == w.size {
		copy(w.samples, w.samples[1:])
		w.samples = w.samples[:w.size-1]
	}
	w.samples = append(w.samples, v)
}

// Len returns the number of samples held.
func (w *SampleWindow) Len() int { return len(w.samples) }

// Cap returns the window size.
func (w *SampleWindow) Cap() int { return w.size }

// Last returns the newest sample, or 0 when the window is empty.
func (w *SampleWindow) Last() float64 {
	if len(w.samples) == 0 {
		return 0
	}
	return w.samples[len(w.samples)-1]
}

// Peak returns the largest sample held, or 0 when the window is empty.
func (w *SampleWindow) Peak() float64 {
	var peak float64
	for _, v := range w.samples {
		peak = max(peak, v)
	}
	return peak
}

// Slice returns a copy of the samples, oldest first.
func (w *SampleWindow) Slice() []float64 {
	if len(w.samples) == 0 {
		return nil
	}
	return append([]float64(nil), w.samples...)
}

// Resize changes the window size and keeps the newest samples that fit.
func (w *SampleWindow) Resize(size int) {
	size = max(size, 1)
	if extra := len(w.samples) - size; extra > 0 {
		w.samples = append(w.samples[:0], w.samples[extra:]...)
	}
	w.size = size
}

// Reset drops every sample and keeps the size.
func (w *SampleWindow) Reset() {
	w.samples = w.samples[:0]
}

// RenderSparkline draws one cell per value. ceiling is the value that fills a
// cell: 100 for the CPU and memory percentages, the window peak for the
// counting rate. Values are clamped to [0, ceiling]; a ceiling of zero or
// less renders every cell at the lowest height.
func RenderSparkline(values []float64, ceiling float64) string {
	if len(values) == 0 {
		return ""
	}
	top := len(sparkBlocks) - 1
	var b strings.Builder
	b.Grow(len(values) * 3)
	for _, v := range values {
		level := 0
		if ceiling > 0 {
			level = int(min(max(v, 0), ceiling) * float64(top) / ceiling)
		}
		b.WriteRune(sparkBlocks[level])
	}
	return b.String()
}
