package format

import (
	"strings"
	"testing"
	"time"
)

// manualClock is a time source that only moves when advanced.
type manualClock struct{ t time.Time }

func (c *manualClock) now() time.Time          { return c.t }
func (c *manualClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newManualClock() *manualClock {
	return &manualClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func TestProgressState(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		counters int
		updates  map[int]float64
		want     float64
	}{
		{"no counters", 0, map[int]float64{0: 1}, 0},
		{"negative count is empty", -3, nil, 0},
		{"untouched counters", 3, nil, 0},
		{"mean of counters", 2, map[int]float64{0: 0.5, 1: 1}, 0.75},
		{"values clamp to the unit interval", 2, map[int]float64{0: 1.7, 1: -0.4}, 0.5},
		{"out of range indices are ignored", 2, map[int]float64{-1: 1, 2: 1, 1: 0.5}, 0.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ps := NewProgressState(tt.counters)
			for i, v := range tt.updates {
				ps.Update(i, v)
			}
			if got := ps.CalculateAverage(); got != tt.want {
				t.Errorf("CalculateAverage() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProgressWithETA_RateAndEstimate(t *testing.T) {
	t.Parallel()
	clock := newManualClock()
	p := newProgressWithClock(2, clock.now)

	if avg, eta := p.UpdateWithETA(0, 0); avg != 0 || eta != 0 {
		t.Fatalf("no progress yet: avg %v eta %v, want 0 and 0", avg, eta)
	}

	// Counter 0 reaches 0.4 after 2s: average 0.2, rate 0.1/s, 8s left.
	clock.advance(2 * time.Second)
	avg, eta := p.UpdateWithETA(0, 0.4)
	if avg != 0.2 || eta != 8*time.Second {
		t.Fatalf("after first step: avg %v eta %v, want 0.2 and 8s", avg, eta)
	}

	// Counter 1 reaches 0.4 one second later: sample 0.2/s, smoothed rate 0.13/s.
	clock.advance(time.Second)
	_, eta = p.UpdateWithETA(1, 0.4)
	wantRate := 0.1 + etaSmoothing*(0.2-0.1)
	if d := p.progressRate - wantRate; d > 1e-12 || d < -1e-12 {
		t.Errorf("progressRate = %v, want %v", p.progressRate, wantRate)
	}
	if want := time.Duration(0.6 / wantRate * float64(time.Second)); eta != want {
		t.Errorf("eta = %v, want %v", eta, want)
	}
	if got := p.Elapsed(); got != 3*time.Second {
		t.Errorf("Elapsed() = %v, want 3s", got)
	}
}

func TestProgressWithETA_StallKeepsRate(t *testing.T) {
	t.Parallel()
	clock := newManualClock()
	p := newProgressWithClock(1, clock.now)
	clock.advance(time.Second)
	p.UpdateWithETA(0, 0.5)
	rate := p.progressRate

	clock.advance(10 * time.Second)
	p.UpdateWithETA(0, 0.5)
	if p.progressRate != rate {
		t.Errorf("progressRate moved from %v to %v without progress", rate, p.progressRate)
	}
}

func TestProgressWithETA_Bounds(t *testing.T) {
	t.Parallel()
	p := newProgressWithClock(1, newManualClock().now)
	p.Update(0, 0.001)
	p.progressRate = 1e-9
	if got := p.GetETA(); got != maxETA {
		t.Errorf("slow rate: GetETA() = %v, want the %v cap", got, maxETA)
	}

	p.Update(0, 1)
	if got := p.GetETA(); got != 0 {
		t.Errorf("complete: GetETA() = %v, want 0", got)
	}
}

func TestFormatETA(t *testing.T) {
	t.Parallel()
	tests := []struct {
		eta  time.Duration
		want string
	}{
		{0, "calculating..."},
		{-time.Second, "calculating..."},
		{999 * time.Millisecond, "< 1s"},
		{1499 * time.Millisecond, "1s"},
		{59 * time.Second, "59s"},
		{3 * time.Minute, "3m"},
		{3*time.Minute + 7*time.Second, "3m7s"},
		{5 * time.Hour, "5h"},
		{5*time.Hour + 20*time.Minute + 40*time.Second, "5h20m"},
	}
	for _, tt := range tests {
		if got := FormatETA(tt.eta); got != tt.want {
			t.Errorf("FormatETA(%v) = %q, want %q", tt.eta, got, tt.want)
		}
	}
}

func TestProgressBar(t *testing.T) {
	t.Parallel()
	tests := []struct {
		progress float64
		length   int
		filled   int
	}{
		{0, 8, 0},
		{0.25, 8, 2},
		{0.99, 8, 7},
		{1, 8, 8},
		{3, 8, 8},
		{-1, 8, 0},
		{0.5, 0, 0},
	}
	for _, tt := range tests {
		bar := ProgressBar(tt.progress, tt.length)
		if n := strings.Count(bar, "█"); n != tt.filled {
			t.Errorf("ProgressBar(%v, %d) = %q, %d filled, want %d", tt.progress, tt.length, bar, n, tt.filled)
		}
		if n := len([]rune(bar)); n != tt.length {
			t.Errorf("ProgressBar(%v, %d) has %d cells", tt.progress, tt.length, n)
		}
	}
}

func TestFormatProgressBarWithETA(t *testing.T) {
	t.Parallel()
	got := FormatProgressBarWithETA(0.5, 90*time.Second, 4)
	if want := "[██░░]  50.00% ETA: 1m30s"; got != want {
		t.Errorf("FormatProgressBarWithETA = %q, want %q", got, want)
	}
	if got := FormatProgressBarWithETA(1.4, 0, 2); !strings.HasPrefix(got, "[██] 100.00%") {
		t.Errorf("overflowing progress should render full: %q", got)
	}
}

func TestFormatNumbers(t *testing.T) {
	t.Parallel()
	separated := map[string]string{
		"":        "",
		"7":       "7",
		"999":     "999",
		"1000":    "1,000",
		"78498":   "78,498",
		"5761455": "5,761,455",
		"-50847":  "-50,847",
		"+664579": "+664,579",
	}
	for in, want := range separated {
		if got := FormatNumberString(in); got != want {
			t.Errorf("FormatNumberString(%q) = %q, want %q", in, got, want)
		}
	}
	if got := FormatUint(18446744073709551615); got != "18,446,744,073,709,551,615" {
		t.Errorf("FormatUint(max) = %q", got)
	}
}

func TestFormatBytes(t *testing.T) {
	t.Parallel()
	tests := map[uint64]string{
		0:         "0 B",
		1023:      "1023 B",
		1024:      "1.0 KiB",
		1536:      "1.5 KiB",
		5 << 20:   "5.0 MiB",
		1 << 30:   "1.0 GiB",
		3 << 40:   "3.0 TiB",
		1<<20 - 1: "1024.0 KiB",
	}
	for in, want := range tests {
		if got := FormatBytes(in); got != want {
			t.Errorf("FormatBytes(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatRate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0 /s"},
		{999, "999 /s"},
		{1_500, "1.50 K/s"},
		{2_500_000, "2.50 M/s"},
		{7.25e9, "7.25 G/s"},
	}
	for _, tt := range tests {
		if got := FormatRate(tt.in); got != tt.want {
			t.Errorf("FormatRate(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
