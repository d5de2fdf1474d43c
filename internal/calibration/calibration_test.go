package calibration

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/agbru/primecount/internal/config"
	apperrors "github.com/agbru/primecount/internal/errors"
	"github.com/agbru/primecount/internal/primes"
	"github.com/agbru/primecount/internal/progress"
	"github.com/agbru/primecount/internal/sysmon"
)

func TestCalibrate(t *testing.T) {
	t.Parallel()
	var reports []float64
	results := calibrate(context.Background(), primes.SegmentedSieve{}, primes.Range{Low: 0, High: 100_000}, []int{1, 2, 4}, func(p float64) {
		reports = append(reports, p)
	})

	if len(results) != 3 {
		t.Fatalf("expected 3 measurements, got %d", len(results))
	}
	for _, res := range results {
		if res.Err != nil {
			t.Errorf("jobs=%d failed: %v", res.Jobs, res.Err)
		}
		if res.Count != 9592 {
			t.Errorf("jobs=%d counted %d primes, want 9592", res.Jobs, res.Count)
		}
	}
	if len(reports) != 3 || reports[2] != 1.0 {
		t.Errorf("progress reports = %v, want three ending at 1.0", reports)
	}
}

func TestCalibrate_CanceledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results := calibrate(ctx, primes.SqrtTrialDivision{}, primes.Range{Low: 0, High: 1000}, []int{1, 2}, nil)
	if len(results) != 0 {
		t.Errorf("no measurement should run after cancellation, got %d", len(results))
	}
}

func TestBestResult(t *testing.T) {
	t.Parallel()
	results := []calibrationResult{
		{Jobs: 1, Duration: 40 * time.Millisecond},
		{Jobs: 4, Duration: 10 * time.Millisecond},
		{Jobs: 8, Duration: 10 * time.Millisecond},
		{Jobs: 16, Duration: time.Millisecond, Err: errors.New("boom")},
	}
	best, ok := bestResult(results)
	if !ok || best.Jobs != 4 {
		t.Errorf("best = %+v, %v; want jobs=4", best, ok)
	}

	if _, ok := bestResult([]calibrationResult{{Jobs: 1, Err: errors.New("x")}}); ok {
		t.Error("bestResult should fail when every measurement failed")
	}
}

func TestCheckConsistency(t *testing.T) {
	t.Parallel()
	agree := []calibrationResult{{Count: 5}, {Count: 5}, {Count: 0, Err: errors.New("ignored")}}
	if err := checkConsistency(agree); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	disagree := []calibrationResult{{Count: 5}, {Count: 6}}
	if err := checkConsistency(disagree); err == nil {
		t.Error("expected a mismatch error")
	}
}

func TestPickCounter(t *testing.T) {
	t.Parallel()
	factory := primes.NewDefaultFactory()
	if key, c := pickCounter(factory.GetAll()); key != "sqrt" || c == nil {
		t.Errorf("pickCounter = %q, want sqrt", key)
	}
	if key, _ := pickCounter(map[string]primes.Counter{"trial": primes.TrialDivision{}, "sieve": primes.SegmentedSieve{}}); key != "sieve" {
		t.Errorf("pickCounter fallback = %q, want the first key in order", key)
	}
	if key, c := pickCounter(nil); key != "" || c != nil {
		t.Error("pickCounter on an empty map should return nothing")
	}
}

// CalibrationRange is package state, so this test is not parallel.
func TestRunCalibration(t *testing.T) {
	original := CalibrationRange
	defer func() { CalibrationRange = original }()
	CalibrationRange = primes.Range{Low: 0, High: 20_000}

	path := filepath.Join(t.TempDir(), "profile.json")
	var displayed bool
	display := func(wg *sync.WaitGroup, ch <-chan progress.ProgressUpdate, n int, _ io.Writer) {
		defer wg.Done()
		for range ch {
			displayed = true
		}
	}

	var out bytes.Buffer
	code := RunCalibration(context.Background(), &out, map[string]primes.Counter{"sieve": primes.SegmentedSieve{}}, path, display, nil)
	if code != apperrors.ExitSuccess {
		t.Fatalf("exit code = %d, output:\n%s", code, out.String())
	}
	if !displayed {
		t.Error("progress display received no update")
	}
	for _, want := range []string{"Calibration Summary", "Sequential", "(Optimal)", "Calibration complete", path} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output should contain %q:\n%s", want, out.String())
		}
	}

	profile, err := loadProfile(path)
	if err != nil {
		t.Fatalf("profile not saved: %v", err)
	}
	if profile.OptimalJobs < 1 || profile.CalibrationAlgo != "sieve" || profile.CalibrationHigh != 20_000 {
		t.Errorf("unexpected profile %+v", profile)
	}
	if !profile.IsValid() {
		t.Error("saved profile should be valid on this machine")
	}
}

func TestRunCalibration_NoCounters(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	if code := RunCalibration(context.Background(), &out, nil, filepath.Join(t.TempDir(), "p.json"), nil, nil); code != apperrors.ExitErrorConfig {
		t.Errorf("exit code = %d, want %d", code, apperrors.ExitErrorConfig)
	}
}

func TestAutoCalibrate(t *testing.T) {
	saved := QuickCalibrationRange
	QuickCalibrationRange = primes.Range{Low: 0, High: 5000}
	t.Cleanup(func() { QuickCalibrationRange = saved })

	path := filepath.Join(t.TempDir(), "auto.json")
	cfg := config.AppConfig{CalibrationProfile: path}
	counters := primes.NewDefaultFactory().GetAll()

	var out bytes.Buffer
	got, ok := AutoCalibrate(context.Background(), cfg, &out, counters)
	if !ok {
		t.Fatal("AutoCalibrate should find a job count")
	}
	if got.Jobs < 1 {
		t.Errorf("Jobs = %d, want >= 1", got.Jobs)
	}
	if !strings.Contains(out.String(), "Auto-calibration") {
		t.Errorf("unexpected output %q", out.String())
	}

	// The second call uses the cached profile and prints nothing.
	out.Reset()
	cached, ok := AutoCalibrate(context.Background(), cfg, &out, counters)
	if !ok || cached.Jobs != got.Jobs {
		t.Errorf("cached Jobs = %d (ok=%v), want %d", cached.Jobs, ok, got.Jobs)
	}
	if out.Len() != 0 {
		t.Errorf("cached run should be silent, got %q", out.String())
	}
}

func TestAutoCalibrate_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg := config.AppConfig{CalibrationProfile: filepath.Join(t.TempDir(), "none.json")}
	if _, ok := AutoCalibrate(ctx, cfg, io.Discard, primes.NewDefaultFactory().GetAll()); ok {
		t.Error("a canceled context should not produce a job count")
	}
}

func TestPrintHost(t *testing.T) {
	var buf bytes.Buffer
	printHost(&buf, sysmon.HostInfo{ModelName: "Test CPU", PhysicalCores: 4, LogicalCores: 8, TotalMemory: 1 << 30})
	for _, want := range []string{"Host: Test CPU", "Cores: 4 physical, 8 logical", "Memory: "} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output should contain %q, got %q", want, buf.String())
		}
	}
	buf.Reset()
	printHost(&buf, sysmon.HostInfo{})
	if buf.Len() != 0 {
		t.Errorf("empty host should print nothing, got %q", buf.String())
	}
}
