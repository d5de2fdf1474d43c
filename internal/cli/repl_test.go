package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/agbru/primecount/internal/parallel"
	"github.com/agbru/primecount/internal/primes"
)

// REPL counts draw a spinner through newSpinner, which other tests replace,
// so these tests do not run in parallel.

func newTestREPL(input string) (*REPL, *bytes.Buffer) {
	repl := NewREPL(primes.NewDefaultFactory().GetAll(), REPLConfig{
		DefaultAlgo: "sqrt",
		Jobs:        2,
		Policy:      parallel.FailFast,
		Timeout:     time.Minute,
	})
	var out bytes.Buffer
	repl.SetInput(strings.NewReader(input))
	repl.SetOutput(&out)
	return repl, &out
}

func TestNewREPL_Defaults(t *testing.T) {
	repl := NewREPL(primes.NewDefaultFactory().GetAll(), REPLConfig{DefaultAlgo: "missing"})
	if repl.currentAlgo != "sieve" {
		t.Errorf("unknown default should fall back to the first counter, got %q", repl.currentAlgo)
	}
	if repl.config.Jobs != 1 {
		t.Errorf("Jobs = %d, want 1", repl.config.Jobs)
	}
	if repl.config.Timeout <= 0 {
		t.Error("Timeout should default to a positive value")
	}
}

func TestREPL_Commands(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains []string
		absent   []string
	}{
		{
			name:     "count",
			input:    "count 0 1000\nexit\n",
			contains: []string{"Counting primes in", "[0, 1000]", "168", "Goodbye!"},
		},
		{
			name:     "count alias",
			input:    "c 10 20\n",
			contains: []string{"[10, 20]", "4"},
		},
		{
			name:     "bare number",
			input:    "100\n",
			contains: []string{"[0, 100]", "25"},
		},
		{
			name:     "count usage",
			input:    "count 5\n",
			contains: []string{"Usage: count <low> <high>"},
		},
		{
			name:     "count inverted range",
			input:    "count 9 3\n",
			contains: []string{"Error:"},
			absent:   []string{"Counting primes in"},
		},
		{
			name:     "count invalid bounds",
			input:    "count a b\n",
			contains: []string{"Invalid bounds: a b"},
		},
		{
			name:     "isprime",
			input:    "isprime 97\np 91\n",
			contains: []string{"97 is", "prime", "91 is", "not prime"},
		},
		{
			name:     "isprime invalid",
			input:    "isprime x\n",
			contains: []string{"Invalid value: x"},
		},
		{
			name:     "compare",
			input:    "compare 0 10000\n",
			contains: []string{"Comparison for", "trial", "sqrt", "sieve", "1,229", "✓"},
			absent:   []string{"INCONSISTENT"},
		},
		{
			name:     "algo change",
			input:    "algo trial\nstatus\n",
			contains: []string{"Counter changed to", "Counter:", "trial"},
		},
		{
			name:     "algo unknown",
			input:    "algo fft\n",
			contains: []string{"Unknown counter: fft", "Available counters: sieve, sqrt, trial"},
		},
		{
			name:     "jobs change",
			input:    "jobs 8\nstatus\n",
			contains: []string{"Jobs changed to", "Jobs:", "8"},
		},
		{
			name:     "jobs invalid",
			input:    "jobs 0\n",
			contains: []string{"Jobs must be a positive integer, got 0"},
		},
		{
			name:     "list",
			input:    "list\n",
			contains: []string{"Available counters:", "►", "sieve", "sqrt", "trial"},
		},
		{
			name:     "unknown command",
			input:    "frobnicate\n",
			contains: []string{"Unknown command: frobnicate"},
		},
		{
			name:     "help",
			input:    "help\n",
			contains: []string{"Available commands:", "isprime <n>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repl, out := newTestREPL(tt.input)
			repl.Start(context.Background())

			output := out.String()
			for _, want := range tt.contains {
				if !strings.Contains(output, want) {
					t.Errorf("output should contain %q, got:\n%s", want, output)
				}
			}
			for _, unwanted := range tt.absent {
				if strings.Contains(output, unwanted) {
					t.Errorf("output should not contain %q, got:\n%s", unwanted, output)
				}
			}
		})
	}
}

func TestREPL_ExitStopsReading(t *testing.T) {
	repl, out := newTestREPL("quit\ncount 0 100\n")
	repl.Start(context.Background())

	if strings.Contains(out.String(), "Counting primes in") {
		t.Error("commands after quit should not run")
	}
}

func TestREPL_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repl, out := newTestREPL("count 0 100\n")
	repl.Start(ctx)

	if strings.Contains(out.String(), "Counting primes in") {
		t.Error("a canceled session should not run commands")
	}
}

func TestREPL_CompareFlagsDisagreement(t *testing.T) {
	registry := primes.NewDefaultFactory().GetAll()
	registry["broken"] = offByOneCounter{}
	repl := NewREPL(registry, REPLConfig{DefaultAlgo: "sqrt", Jobs: 1})
	var out bytes.Buffer
	repl.SetOutput(&out)

	repl.compare(context.Background(), primes.Range{Low: 0, High: 100})

	if !strings.Contains(out.String(), "INCONSISTENT") {
		t.Errorf("a disagreeing counter should be flagged, got:\n%s", out.String())
	}
}

// offByOneCounter reports one prime more than there is in every part.
type offByOneCounter struct{}

func (offByOneCounter) Name() string { return "off by one" }

func (offByOneCounter) CountRange(ctx context.Context, r primes.Range) (uint64, error) {
	n, err := primes.SqrtTrialDivision{}.CountRange(ctx, r)
	return n + 1, err
}
