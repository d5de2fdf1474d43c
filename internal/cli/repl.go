package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/agbru/primecount/internal/format"
	"github.com/agbru/primecount/internal/parallel"
	"github.com/agbru/primecount/internal/primes"
	"github.com/agbru/primecount/internal/progress"
	"github.com/agbru/primecount/internal/ui"
)

// REPLConfig holds configuration for the REPL session.
type REPLConfig struct {
	// DefaultAlgo is the counter selected at startup.
	DefaultAlgo string
	// Jobs is the number of sub-ranges of each count.
	Jobs int
	// Policy is the worker failure policy of each count.
	Policy parallel.Policy
	// Timeout bounds each count.
	Timeout time.Duration
}

// REPL is an interactive prime counting session.
type REPL struct {
	config      REPLConfig
	registry    map[string]primes.Counter
	names       []string
	currentAlgo string
	in          io.Reader
	out         io.Writer
}

// NewREPL creates a new REPL instance.
//
// Parameters:
//   - registry: The available counters, by key.
//   - config: REPL configuration.
//
// Returns:
//   - *REPL: A new REPL instance reading stdin and writing stdout.
func NewREPL(registry map[string]primes.Counter, config REPLConfig) *REPL {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)

	currentAlgo := config.DefaultAlgo
	if _, ok := registry[currentAlgo]; !ok && len(names) > 0 {
		currentAlgo = names[0]
	}
	if config.Jobs < 1 {
		config.Jobs = 1
	}
	if config.Timeout <= 0 {
		config.Timeout = time.Minute
	}

	return &REPL{
		config:      config,
		registry:    registry,
		names:       names,
		currentAlgo: currentAlgo,
		in:          os.Stdin,
		out:         os.Stdout,
	}
}

// SetInput sets a custom input reader.
func (r *REPL) SetInput(in io.Reader) {
	r.in = in
}

// SetOutput sets a custom output writer.
func (r *REPL) SetOutput(out io.Writer) {
	r.out = out
}

// Start reads and runs commands until exit, EOF or the cancellation of ctx.
func (r *REPL) Start(ctx context.Context) {
	r.printBanner()
	r.printHelp()
	fmt.Fprintln(r.out)

	reader := bufio.NewReader(r.in)
	for ctx.Err() == nil {
		fmt.Fprint(r.out, ui.ColorGreen()+"pi> "+ui.ColorReset())

		input, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			fmt.Fprintf(r.out, "%sRead error: %v%s\n", ui.ColorRed(), err, ui.ColorReset())
			return
		}
		if line := strings.TrimSpace(input); line != "" {
			if !r.processCommand(ctx, line) {
				return
			}
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(r.out, "\nGoodbye!")
			return
		}
	}
}

func (r *REPL) printBanner() {
	fmt.Fprintf(r.out, "\n%s== primecount interactive mode ==%s\n\n", ui.ColorBlue()+ui.ColorBold(), ui.ColorReset())
}

func (r *REPL) printHelp() {
	fmt.Fprintf(r.out, "%sAvailable commands:%s\n", ui.ColorBold(), ui.ColorReset())
	for _, c := range [][2]string{
		{"count <low> <high>", "Count primes in [low, high] with the current counter"},
		{"<n>", "Count primes in [0, n]"},
		{"isprime <n>", "Test a single number"},
		{"compare <low> <high>", "Run every counter and check they agree"},
		{"algo <name>", "Change counter (" + strings.Join(r.names, ", ") + ")"},
		{"jobs <n>", "Change the number of sub-ranges"},
		{"list", "List available counters"},
		{"status", "Display current configuration"},
		{"help", "Display this help"},
		{"exit / quit", "Leave interactive mode"},
	} {
		fmt.Fprintf(r.out, "  %s%-22s%s %s\n", ui.ColorYellow(), c[0], ui.ColorReset(), c[1])
	}
}

// processCommand runs one command line. It returns false when the session
// should end.
func (r *REPL) processCommand(ctx context.Context, input string) bool {
	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "count", "c":
		if rg, ok := r.parseRangeArgs("count", args); ok {
			r.count(ctx, rg)
		}
	case "isprime", "p":
		r.cmdIsPrime(args)
	case "compare", "cmp":
		if rg, ok := r.parseRangeArgs("compare", args); ok {
			r.compare(ctx, rg)
		}
	case "algo", "a":
		r.cmdAlgo(args)
	case "jobs", "j":
		r.cmdJobs(args)
	case "list", "ls":
		r.cmdList()
	case "status", "st":
		r.cmdStatus()
	case "help", "h", "?":
		r.printHelp()
	case "exit", "quit", "q":
		fmt.Fprintf(r.out, "%sGoodbye!%s\n", ui.ColorGreen(), ui.ColorReset())
		return false
	default:
		if n, err := strconv.ParseUint(cmd, 10, 64); err == nil {
			r.count(ctx, primes.Range{Low: 0, High: n})
		} else {
			fmt.Fprintf(r.out, "%sUnknown command: %s%s\n", ui.ColorRed(), cmd, ui.ColorReset())
			fmt.Fprintf(r.out, "Type %shelp%s to see available commands.\n", ui.ColorYellow(), ui.ColorReset())
		}
	}
	return true
}

func (r *REPL) parseRangeArgs(cmd string, args []string) (primes.Range, bool) {
	if len(args) != 2 {
		fmt.Fprintf(r.out, "%sUsage: %s <low> <high>%s\n", ui.ColorRed(), cmd, ui.ColorReset())
		return primes.Range{}, false
	}
	low, errLow := strconv.ParseUint(args[0], 10, 64)
	high, errHigh := strconv.ParseUint(args[1], 10, 64)
	if errLow != nil || errHigh != nil {
		fmt.Fprintf(r.out, "%sInvalid bounds: %s %s%s\n", ui.ColorRed(), args[0], args[1], ui.ColorReset())
		return primes.Range{}, false
	}
	rg, err := primes.NewRange(low, high)
	if err != nil {
		fmt.Fprintf(r.out, "%sError: %v%s\n", ui.ColorRed(), err, ui.ColorReset())
		return primes.Range{}, false
	}
	return rg, true
}

// count runs the current counter over rg with a progress spinner.
func (r *REPL) count(ctx context.Context, rg primes.Range) {
	counter, ok := r.registry[r.currentAlgo]
	if !ok {
		fmt.Fprintf(r.out, "%sCounter not found: %s%s\n", ui.ColorRed(), r.currentAlgo, ui.ColorReset())
		return
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	fmt.Fprintf(r.out, "Counting primes in %s%s%s with %s%s%s (%d jobs)...\n",
		ui.ColorMagenta(), rg, ui.ColorReset(),
		ui.ColorCyan(), counter.Name(), ui.ColorReset(), r.config.Jobs)

	progressChan := make(chan progress.ProgressUpdate, 16)
	var wg sync.WaitGroup
	wg.Add(1)
	go DisplayProgress(&wg, progressChan, 1, r.out)

	start := time.Now()
	total, err := parallel.CountInRangeParallel(ctx, rg.Low, rg.High, r.config.Jobs, parallel.Options{
		Counter:  counter,
		Policy:   r.config.Policy,
		Progress: progress.ChannelReporter(progressChan, 0),
	})
	duration := time.Since(start)
	close(progressChan)
	wg.Wait()

	if err != nil {
		fmt.Fprintf(r.out, "%sError: %v%s\n", ui.ColorRed(), err, ui.ColorReset())
		return
	}
	fmt.Fprintf(r.out, "\n%sResult:%s\n", ui.ColorBold(), ui.ColorReset())
	fmt.Fprintf(r.out, "  pi%s = %s%s%s\n", rg, ui.ColorGreen(), format.FormatUint(total), ui.ColorReset())
	fmt.Fprintf(r.out, "  Time: %s%s%s\n\n", ui.ColorGreen(), format.FormatExecutionDuration(duration), ui.ColorReset())
}

func (r *REPL) cmdIsPrime(args []string) {
	if len(args) != 1 {
		fmt.Fprintf(r.out, "%sUsage: isprime <n>%s\n", ui.ColorRed(), ui.ColorReset())
		return
	}
	n, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		fmt.Fprintf(r.out, "%sInvalid value: %s%s\n", ui.ColorRed(), args[0], ui.ColorReset())
		return
	}
	if primes.IsPrimeSqrt(n) {
		fmt.Fprintf(r.out, "%d is %sprime%s\n", n, ui.ColorGreen(), ui.ColorReset())
	} else {
		fmt.Fprintf(r.out, "%d is %snot prime%s\n", n, ui.ColorYellow(), ui.ColorReset())
	}
}

// compare runs every counter sequentially over rg and flags disagreements.
func (r *REPL) compare(ctx context.Context, rg primes.Range) {
	fmt.Fprintf(r.out, "\n%sComparison for %s:%s\n", ui.ColorBold(), rg, ui.ColorReset())
	rule := strings.Repeat("─", 45)
	fmt.Fprintf(r.out, "%s%s%s\n", ui.ColorCyan(), rule, ui.ColorReset())

	var reference uint64
	haveReference := false
	for _, name := range r.names {
		cctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
		start := time.Now()
		total, err := parallel.CountInRangeParallel(cctx, rg.Low, rg.High, r.config.Jobs, parallel.Options{
			Counter: r.registry[name],
			Policy:  r.config.Policy,
		})
		duration := time.Since(start)
		cancel()

		if err != nil {
			fmt.Fprintf(r.out, "  %s%-8s%s: %sError - %v%s\n",
				ui.ColorYellow(), name, ui.ColorReset(), ui.ColorRed(), err, ui.ColorReset())
			continue
		}
		if !haveReference {
			reference, haveReference = total, true
		}
		status := ui.ColorGreen() + "✓" + ui.ColorReset()
		if total != reference {
			status = ui.ColorRed() + "✗ INCONSISTENT" + ui.ColorReset()
		}
		fmt.Fprintf(r.out, "  %s%-8s%s: %12s %s%12s%s %s\n",
			ui.ColorYellow(), name, ui.ColorReset(),
			format.FormatUint(total),
			ui.ColorCyan(), format.FormatExecutionDuration(duration), ui.ColorReset(),
			status)
	}
	fmt.Fprintf(r.out, "%s%s%s\n\n", ui.ColorCyan(), rule, ui.ColorReset())
}

func (r *REPL) cmdAlgo(args []string) {
	if len(args) != 1 {
		fmt.Fprintf(r.out, "%sUsage: algo <name>%s\n", ui.ColorRed(), ui.ColorReset())
		fmt.Fprintf(r.out, "Available counters: %s\n", strings.Join(r.names, ", "))
		return
	}
	name := strings.ToLower(args[0])
	counter, ok := r.registry[name]
	if !ok {
		fmt.Fprintf(r.out, "%sUnknown counter: %s%s\n", ui.ColorRed(), name, ui.ColorReset())
		fmt.Fprintf(r.out, "Available counters: %s\n", strings.Join(r.names, ", "))
		return
	}
	r.currentAlgo = name
	fmt.Fprintf(r.out, "Counter changed to: %s%s%s\n", ui.ColorGreen(), counter.Name(), ui.ColorReset())
}

func (r *REPL) cmdJobs(args []string) {
	if len(args) != 1 {
		fmt.Fprintf(r.out, "%sUsage: jobs <n>%s\n", ui.ColorRed(), ui.ColorReset())
		return
	}
	jobs, err := strconv.Atoi(args[0])
	if err != nil || jobs < 1 {
		fmt.Fprintf(r.out, "%sJobs must be a positive integer, got %s%s\n", ui.ColorRed(), args[0], ui.ColorReset())
		return
	}
	r.config.Jobs = jobs
	fmt.Fprintf(r.out, "Jobs changed to: %s%d%s\n", ui.ColorGreen(), jobs, ui.ColorReset())
}

func (r *REPL) cmdList() {
	fmt.Fprintf(r.out, "\n%sAvailable counters:%s\n", ui.ColorBold(), ui.ColorReset())
	for _, name := range r.names {
		marker := "  "
		if name == r.currentAlgo {
			marker = ui.ColorGreen() + "► " + ui.ColorReset()
		}
		fmt.Fprintf(r.out, "%s%s%-8s%s - %s\n", marker, ui.ColorYellow(), name, ui.ColorReset(), r.registry[name].Name())
	}
	fmt.Fprintln(r.out)
}

func (r *REPL) cmdStatus() {
	fmt.Fprintf(r.out, "\n%sCurrent configuration:%s\n", ui.ColorBold(), ui.ColorReset())
	fmt.Fprintf(r.out, "  Counter:  %s%s%s\n", ui.ColorCyan(), r.currentAlgo, ui.ColorReset())
	fmt.Fprintf(r.out, "  Jobs:     %s%d%s\n", ui.ColorCyan(), r.config.Jobs, ui.ColorReset())
	fmt.Fprintf(r.out, "  Policy:   %s%s%s\n", ui.ColorCyan(), r.config.Policy, ui.ColorReset())
	fmt.Fprintf(r.out, "  Timeout:  %s%s%s\n\n", ui.ColorCyan(), r.config.Timeout, ui.ColorReset())
}
