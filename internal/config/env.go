package config

import (
	"flag"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// envLayer holds the PRIMECOUNT_* variables as raw text. A nil field is an
// unset variable. Values stay textual so that lenient parsing (yes/no
// booleans, a malformed job count reported by validation) happens in one
// place.
type envLayer struct {
	Low                *string `env:"LOW"`
	High               *string `env:"HIGH"`
	Jobs               *string `env:"JOBS"`
	Timeout            *string `env:"TIMEOUT"`
	Algo               *string `env:"ALGO"`
	Policy             *string `env:"POLICY"`
	Output             *string `env:"OUTPUT"`
	Serve              *string `env:"SERVE"`
	CalibrationProfile *string `env:"CALIBRATION_PROFILE"`
	Verbose            *string `env:"VERBOSE"`
	Details            *string `env:"DETAILS"`
	Quiet              *string `env:"QUIET"`
	TUI                *string `env:"TUI"`
	Interactive        *string `env:"INTERACTIVE"`
	Calibrate          *string `env:"CALIBRATE"`
	AutoCalibrate      *string `env:"AUTO_CALIBRATE"`
}

// readEnvLayer snapshots the environment. Every field is a string, so
// parsing cannot fail.
func readEnvLayer() envLayer {
	var e envLayer
	_ = env.ParseWithOptions(&e, env.Options{Prefix: EnvPrefix})
	return e
}

// envBinding ties one variable to the flags that shadow it.
type envBinding struct {
	value *string
	flags []string
	apply func(*AppConfig, string)
}

func (e envLayer) bindings() []envBinding {
	boolean := func(dst func(*AppConfig) *bool) func(*AppConfig, string) {
		return func(c *AppConfig, v string) {
			p := dst(c)
			*p = parseBoolEnv(v, *p)
		}
	}
	return []envBinding{
		{e.Jobs, []string{"jobs", "j"}, func(c *AppConfig, v string) {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				n = 0 // rejected by Validate
			}
			c.Jobs = n
			c.jobsSet = true
		}},
		{e.Timeout, []string{"timeout"}, func(c *AppConfig, v string) {
			if d, err := time.ParseDuration(v); err == nil {
				c.Timeout = d
			}
		}},
		{e.Algo, []string{"algo"}, func(c *AppConfig, v string) { c.Algo = v }},
		{e.Policy, []string{"policy"}, func(c *AppConfig, v string) { c.Policy = v }},
		{e.Output, []string{"output", "o"}, func(c *AppConfig, v string) { c.OutputFile = v }},
		{e.Serve, []string{"serve"}, func(c *AppConfig, v string) { c.Serve = v }},
		{e.CalibrationProfile, []string{"calibration-profile"}, func(c *AppConfig, v string) { c.CalibrationProfile = v }},
		{e.Verbose, []string{"v", "verbose"}, boolean(func(c *AppConfig) *bool { return &c.Verbose })},
		{e.Details, []string{"d", "details"}, boolean(func(c *AppConfig) *bool { return &c.Details })},
		{e.Quiet, []string{"quiet", "q"}, boolean(func(c *AppConfig) *bool { return &c.Quiet })},
		{e.TUI, []string{"tui"}, boolean(func(c *AppConfig) *bool { return &c.TUI })},
		{e.Interactive, []string{"interactive", "i"}, boolean(func(c *AppConfig) *bool { return &c.Interactive })},
		{e.Calibrate, []string{"calibrate"}, boolean(func(c *AppConfig) *bool { return &c.Calibrate })},
		{e.AutoCalibrate, []string{"auto-calibrate"}, boolean(func(c *AppConfig) *bool { return &c.AutoCalibrate })},
	}
}

// apply overlays the variables on config wherever the matching flag was not
// given. Flags win over the environment, which wins over defaults.
func (e envLayer) apply(config *AppConfig, fs *flag.FlagSet) {
	for _, b := range e.bindings() {
		if b.value == nil || *b.value == "" || isFlagSetAny(fs, b.flags...) {
			continue
		}
		b.apply(config, *b.value)
	}
}

// bounds returns the textual range bounds after the environment overlay.
func (e envLayer) bounds(fs *flag.FlagSet, low, high string) (string, string) {
	pick := func(name string, v *string, fallback string) string {
		if v == nil || *v == "" || isFlagSet(fs, name) {
			return fallback
		}
		return *v
	}
	return pick("low", e.Low, low), pick("high", e.High, high)
}

// parseBoolEnv accepts true/1/yes and false/0/no in any case. Anything else
// keeps current.
func parseBoolEnv(val string, current bool) bool {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return current
}

func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// isFlagSetAny covers the short and long spelling of aliased flags.
func isFlagSetAny(fs *flag.FlagSet, names ...string) bool {
	for _, name := range names {
		if isFlagSet(fs, name) {
			return true
		}
	}
	return false
}
