package cli

import (
	"fmt"
	"io"
	"strings"
)

// FlagCompletion describes a command-line flag for completion scripts. Every
// generator reads flagRegistry, so a new flag only needs a registry entry.
type FlagCompletion struct {
	Long      string   // long name without "--"
	Short     string   // short name without "-"
	Help      string   // description
	Values    []string // suggested values; nil for booleans or free values
	ValueName string   // label of the value; empty for booleans
	IsFile    bool     // value is a path
	IsAlgo    bool     // value is a counter key, filled in at generation time
}

// takesValue reports whether the flag expects an argument.
func (f FlagCompletion) takesValue() bool {
	return f.ValueName != "" || f.IsFile || f.IsAlgo || len(f.Values) > 0
}

var flagRegistry = []FlagCompletion{
	{Long: "help", Short: "h", Help: "Show help message"},
	{Long: "version", Short: "V", Help: "Show version information"},
	{Long: "low", Help: "Inclusive lower bound", ValueName: "number"},
	{Long: "high", Help: "Inclusive upper bound", ValueName: "number"},
	{Long: "jobs", Short: "j", Help: "Number of parallel sub-ranges", Values: []string{"1", "2", "4", "8", "16", "32"}, ValueName: "jobs"},
	{Long: "algo", Help: "Counter to use", IsAlgo: true, ValueName: "algorithm"},
	{Long: "policy", Help: "Worker failure policy", Values: []string{"fail-fast", "best-effort"}, ValueName: "policy"},
	{Long: "timeout", Help: "Maximum duration of the run", Values: []string{"30s", "1m", "5m", "30m", "1h"}, ValueName: "duration"},
	{Long: "output", Short: "o", Help: "Write the result to a file", IsFile: true, ValueName: "file"},
	{Long: "verbose", Short: "v", Help: "Print per-counter detail"},
	{Long: "details", Short: "d", Help: "Print memory and system details"},
	{Long: "quiet", Short: "q", Help: "Print only the prime count"},
	{Long: "tui", Help: "Start the interactive dashboard"},
	{Long: "interactive", Short: "i", Help: "Start the interactive REPL"},
	{Long: "serve", Help: "Start the HTTP server", Values: []string{":8080", "127.0.0.1:8080"}, ValueName: "address"},
	{Long: "calibrate", Help: "Benchmark job counts"},
	{Long: "auto-calibrate", Help: "Quick calibration without a cached profile"},
	{Long: "calibration-profile", Help: "Calibration profile file", IsFile: true, ValueName: "file"},
	{Long: "completion", Help: "Generate a completion script", Values: CompletionShells, ValueName: "shell"},
}

// CompletionShells lists the shells GenerateCompletion supports.
var CompletionShells = []string{"bash", "zsh", "fish", "powershell"}

// GenerateCompletion writes the completion script of shell for the
// primecount command.
//
// Parameters:
//   - out: Receives the script.
//   - shell: One of CompletionShells.
//   - algorithms: The registered counter keys.
//
// Returns:
//   - error: An error if the shell is not supported or the write fails.
func GenerateCompletion(out io.Writer, shell string, algorithms []string) error {
	algos := append(append([]string{}, algorithms...), "all")
	var script string
	switch shell {
	case "bash":
		script = bashCompletion(algos)
	case "zsh":
		script = zshCompletion(algos)
	case "fish":
		script = fishCompletion(algos)
	case "powershell", "ps":
		script = powerShellCompletion(algos)
	default:
		return fmt.Errorf("unsupported shell: %s (accepted values: %s)", shell, strings.Join(CompletionShells, ", "))
	}
	if _, err := io.WriteString(out, script); err != nil {
		return fmt.Errorf("completion %s generation failed: %w", shell, err)
	}
	return nil
}

// flagNames returns the dashed spellings of f, long first.
func flagNames(f FlagCompletion) []string {
	var names []string
	if f.Long != "" {
		names = append(names, "--"+f.Long)
	}
	if f.Short != "" {
		names = append(names, "-"+f.Short)
	}
	return names
}

// valuesFor returns the suggestions of a value flag.
func valuesFor(f FlagCompletion, algos []string) []string {
	if f.IsAlgo {
		return algos
	}
	return f.Values
}

func bashCompletion(algos []string) string {
	var opts []string
	var cases strings.Builder
	var fileFlags []string
	for _, f := range flagRegistry {
		names := flagNames(f)
		opts = append(opts, names...)
		switch {
		case f.IsFile:
			fileFlags = append(fileFlags, names...)
		case len(valuesFor(f, algos)) > 0:
			fmt.Fprintf(&cases, "        %s)\n            COMPREPLY=( $(compgen -W \"%s\" -- \"${cur}\") )\n            return 0\n            ;;\n",
				strings.Join(names, "|"), strings.Join(valuesFor(f, algos), " "))
		}
	}
	if len(fileFlags) > 0 {
		fmt.Fprintf(&cases, "        %s)\n            COMPREPLY=( $(compgen -f -- \"${cur}\") )\n            return 0\n            ;;\n",
			strings.Join(fileFlags, "|"))
	}

	return fmt.Sprintf(`# Bash completion script for primecount
# Add this to your ~/.bashrc or ~/.bash_completion

_primecount_completions() {
    local cur prev opts
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"
    opts="%s"

    case "${prev}" in
%s    esac

    if [[ "${cur}" == -* ]]; then
        COMPREPLY=( $(compgen -W "${opts}" -- "${cur}") )
        return 0
    fi
}

complete -F _primecount_completions primecount
`, strings.Join(opts, " "), cases.String())
}

func zshCompletion(algos []string) string {
	args := make([]string, 0, len(flagRegistry))
	for _, f := range flagRegistry {
		suffix := ""
		switch {
		case f.IsFile:
			suffix = fmt.Sprintf(":%s:_files", f.ValueName)
		case len(valuesFor(f, algos)) > 0:
			suffix = fmt.Sprintf(":%s:(%s)", f.ValueName, strings.Join(valuesFor(f, algos), " "))
		case f.takesValue():
			suffix = fmt.Sprintf(":%s:", f.ValueName)
		}
		if f.Long != "" && f.Short != "" {
			args = append(args, fmt.Sprintf("        '(-%s --%s)'{-%s,--%s}'[%s]%s'", f.Short, f.Long, f.Short, f.Long, f.Help, suffix))
		} else {
			args = append(args, fmt.Sprintf("        '--%s[%s]%s'", f.Long, f.Help, suffix))
		}
	}

	return fmt.Sprintf(`#compdef primecount

# Zsh completion script for primecount
# Place this file in $fpath as _primecount

_primecount() {
    _arguments -s \
%s
}

_primecount "$@"
`, strings.Join(args, " \\\n"))
}

func fishCompletion(algos []string) string {
	lines := []string{
		"# Fish completion script for primecount",
		"# Add this to ~/.config/fish/completions/primecount.fish",
		"",
		"complete -c primecount -f",
	}
	for _, f := range flagRegistry {
		parts := []string{"complete -c primecount"}
		if f.Short != "" {
			parts = append(parts, "-s "+f.Short)
		}
		if f.Long != "" {
			parts = append(parts, "-l "+f.Long)
		}
		parts = append(parts, fmt.Sprintf("-d '%s'", f.Help))
		switch {
		case f.IsFile:
			parts = append(parts, "-rF")
		case len(valuesFor(f, algos)) > 0:
			parts = append(parts, fmt.Sprintf("-xa '%s'", strings.Join(valuesFor(f, algos), " ")))
		case f.takesValue():
			parts = append(parts, "-x")
		}
		lines = append(lines, strings.Join(parts, " "))
	}
	return strings.Join(lines, "\n") + "\n"
}

func powerShellCompletion(algos []string) string {
	var options, switches []string
	for _, f := range flagRegistry {
		for _, name := range flagNames(f) {
			options = append(options, fmt.Sprintf("        @{Name = '%s'; Description = '%s' }", name, f.Help))
		}
		vals := valuesFor(f, algos)
		if f.IsFile || len(vals) == 0 {
			continue
		}
		quoted := make([]string, len(vals))
		for i, v := range vals {
			quoted[i] = "'" + v + "'"
		}
		switches = append(switches, fmt.Sprintf(`        '--%s' {
            @(%s) | Where-Object { $_ -like "$wordToComplete*" } | ForEach-Object {
                [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)
            }
            return
        }`, f.Long, strings.Join(quoted, ", ")))
	}

	return fmt.Sprintf(`# PowerShell completion script for primecount
# Add this to your $PROFILE

Register-ArgumentCompleter -CommandName 'primecount' -Native -ScriptBlock {
    param($wordToComplete, $commandAst, $cursorPosition)

    $options = @(
%s
    )

    $elements = $commandAst.CommandElements
    $prevElement = if ($elements.Count -gt 2) { $elements[-2].ToString() } else { '' }

    switch ($prevElement) {
%s
    }

    $options | Where-Object { $_.Name -like "$wordToComplete*" } | ForEach-Object {
        [System.Management.Automation.CompletionResult]::new($_.Name, $_.Name, 'ParameterName', $_.Description)
    }
}
`, strings.Join(options, "\n"), strings.Join(switches, "\n"))
}
