package app

import (
	"fmt"
	"io"
	"runtime"
)

// Build information, set at link time with
// -ldflags "-X github.com/agbru/primecount/internal/app.Version=v1.2.3".
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// HasVersionFlag reports whether --version or -version appears before the
// end of flags.
func HasVersionFlag(args []string) bool {
	for _, arg := range args {
		switch arg {
		case "--":
			return false
		case "--version", "-version", "-V":
			return true
		}
	}
	return false
}

// PrintVersion writes the build information.
func PrintVersion(out io.Writer) {
	fmt.Fprintf(out, "primecount %s\n", Version)
	fmt.Fprintf(out, "  commit:  %s\n", Commit)
	fmt.Fprintf(out, "  built:   %s\n", BuildDate)
	fmt.Fprintf(out, "  go:      %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
