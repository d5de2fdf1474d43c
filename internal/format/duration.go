package format

import (
	"fmt"
	"strconv"
	"time"
)

// FormatExecutionDuration renders how long a count took, picking the largest
// unit that keeps the number readable. Sub-second values are whole units,
// seconds keep millisecond precision and anything past a minute is shown as
// a clock-like breakdown.
func FormatExecutionDuration(d time.Duration) string {
	switch {
	case d < 0:
		return "-" + FormatExecutionDuration(-d)
	case d < time.Microsecond:
		return strconv.FormatInt(d.Nanoseconds(), 10) + "ns"
	case d < time.Millisecond:
		return strconv.FormatInt(d.Microseconds(), 10) + "µs"
	case d < time.Second:
		return strconv.FormatInt(d.Milliseconds(), 10) + "ms"
	case d < time.Minute:
		secs := d.Truncate(time.Millisecond).Seconds()
		return strconv.FormatFloat(secs, 'f', -1, 64) + "s"
	}

	d = d.Truncate(time.Second)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}
