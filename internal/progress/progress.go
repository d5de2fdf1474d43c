// Package progress defines the progress messages exchanged between the
// counting engine and the presentation layers.
package progress

// ProgressUpdate reports the completion ratio of one counter.
type ProgressUpdate struct {
	// CounterIndex identifies the counter that sent the update.
	CounterIndex int
	// Value is the completion ratio, from 0.0 to 1.0.
	Value float64
}

// ProgressCallback receives completion ratios from the parallel aggregator.
type ProgressCallback func(progress float64)

// ChannelReporter returns a callback that forwards updates for the counter at
// index to ch. Updates are dropped rather than blocking when ch is full, so a
// slow consumer never stalls the workers. The final 1.0 update is always
// delivered.
func ChannelReporter(ch chan<- ProgressUpdate, index int) ProgressCallback {
	if ch == nil {
		return nil
	}
	return func(p float64) {
		update := ProgressUpdate{CounterIndex: index, Value: p}
		if p >= 1.0 {
			ch <- update
			return
		}
		select {
		case ch <- update:
		default:
		}
	}
}
