// Package orchestration runs one or more prime counters concurrently over the
// same range and compares their totals. It decouples business logic from
// presentation via the ProgressReporter and ResultPresenter interfaces.
package orchestration
