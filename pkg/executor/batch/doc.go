// Package batch runs a list of captures from a YAML job file and writes a
// run report.
//
// Captures run one after another against a shared Saver. By default the
// first failure stops the job and the remaining captures are reported as
// skipped; continue_on_error runs them all. The report is written as
// execution.json and summary.md under artifacts.output_dir.
package batch
