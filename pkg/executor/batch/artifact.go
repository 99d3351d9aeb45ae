package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Summary is the report of one job run.
type Summary struct {
	Status    string           `json:"status"`
	StartTime time.Time        `json:"start_time"`
	EndTime   time.Time        `json:"end_time"`
	Duration  time.Duration    `json:"duration"`
	Results   []CaptureOutcome `json:"results"`
	Metrics   Metrics          `json:"metrics"`
}

// CaptureOutcome is the result of one capture in a job.
type CaptureOutcome struct {
	URL       string        `json:"url"`
	FilePath  string        `json:"file_path"`
	AbsPath   string        `json:"abs_path,omitempty"`
	Mode      string        `json:"mode"`
	Status    string        `json:"status"`
	Message   string        `json:"message,omitempty"`
	ErrorKind string        `json:"error_kind,omitempty"`
	Bytes     int           `json:"bytes"`
	Duration  time.Duration `json:"duration"`
}

// Metrics aggregates a job's outcomes.
type Metrics struct {
	Total        int `json:"total"`
	Succeeded    int `json:"succeeded"`
	Failed       int `json:"failed"`
	Skipped      int `json:"skipped"`
	BytesWritten int `json:"bytes_written"`
}

func (s *Summary) add(o CaptureOutcome) {
	s.Results = append(s.Results, o)
	s.Metrics.Total++
	switch o.Status {
	case statusSuccess:
		s.Metrics.Succeeded++
		s.Metrics.BytesWritten += o.Bytes
	case statusFailed:
		s.Metrics.Failed++
	default:
		s.Metrics.Skipped++
	}
}

func (s *Summary) finish() {
	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime)

	switch {
	case s.Metrics.Succeeded == s.Metrics.Total:
		s.Status = statusSuccess
	case s.Metrics.Succeeded == 0:
		s.Status = statusFailed
	default:
		s.Status = statusPartialSuccess
	}
}

// ArtifactWriter writes job reports.
type ArtifactWriter struct {
	outputDir string
}

// NewArtifactWriter creates a writer for outputDir.
func NewArtifactWriter(outputDir string) *ArtifactWriter {
	return &ArtifactWriter{outputDir: outputDir}
}

// WriteAll writes execution.json and summary.md.
func (w *ArtifactWriter) WriteAll(summary *Summary) error {
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := w.WriteExecutionJSON(summary); err != nil {
		return err
	}
	return w.WriteSummaryMarkdown(summary)
}

// WriteExecutionJSON writes the full summary as JSON.
func (w *ArtifactWriter) WriteExecutionJSON(summary *Summary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	if err := os.WriteFile(filepath.Join(w.outputDir, "execution.json"), data, 0600); err != nil {
		return fmt.Errorf("failed to write execution JSON: %w", err)
	}
	return nil
}

// WriteSummaryMarkdown writes a human-readable report.
func (w *ArtifactWriter) WriteSummaryMarkdown(summary *Summary) error {
	var md strings.Builder

	md.WriteString("# Page Capture Summary\n\n")
	fmt.Fprintf(&md, "**Status:** %s\n\n", summary.Status)
	fmt.Fprintf(&md, "**Started:** %s\n\n", summary.StartTime.Format(time.RFC3339))
	fmt.Fprintf(&md, "**Duration:** %s\n\n", summary.Duration.Round(time.Millisecond))

	md.WriteString("## Captures\n\n")
	md.WriteString("| # | URL | File | Mode | Status | Bytes |\n")
	md.WriteString("|---|-----|------|------|--------|-------|\n")
	for i, r := range summary.Results {
		fmt.Fprintf(&md, "| %d | %s | `%s` | %s | %s | %d |\n", i+1, r.URL, r.FilePath, r.Mode, r.Status, r.Bytes)
	}
	md.WriteString("\n")

	var failures []CaptureOutcome
	for _, r := range summary.Results {
		if r.Status == statusFailed {
			failures = append(failures, r)
		}
	}
	if len(failures) > 0 {
		md.WriteString("## Failures\n\n")
		for _, r := range failures {
			fmt.Fprintf(&md, "- %s (%s): %s\n", r.URL, r.ErrorKind, r.Message)
		}
		md.WriteString("\n")
	}

	md.WriteString("## Metrics\n\n")
	fmt.Fprintf(&md, "- **Total:** %d\n", summary.Metrics.Total)
	fmt.Fprintf(&md, "- **Succeeded:** %d\n", summary.Metrics.Succeeded)
	fmt.Fprintf(&md, "- **Failed:** %d\n", summary.Metrics.Failed)
	fmt.Fprintf(&md, "- **Skipped:** %d\n", summary.Metrics.Skipped)
	fmt.Fprintf(&md, "- **Bytes Written:** %d\n", summary.Metrics.BytesWritten)

	if err := os.WriteFile(filepath.Join(w.outputDir, "summary.md"), []byte(md.String()), 0600); err != nil {
		return fmt.Errorf("failed to write summary markdown: %w", err)
	}
	return nil
}
