package batch

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummary_Status(t *testing.T) {
	tests := []struct {
		name     string
		statuses []string
		want     string
	}{
		{"all succeeded", []string{statusSuccess, statusSuccess}, statusSuccess},
		{"mixed", []string{statusSuccess, statusFailed}, statusPartialSuccess},
		{"success then skipped", []string{statusSuccess, statusSkipped}, statusPartialSuccess},
		{"all failed", []string{statusFailed, statusSkipped}, statusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Summary{StartTime: time.Now()}
			for _, st := range tt.statuses {
				s.add(CaptureOutcome{Status: st, Bytes: 10})
			}
			s.finish()
			assert.Equal(t, tt.want, s.Status)
			assert.Equal(t, len(tt.statuses), s.Metrics.Total)
		})
	}
}

func TestArtifactWriter_WriteAll(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "report")
	w := NewArtifactWriter(dir)

	s := &Summary{StartTime: time.Now()}
	s.add(CaptureOutcome{URL: "https://a.test", FilePath: "a.html", Mode: "overwrite", Status: statusSuccess, Bytes: 42})
	s.add(CaptureOutcome{URL: "https://b.test", FilePath: "b.html", Mode: "append", Status: statusFailed, ErrorKind: "navigation", Message: "Error saving file: boom"})
	s.finish()

	require.NoError(t, w.WriteAll(s))

	raw, err := os.ReadFile(filepath.Join(dir, "execution.json"))
	require.NoError(t, err)

	var decoded Summary
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, statusPartialSuccess, decoded.Status)
	assert.Equal(t, 42, decoded.Metrics.BytesWritten)
	require.Len(t, decoded.Results, 2)
	assert.Equal(t, "navigation", decoded.Results[1].ErrorKind)

	md, err := os.ReadFile(filepath.Join(dir, "summary.md"))
	require.NoError(t, err)
	assert.Contains(t, string(md), "## Failures")
	assert.Contains(t, string(md), "https://b.test (navigation): Error saving file: boom")
	assert.Contains(t, string(md), "- **Bytes Written:** 42")
}
