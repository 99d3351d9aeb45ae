package batch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"github.com/entrhq/pagecapture/pkg/agent/tools"
	"github.com/entrhq/pagecapture/pkg/capture"
)

const (
	statusSuccess        = "success"
	statusFailed         = "failed"
	statusPartialSuccess = "partial_success"
	statusSkipped        = "skipped"
)

// Saver performs one capture. *saver.Tool satisfies it.
type Saver interface {
	Save(ctx context.Context, session string, req capture.Request) (*tools.ToolResult, error)
}

// Logger is the subset of logging.Logger the executor writes to.
type Logger interface {
	Infof(format string, v ...interface{})
	Errorf(format string, v ...interface{})
}

// Executor runs the captures of a job in order.
type Executor struct {
	saver   Saver
	config  *Config
	logger  Logger
	writer  *ArtifactWriter
	limiter *rate.Limiter
}

// NewExecutor validates config and prepares an executor.
func NewExecutor(saver Saver, config *Config, logger Logger) (*Executor, error) {
	if saver == nil {
		return nil, fmt.Errorf("saver cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	e := &Executor{saver: saver, config: config, logger: logger}
	if config.RateLimit > 0 {
		e.limiter = rate.NewLimiter(rate.Limit(config.RateLimit), 1)
	}
	if config.Artifacts.Enabled {
		outputDir := config.Artifacts.OutputDir
		if !filepath.IsAbs(outputDir) {
			outputDir = filepath.Join(config.WorkspaceDir, outputDir)
		}
		e.writer = NewArtifactWriter(outputDir)
	}
	return e, nil
}

// Run executes every capture and returns the summary. The returned error is
// non-nil when any capture failed or ctx was cancelled; the summary is
// always populated.
func (e *Executor) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{StartTime: time.Now()}

	var firstErr error
	for i, cp := range e.config.Captures {
		if firstErr != nil && !e.config.ContinueOnError {
			summary.add(CaptureOutcome{URL: cp.URL, FilePath: cp.FilePath, Mode: cp.Mode, Status: statusSkipped})
			continue
		}
		err := ctx.Err()
		if err == nil && e.limiter != nil {
			err = e.limiter.Wait(ctx)
		}
		if err != nil {
			summary.add(CaptureOutcome{URL: cp.URL, FilePath: cp.FilePath, Mode: cp.Mode, Status: statusSkipped, Message: err.Error()})
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		outcome := e.runOne(ctx, i, cp)
		summary.add(outcome)
		if outcome.Status == statusFailed && firstErr == nil {
			firstErr = fmt.Errorf("capture %d (%s) failed: %s", i+1, cp.URL, outcome.Message)
		}
	}

	summary.finish()
	e.logf(summary.Status == statusSuccess, "job finished: %s (%d/%d captured, %d bytes)",
		summary.Status, summary.Metrics.Succeeded, summary.Metrics.Total, summary.Metrics.BytesWritten)

	if e.writer != nil {
		if err := e.writer.WriteAll(summary); err != nil {
			return summary, fmt.Errorf("failed to write artifacts: %w", err)
		}
	}

	return summary, firstErr
}

func (e *Executor) runOne(ctx context.Context, i int, cp CaptureConfig) CaptureOutcome {
	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}

	mode, _ := capture.ParseMode(cp.Mode)
	start := time.Now()
	res, err := e.saver.Save(ctx, cp.Session, capture.Request{URL: cp.URL, FilePath: cp.FilePath, Mode: mode})

	outcome := CaptureOutcome{
		URL:      cp.URL,
		FilePath: cp.FilePath,
		Mode:     mode.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		outcome.Status = statusFailed
		outcome.ErrorKind = string(capture.KindOf(err))
		outcome.Message = capture.Describe(nil, err)
		e.logf(false, "[%d] %s", i+1, outcome.Message)
		return outcome
	}

	outcome.Status = statusSuccess
	outcome.Message = res.Output
	if n, ok := res.Metadata["bytes"].(int); ok {
		outcome.Bytes = n
	}
	if p, ok := res.Metadata["abs_path"].(string); ok {
		outcome.AbsPath = p
	}
	e.logf(true, "[%d] %s", i+1, outcome.Message)
	return outcome
}

func (e *Executor) logf(ok bool, format string, v ...interface{}) {
	if e.logger == nil {
		return
	}
	if ok {
		e.logger.Infof(format, v...)
	} else {
		e.logger.Errorf(format, v...)
	}
}
