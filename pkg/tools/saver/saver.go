// Package saver exposes page capture as the html_saver tool.
package saver

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/entrhq/pagecapture/pkg/agent/tools"
	"github.com/entrhq/pagecapture/pkg/capture"
	"github.com/entrhq/pagecapture/pkg/tools/browser"
)

// ToolName is the name html_saver is registered under.
const ToolName = "html_saver"

// BrowserResolver returns the browser for a session name. An empty name
// selects the default browser.
type BrowserResolver func(ctx context.Context, session string) (capture.Browser, error)

// Filesystem is the capture filesystem plus path resolution for previews.
// *capture.OSFilesystem satisfies it.
type Filesystem interface {
	capture.Filesystem
	Resolve(path string) (string, error)
}

// Tool saves a page's rendered HTML to a file.
type Tool struct {
	resolve     BrowserResolver
	fs          Filesystem
	defaultMode string
	opts        []capture.Option

	mu        sync.Mutex
	capturers map[capture.Browser]*capture.Capturer
}

// Option configures a Tool.
type Option func(*Tool)

// WithDefaultMode sets the mode used when a call omits one.
func WithDefaultMode(mode string) Option {
	return func(t *Tool) { t.defaultMode = mode }
}

// WithCaptureOptions passes options to every Capturer the tool creates.
func WithCaptureOptions(opts ...capture.Option) Option {
	return func(t *Tool) { t.opts = append(t.opts, opts...) }
}

// New creates the html_saver tool.
func New(resolve BrowserResolver, fs Filesystem, opts ...Option) (*Tool, error) {
	if resolve == nil {
		return nil, fmt.Errorf("browser resolver cannot be nil")
	}
	if fs == nil {
		return nil, fmt.Errorf("filesystem cannot be nil")
	}

	t := &Tool{
		resolve:     resolve,
		fs:          fs,
		defaultMode: "w",
		capturers:   make(map[capture.Browser]*capture.Capturer),
	}
	for _, opt := range opts {
		opt(t)
	}
	if _, err := capture.ParseMode(t.defaultMode); err != nil {
		return nil, fmt.Errorf("invalid default mode: %w", err)
	}
	return t, nil
}

// StaticResolver always returns b. Named sessions are rejected.
func StaticResolver(b capture.Browser) BrowserResolver {
	return func(ctx context.Context, session string) (capture.Browser, error) {
		if session != "" && session != browser.DefaultSessionName {
			return nil, fmt.Errorf("session %q not available: this engine has a single browser", session)
		}
		return b, nil
	}
}

// SessionResolver resolves names through a Playwright session manager. The
// default session is started on first use with opts; other sessions must
// already exist.
func SessionResolver(manager *browser.SessionManager, opts browser.SessionOptions) BrowserResolver {
	return func(ctx context.Context, session string) (capture.Browser, error) {
		if session == "" || session == browser.DefaultSessionName {
			return manager.EnsureSession(browser.DefaultSessionName, opts)
		}
		return manager.GetSession(session)
	}
}

// Name returns the tool name.
func (t *Tool) Name() string {
	return ToolName
}

// Description returns the tool description.
func (t *Tool) Description() string {
	return "Navigate to a URL and save the page's full rendered HTML to a file. Missing parent directories are created. Mode 'w' overwrites the file, 'a' appends to it."
}

// Schema returns the tool's JSON schema.
func (t *Tool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"url": map[string]interface{}{
				"type":        "string",
				"description": "The URL of the page to save",
			},
			"file_path": map[string]interface{}{
				"type":        "string",
				"description": "Where to save the HTML (relative or absolute)",
			},
			"mode": map[string]interface{}{
				"type":        "string",
				"enum":        []string{"w", "a"},
				"description": "'w' to overwrite (default), 'a' to append",
			},
			"session": map[string]interface{}{
				"type":        "string",
				"description": "Browser session to use. Default: the shared default session",
			},
		},
		[]string{"url", "file_path"},
	)
}

// Input is the XML argument block of html_saver.
type Input struct {
	XMLName  xml.Name `xml:"arguments"`
	URL      string   `xml:"url"`
	FilePath string   `xml:"file_path"`
	Mode     string   `xml:"mode"`
	Session  string   `xml:"session"`
}

// Execute runs a capture. Capture failures are returned as *capture.Error;
// render them with capture.Describe.
func (t *Tool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	res, err := t.ExecuteWithMetadata(ctx, argsXML)
	if err != nil {
		return "", nil, err
	}
	return res.Output, res.Metadata, nil
}

// ExecuteWithMetadata runs a capture and reports what was written.
func (t *Tool) ExecuteWithMetadata(ctx context.Context, argsXML []byte) (*tools.ToolResult, error) {
	input, mode, err := t.parseInput(argsXML)
	if err != nil {
		return nil, err
	}

	return t.Save(ctx, input.Session, capture.Request{URL: input.URL, FilePath: input.FilePath, Mode: mode})
}

// Save captures req with the browser selected by session.
func (t *Tool) Save(ctx context.Context, session string, req capture.Request) (*tools.ToolResult, error) {
	b, err := t.resolve(ctx, session)
	if err != nil {
		return nil, &capture.Error{Kind: capture.KindNavigation, Op: "open session", URL: req.URL, Err: err}
	}

	c, err := t.capturerFor(b)
	if err != nil {
		return nil, err
	}

	result, err := c.Capture(ctx, req)
	if err != nil {
		return nil, err
	}

	return &tools.ToolResult{
		Output: capture.Describe(result, nil),
		Metadata: map[string]interface{}{
			"url":      result.URL,
			"path":     result.Path,
			"abs_path": result.AbsPath,
			"mode":     result.Mode.String(),
			"bytes":    result.Bytes,
			"created":  result.Created,
		},
	}, nil
}

// capturerFor reuses one Capturer per browser handle.
func (t *Tool) capturerFor(b capture.Browser) (*capture.Capturer, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if c, ok := t.capturers[b]; ok {
		return c, nil
	}
	c, err := capture.New(b, t.fs, t.opts...)
	if err != nil {
		return nil, err
	}
	t.capturers[b] = c
	return c, nil
}

// Forget drops the cached Capturer for b, e.g. after its session closed.
func (t *Tool) Forget(b capture.Browser) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.capturers, b)
}

// GeneratePreview describes the write a call would perform without
// touching the browser or the filesystem.
func (t *Tool) GeneratePreview(ctx context.Context, argsXML []byte) (*tools.ToolPreview, error) {
	input, mode, err := t.parseInput(argsXML)
	if err != nil {
		return nil, err
	}

	absPath, err := t.fs.Resolve(input.FilePath)
	if err != nil {
		return nil, err
	}

	exists := false
	var existing int64
	if st, statErr := os.Stat(absPath); statErr == nil {
		if st.IsDir() {
			return nil, fmt.Errorf("%s is a directory", input.FilePath)
		}
		exists = true
		existing = st.Size()
	}

	previewType := tools.PreviewTypeFileWrite
	var effect string
	switch {
	case !exists:
		effect = "create a new file"
	case mode == capture.ModeAppend:
		previewType = tools.PreviewTypeFileAppend
		effect = fmt.Sprintf("append to the existing file (%d bytes)", existing)
	default:
		effect = fmt.Sprintf("overwrite the existing file (%d bytes)", existing)
	}

	session := input.Session
	if session == "" {
		session = browser.DefaultSessionName
	}

	return &tools.ToolPreview{
		Type:        previewType,
		Title:       fmt.Sprintf("Save HTML of %s", input.URL),
		Description: fmt.Sprintf("This will %s at %s", effect, input.FilePath),
		Content:     fmt.Sprintf("URL: %s\nFile: %s\nMode: %s\nSession: %s", input.URL, absPath, mode, session),
		Metadata: map[string]interface{}{
			"url":      input.URL,
			"path":     input.FilePath,
			"abs_path": absPath,
			"mode":     mode.String(),
			"exists":   exists,
			"session":  session,
		},
	}, nil
}

func (t *Tool) parseInput(argsXML []byte) (*Input, capture.Mode, error) {
	var input Input
	if err := tools.UnmarshalXMLWithFallback(argsXML, &input); err != nil {
		return nil, "", invalid(fmt.Errorf("invalid arguments: %w", err))
	}

	if input.URL == "" {
		return nil, "", invalid(errors.New("missing required parameter: url"))
	}
	if input.FilePath == "" {
		return nil, "", invalid(errors.New("missing required parameter: file_path"))
	}

	raw := input.Mode
	if raw == "" {
		raw = t.defaultMode
	}
	mode, err := capture.ParseMode(raw)
	if err != nil {
		return nil, "", invalid(err)
	}

	return &input, mode, nil
}

func invalid(err error) error {
	return &capture.Error{Kind: capture.KindInvalidInput, Op: "parse arguments", Err: err}
}
