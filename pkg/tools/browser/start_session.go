package browser

import (
	"context"
	"encoding/xml"
	"fmt"

	"github.com/entrhq/pagecapture/pkg/agent/tools"
)

// StartSessionTool creates a named browser session that later html_saver
// calls can reuse.
type StartSessionTool struct {
	manager *SessionManager
}

// NewStartSessionTool creates a new start session tool.
func NewStartSessionTool(manager *SessionManager) *StartSessionTool {
	return &StartSessionTool{manager: manager}
}

// Name returns the tool name.
func (t *StartSessionTool) Name() string {
	return "start_browser_session"
}

// Description returns the tool description.
func (t *StartSessionTool) Description() string {
	return "Create a named browser session. Pass its name as the session argument of html_saver to capture several pages with one browser."
}

// Schema returns the tool's JSON schema.
func (t *StartSessionTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"name": map[string]interface{}{
				"type":        "string",
				"description": "Unique name for the browser session (e.g., 'docs', 'news')",
			},
			"headless": map[string]interface{}{
				"type":        "boolean",
				"description": "Run without a visible window. Default: the browser.headless setting",
			},
			"width": map[string]interface{}{
				"type":        "integer",
				"description": "Viewport width in pixels. Default: 1280",
			},
			"height": map[string]interface{}{
				"type":        "integer",
				"description": "Viewport height in pixels. Default: 720",
			},
		},
		[]string{"name"},
	)
}

// StartSessionInput defines the input parameters for starting a browser session.
type StartSessionInput struct {
	XMLName  xml.Name `xml:"arguments"`
	Name     string   `xml:"name"`
	Headless *bool    `xml:"headless"`
	Width    *int     `xml:"width"`
	Height   *int     `xml:"height"`
}

// Execute starts a new browser session.
func (t *StartSessionTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	input, err := t.parseInput(argsXML)
	if err != nil {
		return "", nil, err
	}

	opts := t.buildSessionOptions(input)
	if err := validateViewport(opts.Viewport); err != nil {
		return "", nil, err
	}

	if err := t.manager.Initialize(); err != nil {
		return "", nil, fmt.Errorf("failed to initialize browser: %w", err)
	}

	session, err := t.manager.StartSession(input.Name, opts)
	if err != nil {
		return "", nil, fmt.Errorf("failed to start session: %w", err)
	}

	mode := "headed"
	if session.Headless {
		mode = "headless"
	}

	metadata := map[string]interface{}{
		"session":  session.Name,
		"headless": session.Headless,
	}
	return fmt.Sprintf("Browser session %q started (%s, %dx%d)", session.Name, mode, opts.Viewport.Width, opts.Viewport.Height), metadata, nil
}

func (t *StartSessionTool) parseInput(argsXML []byte) (*StartSessionInput, error) {
	var input StartSessionInput
	if err := tools.UnmarshalXMLWithFallback(argsXML, &input); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	if input.Name == "" {
		return nil, fmt.Errorf("session name is required")
	}

	return &input, nil
}

// buildSessionOptions applies per-call overrides on top of configured defaults.
func (t *StartSessionTool) buildSessionOptions(input *StartSessionInput) SessionOptions {
	opts := DefaultOptions()

	if input.Headless != nil {
		opts.Headless = *input.Headless
	}
	if input.Width != nil {
		opts.Viewport.Width = *input.Width
	}
	if input.Height != nil {
		opts.Viewport.Height = *input.Height
	}

	return opts
}

func validateViewport(vp *Viewport) error {
	if vp.Width < 100 || vp.Width > 5000 {
		return fmt.Errorf("viewport width must be between 100 and 5000 pixels")
	}
	if vp.Height < 100 || vp.Height > 5000 {
		return fmt.Errorf("viewport height must be between 100 and 5000 pixels")
	}
	return nil
}
