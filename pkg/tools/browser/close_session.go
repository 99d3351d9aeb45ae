package browser

import (
	"context"
	"encoding/xml"
	"fmt"

	"github.com/entrhq/pagecapture/pkg/agent/tools"
)

// CloseSessionTool closes a browser session.
type CloseSessionTool struct {
	manager *SessionManager
}

// NewCloseSessionTool creates a new close session tool.
func NewCloseSessionTool(manager *SessionManager) *CloseSessionTool {
	return &CloseSessionTool{manager: manager}
}

// Name returns the tool name.
func (t *CloseSessionTool) Name() string {
	return "close_browser_session"
}

// Description returns the tool description.
func (t *CloseSessionTool) Description() string {
	return "Close a browser session and release its browser. Waits for an in-progress capture on the session to finish."
}

// Schema returns the tool's JSON schema.
func (t *CloseSessionTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"session": map[string]interface{}{
				"type":        "string",
				"description": "Name of the browser session to close",
			},
		},
		[]string{"session"},
	)
}

// CloseSessionInput represents the parameters for closing a session.
type CloseSessionInput struct {
	XMLName xml.Name `xml:"arguments"`
	Session string   `xml:"session"`
}

// Execute closes a browser session.
func (t *CloseSessionTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input CloseSessionInput
	if err := tools.UnmarshalXMLWithFallback(argsXML, &input); err != nil {
		return "", nil, fmt.Errorf("invalid parameters: %w", err)
	}

	if input.Session == "" {
		return "", nil, fmt.Errorf("session name is required")
	}

	if err := t.manager.CloseSession(input.Session); err != nil {
		return "", nil, fmt.Errorf("failed to close session: %w", err)
	}

	return fmt.Sprintf("Browser session %q closed", input.Session), map[string]interface{}{"session": input.Session}, nil
}
