package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/entrhq/pagecapture/pkg/agent/tools"
)

// ListSessionsTool lists all active browser sessions.
type ListSessionsTool struct {
	manager *SessionManager
}

// NewListSessionsTool creates a new list sessions tool.
func NewListSessionsTool(manager *SessionManager) *ListSessionsTool {
	return &ListSessionsTool{manager: manager}
}

// Name returns the tool name.
func (t *ListSessionsTool) Name() string {
	return "list_browser_sessions"
}

// Description returns the tool description.
func (t *ListSessionsTool) Description() string {
	return "List active browser sessions with their current URL and idle time."
}

// Schema returns the tool's JSON schema.
func (t *ListSessionsTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(map[string]interface{}{}, nil)
}

// Execute lists all sessions.
func (t *ListSessionsTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	sessions := t.manager.ListSessions()
	metadata := map[string]interface{}{"count": len(sessions)}

	if len(sessions) == 0 {
		return "No active browser sessions.", metadata, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active browser sessions: %d\n", len(sessions))

	for i, s := range sessions {
		mode := "headed"
		if s.Headless {
			mode = "headless"
		}
		fmt.Fprintf(&b, "\n%d. %s\n   URL: %s\n   Mode: %s\n   Age: %s\n   Idle: %s\n",
			i+1, s.Name, s.CurrentURL, mode,
			formatDuration(time.Since(s.CreatedAt)),
			formatDuration(time.Since(s.LastUsedAt)),
		)
	}

	return b.String(), metadata, nil
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}
