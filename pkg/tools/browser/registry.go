package browser

import (
	"github.com/entrhq/pagecapture/pkg/agent/tools"
)

// SessionTools returns the session lifecycle tools bound to manager.
func SessionTools(manager *SessionManager) []tools.Tool {
	return []tools.Tool{
		NewStartSessionTool(manager),
		NewListSessionsTool(manager),
		NewCloseSessionTool(manager),
	}
}
