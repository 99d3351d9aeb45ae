// Package mcpserver exposes the tool registry over the Model Context
// Protocol so MCP clients can call html_saver and the session tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/entrhq/pagecapture/pkg/agent/tools"
	"github.com/entrhq/pagecapture/pkg/capture"
	"github.com/entrhq/pagecapture/pkg/tools/saver"
)

// ServerName is advertised to MCP clients.
const ServerName = "pagecapture"

// Logger is the subset of logging.Logger the server writes to.
type Logger interface {
	Infof(format string, v ...interface{})
	Errorf(format string, v ...interface{})
}

// New builds an MCP server with one MCP tool per registry entry.
func New(registry *tools.Registry, version string, logger Logger) (*server.MCPServer, error) {
	s := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(false),
	)

	for _, t := range registry.List() {
		def, err := Definition(t)
		if err != nil {
			return nil, err
		}
		s.AddTool(def, Handler(registry, t.Name(), logger))
	}
	return s, nil
}

// Definition converts a tool to its MCP form. html_saver gets a hand-built
// definition; other tools reuse their JSON schema as-is.
func Definition(t tools.Tool) (mcp.Tool, error) {
	if t.Name() == saver.ToolName {
		return htmlSaverDefinition(t.Description()), nil
	}

	raw, err := json.Marshal(t.Schema())
	if err != nil {
		return mcp.Tool{}, fmt.Errorf("failed to encode schema for %s: %w", t.Name(), err)
	}
	return mcp.NewToolWithRawSchema(t.Name(), t.Description(), raw), nil
}

func htmlSaverDefinition(description string) mcp.Tool {
	return mcp.NewTool(saver.ToolName,
		mcp.WithDescription(description),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the page to save"),
		),
		mcp.WithString("file_path",
			mcp.Required(),
			mcp.Description("Where to save the HTML (relative or absolute)"),
		),
		mcp.WithString("mode",
			mcp.Description("'w' to overwrite (default), 'a' to append"),
			mcp.Enum("w", "a"),
		),
		mcp.WithString("session",
			mcp.Description("Browser session to use. Default: the shared default session"),
		),
	)
}

// Handler runs the named registry tool for an MCP call. Tool failures are
// returned as error results, never as protocol errors.
func Handler(registry *tools.Registry, name string, logger Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := StringArgs(request.GetArguments())

		res, err := registry.Call(ctx, name, args)
		if err != nil {
			msg := err.Error()
			if capture.KindOf(err) != "" {
				msg = capture.Describe(nil, err)
			}
			if logger != nil {
				logger.Errorf("mcp %s: %s", name, msg)
			}
			return mcp.NewToolResultError(msg), nil
		}

		if logger != nil {
			logger.Infof("mcp %s: %s", name, res.Output)
		}
		return mcp.NewToolResultText(res.Output), nil
	}
}

// StringArgs flattens JSON arguments to the string form tools parse from
// XML. Nulls and keys that cannot be element names are dropped; numbers
// print without a trailing ".0".
func StringArgs(in map[string]any) map[string]string {
	out := make(map[string]string, len(in))
	for k, value := range in {
		if !tools.IsXMLName(k) {
			continue
		}
		switch v := value.(type) {
		case nil:
			continue
		case string:
			out[k] = v
		case float64:
			out[k] = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			out[k] = fmt.Sprint(v)
		}
	}
	return out
}
