package tools

import (
	"context"
	"encoding/xml"
)

// Tool is a named operation invoked with XML arguments.
//
// Tool calls arrive wrapped in a <tool> element, either from an agent or
// from `pagecapture -tool-call` reading stdin:
//
//	<tool>
//	<server_name>local</server_name>
//	<tool_name>html_saver</tool_name>
//	<arguments>
//	  <url>https://example.com</url>
//	  <file_path>out/page.html</file_path>
//	  <mode>w</mode>
//	</arguments>
//	</tool>
type Tool interface {
	// Name returns the unique identifier for this tool (e.g., "html_saver")
	Name() string

	// Description returns a human-readable description of what this tool does
	Description() string

	// Schema returns the JSON schema for this tool's input parameters
	Schema() map[string]interface{}

	// Execute runs the tool with the given XML arguments.
	// Returns: (result string, metadata map, error). Metadata may be nil.
	Execute(ctx context.Context, argumentsXML []byte) (string, map[string]interface{}, error)
}

// ToolCall is a parsed <tool> element.
type ToolCall struct {
	XMLName    xml.Name       `xml:"tool"`
	ServerName string         `xml:"server_name"`
	ToolName   string         `xml:"tool_name"`
	Arguments  ArgumentsBlock `xml:"arguments"`
}

// ArgumentsBlock holds the raw XML of the arguments element
type ArgumentsBlock struct {
	InnerXML []byte `xml:",innerxml"`
}

// GetArgumentsXML returns the arguments wrapped in <arguments> tags for unmarshaling.
func (tc *ToolCall) GetArgumentsXML() []byte {
	const prefix = "<arguments>"
	const suffix = "</arguments>"

	result := make([]byte, 0, len(prefix)+len(tc.Arguments.InnerXML)+len(suffix))
	result = append(result, prefix...)
	result = append(result, tc.Arguments.InnerXML...)
	result = append(result, suffix...)
	return result
}

// Previewable is implemented by tools that can describe their effect
// before running, e.g. for a dry run.
type Previewable interface {
	GeneratePreview(ctx context.Context, argumentsXML []byte) (*ToolPreview, error)
}

// ToolPreview describes what a tool would do.
type ToolPreview struct {
	Type        PreviewType
	Title       string
	Description string

	// Content is the preview body shown to the user
	Content string

	// Metadata holds structured details such as the resolved path
	Metadata map[string]interface{}
}

// PreviewType indicates the kind of preview being shown
type PreviewType string

const (
	// PreviewTypeFileWrite represents a file write/creation preview
	PreviewTypeFileWrite PreviewType = "file_write"

	// PreviewTypeFileAppend represents appending to an existing file
	PreviewTypeFileAppend PreviewType = "file_append"
)

// BaseToolSchema creates a common JSON schema structure for a tool
// with the given properties and required fields
func BaseToolSchema(properties map[string]interface{}, required []string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}
