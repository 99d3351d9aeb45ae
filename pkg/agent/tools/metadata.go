package tools

import "context"

// ToolResult is a tool's output together with structured metadata.
type ToolResult struct {
	Output   string
	Metadata map[string]interface{}
}

// MetadataProvider is implemented by tools that prefer returning a
// ToolResult. The registry uses it in place of Execute when available.
//
//	return &ToolResult{
//	    Output: "Content successfully saved to out/page.html",
//	    Metadata: map[string]interface{}{
//	        "bytes": 1256,
//	        "created": true,
//	    },
//	}
type MetadataProvider interface {
	Tool
	ExecuteWithMetadata(ctx context.Context, argumentsXML []byte) (*ToolResult, error)
}
