package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Registry holds tools by name and dispatches parsed tool calls to them.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates a registry containing the given tools.
func NewRegistry(initial ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool)}
	for _, t := range initial {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a tool. Names must be non-empty and unique.
func (r *Registry) Register(tool Tool) error {
	if tool == nil {
		return fmt.Errorf("tool cannot be nil")
	}

	name := tool.Name()
	if name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}
	r.tools[name] = tool
	return nil
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, ok := r.tools[name]
	return tool, ok
}

// List returns all tools sorted by name.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name() < list[j].Name() })
	return list
}

// Dispatch runs the tool named by call.
func (r *Registry) Dispatch(ctx context.Context, call *ToolCall) (*ToolResult, error) {
	if err := ValidateToolCall(call); err != nil {
		return nil, err
	}

	tool, ok := r.Get(call.ToolName)
	if !ok {
		return nil, fmt.Errorf("unknown tool: %s", call.ToolName)
	}

	return run(ctx, tool, call.GetArgumentsXML())
}

// Call runs the named tool with flat string arguments, as delivered by
// transports that do not speak the XML tool-call format.
func (r *Registry) Call(ctx context.Context, name string, args map[string]string) (*ToolResult, error) {
	tool, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
	return run(ctx, tool, ArgumentsXML(args))
}

func run(ctx context.Context, tool Tool, argsXML []byte) (*ToolResult, error) {
	if mp, ok := tool.(MetadataProvider); ok {
		return mp.ExecuteWithMetadata(ctx, argsXML)
	}

	output, metadata, err := tool.Execute(ctx, argsXML)
	if err != nil {
		return nil, err
	}
	return &ToolResult{Output: output, Metadata: metadata}, nil
}

// Preview returns the tool's preview for call, or an error if the tool
// cannot preview.
func (r *Registry) Preview(ctx context.Context, call *ToolCall) (*ToolPreview, error) {
	if err := ValidateToolCall(call); err != nil {
		return nil, err
	}

	tool, ok := r.Get(call.ToolName)
	if !ok {
		return nil, fmt.Errorf("unknown tool: %s", call.ToolName)
	}

	previewable, ok := tool.(Previewable)
	if !ok {
		return nil, fmt.Errorf("tool %s does not support previews", call.ToolName)
	}
	return previewable.GeneratePreview(ctx, call.GetArgumentsXML())
}
