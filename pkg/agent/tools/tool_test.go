package tools

import (
	"context"
	"encoding/xml"
	"errors"
	"testing"
)

// echoTool returns its <text> argument.
type echoTool struct {
	name string
	err  error
}

func (e *echoTool) Name() string                   { return e.name }
func (e *echoTool) Description() string            { return "echoes text" }
func (e *echoTool) Schema() map[string]interface{} { return BaseToolSchema(nil, nil) }
func (e *echoTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	if e.err != nil {
		return "", nil, e.err
	}
	var args struct {
		XMLName xml.Name `xml:"arguments"`
		Text    string   `xml:"text"`
	}
	if err := UnmarshalXMLWithFallback(argsXML, &args); err != nil {
		return "", nil, err
	}
	return args.Text, map[string]interface{}{"len": len(args.Text)}, nil
}

// previewEcho adds ExecuteWithMetadata and GeneratePreview.
type previewEcho struct {
	echoTool
}

func (p *previewEcho) ExecuteWithMetadata(ctx context.Context, argsXML []byte) (*ToolResult, error) {
	out, _, err := p.Execute(ctx, argsXML)
	if err != nil {
		return nil, err
	}
	return &ToolResult{Output: "meta:" + out, Metadata: map[string]interface{}{"via": "metadata"}}, nil
}

func (p *previewEcho) GeneratePreview(ctx context.Context, argsXML []byte) (*ToolPreview, error) {
	return &ToolPreview{Type: PreviewTypeFileWrite, Title: "echo"}, nil
}

func TestBaseToolSchema(t *testing.T) {
	properties := map[string]interface{}{
		"name": map[string]interface{}{
			"type":        "string",
			"description": "The name",
		},
	}

	schema := BaseToolSchema(properties, []string{"name"})

	if schema["type"] != "object" {
		t.Errorf("expected type 'object', got '%v'", schema["type"])
	}
	if _, ok := schema["properties"]; !ok {
		t.Error("schema should have 'properties' field")
	}
	if _, ok := schema["required"]; !ok {
		t.Error("schema should have 'required' field")
	}

	if _, ok := BaseToolSchema(properties, nil)["required"]; ok {
		t.Error("schema without required fields should omit 'required'")
	}
}

func TestGetArgumentsXML(t *testing.T) {
	call := &ToolCall{Arguments: ArgumentsBlock{InnerXML: []byte("<text>hi</text>")}}

	if got := string(call.GetArgumentsXML()); got != "<arguments><text>hi</text></arguments>" {
		t.Errorf("unexpected arguments XML: %s", got)
	}
}

func TestRegistry_Register(t *testing.T) {
	r, err := NewRegistry(&echoTool{name: "echo"})
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	if err := r.Register(&echoTool{name: "echo"}); err == nil {
		t.Error("expected error for duplicate tool")
	}
	if err := r.Register(&echoTool{name: ""}); err == nil {
		t.Error("expected error for empty name")
	}
	if err := r.Register(nil); err == nil {
		t.Error("expected error for nil tool")
	}
	if err := r.Register(&echoTool{name: "alpha"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	list := r.List()
	if len(list) != 2 || list[0].Name() != "alpha" || list[1].Name() != "echo" {
		t.Errorf("List should be sorted by name, got %v", list)
	}
}

func TestRegistry_Dispatch(t *testing.T) {
	r, _ := NewRegistry(
		&echoTool{name: "echo"},
		&previewEcho{echoTool{name: "meta"}},
		&echoTool{name: "broken", err: errors.New("boom")},
	)

	parse := func(name string) *ToolCall {
		call, _, err := ParseToolCall("<tool><tool_name>" + name + "</tool_name><arguments><text>hello</text></arguments></tool>")
		if err != nil {
			t.Fatalf("ParseToolCall failed: %v", err)
		}
		return call
	}

	t.Run("plain tool", func(t *testing.T) {
		res, err := r.Dispatch(context.Background(), parse("echo"))
		if err != nil {
			t.Fatalf("Dispatch failed: %v", err)
		}
		if res.Output != "hello" || res.Metadata["len"] != 5 {
			t.Errorf("unexpected result: %+v", res)
		}
	})

	t.Run("metadata provider", func(t *testing.T) {
		res, err := r.Dispatch(context.Background(), parse("meta"))
		if err != nil {
			t.Fatalf("Dispatch failed: %v", err)
		}
		if res.Output != "meta:hello" {
			t.Errorf("expected ExecuteWithMetadata path, got %q", res.Output)
		}
	})

	t.Run("tool error", func(t *testing.T) {
		if _, err := r.Dispatch(context.Background(), parse("broken")); err == nil {
			t.Error("expected tool error")
		}
	})

	t.Run("unknown tool", func(t *testing.T) {
		if _, err := r.Dispatch(context.Background(), parse("missing")); err == nil {
			t.Error("expected unknown tool error")
		}
	})

	t.Run("nil call", func(t *testing.T) {
		if _, err := r.Dispatch(context.Background(), nil); err == nil {
			t.Error("expected error for nil call")
		}
	})
}

func TestRegistry_Call(t *testing.T) {
	r, _ := NewRegistry(&echoTool{name: "echo"}, &previewEcho{echoTool{name: "meta"}})

	res, err := r.Call(context.Background(), "echo", map[string]string{"text": "a < b & c"})
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if res.Output != "a < b & c" {
		t.Errorf("arguments should round-trip through escaping, got %q", res.Output)
	}

	res, err = r.Call(context.Background(), "meta", map[string]string{"text": "x"})
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if res.Metadata["via"] != "metadata" {
		t.Errorf("expected ExecuteWithMetadata path, got %+v", res)
	}

	if _, err := r.Call(context.Background(), "missing", nil); err == nil {
		t.Error("expected unknown tool error")
	}
}

func TestRegistry_Preview(t *testing.T) {
	r, _ := NewRegistry(&echoTool{name: "echo"}, &previewEcho{echoTool{name: "meta"}})

	call := &ToolCall{ServerName: "local", ToolName: "meta"}
	preview, err := r.Preview(context.Background(), call)
	if err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
	if preview.Type != PreviewTypeFileWrite {
		t.Errorf("unexpected preview type %q", preview.Type)
	}

	call.ToolName = "echo"
	if _, err := r.Preview(context.Background(), call); err == nil {
		t.Error("expected error for tool without preview support")
	}
}
