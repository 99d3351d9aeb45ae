package tools

import (
	"encoding/xml"
	"strings"
	"testing"
)

type pageArgs struct {
	XMLName  xml.Name `xml:"arguments"`
	URL      string   `xml:"url"`
	FilePath string   `xml:"file_path"`
}

func TestParseToolCall(t *testing.T) {
	t.Run("extracts call and remaining text", func(t *testing.T) {
		text := `Saving now.
<tool>
<tool_name>html_saver</tool_name>
<arguments>
  <url>https://example.com</url>
  <file_path>out/page.html</file_path>
</arguments>
</tool>
done`
		call, remaining, err := ParseToolCall(text)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if call.ToolName != "html_saver" {
			t.Errorf("expected tool html_saver, got %q", call.ToolName)
		}
		if call.ServerName != "local" {
			t.Errorf("expected default server 'local', got %q", call.ServerName)
		}
		if remaining != "Saving now.\n\ndone" {
			t.Errorf("unexpected remaining text %q", remaining)
		}

		var args pageArgs
		if err := UnmarshalXMLWithFallback(call.GetArgumentsXML(), &args); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if args.URL != "https://example.com" || args.FilePath != "out/page.html" {
			t.Errorf("unexpected args %+v", args)
		}
	})

	t.Run("bare ampersand in URL", func(t *testing.T) {
		call, _, err := ParseToolCall(`<tool><tool_name>html_saver</tool_name><arguments><url>https://example.com/?a=1&b=2</url></arguments></tool>`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var args pageArgs
		if err := UnmarshalXMLWithFallback(call.GetArgumentsXML(), &args); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if args.URL != "https://example.com/?a=1&b=2" {
			t.Errorf("unexpected url %q", args.URL)
		}
	})

	tests := []struct {
		name string
		text string
	}{
		{"no tool call", "just text"},
		{"missing tool name", "<tool><arguments></arguments></tool>"},
		{"malformed", "<tool><tool_name>x</tool_name><arguments><a></arguments></tool>"},
		{"too large", "<tool>" + strings.Repeat("x", maxXMLSize) + "</tool>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := ParseToolCall(tt.text); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestValidateToolCall(t *testing.T) {
	if err := ValidateToolCall(nil); err == nil {
		t.Error("expected error for nil call")
	}
	if err := ValidateToolCall(&ToolCall{ServerName: "local"}); err == nil {
		t.Error("expected error for missing tool name")
	}
	if err := ValidateToolCall(&ToolCall{ToolName: "x"}); err == nil {
		t.Error("expected error for missing server name")
	}
	if err := ValidateToolCall(&ToolCall{ToolName: "x", ServerName: "local"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestEscapeUnescapedAmpersands(t *testing.T) {
	in := `<a>x & y &amp; z &#38; &lt;</a>`
	want := `<a>x &amp; y &amp; z &#38; &lt;</a>`
	if got := string(escapeUnescapedAmpersands([]byte(in))); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestArgumentsXML(t *testing.T) {
	raw := ArgumentsXML(map[string]string{
		"url":       "https://example.com/?q=<b>&x=1",
		"file_path": "out/page.html",
	})

	if !strings.HasPrefix(string(raw), "<arguments><file_path>") {
		t.Errorf("expected sorted keys, got %s", raw)
	}

	var args pageArgs
	if err := xml.Unmarshal(raw, &args); err != nil {
		t.Fatalf("generated XML does not parse: %v", err)
	}
	if args.URL != "https://example.com/?q=<b>&x=1" || args.FilePath != "out/page.html" {
		t.Errorf("values did not survive escaping: %+v", args)
	}
}

func TestArgumentsXML_SkipsInvalidNames(t *testing.T) {
	raw := ArgumentsXML(map[string]string{
		"url":       "https://example.com",
		"file_path": "page.html",
		"extra key": "v",
		"1st":       "v",
		"":          "v",
	})

	want := "<arguments><file_path>page.html</file_path><url>https://example.com</url></arguments>"
	if string(raw) != want {
		t.Errorf("got %s, want %s", raw, want)
	}

	var args pageArgs
	if err := xml.Unmarshal(raw, &args); err != nil {
		t.Fatalf("generated XML does not parse: %v", err)
	}
}

func TestIsXMLName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"url", true},
		{"file_path", true},
		{"_x", true},
		{"a-b.c2", true},
		{"", false},
		{"extra key", false},
		{"1st", false},
		{"-a", false},
		{"ns:tag", false},
		{"a<b", false},
	}
	for _, tt := range tests {
		if got := IsXMLName(tt.name); got != tt.want {
			t.Errorf("IsXMLName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
