package tools

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

const (
	defaultServerName = "local"
	maxXMLSize        = 10 * 1024 * 1024
	argumentsTagName  = "arguments"
)

var toolRegex = regexp.MustCompile(`(?s)<tool>.*?</tool>`)

// ampersandRegex matches a bare & or a complete entity reference.
var ampersandRegex = regexp.MustCompile(`&(?:amp|lt|gt|quot|apos|#\d+|#x[0-9a-fA-F]+);|&`)

// ParseToolCall extracts the first <tool> element from text.
//
// Argument values may use CDATA to carry markup verbatim:
//
//	<tool>
//	<tool_name>html_saver</tool_name>
//	<arguments>
//	  <url><![CDATA[https://example.com/?a=1&b=2]]></url>
//	  <file_path>page.html</file_path>
//	</arguments>
//	</tool>
//
// It returns the call and the text with the call removed.
func ParseToolCall(text string) (*ToolCall, string, error) {
	if len(text) > maxXMLSize {
		return nil, text, fmt.Errorf("tool call XML exceeds maximum size of %d bytes", maxXMLSize)
	}

	block := toolRegex.FindString(text)
	if block == "" {
		return nil, text, fmt.Errorf("no tool call found in text")
	}
	block = strings.TrimSpace(block)

	var call ToolCall
	if err := UnmarshalXMLWithFallback([]byte(block), &call); err != nil {
		if len(block) > 200 {
			block = block[:200] + "..."
		}
		return nil, text, fmt.Errorf("failed to unmarshal tool call XML: %w\nXML snippet: %s", err, block)
	}

	if call.ToolName == "" {
		return nil, text, fmt.Errorf("tool_name is required in tool call")
	}
	if call.ServerName == "" {
		call.ServerName = defaultServerName
	}

	rest := strings.TrimSpace(toolRegex.ReplaceAllString(text, ""))
	return &call, rest, nil
}

// ValidateToolCall checks if a ToolCall has all required fields.
func ValidateToolCall(tc *ToolCall) error {
	if tc == nil {
		return fmt.Errorf("tool call is nil")
	}
	if tc.ToolName == "" {
		return fmt.Errorf("tool_name is required")
	}
	if tc.ServerName == "" {
		return fmt.Errorf("server_name is required")
	}
	return nil
}

// UnmarshalXMLWithFallback decodes data into v. If that fails it retries
// once with bare ampersands escaped, since hand-written URLs with query
// strings often carry them.
func UnmarshalXMLWithFallback(data []byte, v interface{}) error {
	if err := xml.Unmarshal(data, v); err == nil {
		return nil
	}
	return xml.Unmarshal(escapeUnescapedAmpersands(data), v)
}

// escapeUnescapedAmpersands rewrites bare & as &amp; and leaves entity
// references untouched.
func escapeUnescapedAmpersands(data []byte) []byte {
	return ampersandRegex.ReplaceAllFunc(data, func(m []byte) []byte {
		if len(m) == 1 {
			return []byte("&amp;")
		}
		return m
	})
}

// IsXMLName reports whether s can be used as an element name in an
// <arguments> block. Namespaced names are not accepted.
func IsXMLName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case i > 0 && (r == '-' || r == '.' || unicode.IsDigit(r)):
		default:
			return false
		}
	}
	return true
}

// ArgumentsXML renders args as an <arguments> block with escaped values,
// in key order. Keys that are not valid element names are skipped.
func ArgumentsXML(args map[string]string) []byte {
	keys := make([]string, 0, len(args))
	for k := range args {
		if IsXMLName(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteString("<" + argumentsTagName + ">")
	for _, k := range keys {
		buf.WriteString("<" + k + ">")
		_ = xml.EscapeText(&buf, []byte(args[k]))
		buf.WriteString("</" + k + ">")
	}
	buf.WriteString("</" + argumentsTagName + ">")
	return buf.Bytes()
}
