// ABOUTME: Tests for MCP command structure
// ABOUTME: Verifies MCP command configuration

package commands

import (
	"strings"
	"testing"
)

func TestNewMCPCmd(t *testing.T) {
	cmd := NewMCPCmd()

	if cmd.Use != "mcp" {
		t.Errorf("Use = %q, want %q", cmd.Use, "mcp")
	}
	if cmd.RunE == nil {
		t.Error("RunE should be set")
	}
	for _, want := range []string{"MCP", "LLM", "stdio", "MCP_USER_SUB"} {
		if !strings.Contains(cmd.Long, want) {
			t.Errorf("Long description should mention %q", want)
		}
	}
	if !strings.Contains(cmd.Example, "tracker mcp") || !strings.Contains(cmd.Example, "claude_desktop_config") {
		t.Error("Example should show how to run and configure the command")
	}
}
