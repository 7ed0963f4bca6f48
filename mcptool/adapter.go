package mcptool

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kgfoundry/sandboxrt/tool"
)

// Caller is the slice of an MCP client session the adapter needs.
// *mcp.ClientSession satisfies it.
type Caller interface {
	ListTools(ctx context.Context, params *mcp.ListToolsParams) (*mcp.ListToolsResult, error)
	CallTool(ctx context.Context, params *mcp.CallToolParams) (*mcp.CallToolResult, error)
}

// AdapterOptions tunes how server tools map onto the runtime contract.
type AdapterOptions struct {
	// Classifications overrides the annotation-derived classification per
	// tool name.
	Classifications map[string]tool.Classification

	// TargetFields names the mutation-target argument per tool name,
	// required for mutating tools to pass the scope guard.
	TargetFields map[string]string
}

// FromSession lists the server's tools and wraps each as a tool.Tool.
func FromSession(ctx context.Context, caller Caller, opts AdapterOptions) ([]tool.Tool, error) {
	listed, err := caller.ListTools(ctx, &mcp.ListToolsParams{})
	if err != nil {
		return nil, fmt.Errorf("list mcp tools: %w", err)
	}

	out := make([]tool.Tool, 0, len(listed.Tools))
	for _, t := range listed.Tools {
		def := tool.Definition{
			Name:           t.Name,
			Description:    t.Description,
			Classification: classify(t, opts.Classifications),
			TargetField:    opts.TargetFields[t.Name],
		}
		out = append(out, &mcpTool{def: def, caller: caller})
	}
	return out, nil
}

// classify derives a governance classification from MCP tool annotations.
func classify(t *mcp.Tool, overrides map[string]tool.Classification) tool.Classification {
	if c, ok := overrides[t.Name]; ok {
		return c
	}
	ann := t.Annotations
	if ann == nil {
		return tool.ClassPlain
	}
	if ann.ReadOnlyHint {
		// A read-only, idempotent inspection is exactly what the
		// progress-check gate governs.
		if ann.IdempotentHint {
			return tool.ClassProgressCheck
		}
		return tool.ClassRead
	}
	return tool.ClassMutating
}

type mcpTool struct {
	def    tool.Definition
	caller Caller
}

func (t *mcpTool) Definition() tool.Definition { return t.def }

func (t *mcpTool) Invoke(ctx context.Context, call tool.Call) (any, error) {
	args := make(map[string]any, len(call.Kwargs))
	for k, v := range call.Kwargs {
		args[k] = v
	}

	res, err := t.caller.CallTool(ctx, &mcp.CallToolParams{
		Name:      t.def.Name,
		Arguments: args,
	})
	if err != nil {
		return nil, fmt.Errorf("mcp call %s: %w", t.def.Name, err)
	}
	text := contentText(res.Content)
	if res.IsError {
		return nil, fmt.Errorf("mcp tool %s failed: %s", t.def.Name, text)
	}
	if res.StructuredContent != nil {
		return res.StructuredContent, nil
	}
	return text, nil
}

func contentText(content []mcp.Content) string {
	var parts []string
	for _, c := range content {
		if tc, ok := c.(*mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}
