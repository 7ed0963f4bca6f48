package graphmem

import (
	"context"
	"fmt"

	"github.com/kgfoundry/sandboxrt/handle"
	"github.com/kgfoundry/sandboxrt/tool"
)

// Toolset builds the graph tool surface for one run. Each call constructs
// fresh tool instances bound to g and store, so concurrent runs do not
// share wrapped state.
func Toolset(g *Graph, store handle.Store) []tool.Tool {
	return []tool.Tool{
		tool.Func(tool.Definition{
			Name:           "graph_get",
			Description:    "Fetch one entity by ID.",
			Params:         []string{"id"},
			Classification: tool.ClassPlain,
		}, func(_ context.Context, call tool.Call) (any, error) {
			id, ok := call.String("id")
			if !ok {
				return nil, fmt.Errorf("graph_get: id is required")
			}
			e, ok := g.Get(id)
			if !ok {
				return map[string]any{"found": false, "id": id}, nil
			}
			return map[string]any{"found": true, "entity": e}, nil
		}),

		tool.Func(tool.Definition{
			Name:           "graph_validate",
			Description:    "Re-validate the graph and report issues.",
			Classification: tool.ClassProgressCheck,
		}, func(_ context.Context, call tool.Call) (any, error) {
			issues := g.Validate()
			out := map[string]any{"issue_count": len(issues)}
			if len(issues) > 0 {
				previews := make([]any, 0, min(len(issues), 5))
				for i, issue := range issues {
					if i == 5 {
						break
					}
					previews = append(previews, map[string]any{
						"entity_id": issue.EntityID,
						"problem":   issue.Problem,
					})
				}
				out["issues"] = previews
			}
			return out, nil
		}),

		tool.Func(tool.Definition{
			Name:           "graph_upsert",
			Description:    "Create or replace an entity.",
			Params:         []string{"id", "labels", "props"},
			Classification: tool.ClassMutating,
			TargetField:    "id",
		}, func(_ context.Context, call tool.Call) (any, error) {
			id, ok := call.String("id")
			if !ok {
				return nil, fmt.Errorf("graph_upsert: id is required")
			}
			e := Entity{ID: id}
			if labels, ok := call.Kwargs["labels"].([]any); ok {
				for _, l := range labels {
					if s, ok := l.(string); ok {
						e.Labels = append(e.Labels, s)
					}
				}
			}
			if props, ok := call.Kwargs["props"].(map[string]any); ok {
				e.Props = props
			}
			if err := g.Upsert(e); err != nil {
				return nil, err
			}
			return map[string]any{"ok": true, "id": id}, nil
		}),

		tool.Func(tool.Definition{
			Name:           "graph_link",
			Description:    "Add a directed relation between two entities.",
			Params:         []string{"from", "to", "rel"},
			Classification: tool.ClassMutating,
			TargetField:    "from",
		}, func(_ context.Context, call tool.Call) (any, error) {
			from, _ := call.String("from")
			to, _ := call.String("to")
			rel, _ := call.String("rel")
			if from == "" || to == "" {
				return nil, fmt.Errorf("graph_link: from and to are required")
			}
			if err := g.AddEdge(from, to, rel); err != nil {
				return nil, err
			}
			return map[string]any{"ok": true, "from": from, "to": to}, nil
		}),

		tool.Func(tool.Definition{
			Name:           "graph_report",
			Description:    "Render a graph summary into the handle store.",
			Classification: tool.ClassPlain,
		}, func(_ context.Context, call tool.Call) (any, error) {
			return store.Put(g.Report(), "report")
		}),

		tool.Func(tool.Definition{
			Name:           "read_report",
			Description:    "Read a bounded window of a stored report.",
			Params:         []string{"key", "start", "size"},
			Classification: tool.ClassRead,
			TargetField:    "key",
			BudgetTag:      "report",
		}, func(_ context.Context, call tool.Call) (any, error) {
			key, ok := call.String("key")
			if !ok {
				return nil, fmt.Errorf("read_report: key is required")
			}
			start, _ := call.Int("start")
			size, ok := call.Int("size")
			if !ok {
				size = handle.DefaultWindowCeiling
			}
			return store.ReadWindow(key, start, size)
		}),
	}
}
