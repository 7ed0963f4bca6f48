package session

import (
	"context"
	"fmt"

	"github.com/kgfoundry/sandboxrt/handle"
	"github.com/kgfoundry/sandboxrt/tool"
)

// storeTools builds the handle-store tool surface every session exposes.
// stash is plain (it cannot blow up context: it returns a handle, not
// content); handle_stats and read_window are classified as reads.
func storeTools(store handle.Store) []tool.Tool {
	return []tool.Tool{
		tool.Func(tool.Definition{
			Name:           "stash",
			Description:    "Store a large text and get back a small handle.",
			Params:         []string{"text", "kind"},
			Classification: tool.ClassPlain,
		}, func(_ context.Context, call tool.Call) (any, error) {
			text, ok := call.String("text")
			if !ok {
				return nil, fmt.Errorf("stash: text is required")
			}
			kind, _ := call.String("kind")
			if kind == "" {
				kind = "text"
			}
			return store.Put(text, kind)
		}),

		tool.Func(tool.Definition{
			Name:           "handle_stats",
			Description:    "Size, line count, and preview of a stored handle.",
			Params:         []string{"key"},
			Classification: tool.ClassRead,
			TargetField:    "key",
		}, func(_ context.Context, call tool.Call) (any, error) {
			key, ok := call.String("key")
			if !ok {
				return nil, fmt.Errorf("handle_stats: key is required")
			}
			return store.Stats(key)
		}),

		tool.Func(tool.Definition{
			Name:           "read_window",
			Description:    "Read a bounded window of a stored handle's text.",
			Params:         []string{"key", "start", "size"},
			Classification: tool.ClassRead,
			TargetField:    "key",
		}, func(_ context.Context, call tool.Call) (any, error) {
			key, ok := call.String("key")
			if !ok {
				return nil, fmt.Errorf("read_window: key is required")
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
