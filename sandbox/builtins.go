package sandbox

import (
	"fmt"
	"strings"

	"go.starlark.net/starlark"

	"github.com/kgfoundry/sandboxrt/tool"
)

// submitBuiltin implements the SUBMIT termination primitive. It accepts
// keyword fields only and aborts execution immediately on success.
func (s *Sandbox) submitBuiltin() *starlark.Builtin {
	return starlark.NewBuiltin("SUBMIT", func(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		if len(args) > 0 {
			return nil, &ProtocolError{
				Msg: fmt.Sprintf("SUBMIT accepts keyword fields only, got %d positional value(s); call SUBMIT(field=value, ...)", len(args)),
			}
		}
		fields := make(map[string]any, len(kwargs))
		for _, kv := range kwargs {
			name, ok := starlark.AsString(kv[0])
			if !ok {
				name = kv[0].String()
			}
			fields[name] = fromStarlark(kv[1])
		}
		return nil, &submitSignal{fields: fields}
	})
}

// finalVarBuiltin implements the FINAL_VAR termination primitive: resolve
// the final answer from a named namespace variable. A missing variable is
// deliberately non-fatal; the slot stays unset and an indicator is written
// to the turn output.
func (s *Sandbox) finalVarBuiltin() *starlark.Builtin {
	return starlark.NewBuiltin("FINAL_VAR", func(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var name string
		if err := starlark.UnpackPositionalArgs("FINAL_VAR", args, kwargs, 1, &name); err != nil {
			return nil, err
		}
		// The model sometimes passes the variable name with its quotes
		// doubled; strip them.
		name = strings.Trim(name, `"'`)

		v, ok := s.ns[name]
		if !ok {
			s.writeOutput(fmt.Sprintf("FINAL_VAR: variable %q is not defined; final answer left unset\n", name))
			return starlark.None, nil
		}
		text := displayString(v)
		s.final = &text
		return starlark.None, nil
	})
}

// toolBuiltin bridges a governed tool into the Starlark namespace.
// Tool errors surface as Starlark eval errors and are recovered by the
// sandbox's runtime-failure path.
func (s *Sandbox) toolBuiltin(name string, t tool.Tool) *starlark.Builtin {
	params := t.Definition().Params
	return starlark.NewBuiltin(name, func(thread *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		call := tool.Call{
			Kwargs: make(map[string]any, len(kwargs)+len(args)),
		}
		for i, a := range args {
			// Positional arguments map onto declared parameter names so
			// tools only deal in keywords.
			if i < len(params) {
				call.Kwargs[params[i]] = fromStarlark(a)
			} else {
				call.Args = append(call.Args, fromStarlark(a))
			}
		}
		for _, kv := range kwargs {
			key, ok := starlark.AsString(kv[0])
			if !ok {
				key = kv[0].String()
			}
			call.Kwargs[key] = fromStarlark(kv[1])
		}

		result, err := t.Invoke(ctxFromThread(thread), call)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return goValue(result), nil
	})
}

func (s *Sandbox) writeOutput(msg string) {
	if s.curOut != nil {
		s.curOut.WriteString(msg)
	}
}
