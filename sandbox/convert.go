package sandbox

import (
	"fmt"
	"reflect"

	"go.starlark.net/starlark"
)

// goValue converts a Go value produced by a tool into its Starlark
// representation. Unknown types degrade to their string form rather than
// failing the turn.
func goValue(v any) starlark.Value {
	switch v := v.(type) {

	case nil:
		return starlark.None

	case bool:
		return starlark.Bool(v)

	case []byte:
		return starlark.Bytes(v)
	case string:
		return starlark.String(v)

	case int:
		return starlark.MakeInt(v)
	case int32:
		return starlark.MakeInt(int(v))
	case int64:
		return starlark.MakeInt64(v)
	case uint:
		return starlark.MakeUint(v)
	case uint64:
		return starlark.MakeUint64(v)

	case float32:
		return starlark.Float(v)
	case float64:
		return starlark.Float(v)

	case []any:
		elems := make([]starlark.Value, len(v))
		for i, e := range v {
			elems[i] = goValue(e)
		}
		return starlark.NewList(elems)

	case map[string]any:
		d := starlark.NewDict(len(v))
		for k, val := range v {
			_ = d.SetKey(starlark.String(k), goValue(val))
		}
		return d

	case starlark.Value:
		return v
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {

	case reflect.Slice, reflect.Array:
		n := rv.Len()
		elems := make([]starlark.Value, n)
		for i := range n {
			elems[i] = goValue(rv.Index(i).Interface())
		}
		return starlark.NewList(elems)

	case reflect.Map:
		d := starlark.NewDict(rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			_ = d.SetKey(
				goValue(iter.Key().Interface()),
				goValue(iter.Value().Interface()),
			)
		}
		return d

	case reflect.Struct:
		typ := rv.Type()
		n := rv.NumField()
		d := starlark.NewDict(n)
		for i := range n {
			field := typ.Field(i)
			if !field.IsExported() {
				continue
			}
			name := jsonName(field)
			if name == "-" {
				continue
			}
			_ = d.SetKey(starlark.String(name), goValue(rv.Field(i).Interface()))
		}
		return d

	case reflect.Pointer, reflect.Interface:
		elem := rv.Elem()
		if !elem.IsValid() {
			return starlark.None
		}
		return goValue(elem.Interface())
	}

	return starlark.String(fmt.Sprint(v))
}

// jsonName extracts the json tag name of a struct field, defaulting to the
// field name.
func jsonName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "" {
		return f.Name
	}
	for i := 0; i < len(tag); i++ {
		if tag[i] == ',' {
			tag = tag[:i]
			break
		}
	}
	if tag == "" {
		return f.Name
	}
	return tag
}

// fromStarlark converts a Starlark value into plain Go data for tool
// arguments.
func fromStarlark(v starlark.Value) any {
	switch v := v.(type) {

	case starlark.NoneType:
		return nil

	case starlark.Bool:
		return bool(v)

	case starlark.String:
		return string(v)

	case starlark.Bytes:
		return string(v)

	case starlark.Int:
		if i, ok := v.Int64(); ok {
			return i
		}
		return v.String()

	case starlark.Float:
		return float64(v)

	case *starlark.List:
		out := make([]any, v.Len())
		for i := range v.Len() {
			out[i] = fromStarlark(v.Index(i))
		}
		return out

	case starlark.Tuple:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = fromStarlark(e)
		}
		return out

	case *starlark.Dict:
		out := make(map[string]any, v.Len())
		for _, item := range v.Items() {
			key, ok := starlark.AsString(item[0])
			if !ok {
				key = item[0].String()
			}
			out[key] = fromStarlark(item[1])
		}
		return out
	}

	return v.String()
}

// displayString renders a Starlark value the way the final-answer slot
// expects: strings unquoted, everything else via String.
func displayString(v starlark.Value) string {
	if s, ok := starlark.AsString(v); ok {
		return s
	}
	return v.String()
}
