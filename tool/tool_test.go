package tool

import (
	"context"
	"encoding/json"
	"testing"
)

func TestClassification_Valid(t *testing.T) {
	for _, c := range []Classification{ClassRead, ClassProgressCheck, ClassMutating, ClassPlain} {
		if !c.Valid() {
			t.Errorf("%q should be valid", c)
		}
	}
	if Classification("destructive").Valid() {
		t.Error("unknown classification should be invalid")
	}
}

func TestDefinition_Target(t *testing.T) {
	tests := []struct {
		name string
		def  Definition
		want string
	}{
		{"explicit field wins", Definition{Classification: ClassMutating, TargetField: "node"}, "node"},
		{"mutating default", Definition{Classification: ClassMutating}, "id"},
		{"read default", Definition{Classification: ClassRead}, "key"},
		{"plain has no target", Definition{Classification: ClassPlain}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.def.Target(); got != tt.want {
				t.Errorf("Target() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCall_Accessors(t *testing.T) {
	c := Call{Kwargs: map[string]any{
		"name":  "alpha",
		"count": int64(7),
		"ratio": 2.0,
		"num":   json.Number("42"),
		"flag":  true,
	}}

	if s, ok := c.String("name"); !ok || s != "alpha" {
		t.Errorf("String(name) = %q, %v", s, ok)
	}
	if _, ok := c.String("count"); ok {
		t.Error("String on non-string should report false")
	}
	if n, ok := c.Int("count"); !ok || n != 7 {
		t.Errorf("Int(count) = %d, %v", n, ok)
	}
	if n, ok := c.Int("ratio"); !ok || n != 2 {
		t.Errorf("Int(ratio) = %d, %v", n, ok)
	}
	if n, ok := c.Int("num"); !ok || n != 42 {
		t.Errorf("Int(num) = %d, %v", n, ok)
	}
	if b, ok := c.Bool("flag"); !ok || !b {
		t.Errorf("Bool(flag) = %v, %v", b, ok)
	}
	if _, ok := c.String("absent"); ok {
		t.Error("absent key should report false")
	}
}

func TestFunc_DefaultsToPlain(t *testing.T) {
	tl := Func(Definition{Name: "noop"}, func(context.Context, Call) (any, error) {
		return "ok", nil
	})
	if tl.Definition().Classification != ClassPlain {
		t.Errorf("expected plain default, got %q", tl.Definition().Classification)
	}
	got, err := tl.Invoke(context.Background(), Call{})
	if err != nil || got != "ok" {
		t.Errorf("Invoke = %v, %v", got, err)
	}
}
