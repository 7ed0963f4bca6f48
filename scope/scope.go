package scope

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultGeneratedPrefix is the reserved namespace for entities the agent
// creates during a run.
const DefaultGeneratedPrefix = "gen:"

// Decision is the result of a scope check.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}

// Set is the immutable mutation scope for one run.
type Set struct {
	anchors         map[string]struct{}
	generatedPrefix string
}

// New builds a Set from the task's anchor entity IDs. An empty prefix
// selects DefaultGeneratedPrefix. The anchors slice is copied; later
// mutation of the argument does not affect the Set.
func New(anchors []string, generatedPrefix string) *Set {
	if generatedPrefix == "" {
		generatedPrefix = DefaultGeneratedPrefix
	}
	m := make(map[string]struct{}, len(anchors))
	for _, a := range anchors {
		if a == "" {
			continue
		}
		m[a] = struct{}{}
	}
	return &Set{anchors: m, generatedPrefix: generatedPrefix}
}

// Check reports whether entityID may be mutated in this run.
func (s *Set) Check(entityID string) Decision {
	if entityID == "" {
		return Decision{Allowed: false, Reason: "empty entity id"}
	}
	if _, ok := s.anchors[entityID]; ok {
		return Decision{Allowed: true, Reason: "anchor entity"}
	}
	if strings.HasPrefix(entityID, s.generatedPrefix) {
		return Decision{Allowed: true, Reason: "generated-entity namespace"}
	}
	return Decision{
		Allowed: false,
		Reason:  fmt.Sprintf("%q is neither an anchor nor in the %q namespace", entityID, s.generatedPrefix),
	}
}

// Anchors returns a sorted copy of the anchor IDs.
func (s *Set) Anchors() []string {
	out := make([]string, 0, len(s.anchors))
	for a := range s.anchors {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// GeneratedPrefix returns the reserved namespace prefix.
func (s *Set) GeneratedPrefix() string {
	return s.generatedPrefix
}
