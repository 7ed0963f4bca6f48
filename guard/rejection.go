package guard

// Rejection codes.
const (
	CodeHandleReadBudget      = "handle_read_budget_exceeded"
	CodeRepeatedHandleRead    = "repeated_handle_read_blocked"
	CodeValidationNoDelta     = "validation_without_graph_delta"
	CodeNodeNotAllowedInScope = "node_not_allowed_for_current_scope"
)

// Rejection is the structured, non-exceptional "no" the governance layer
// returns instead of performing an operation. It flows back into the
// sandbox as an ordinary tool result.
type Rejection struct {
	// Error is one of the rejection codes above.
	Error string `json:"error"`

	// Tool is the name of the rejected tool.
	Tool string `json:"tool"`

	// Suggestion guides the agent to an alternative action.
	Suggestion string `json:"suggestion"`

	// Counters are the counter values that explain the rejection.
	Counters map[string]int `json:"counters"`

	// Anchors lists the allowed anchor entities. Set only for scope
	// rejections.
	Anchors []string `json:"anchors,omitempty"`
}

// IsRejection reports whether v is a guard rejection and returns it.
func IsRejection(v any) (Rejection, bool) {
	r, ok := v.(Rejection)
	return r, ok
}
