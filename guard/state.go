package guard

// State holds the per-run governance counters. It is owned exclusively by
// one Governor and never persisted or shared across runs.
//
// Counters only grow within a run. ValidationsWithoutDelta returns to zero
// when GraphRevision advances; GraphRevision itself is monotonic.
type State struct {
	HandleReadsTotal        int
	HandleReadsByKey        map[string]int
	ReportReads             int
	GraphRevision           int
	ValidationsWithoutDelta int
	LargeReturns            int

	// lastCheckRevision is the graph revision observed by the most recent
	// progress-check.
	lastCheckRevision int
}

func newState() *State {
	return &State{HandleReadsByKey: make(map[string]int)}
}

// Snapshot is a copy of the counters for trajectory payloads and caller
// inspection.
type Snapshot struct {
	HandleReadsTotal        int            `json:"handle_reads_total"`
	HandleReadsByKey        map[string]int `json:"handle_reads_by_key"`
	ReportReads             int            `json:"report_reads"`
	GraphRevision           int            `json:"graph_revision"`
	ValidationsWithoutDelta int            `json:"validations_without_delta"`
	LargeReturns            int            `json:"large_returns"`
}

func (s *State) snapshot() Snapshot {
	byKey := make(map[string]int, len(s.HandleReadsByKey))
	for k, v := range s.HandleReadsByKey {
		byKey[k] = v
	}
	return Snapshot{
		HandleReadsTotal:        s.HandleReadsTotal,
		HandleReadsByKey:        byKey,
		ReportReads:             s.ReportReads,
		GraphRevision:           s.GraphRevision,
		ValidationsWithoutDelta: s.ValidationsWithoutDelta,
		LargeReturns:            s.LargeReturns,
	}
}
