package guard

import (
	"errors"
	"fmt"
)

// Default threshold values. Deliberately small: the runtime is tuned to
// force frequent, cheap progress checks rather than large one-shot reads.
const (
	DefaultMaxHandleReadsPerRun       = 20
	DefaultMaxReadsPerHandle          = 3
	DefaultMaxValidationsWithoutDelta = 2
	DefaultMaxReportReads             = 5
	DefaultLargeResultBytes           = 4096
)

// ErrConfiguration indicates invalid guard thresholds. This is a
// programmer error surfaced at construction time, never a rejection.
var ErrConfiguration = errors.New("guard configuration error")

// Thresholds are the fixed per-run budget ceilings. Zero values select the
// defaults; negative values are invalid.
type Thresholds struct {
	// MaxHandleReadsPerRun caps handle reads across the whole run.
	MaxHandleReadsPerRun int

	// MaxReadsPerHandle caps reads of any single handle key.
	MaxReadsPerHandle int

	// MaxValidationsWithoutDelta caps consecutive progress-checks with no
	// intervening graph mutation.
	MaxValidationsWithoutDelta int

	// MaxReportReads caps reads routed to the "report" budget tag.
	MaxReportReads int

	// LargeResultBytes is the serialized-size threshold above which a
	// result counts toward the large_returns diagnostic counter.
	LargeResultBytes int
}

func (t *Thresholds) validate() error {
	for name, v := range map[string]int{
		"MaxHandleReadsPerRun":       t.MaxHandleReadsPerRun,
		"MaxReadsPerHandle":          t.MaxReadsPerHandle,
		"MaxValidationsWithoutDelta": t.MaxValidationsWithoutDelta,
		"MaxReportReads":             t.MaxReportReads,
		"LargeResultBytes":           t.LargeResultBytes,
	} {
		if v < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrConfiguration, name)
		}
	}
	return nil
}

func (t *Thresholds) applyDefaults() {
	if t.MaxHandleReadsPerRun == 0 {
		t.MaxHandleReadsPerRun = DefaultMaxHandleReadsPerRun
	}
	if t.MaxReadsPerHandle == 0 {
		t.MaxReadsPerHandle = DefaultMaxReadsPerHandle
	}
	if t.MaxValidationsWithoutDelta == 0 {
		t.MaxValidationsWithoutDelta = DefaultMaxValidationsWithoutDelta
	}
	if t.MaxReportReads == 0 {
		t.MaxReportReads = DefaultMaxReportReads
	}
	if t.LargeResultBytes == 0 {
		t.LargeResultBytes = DefaultLargeResultBytes
	}
}
