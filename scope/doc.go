// Package scope restricts mutating tool calls to a pre-authorized set of
// anchor entities plus a reserved namespace for agent-generated entities.
//
// The anchor set is derived once from the task definition when a run
// starts and is immutable for the run's lifetime; it is never widened
// mid-run. This keeps every denial explainable from the set contents
// alone.
package scope
