// Package trajectory implements the append-only structured event log for
// one agent run.
//
// Events are written as line-delimited JSON in the order operations occur.
// A tool_result always follows its matching tool_call because the governor
// emits both around a synchronous invocation. File-backed loggers sync
// after every append so the trajectory is durable as it is produced, never
// buffered only in memory.
//
// Every large string entering an event passes through [Preview], so log
// entries are bounded regardless of tool output sizes.
package trajectory
