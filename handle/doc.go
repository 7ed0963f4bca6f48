// Package handle implements the content-addressed blob store that keeps
// large text payloads out of agent context.
//
// Put stores the full text and returns only a small [Handle] (key, kind,
// size, preview). The full text never leaves the store: Stats returns
// metadata only, and ReadWindow returns a slice whose size is clamped to a
// hard per-call ceiling regardless of what the caller requested. No
// caller-side bug can therefore pull an unbounded string out of storage.
//
// Keys are content-addressed (a SHA-256 prefix), so Put is idempotent and
// identical payloads dedupe. Stored entries are immutable; the store only
// grows, which makes [MemStore] safe to share across concurrent runs.
//
// Two implementations are provided: [MemStore] for single-process runs and
// [BoltStore] for durable storage backed by bbolt.
package handle
