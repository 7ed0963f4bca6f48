// Package mcptool adapts tools served over the Model Context Protocol to
// the runtime's tool contract.
//
// Domain collaborators (graph query engines, validators) that already
// speak MCP can be governed without glue code: FromSession lists the
// server's tools and wraps each one so Invoke becomes a CallTool round
// trip. Classification is derived from the server's tool annotations
// (read-only, idempotent, destructive hints) and can be overridden per
// tool name for servers with missing or untrustworthy annotations.
package mcptool
