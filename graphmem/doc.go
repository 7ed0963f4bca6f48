// Package graphmem is an in-memory graph knowledge base with a toolset
// shaped for the sandbox runtime.
//
// The runtime treats graph semantics as an opaque external collaborator;
// graphmem exists so examples and end-to-end tests have a real collaborator
// to govern. Its tools carry the classifications the governor keys on:
// graph_get is plain, graph_validate is a progress-check, graph_upsert and
// graph_link are mutating, and graph_report stores its output in the
// handle store so reading it goes through bounded windows and the report
// read budget.
package graphmem
