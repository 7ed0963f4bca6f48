package graphmem

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/kgfoundry/sandboxrt/scope"
)

// Entity is one node in the graph.
type Entity struct {
	ID     string         `json:"id"`
	Labels []string       `json:"labels"`
	Props  map[string]any `json:"props"`
}

// Edge is a directed, labeled relation between two entities.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
	Rel  string `json:"rel"`
}

// Issue is one validation finding.
type Issue struct {
	EntityID string `json:"entity_id"`
	Problem  string `json:"problem"`
}

// Graph is a mutex-protected entity/edge store.
type Graph struct {
	mu       sync.RWMutex
	entities map[string]Entity
	edges    []Edge
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{entities: make(map[string]Entity)}
}

// Upsert creates or replaces an entity.
func (g *Graph) Upsert(e Entity) error {
	if e.ID == "" {
		return fmt.Errorf("entity id is required")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.entities[e.ID] = e
	return nil
}

// AddEdge links two entities. Endpoints need not exist yet; dangling
// edges are reported by Validate.
func (g *Graph) AddEdge(from, to, rel string) error {
	if from == "" || to == "" {
		return fmt.Errorf("edge endpoints are required")
	}
	if rel == "" {
		rel = "related_to"
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.edges = append(g.edges, Edge{From: from, To: to, Rel: rel})
	return nil
}

// Get returns an entity by ID.
func (g *Graph) Get(id string) (Entity, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	e, ok := g.entities[id]
	return e, ok
}

// Len returns the number of entities.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.entities)
}

// Validate checks structural consistency: every edge endpoint must exist
// and every entity must carry at least one label.
func (g *Graph) Validate() []Issue {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var issues []Issue
	for _, e := range g.entities {
		if len(e.Labels) == 0 {
			issues = append(issues, Issue{EntityID: e.ID, Problem: "entity has no labels"})
		}
	}
	for _, edge := range g.edges {
		if _, ok := g.entities[edge.From]; !ok {
			issues = append(issues, Issue{EntityID: edge.From, Problem: fmt.Sprintf("edge %s-[%s]->%s references missing source", edge.From, edge.Rel, edge.To)})
		}
		if _, ok := g.entities[edge.To]; !ok {
			issues = append(issues, Issue{EntityID: edge.To, Problem: fmt.Sprintf("edge %s-[%s]->%s references missing target", edge.From, edge.Rel, edge.To)})
		}
	}
	sort.Slice(issues, func(i, j int) bool {
		if issues[i].EntityID != issues[j].EntityID {
			return issues[i].EntityID < issues[j].EntityID
		}
		return issues[i].Problem < issues[j].Problem
	})
	return issues
}

// Report renders a plain-text summary of the graph.
func (g *Graph) Report() string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	ids := make([]string, 0, len(g.entities))
	for id := range g.entities {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b []byte
	b = fmt.Appendf(b, "graph report: %d entities, %d edges\n", len(g.entities), len(g.edges))
	for _, id := range ids {
		e := g.entities[id]
		b = fmt.Appendf(b, "entity %s labels=%v props=%d\n", e.ID, e.Labels, len(e.Props))
	}
	for _, edge := range g.edges {
		b = fmt.Appendf(b, "edge %s -[%s]-> %s\n", edge.From, edge.Rel, edge.To)
	}
	return string(b)
}

// NewGeneratedID mints an entity ID inside the reserved generated-entity
// namespace, so agent-created nodes always pass the scope guard.
func NewGeneratedID() string {
	return scope.DefaultGeneratedPrefix + uuid.NewString()
}
