// Package graph holds the static asset dependency graph used by the
// propagation engine.
package graph

import (
	"sort"

	"github.com/snowcore/pdm-cli/internal/model"
)

// Graph is an immutable, validated directed acyclic graph of assets. The
// topological order is computed once at construction and shared read-only.
// To change topology, build a new Graph.
type Graph struct {
	assets     map[string]model.Asset
	ids        []string
	edges      []model.Edge
	downstream map[string][]string
	upstream   map[string][]string
	order      []string
}

// New validates assets and edges and builds a Graph. It returns a
// *model.ConfigError for duplicate or empty asset ids, unknown edge
// endpoints, self-loops, duplicate edges, or cycles.
func New(assets []model.Asset, edges []model.Edge) (*Graph, error) {
	g := &Graph{
		assets:     make(map[string]model.Asset, len(assets)),
		ids:        make([]string, 0, len(assets)),
		edges:      make([]model.Edge, 0, len(edges)),
		downstream: make(map[string][]string, len(assets)),
		upstream:   make(map[string][]string, len(assets)),
	}

	for _, a := range assets {
		if a.ID == "" {
			return nil, model.NewConfigError("", "asset id must not be empty")
		}
		if _, dup := g.assets[a.ID]; dup {
			return nil, model.NewConfigError(a.ID, "duplicate asset id")
		}
		g.assets[a.ID] = a
		g.ids = append(g.ids, a.ID)
	}
	sort.Strings(g.ids)

	seen := make(map[[2]string]bool, len(edges))
	for _, e := range edges {
		if _, ok := g.assets[e.Source]; !ok {
			return nil, model.NewConfigError(e.Source, "edge references unknown source asset")
		}
		if _, ok := g.assets[e.Target]; !ok {
			return nil, model.NewConfigError(e.Target, "edge references unknown target asset")
		}
		if e.Source == e.Target {
			return nil, model.NewConfigError(e.Source, "self-loop edge")
		}
		key := [2]string{e.Source, e.Target}
		if seen[key] {
			return nil, model.NewConfigError(e.Source, "duplicate edge to "+e.Target)
		}
		seen[key] = true

		g.edges = append(g.edges, e)
		g.downstream[e.Source] = append(g.downstream[e.Source], e.Target)
		g.upstream[e.Target] = append(g.upstream[e.Target], e.Source)
	}
	for id := range g.downstream {
		sort.Strings(g.downstream[id])
	}
	for id := range g.upstream {
		sort.Strings(g.upstream[id])
	}

	order, err := Sort(g.ids, g.edges)
	if err != nil {
		return nil, err
	}
	g.order = order

	return g, nil
}

// Sort returns ids in topological order using Kahn's algorithm: for every
// edge u->v, u precedes v. Ready nodes are taken in ascending id order so the
// result is deterministic. A cycle yields a *model.ConfigError naming one of
// the assets left on it.
func Sort(ids []string, edges []model.Edge) ([]string, error) {
	inDegree := make(map[string]int, len(ids))
	for _, id := range ids {
		inDegree[id] = 0
	}
	out := make(map[string][]string, len(ids))
	for _, e := range edges {
		if _, ok := inDegree[e.Source]; !ok {
			return nil, model.NewConfigError(e.Source, "edge references unknown source asset")
		}
		if _, ok := inDegree[e.Target]; !ok {
			return nil, model.NewConfigError(e.Target, "edge references unknown target asset")
		}
		out[e.Source] = append(out[e.Source], e.Target)
		inDegree[e.Target]++
	}

	var ready []string
	for id, d := range inDegree {
		if d == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	sorted := make([]string, 0, len(inDegree))
	for len(ready) > 0 {
		current := ready[0]
		ready = ready[1:]
		sorted = append(sorted, current)

		var released []string
		for _, next := range out[current] {
			inDegree[next]--
			if inDegree[next] == 0 {
				released = append(released, next)
			}
		}
		if len(released) > 0 {
			ready = append(ready, released...)
			sort.Strings(ready)
		}
	}

	if len(sorted) != len(inDegree) {
		var stuck []string
		for id, d := range inDegree {
			if d > 0 {
				stuck = append(stuck, id)
			}
		}
		sort.Strings(stuck)
		return nil, model.NewConfigError(stuck[0], "cycle detected, topological order undefined")
	}
	return sorted, nil
}

// Order returns a copy of the cached topological order.
func (g *Graph) Order() ([]string, error) {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out, nil
}

// Downstream returns the ids of assets fed by id, sorted.
func (g *Graph) Downstream(id string) []string {
	return append([]string(nil), g.downstream[id]...)
}

// Upstream returns the ids of assets feeding id, sorted.
func (g *Graph) Upstream(id string) []string {
	return append([]string(nil), g.upstream[id]...)
}

// Sources returns the assets with no upstream edges, sorted.
func (g *Graph) Sources() []string {
	var out []string
	for _, id := range g.ids {
		if len(g.upstream[id]) == 0 {
			out = append(out, id)
		}
	}
	return out
}

// Asset looks up an asset by id.
func (g *Graph) Asset(id string) (model.Asset, bool) {
	a, ok := g.assets[id]
	return a, ok
}

// Assets returns all assets in ascending id order.
func (g *Graph) Assets() []model.Asset {
	out := make([]model.Asset, 0, len(g.ids))
	for _, id := range g.ids {
		out = append(out, g.assets[id])
	}
	return out
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []model.Edge {
	return append([]model.Edge(nil), g.edges...)
}

// Len returns the number of assets.
func (g *Graph) Len() int {
	return len(g.ids)
}
