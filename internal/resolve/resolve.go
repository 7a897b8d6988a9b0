// Package resolve links the Ref placeholders of a finished registry to the
// names they point at. It reports dangling references, finds reference
// cycles and computes a dependency-first emission order.
package resolve

import (
	"cmp"
	"slices"

	"github.com/dominikbraun/graph"

	"github.com/mvp-joe/typelink/internal/errors"
	"github.com/mvp-joe/typelink/internal/nature"
)

// Unresolved is a reference to a name missing from the registry.
type Unresolved struct {
	From string `json:"from"`
	Ref  string `json:"ref"`
}

// Report is the outcome of resolving one registry.
type Report struct {
	// Unresolved lists every dangling reference once, sorted by From then Ref.
	Unresolved []Unresolved `json:"unresolved,omitempty"`
	// Cycles holds groups of names that reference each other, directly or
	// through others. A type referring to itself is a cycle of one.
	Cycles [][]string `json:"cycles,omitempty"`
	// Order lists every registered name so that dependencies come before
	// their dependents. Members of a cycle are adjacent, sorted by name.
	Order []string `json:"order"`
}

// OK reports whether every reference resolved.
func (r *Report) OK() bool {
	return len(r.Unresolved) == 0
}

// Graph is the reference graph of a registry. An edge A -> B means A refers
// to B.
type Graph struct {
	g          graph.Graph[string, string]
	unresolved []Unresolved
	selfLoops  map[string]bool
}

// Build indexes every registered name and the refs beneath it. Ref("Self")
// is never an edge: it always means the enclosing type.
func Build(natures *nature.Natures) (*Graph, error) {
	rg := &Graph{
		g:         graph.New(graph.StringHash, graph.Directed()),
		selfLoops: make(map[string]bool),
	}

	names := natures.Names()
	for _, name := range names {
		if err := rg.g.AddVertex(name); err != nil {
			return nil, errors.Wrapf(err, "failed to add %s", name)
		}
	}

	for _, name := range names {
		n, _ := natures.Get(name)
		seen := make(map[string]bool)
		for _, ref := range nature.Refs(n) {
			if ref == string(nature.SelfRef) || seen[ref] {
				continue
			}
			seen[ref] = true

			switch {
			case !natures.Contains(ref):
				rg.unresolved = append(rg.unresolved, Unresolved{From: name, Ref: ref})
			case ref == name:
				rg.selfLoops[name] = true
			default:
				if err := rg.g.AddEdge(name, ref); err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
					return nil, errors.Wrapf(err, "failed to link %s to %s", name, ref)
				}
			}
		}
	}

	slices.SortFunc(rg.unresolved, func(a, b Unresolved) int {
		return cmp.Or(cmp.Compare(a.From, b.From), cmp.Compare(a.Ref, b.Ref))
	})
	return rg, nil
}

// Resolve builds the reference graph of natures and reports on it.
func Resolve(natures *nature.Natures) (*Report, error) {
	rg, err := Build(natures)
	if err != nil {
		return nil, err
	}
	return rg.Report()
}

// Report computes cycles and the emission order.
func (rg *Graph) Report() (*Report, error) {
	components, err := graph.StronglyConnectedComponents(rg.g)
	if err != nil {
		return nil, errors.Wrap(err, "failed to compute strongly connected components")
	}
	for _, c := range components {
		slices.Sort(c)
	}
	// Components are keyed by their smallest member.
	slices.SortFunc(components, func(a, b []string) int { return cmp.Compare(a[0], b[0]) })

	report := &Report{Unresolved: rg.unresolved}
	for _, c := range components {
		if len(c) > 1 || rg.selfLoops[c[0]] {
			report.Cycles = append(report.Cycles, c)
		}
	}

	order, err := rg.emissionOrder(components)
	if err != nil {
		return nil, err
	}
	report.Order = order
	return report, nil
}

// emissionOrder sorts the condensation of the graph, which is acyclic, and
// expands every component in place.
func (rg *Graph) emissionOrder(components [][]string) ([]string, error) {
	owner := make(map[string]string)
	members := make(map[string][]string)
	for _, c := range components {
		members[c[0]] = c
		for _, name := range c {
			owner[name] = c[0]
		}
	}

	dag := graph.New(graph.StringHash, graph.Directed(), graph.Acyclic())
	for key := range members {
		if err := dag.AddVertex(key); err != nil {
			return nil, errors.Wrapf(err, "failed to add component %s", key)
		}
	}

	edges, err := rg.g.Edges()
	if err != nil {
		return nil, errors.Wrap(err, "failed to list edges")
	}
	for _, e := range edges {
		from, to := owner[e.Source], owner[e.Target]
		if from == to {
			continue
		}
		// Dependency first: the referenced component points at the referrer.
		if err := dag.AddEdge(to, from); err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
			return nil, errors.Wrapf(err, "failed to order %s before %s", to, from)
		}
	}

	sorted, err := graph.StableTopologicalSort(dag, func(a, b string) bool { return a < b })
	if err != nil {
		return nil, errors.Wrap(err, "failed to sort components")
	}

	order := make([]string, 0, len(owner))
	for _, key := range sorted {
		order = append(order, members[key]...)
	}
	return order, nil
}

// Dependencies returns the registered names that name refers to, sorted.
func (rg *Graph) Dependencies(name string) ([]string, error) {
	adjacency, err := rg.g.AdjacencyMap()
	if err != nil {
		return nil, err
	}
	out, ok := adjacency[name]
	if !ok {
		return nil, errors.Wrapf(graph.ErrVertexNotFound, "%s", name)
	}
	return sortedKeys(out, name, rg.selfLoops[name]), nil
}

// Dependents returns the registered names that refer to name, sorted.
func (rg *Graph) Dependents(name string) ([]string, error) {
	predecessors, err := rg.g.PredecessorMap()
	if err != nil {
		return nil, err
	}
	in, ok := predecessors[name]
	if !ok {
		return nil, errors.Wrapf(graph.ErrVertexNotFound, "%s", name)
	}
	return sortedKeys(in, name, rg.selfLoops[name]), nil
}

func sortedKeys(m map[string]graph.Edge[string], self string, selfLoop bool) []string {
	keys := make([]string, 0, len(m)+1)
	for k := range m {
		keys = append(keys, k)
	}
	if selfLoop {
		keys = append(keys, self)
	}
	slices.Sort(keys)
	return keys
}
