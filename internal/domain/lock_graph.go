package domain

import "fmt"

// LockGraph is the directed acyclic "definitely precedes" relation built by
// Ranked Pairs. It stores the transitive closure of the locked edges, so
// Reaches is a constant-time lookup and a cycle check before each lock is
// a single query.
type LockGraph struct {
	nodes []Candidate
	index map[Candidate]int
	// reach[i][j] is true when nodes[i] precedes nodes[j].
	reach [][]bool
	// direct records the margin of each explicitly locked edge.
	direct map[Pair]int64
}

// NewLockGraph creates an empty lock graph over candidates.
func NewLockGraph(candidates []Candidate) *LockGraph {
	n := len(candidates)
	index := make(map[Candidate]int, n)
	reach := make([][]bool, n)
	for i, c := range candidates {
		index[c] = i
		reach[i] = make([]bool, n)
	}
	return &LockGraph{
		nodes:  append([]Candidate(nil), candidates...),
		index:  index,
		reach:  reach,
		direct: make(map[Pair]int64),
	}
}

// Reaches reports whether a precedes b through locked edges.
func (g *LockGraph) Reaches(a, b Candidate) bool {
	i, okA := g.index[a]
	j, okB := g.index[b]
	return okA && okB && g.reach[i][j]
}

// Lock adds the edge a -> b unless it would create a cycle. It returns
// false when b already precedes a (or a == b), leaving the graph unchanged.
// After a successful lock every node that precedes a, and a itself, also
// precedes b and everything b precedes.
func (g *LockGraph) Lock(a, b Candidate, margin int64) (bool, error) {
	i, okA := g.index[a]
	if !okA {
		return false, fmt.Errorf("source node %s does not exist", a)
	}
	j, okB := g.index[b]
	if !okB {
		return false, fmt.Errorf("target node %s does not exist", b)
	}
	if i == j || g.reach[j][i] {
		return false, nil
	}

	g.direct[Pair{A: a, B: b}] = margin

	for u := range g.nodes {
		if u != i && !g.reach[u][i] {
			continue
		}
		g.reach[u][j] = true
		for v := range g.nodes {
			if g.reach[j][v] {
				g.reach[u][v] = true
			}
		}
	}
	return true, nil
}

// Locked returns the margin of an explicitly locked edge.
func (g *LockGraph) Locked(a, b Candidate) (int64, bool) {
	m, ok := g.direct[Pair{A: a, B: b}]
	return m, ok
}

// OutDegree returns how many candidates c precedes.
func (g *LockGraph) OutDegree(c Candidate) int {
	i, ok := g.index[c]
	if !ok {
		return 0
	}
	n := 0
	for _, r := range g.reach[i] {
		if r {
			n++
		}
	}
	return n
}

// Sources returns the candidates that precede every other candidate, in
// node order. A correctly built lock graph over a complete tournament has
// exactly one.
func (g *LockGraph) Sources() []Candidate {
	var out []Candidate
	for _, c := range g.nodes {
		if g.OutDegree(c) == len(g.nodes)-1 {
			out = append(out, c)
		}
	}
	return out
}
