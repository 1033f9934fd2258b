package graph

// Path is a directed walk through the graph, as edge indices in order.
type Path []int

const (
	// DefaultPathLimit caps the paths returned when the caller passes a
	// non-positive limit.
	DefaultPathLimit = 4096
	// DefaultPathSteps caps the dots expanded by one enumeration, whether or
	// not they lead to the target.
	DefaultPathSteps = 1 << 20
)

// Reachable lists every dot connected to src, src included, ignoring edge
// direction.
func (g *Graph) Reachable(src int) []int {
	visited := make([]bool, len(g.Dots))
	var out []int
	stack := []int{src}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		out = append(out, cur)
		for _, ei := range g.incident[cur] {
			if next := g.Other(ei, cur); !visited[next] {
				stack = append(stack, next)
			}
		}
	}
	return out
}

// ShortestDistances relaxes wire lengths outward from src with a FIFO
// frontier, ignoring edge direction. The tentative distances are kept in
// Dot.Distance while running; the result is also returned as a slice indexed
// by dot. Unreachable dots report Unreached.
func (g *Graph) ShortestDistances(src int) []int {
	for i := range g.Dots {
		g.Dots[i].Distance = Unreached
	}
	g.Dots[src].Distance = 0
	frontier := []int{src}
	for len(frontier) > 0 {
		cur := frontier[0]
		frontier = frontier[1:]
		base := g.Dots[cur].Distance
		for _, ei := range g.incident[cur] {
			next := g.Other(ei, cur)
			if d := base + g.Edges[ei].Length; d < g.Dots[next].Distance {
				g.Dots[next].Distance = d
				frontier = append(frontier, next)
			}
		}
	}
	out := make([]int, len(g.Dots))
	for i, d := range g.Dots {
		out[i] = d.Distance
	}
	return out
}

func (g *Graph) Distance(src, dst int) int {
	return g.ShortestDistances(src)[dst]
}

// Paths enumerates directed paths from src to dst that only cross edges from
// their recorded start to their recorded end, whatever their Direction tag;
// interpreting the tag is left to the caller. A path never visits a dot twice,
// so directed cycles cannot make the enumeration unbounded. At most limit
// paths are returned and at most DefaultPathSteps dots are expanded;
// truncated reports whether more may exist.
func (g *Graph) Paths(src, dst, limit int) (paths []Path, truncated bool) {
	return g.PathsWithin(src, dst, limit, DefaultPathSteps)
}

// PathsWithin is Paths with an explicit expansion budget. Every dot entered
// by the search costs one step, including dead ends, so the work stays
// bounded even when no path exists.
func (g *Graph) PathsWithin(src, dst, limit, steps int) (paths []Path, truncated bool) {
	if limit <= 0 {
		limit = DefaultPathLimit
	}
	if steps <= 0 {
		steps = DefaultPathSteps
	}
	if src == dst {
		return []Path{{}}, false
	}
	onPath := make([]bool, len(g.Dots))
	var walk []int

	var visit func(cur int) bool
	visit = func(cur int) bool {
		if steps == 0 {
			truncated = true
			return false
		}
		steps--
		if cur == dst {
			if len(paths) >= limit {
				truncated = true
				return false
			}
			paths = append(paths, append(Path(nil), walk...))
			return true
		}
		onPath[cur] = true
		defer func() { onPath[cur] = false }()
		for _, ei := range g.incident[cur] {
			e := g.Edges[ei]
			if e.Start != cur || onPath[e.End] {
				continue
			}
			walk = append(walk, ei)
			more := visit(e.End)
			walk = walk[:len(walk)-1]
			if !more {
				return false
			}
		}
		return true
	}
	visit(src)
	return paths, truncated
}
