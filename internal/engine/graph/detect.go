// # internal/engine/graph/detect.go
package graph

// DetectCycles returns every consumer cycle, each starting at the module
// encountered first in discovery order.
func (g *Graph) DetectCycles() [][]ModuleID {
	var cycles [][]ModuleID
	visited := make(map[ModuleID]bool)
	onStack := make(map[ModuleID]bool)

	for _, id := range g.modules {
		if !visited[id] {
			g.findCycles(id, visited, onStack, []ModuleID{}, &cycles)
		}
	}

	return cycles
}

func (g *Graph) findCycles(curr ModuleID, visited, onStack map[ModuleID]bool, path []ModuleID, cycles *[][]ModuleID) {
	visited[curr] = true
	onStack[curr] = true
	path = append(path, curr)

	for _, next := range g.consumers[curr] {
		if onStack[next] {
			cycleStart := -1
			for i, id := range path {
				if id == next {
					cycleStart = i
					break
				}
			}
			if cycleStart != -1 {
				cycle := make([]ModuleID, len(path)-cycleStart)
				copy(cycle, path[cycleStart:])
				*cycles = append(*cycles, cycle)
			}
		} else if !visited[next] {
			g.findCycles(next, visited, onStack, path, cycles)
		}
	}

	onStack[curr] = false
}

// BlockingChain walks the consumers of id breadth-first and returns the path
// from id to the first consumer that is not a candidate. The visited set
// keeps cyclic consumer chains finite.
func (g *Graph) BlockingChain(id ModuleID) ([]ModuleID, bool) {
	refs, recorded := g.consumers[id]
	if !recorded || len(refs) == 0 {
		return nil, false
	}

	queue := []ModuleID{id}
	visited := make(map[ModuleID]bool)
	prev := make(map[ModuleID]ModuleID)

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		for _, next := range g.consumers[curr] {
			if visited[next] {
				continue
			}
			visited[next] = true
			prev[next] = curr

			if !g.eligible[next] {
				path := []ModuleID{next}
				for node := next; node != id; {
					p := prev[node]
					path = append(path, p)
					node = p
				}
				for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
					path[i], path[j] = path[j], path[i]
				}
				return path, true
			}

			queue = append(queue, next)
		}
	}

	return nil, false
}
