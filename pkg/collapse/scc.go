package collapse

// Components computes the strongly connected components of a directed graph
// given by a node list and an adjacency function. Components are returned as
// slices of node IDs; singleton nodes form their own component.
//
// The implementation is Tarjan's algorithm with an explicit stack instead of
// recursion, so deep delegation chains cannot overflow the goroutine stack.
// Given a deterministic node order and adjacency function, the output order
// is deterministic (reverse topological order of the condensation).
func Components(ids []string, out func(string) []string) [][]string {
	type frame struct {
		id   string
		next int // index of the next neighbor to visit
	}

	const unvisited = -1
	index := make(map[string]int, len(ids))
	lowlink := make(map[string]int, len(ids))
	onStack := make(map[string]bool, len(ids))
	for _, id := range ids {
		index[id] = unvisited
	}

	var (
		counter int
		stack   []string
		comps   [][]string
	)

	for _, root := range ids {
		if index[root] != unvisited {
			continue
		}

		work := []frame{{id: root}}
		for len(work) > 0 {
			f := &work[len(work)-1]

			if f.next == 0 {
				index[f.id] = counter
				lowlink[f.id] = counter
				counter++
				stack = append(stack, f.id)
				onStack[f.id] = true
			}

			neighbors := out(f.id)
			advanced := false
			for f.next < len(neighbors) {
				n := neighbors[f.next]
				f.next++
				if index[n] == unvisited {
					work = append(work, frame{id: n})
					advanced = true
					break
				}
				if onStack[n] && index[n] < lowlink[f.id] {
					lowlink[f.id] = index[n]
				}
			}
			if advanced {
				continue
			}

			// All neighbors done: pop the frame, fold lowlink into the parent.
			if lowlink[f.id] == index[f.id] {
				var comp []string
				for {
					top := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[top] = false
					comp = append(comp, top)
					if top == f.id {
						break
					}
				}
				comps = append(comps, comp)
			}
			done := f.id
			work = work[:len(work)-1]
			if len(work) > 0 {
				parent := &work[len(work)-1]
				if lowlink[done] < lowlink[parent.id] {
					lowlink[parent.id] = lowlink[done]
				}
			}
		}
	}

	return comps
}
