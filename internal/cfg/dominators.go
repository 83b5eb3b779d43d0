package cfg

// computeDominance runs the standard iterative dominator algorithm over c,
// then classifies every edge whose target dominates its source as a back
// edge and marks that target as a loop header.
func computeDominance(c *CFG) {
	allIDs := c.Order
	all := make(map[int]bool, len(allIDs))
	for _, id := range allIDs {
		all[id] = true
	}

	dom := make(map[int]map[int]bool, len(allIDs))
	for _, id := range allIDs {
		if id == c.Entry {
			dom[id] = map[int]bool{c.Entry: true}
		} else {
			dom[id] = cloneSet(all)
		}
	}

	changed := true
	for changed {
		changed = false
		for _, id := range allIDs {
			if id == c.Entry {
				continue
			}
			blk := c.Blocks[id]
			if len(blk.Preds) == 0 {
				continue
			}
			var newSet map[int]bool
			for _, p := range blk.Preds {
				if newSet == nil {
					newSet = cloneSet(dom[p])
				} else {
					newSet = intersect(newSet, dom[p])
				}
			}
			newSet[id] = true
			if !setsEqual(newSet, dom[id]) {
				dom[id] = newSet
				changed = true
			}
		}
	}

	for _, id := range allIDs {
		blk := c.Blocks[id]
		for _, e := range blk.Succs {
			if dom[id][e.To] {
				c.BackEdges[e] = true
				c.LoopHeaders[e.To] = true
				c.Blocks[e.To].IsLoopHeader = true
			}
		}
	}
}

func cloneSet(s map[int]bool) map[int]bool {
	out := make(map[int]bool, len(s))
	for k := range s {
		out[k] = true
	}
	return out
}

func intersect(a, b map[int]bool) map[int]bool {
	out := make(map[int]bool)
	for k := range a {
		if b[k] {
			out[k] = true
		}
	}
	return out
}

func setsEqual(a, b map[int]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}
