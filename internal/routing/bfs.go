package routing

// Breadth-first fallback search. Used when graph construction failed
// or the primary search produced no validated routes. Tightly bounded
// for performance: at most 10 nearest-by-line-position candidates per
// step and at most 3 results.

const (
	bfsMaxResults       = 3
	bfsMaxIndexDistance = 10
	bfsMaxStates        = 20000
)

// bfsState is a search state; dedup is keyed by (station, changes, line)
type bfsState struct {
	station string
	path    []string
	changes int
	line    string
}

type bfsKey struct {
	station string
	changes int
	line    string
}

// breadthFirstSearch explores same-line adjacency first (immediate
// neighbours, then same-line stations within a bounded index
// distance), then interchange transfers to other lines serving the
// current station. Works from repository line sequences only, so it
// stays available when the network could not be built.
func (p *Planner) breadthFirstSearch(from, to string, opts SearchOptions) [][]string {
	sequences := p.repo.LineStationCodes()
	if len(sequences) == 0 {
		return nil
	}

	var queue []bfsState
	visited := make(map[bfsKey]bool)

	for _, line := range p.repo.LinesServing(from) {
		state := bfsState{station: from, path: []string{from}, line: line}
		queue = append(queue, state)
		visited[bfsKey{station: from, line: line}] = true
	}
	if len(queue) == 0 {
		return nil
	}

	var results [][]string
	explored := 0

	for len(queue) > 0 && len(results) < bfsMaxResults {
		if explored > bfsMaxStates {
			break
		}
		current := queue[0]
		queue = queue[1:]
		explored++

		if current.station == to {
			results = append(results, current.path)
			continue
		}

		// Same-line moves: nearest positions first, bounded.
		for _, next := range nearestOnLine(sequences[current.line], current.station, bfsMaxIndexDistance) {
			if containsString(current.path, next) {
				continue
			}
			key := bfsKey{station: next, changes: current.changes, line: current.line}
			if visited[key] {
				continue
			}
			visited[key] = true
			queue = append(queue, bfsState{
				station: next,
				path:    appendPath(current.path, next),
				changes: current.changes,
				line:    current.line,
			})
		}

		// Interchange transfers: continue from the same station on
		// any other line serving it.
		if current.changes+1 > opts.MaxChanges {
			continue
		}
		for _, other := range p.repo.LinesServing(current.station) {
			if other == current.line {
				continue
			}
			for _, next := range nearestOnLine(sequences[other], current.station, bfsMaxIndexDistance) {
				if containsString(current.path, next) {
					continue
				}
				key := bfsKey{station: next, changes: current.changes + 1, line: other}
				if visited[key] {
					continue
				}
				visited[key] = true
				queue = append(queue, bfsState{
					station: next,
					path:    appendPath(current.path, next),
					changes: current.changes + 1,
					line:    other,
				})
			}
		}
	}

	return results
}

// nearestOnLine returns up to limit station codes around the given
// station in its line sequence, ordered by index distance with the
// immediate neighbours first
func nearestOnLine(sequence []string, station string, limit int) []string {
	idx := -1
	for i, code := range sequence {
		if code == station {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	var out []string
	for offset := 1; offset <= bfsMaxIndexDistance && len(out) < limit; offset++ {
		if i := idx + offset; i < len(sequence) {
			out = append(out, sequence[i])
		}
		if len(out) >= limit {
			break
		}
		if i := idx - offset; i >= 0 {
			out = append(out, sequence[i])
		}
	}
	return out
}

func appendPath(path []string, next string) []string {
	out := make([]string, len(path)+1)
	copy(out, path)
	out[len(path)] = next
	return out
}
