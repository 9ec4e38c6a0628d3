package lockfile

import "sort"

// InstallOrder returns the tool names in topological order over the
// `[dependencies]` adjacency table (dependencies before dependents), per
// spec.md §4.4: "topological sort of [dependencies]; fallback to
// tool-name order on cycles (cycles in the lock are treated as a
// corrupted file)."
func (lf *LockFile) InstallOrder() []string {
	names := lf.names()

	inDegree := make(map[string]int, len(names))
	reverse := make(map[string][]string, len(names))
	known := make(map[string]struct{}, len(names))
	for _, n := range names {
		known[n] = struct{}{}
		inDegree[n] = 0
	}
	for name, deps := range lf.Dependencies {
		if _, ok := known[name]; !ok {
			continue
		}
		for _, dep := range deps {
			if _, ok := known[dep]; !ok {
				continue
			}
			inDegree[name]++
			reverse[dep] = append(reverse[dep], name)
		}
	}

	queue := make([]string, 0, len(names))
	for _, n := range names {
		if inDegree[n] == 0 {
			queue = append(queue, n)
		}
	}
	sort.Strings(queue)

	var order []string
	for len(queue) > 0 {
		sort.Strings(queue)
		n := queue[0]
		queue = queue[1:]
		order = append(order, n)

		dependents := append([]string(nil), reverse[n]...)
		sort.Strings(dependents)
		for _, dependent := range dependents {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(order) != len(names) {
		// A cycle in [dependencies] means the lock file is corrupted;
		// fall back to plain tool-name order rather than failing sync.
		return names
	}
	return order
}
