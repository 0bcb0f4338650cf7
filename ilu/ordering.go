package ilu

import "sort"

// Ordering maps a block pattern to an elimination permutation: perm[k] is
// the block row eliminated at step k. The factorization applies it
// symmetrically, so callers still see vectors in natural block order.
type Ordering func(p BlockPattern) (perm []int)

// NaturalOrdering eliminates block rows in their natural order. This is the
// default used when no ordering is supplied.
func NaturalOrdering(p BlockPattern) (perm []int) {
	perm = make([]int, p.N)
	for i := range perm {
		perm[i] = i
	}
	return
}

// RCMOrdering produces a reverse Cuthill-McKee permutation of the block
// graph. Narrower band keeps the incomplete factors closer to the exact
// ones, which usually buys outer-solver iterations on mesh-type matrices.
func RCMOrdering(p BlockPattern) (perm []int) {
	var (
		adj    = symmetrize(p)
		degree = make([]int, p.N)
		seen   = make([]bool, p.N)
	)
	for i := range adj {
		degree[i] = len(adj[i])
	}
	perm = make([]int, 0, p.N)
	for len(perm) < p.N {
		// Seed each component from a minimum-degree vertex.
		start := -1
		for i := 0; i < p.N; i++ {
			if !seen[i] && (start == -1 || degree[i] < degree[start]) {
				start = i
			}
		}
		seen[start] = true
		queue := []int{start}
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			perm = append(perm, v)
			var next []int
			for _, w := range adj[v] {
				if !seen[w] {
					seen[w] = true
					next = append(next, w)
				}
			}
			sort.Slice(next, func(a, b int) bool {
				if degree[next[a]] != degree[next[b]] {
					return degree[next[a]] < degree[next[b]]
				}
				return next[a] < next[b]
			})
			queue = append(queue, next...)
		}
	}
	// Reverse for RCM proper.
	for i, j := 0, len(perm)-1; i < j; i, j = i+1, j-1 {
		perm[i], perm[j] = perm[j], perm[i]
	}
	return
}

// symmetrize builds undirected adjacency lists from the block pattern,
// excluding the diagonal.
func symmetrize(p BlockPattern) (adj [][]int) {
	adj = make([][]int, p.N)
	seen := make(map[[2]int]struct{}, len(p.JB))
	add := func(i, j int) {
		if i == j {
			return
		}
		if _, ok := seen[[2]int{i, j}]; ok {
			return
		}
		seen[[2]int{i, j}] = struct{}{}
		adj[i] = append(adj[i], j)
	}
	for i := 0; i < p.N; i++ {
		for jj := p.IB[i]; jj < p.IB[i+1]; jj++ {
			j := p.JB[jj]
			add(i, j)
			add(j, i)
		}
	}
	for i := range adj {
		sort.Ints(adj[i])
	}
	return
}
