package graph

import "github.com/sunholo/apexpr/internal/errors"

// Center picks the graph-center of the nodes connected to start: the node
// minimizing shortest-path eccentricity, restricted to nodes accepted by
// keep. Ties break toward the smallest node id, so anchor selection is
// deterministic.
func Center(start *Node, keep func(*Node) bool) (*Node, error) {
	nodes := reachable(start)
	var best *Node
	bestEcc := -1
	for _, n := range nodes {
		if keep != nil && !keep(n) {
			continue
		}
		ecc := eccentricity(n)
		if best == nil || ecc < bestEcc || (ecc == bestEcc && n.id < best.id) {
			best = n
			bestEcc = ecc
		}
	}
	if best == nil {
		return nil, errors.Valuef("no anchor candidate in pattern graph")
	}
	return best, nil
}

// eccentricity is the longest shortest path from n, treating edges as
// undirected.
func eccentricity(n *Node) int {
	dist := map[*Node]int{n: 0}
	queue := []*Node{n}
	max := 0
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, nb := range append(append([]*Node{}, cur.upstream...), cur.downstream...) {
			if _, ok := dist[nb]; ok {
				continue
			}
			dist[nb] = dist[cur] + 1
			if dist[nb] > max {
				max = dist[nb]
			}
			queue = append(queue, nb)
		}
	}
	return max
}
