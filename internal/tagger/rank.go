package tagger

import (
	"math"
	"sort"
)

// textRank scores terms by damped rank propagation over an undirected
// co-occurrence graph. Two terms are linked when they appear within window
// positions of each other; the edge weight is the number of such pairs.
func textRank(seq []string, window int, damping float64, maxIter int, tol float64) map[string]float64 {
	if len(seq) == 0 {
		return nil
	}
	if window < 2 {
		window = 2
	}

	index := make(map[string]int)
	var nodes []string
	for _, term := range seq {
		if _, ok := index[term]; !ok {
			index[term] = 0
			nodes = append(nodes, term)
		}
	}
	sort.Strings(nodes)
	for i, term := range nodes {
		index[term] = i
	}

	n := len(nodes)
	weights := make([]map[int]float64, n)
	for i := range weights {
		weights[i] = make(map[int]float64)
	}
	for i := range seq {
		a := index[seq[i]]
		for j := i + 1; j < len(seq) && j < i+window; j++ {
			b := index[seq[j]]
			if a == b {
				continue
			}
			weights[a][b]++
			weights[b][a]++
		}
	}

	// Neighbour lists in index order keep float summation deterministic.
	neighbours := make([][]int, n)
	outSum := make([]float64, n)
	for v := range n {
		for u, w := range weights[v] {
			neighbours[v] = append(neighbours[v], u)
			outSum[v] += w
		}
		sort.Ints(neighbours[v])
	}

	score := make([]float64, n)
	for i := range score {
		score[i] = 1
	}
	next := make([]float64, n)
	for range maxIter {
		delta := 0.0
		for v := range n {
			sum := 0.0
			for _, u := range neighbours[v] {
				sum += weights[u][v] / outSum[u] * score[u]
			}
			next[v] = (1 - damping) + damping*sum
			delta = math.Max(delta, math.Abs(next[v]-score[v]))
		}
		score, next = next, score
		if delta < tol {
			break
		}
	}

	out := make(map[string]float64, n)
	for i, term := range nodes {
		out[term] = score[i]
	}
	return out
}
