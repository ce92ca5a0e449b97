package voronoi

import (
	"container/heap"
	"math"

	vec3 "github.com/flywave/go3d/float64/vec3"

	"github.com/chazu/voronoimaker/pkg/mesh"
)

// shortestPaths runs Dijkstra over the vertex adjacency graph from src with
// Euclidean edge lengths, approximating geodesic distance along the
// surface. Distances accumulate in double precision.
func shortestPaths(m *mesh.Mesh, src int) []float64 {
	dist := make([]float64, m.VertexCount())
	for i := range dist {
		dist[i] = math.Inf(1)
	}
	dist[src] = 0

	visited := make([]bool, m.VertexCount())
	pq := &vertexPQ{{vertex: src, dist: 0}}
	heap.Init(pq)

	adjacency := m.Adjacency()
	for pq.Len() > 0 {
		u := heap.Pop(pq).(vertexItem)
		if visited[u.vertex] {
			continue
		}
		visited[u.vertex] = true

		pu := m.Vertex(u.vertex)
		for _, v := range adjacency[u.vertex] {
			if visited[v] {
				continue
			}
			pv := m.Vertex(v)
			e := vec3.Sub(&pv, &pu)
			nd := u.dist + e.Length()
			if nd < dist[v] {
				dist[v] = nd
				heap.Push(pq, vertexItem{vertex: v, dist: nd})
			}
		}
	}
	return dist
}

// vertexItem is a priority queue entry.
type vertexItem struct {
	vertex int
	dist   float64
}

// vertexPQ implements heap.Interface as a min-heap on distance.
type vertexPQ []vertexItem

func (pq vertexPQ) Len() int            { return len(pq) }
func (pq vertexPQ) Less(i, j int) bool  { return pq[i].dist < pq[j].dist }
func (pq vertexPQ) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *vertexPQ) Push(x interface{}) { *pq = append(*pq, x.(vertexItem)) }
func (pq *vertexPQ) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}
