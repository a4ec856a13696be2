package pathfind

import (
	"container/heap"
	"fmt"
)

// openNode - элемент фронтира
type openNode struct {
	cell int32
	f    int32
	h    int32
}

// frontier - двоичная куча открытых узлов.
// Порядок полный: f, затем h, затем индекс клетки, поэтому раскрытие
// узлов одинаково на всех участниках при одинаковой карте.
type frontier struct {
	nodes []openNode
	slot  []int32 // позиция клетки в nodes, -1 если клетки нет во фронтире
}

func newFrontier(cells int) *frontier {
	q := &frontier{
		nodes: make([]openNode, 0, 64),
		slot:  make([]int32, cells),
	}
	for i := range q.slot {
		q.slot[i] = -1
	}
	return q
}

func (q *frontier) Len() int { return len(q.nodes) }

func (q *frontier) Less(i, j int) bool {
	a, b := q.nodes[i], q.nodes[j]
	if a.f != b.f {
		return a.f < b.f
	}
	if a.h != b.h {
		return a.h < b.h
	}
	return a.cell < b.cell
}

func (q *frontier) Swap(i, j int) {
	q.nodes[i], q.nodes[j] = q.nodes[j], q.nodes[i]
	q.slot[q.nodes[i].cell] = int32(i)
	q.slot[q.nodes[j].cell] = int32(j)
}

func (q *frontier) Push(x any) {
	n := x.(openNode)
	q.slot[n.cell] = int32(len(q.nodes))
	q.nodes = append(q.nodes, n)
}

func (q *frontier) Pop() any {
	last := len(q.nodes) - 1
	n := q.nodes[last]
	q.nodes = q.nodes[:last]
	q.slot[n.cell] = -1
	return n
}

// set добавляет узел или обновляет приоритет уже открытого
func (q *frontier) set(n openNode) {
	if i := q.slot[n.cell]; i >= 0 {
		if q.nodes[i].cell != n.cell {
			panic(fmt.Sprintf("pathfind: фронтир повреждён: слот %d указывает на клетку %d вместо %d", i, q.nodes[i].cell, n.cell))
		}
		q.nodes[i] = n
		heap.Fix(q, int(i))
		return
	}
	heap.Push(q, n)
}

func (q *frontier) next() openNode {
	return heap.Pop(q).(openNode)
}
