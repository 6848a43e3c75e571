package executor

import (
	"container/heap"

	"aurora/internal/ncs"
	"aurora/internal/value"
)

// queuedAction is one DelayCommand waiting on the clock: the captured
// continuation plus the program it replays against. seq breaks ties so
// same-instant actions replay in the order they were queued.
type queuedAction struct {
	due    float32
	seq    uint64
	target value.ObjectID
	prog   *ncs.Program
	act    value.Action
}

// actionQueue is a min-heap on (due, seq).
type actionQueue []*queuedAction

func (q actionQueue) Len() int { return len(q) }

func (q actionQueue) Less(i, j int) bool {
	if q[i].due != q[j].due {
		return q[i].due < q[j].due
	}
	return q[i].seq < q[j].seq
}

func (q actionQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *actionQueue) Push(v any) { *q = append(*q, v.(*queuedAction)) }

func (q *actionQueue) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return it
}

// dropEntity removes every queued action targeting id and restores the
// heap order over what remains.
func (q *actionQueue) dropEntity(id value.ObjectID) {
	kept := (*q)[:0]
	for _, it := range *q {
		if it.target != id {
			kept = append(kept, it)
		}
	}
	for i := len(kept); i < len(*q); i++ {
		(*q)[i] = nil
	}
	*q = kept
	heap.Init(q)
}
