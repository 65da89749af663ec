package ledger

import "container/heap"

// slotAllocator hands out ticket ids over [0, total) in ascending order with
// recycling of refunded slots. Refunded ids are always lower than the fresh
// cursor, so popping the min-heap first reproduces the ascending-then-recycled
// scan order of a linear sweep in O(log n).
type slotAllocator struct {
	total    uint32
	fresh    uint32 // next never-assigned id
	recycled uint32Heap
}

func newSlotAllocator(total uint32) *slotAllocator {
	return &slotAllocator{total: total}
}

// free reports how many ids are currently assignable.
func (a *slotAllocator) free() uint32 {
	return a.total - a.fresh + uint32(len(a.recycled))
}

// take returns the lowest assignable id, or false if none remain.
func (a *slotAllocator) take() (uint32, bool) {
	if len(a.recycled) > 0 {
		return heap.Pop(&a.recycled).(uint32), true
	}
	if a.fresh < a.total {
		id := a.fresh
		a.fresh++
		return id, true
	}
	return 0, false
}

// release makes a previously assigned id assignable again.
func (a *slotAllocator) release(id uint32) {
	heap.Push(&a.recycled, id)
}

type uint32Heap []uint32

func (h uint32Heap) Len() int            { return len(h) }
func (h uint32Heap) Less(i, j int) bool  { return h[i] < h[j] }
func (h uint32Heap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *uint32Heap) Push(x interface{}) { *h = append(*h, x.(uint32)) }
func (h *uint32Heap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
