package scheduler

import "time"

// ExpiryTask is one pending expiry reminder. At most one task exists per
// product at any time; Update replaces, Remove deletes, and a fired task
// is gone for good (the scheduler never retries a send).
type ExpiryTask struct {
	ProductID   int64     `json:"product_id"`
	ProductName string    `json:"product_name"`
	ExpiryDate  time.Time `json:"expiry_date"`
	Trigger     time.Time `json:"trigger"`

	index int // heap bookkeeping
}

// taskHeap is a min-heap of tasks ordered by trigger time, implemented
// for container/heap.
type taskHeap []*ExpiryTask

func (h taskHeap) Len() int           { return len(h) }
func (h taskHeap) Less(i, j int) bool { return h[i].Trigger.Before(h[j].Trigger) }

func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *taskHeap) Push(x any) {
	t := x.(*ExpiryTask)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}
