package planner

// node is one entry in the open set. seq records insertion order so that ties
// on fCost pop deterministically for a fixed grid and insertion order.
type node struct {
	row, col int
	gCost    float64
	fCost    float64
	seq      int
	index    int
}

type frontier []*node

func (f frontier) Len() int { return len(f) }

func (f frontier) Less(i, j int) bool {
	if f[i].fCost != f[j].fCost {
		return f[i].fCost < f[j].fCost
	}
	return f[i].seq < f[j].seq
}

func (f frontier) Swap(i, j int) {
	f[i], f[j] = f[j], f[i]
	f[i].index = i
	f[j].index = j
}

func (f *frontier) Push(x any) {
	n := x.(*node)
	n.index = len(*f)
	*f = append(*f, n)
}

func (f *frontier) Pop() any {
	old := *f
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*f = old[:n-1]
	return item
}
