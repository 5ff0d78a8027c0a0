package batch

// List is the set of staged files for one workflow invocation. It is owned
// by a single orchestrator instance and is not safe for concurrent use.
type List struct {
	items []*FileHandle
}

func NewList() *List {
	return &List{}
}

func (l *List) Len() int {
	return len(l.items)
}

// Items returns the staged handles in order. The returned slice is a copy;
// the handles are shared.
func (l *List) Items() []*FileHandle {
	out := make([]*FileHandle, len(l.items))
	copy(out, l.items)
	return out
}

func (l *List) Add(handles ...*FileHandle) {
	l.items = append(l.items, handles...)
}

// Remove releases and drops the handle at index i. Out-of-range indexes are
// ignored.
func (l *List) Remove(i int) {
	if i < 0 || i >= len(l.items) {
		return
	}
	l.items[i].Release()
	l.items = append(l.items[:i], l.items[i+1:]...)
}

// Move reorders the handle at index from to index to. Used before merge,
// where page order follows list order.
func (l *List) Move(from, to int) {
	if from < 0 || from >= len(l.items) || to < 0 || to >= len(l.items) || from == to {
		return
	}
	h := l.items[from]
	l.items = append(l.items[:from], l.items[from+1:]...)
	l.items = append(l.items[:to], append([]*FileHandle{h}, l.items[to:]...)...)
}

// Reset releases every staged handle and empties the list.
func (l *List) Reset() {
	for _, h := range l.items {
		h.Release()
	}
	l.items = nil
}
