package panels

import "sync"

// lines is a copy of list entries taken while the map view is locked, so
// fyne list callbacks never have to take that lock themselves.
type lines struct {
	mu    sync.Mutex
	items []string
}

func (l *lines) set(items []string) {
	l.mu.Lock()
	l.items = items
	l.mu.Unlock()
}

func (l *lines) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

func (l *lines) at(i int) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i < 0 || i >= len(l.items) {
		return ""
	}
	return l.items[i]
}
