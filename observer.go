package goAccess

import "slices"

// Subscribe registers fn to be called after every session transition. fn
// runs on the goroutine that made the transition, which is the idle
// timer's goroutine for idle logouts, so it must not block or call back
// into blocking Manager operations. The returned function unsubscribes.
func (m *Manager) Subscribe(fn func(Event)) (cancel func()) {
	m.obsMu.Lock()
	defer m.obsMu.Unlock()

	if m.observers == nil {
		m.observers = make(map[int]func(Event))
	}
	id := m.obsNext
	m.obsNext++
	m.observers[id] = fn

	return func() {
		m.obsMu.Lock()
		defer m.obsMu.Unlock()
		delete(m.observers, id)
	}
}

func (m *Manager) notify(e Event) {
	m.obsMu.Lock()
	if len(m.observers) == 0 {
		m.obsMu.Unlock()
		return
	}
	ids := make([]int, 0, len(m.observers))
	for id := range m.observers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, m.observers[id])
	}
	m.obsMu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}
