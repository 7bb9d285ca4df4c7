package storage

// Subscribe registers fn for change notifications. Calling the returned
// function removes the subscription; it is safe to call more than once.
func (s *MemoryStore) Subscribe(fn func(Change)) func() {
	if fn == nil {
		return func() {}
	}
	s.subMu.Lock()
	if s.subs == nil {
		s.subs = make(map[int]func(Change))
	}
	s.nextID++
	id := s.nextID
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// publish runs outside the task lock so subscribers may read the store.
func (s *MemoryStore) publish(c Change) {
	s.subMu.Lock()
	fns := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		s.deliver(fn, c)
	}
}

func (s *MemoryStore) deliver(fn func(Change), c Change) {
	defer func() {
		if r := recover(); r != nil {
			s.logf("subscriber panic on %s %s: %v", c.Op, c.TaskID, r)
		}
	}()
	fn(c)
}
