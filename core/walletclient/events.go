package walletclient

import (
	"sync"
)

// eventStream fans an event out to its subscribers. Handlers run on the
// emitting goroutine, in no particular order.
type eventStream[T any] struct {
	mu       sync.RWMutex
	next     int
	handlers map[int]func(T)
}

func newEventStream[T any]() *eventStream[T] {
	return &eventStream[T]{handlers: make(map[int]func(T))}
}

func (s *eventStream[T]) subscribe(handler func(T)) func() {
	s.mu.Lock()
	id := s.next
	s.next++
	s.handlers[id] = handler
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.handlers, id)
			s.mu.Unlock()
		})
	}
}

func (s *eventStream[T]) emit(v T) {
	s.mu.RLock()
	handlers := make([]func(T), 0, len(s.handlers))
	for _, h := range s.handlers {
		handlers = append(handlers, h)
	}
	s.mu.RUnlock()

	for _, h := range handlers {
		h(v)
	}
}

func (s *eventStream[T]) clear() {
	s.mu.Lock()
	s.handlers = make(map[int]func(T))
	s.mu.Unlock()
}
