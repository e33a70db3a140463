package engine

// Event fans a value out to its listeners in subscription order.
type Event[T any] struct {
	listeners []listener[T]
	nextID    int
}

type listener[T any] struct {
	id int
	fn func(T)
}

// AddListener subscribes fn and returns a func that unsubscribes it.
func (e *Event[T]) AddListener(fn func(T)) (remove func()) {
	if fn == nil {
		return func() {}
	}
	e.nextID++
	id := e.nextID
	e.listeners = append(e.listeners, listener[T]{id: id, fn: fn})
	return func() {
		for i, l := range e.listeners {
			if l.id == id {
				e.listeners = append(e.listeners[:i:i], e.listeners[i+1:]...)
				return
			}
		}
	}
}

func (e *Event[T]) RemoveAllListeners() {
	e.listeners = nil
}

// Invoke calls the listeners subscribed at the time of the call.
func (e *Event[T]) Invoke(v T) {
	for _, l := range e.listeners {
		l.fn(v)
	}
}

func (e *Event[T]) ListenerCount() int {
	return len(e.listeners)
}
