package events

import "sync"

// Subscription is a handle returned by Source.Subscribe.
// Unsubscribe may be called any number of times.
type Subscription interface {
	Unsubscribe()
}

// Source delivers notifications (scroll, resize) to subscribed handlers.
type Source interface {
	Subscribe(fn func()) Subscription
}

// Scheduler defers work to the next display refresh.
type Scheduler interface {
	Schedule(fn func())
}

// Emitter is an in-memory Source. Handlers run synchronously inside Emit,
// in subscription order.
type Emitter struct {
	mu       sync.Mutex
	next     int
	order    []int
	handlers map[int]func()
}

func NewEmitter() *Emitter {
	return &Emitter{handlers: make(map[int]func())}
}

func (e *Emitter) Subscribe(fn func()) Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.handlers == nil {
		e.handlers = make(map[int]func())
	}
	id := e.next
	e.next++
	e.handlers[id] = fn
	e.order = append(e.order, id)
	return &subscription{emitter: e, id: id}
}

// Emit notifies every current subscriber.
func (e *Emitter) Emit() {
	e.mu.Lock()
	fns := make([]func(), 0, len(e.order))
	for _, id := range e.order {
		if fn, ok := e.handlers[id]; ok {
			fns = append(fns, fn)
		}
	}
	e.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Len returns the number of active subscriptions.
func (e *Emitter) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.handlers)
}

func (e *Emitter) remove(id int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.handlers[id]; !ok {
		return
	}
	delete(e.handlers, id)
	for i, v := range e.order {
		if v == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
}

type subscription struct {
	emitter *Emitter
	id      int
	once    sync.Once
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		s.emitter.remove(s.id)
	})
}

// Immediate runs scheduled work synchronously.
type Immediate struct{}

func (Immediate) Schedule(fn func()) {
	if fn != nil {
		fn()
	}
}

// FrameQueue is a Scheduler driven by explicit Flush calls, one per
// display refresh. Callbacks scheduled while a flush is running are
// deferred to the next flush.
type FrameQueue struct {
	mu      sync.Mutex
	pending []func()
}

func NewFrameQueue() *FrameQueue {
	return &FrameQueue{}
}

func (q *FrameQueue) Schedule(fn func()) {
	if fn == nil {
		return
	}
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	q.mu.Unlock()
}

// Flush runs the callbacks queued so far and returns how many ran.
func (q *FrameQueue) Flush() int {
	q.mu.Lock()
	batch := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, fn := range batch {
		fn()
	}
	return len(batch)
}

// Pending returns the number of callbacks waiting for the next flush.
func (q *FrameQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
