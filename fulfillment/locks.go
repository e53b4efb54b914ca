package fulfillment

import "sync"

// orderLocks hands out one mutex per order id so concurrent payment
// attempts for the same order are serialized. Locks are never evicted; the
// map grows with the number of distinct orders paid in a process lifetime,
// which is fine at this scale.
type orderLocks struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func newOrderLocks() *orderLocks {
	return &orderLocks{locks: make(map[uint]*sync.Mutex)}
}

func (l *orderLocks) get(orderID uint) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[orderID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[orderID] = m
	}
	return m
}
