package cache

// lruNode is one link in an lruList. It keeps its key so the owning
// shard can delete the map entry in O(1) on eviction.
type lruNode[K comparable] struct {
	key  K
	prev *lruNode[K]
	next *lruNode[K]
}

// lruList is an intrusive doubly-linked recency list: head is the most
// recently used node, tail the least. Not safe for concurrent use; the
// owning shard's mutex guards it.
type lruList[K comparable] struct {
	head *lruNode[K]
	tail *lruNode[K]
}

func (l *lruList[K]) pushFront(key K) *lruNode[K] {
	n := &lruNode[K]{key: key, next: l.head}
	if l.head != nil {
		l.head.prev = n
	}
	l.head = n
	if l.tail == nil {
		l.tail = n
	}
	return n
}

func (l *lruList[K]) moveToFront(n *lruNode[K]) {
	if n == nil || n == l.head {
		return
	}
	l.unlink(n)
	n.next = l.head
	if l.head != nil {
		l.head.prev = n
	}
	l.head = n
	if l.tail == nil {
		l.tail = n
	}
}

func (l *lruList[K]) remove(n *lruNode[K]) {
	if n == nil {
		return
	}
	l.unlink(n)
}

// removeOldest unlinks the tail and returns its key.
func (l *lruList[K]) removeOldest() (K, bool) {
	if l.tail == nil {
		var zero K
		return zero, false
	}
	n := l.tail
	l.unlink(n)
	return n.key, true
}

func (l *lruList[K]) clear() {
	l.head, l.tail = nil, nil
}

func (l *lruList[K]) unlink(n *lruNode[K]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev, n.next = nil, nil
}
