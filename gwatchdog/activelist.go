package gwatchdog

// activeList is a circular doubly linked list of armed elements,
// ordered by deadline. Elements with equal deadlines keep insertion order.
type activeList struct {
	head *element
	n    int
}

func (l *activeList) front() *element {
	return l.head
}

func (l *activeList) insert(e *element) {
	e.where = placeActive
	l.n++

	if l.head == nil {
		e.lprev, e.lnext = e, e
		l.head = e
		return
	}

	// Insert before the first element with a strictly later deadline.
	// Walking the whole list brings at back to head,
	// and inserting before head then appends to the tail.
	at, newHead := l.head, true
	for range l.n - 1 {
		if e.deadline.before(at.deadline) {
			break
		}
		at = at.lnext
		newHead = false
	}

	e.lnext = at
	e.lprev = at.lprev
	at.lprev.lnext = e
	at.lprev = e

	if newHead {
		l.head = e
	}
}

func (l *activeList) remove(e *element) {
	if e.where != placeActive {
		panic(errNotActive(e.idx, e.where))
	}
	l.n--
	if l.n == 0 {
		l.head = nil
	} else {
		e.lprev.lnext = e.lnext
		e.lnext.lprev = e.lprev
		if l.head == e {
			l.head = e.lnext
		}
	}
	e.lprev, e.lnext = nil, nil
	e.where = placeNone
}

// appendTo appends the list contents in order to dst.
// The walk is bounded by the element count rather than by meeting head again.
func (l *activeList) appendTo(dst []*element) []*element {
	at := l.head
	for range l.n {
		dst = append(dst, at)
		at = at.lnext
	}
	return dst
}
