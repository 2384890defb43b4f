package engagement

// observers fans a state out to subscribers. Each subscriber channel holds at
// most one pending value; a newer value replaces an unread one so publishers
// never block. Callers must hold the owning store's lock.
type observers[S any] struct {
	next uint64
	subs map[uint64]chan S
}

func (o *observers[S]) add(current S) (uint64, chan S) {
	if o.subs == nil {
		o.subs = make(map[uint64]chan S)
	}
	o.next++
	ch := make(chan S, 1)
	ch <- current
	o.subs[o.next] = ch
	return o.next, ch
}

func (o *observers[S]) remove(id uint64) {
	if ch, ok := o.subs[id]; ok {
		delete(o.subs, id)
		close(ch)
	}
}

func (o *observers[S]) publish(s S) {
	for _, ch := range o.subs {
		select {
		case <-ch:
		default:
		}
		ch <- s
	}
}

func (o *observers[S]) closeAll() {
	for id := range o.subs {
		o.remove(id)
	}
}

func (o *observers[S]) len() int { return len(o.subs) }
