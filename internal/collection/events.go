package collection

// Op names a store operation
type Op string

const (
	OpRefresh      Op = "refresh"
	OpMetadataKeys Op = "metadata-keys"
	OpCreate       Op = "create"
	OpUpdate       Op = "update"
	OpRemove       Op = "remove"
)

// IsMutation reports whether op writes to the backend
func (o Op) IsMutation() bool {
	return o == OpCreate || o == OpUpdate || o == OpRemove
}

// Event reports the outcome of one completed operation. Stale responses
// that were discarded produce no event.
type Event struct {
	Op  Op
	ID  string
	Err error
}

// eventBuffer is the channel capacity handed to each subscriber
const eventBuffer = 32

// Subscribe returns a channel receiving every event published after the call
// and a function that unsubscribes and closes the channel. A subscriber that
// falls eventBuffer events behind misses the newest ones.
func (s *Store[T, R, W]) Subscribe() (<-chan Event, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan Event, eventBuffer)
	s.subs[id] = ch

	var once bool
	return ch, func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if once {
			return
		}
		once = true
		delete(s.subs, id)
		close(ch)
	}
}

func (s *Store[T, R, W]) publish(ev Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			s.log.Warn("dropping %s event for a slow subscriber", ev.Op)
		}
	}
}
