package mqtt

// pendingMsg is a serialized message held until the broker is reachable.
type pendingMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox holds messages published while disconnected, oldest first.
//
// A retained message supersedes any older retained message on the same
// topic, since the broker would only keep the last one. When the outbox is
// full the oldest change event is evicted before any lifecycle message,
// retained or not.
// Not safe for concurrent use; the caller must synchronize.
type outbox struct {
	msgs     []pendingMsg
	capacity int
	dropped  bool // set on the first eviction after a drain
}

func newOutbox(capacity int) *outbox {
	return &outbox{
		msgs:     make([]pendingMsg, 0, capacity),
		capacity: capacity,
	}
}

// push queues msg. It reports true the first time a message is evicted
// after a drain so the caller logs once per outage.
func (o *outbox) push(msg pendingMsg) (firstDrop bool) {
	if msg.retained {
		o.removeRetained(msg.topic)
	}
	if len(o.msgs) == o.capacity {
		o.evict()
		firstDrop = !o.dropped
		o.dropped = true
	}
	o.msgs = append(o.msgs, msg)
	return firstDrop
}

func (o *outbox) removeRetained(topic string) {
	for i, m := range o.msgs {
		if m.retained && m.topic == topic {
			o.msgs = append(o.msgs[:i], o.msgs[i+1:]...)
			return
		}
	}
}

func (o *outbox) evict() {
	victim := 0
	for i, m := range o.msgs {
		if m.topic == Topic {
			victim = i
			break
		}
	}
	o.msgs = append(o.msgs[:victim], o.msgs[victim+1:]...)
}

func (o *outbox) drainAll() []pendingMsg {
	if len(o.msgs) == 0 {
		return nil
	}
	out := o.msgs
	o.msgs = make([]pendingMsg, 0, o.capacity)
	o.dropped = false
	return out
}

func (o *outbox) len() int {
	return len(o.msgs)
}
