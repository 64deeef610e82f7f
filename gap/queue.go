package gap

import "github.com/haivivi/blecore/hci"

// queueCap is the hard size of both the outbound command queue and the
// inbound event queue. Static buffers only; a full queue rejects new
// entries and the integration layer is expected to drain promptly.
const queueCap = 16

// PendingCommand is one encoded command packet waiting to be shipped
// to the controller. It is a fixed-size value; dequeuing copies it out
// of the ring so the slot can be reused immediately.
type PendingCommand struct {
	n int
	b [hci.MaxCommandPktLen]byte
}

// Packet returns the encoded bytes, leading indicator included.
func (c *PendingCommand) Packet() []byte { return c.b[:c.n] }

type commandQueue struct {
	head  int
	count int
	slots [queueCap]PendingCommand
}

// push reserves the next free slot. The caller encodes into it, or
// calls unpush to release the reservation on encode failure.
func (q *commandQueue) push() (*PendingCommand, bool) {
	if q.count == queueCap {
		return nil, false
	}
	s := &q.slots[(q.head+q.count)%queueCap]
	s.n = 0
	q.count++
	return s, true
}

func (q *commandQueue) unpush() {
	if q.count > 0 {
		q.count--
	}
}

func (q *commandQueue) pop() (*PendingCommand, bool) {
	if q.count == 0 {
		return nil, false
	}
	s := &q.slots[q.head]
	q.head = (q.head + 1) % queueCap
	q.count--
	return s, true
}

func (q *commandQueue) len() int { return q.count }

type eventQueue struct {
	head  int
	count int
	slots [queueCap]Event
}

func (q *eventQueue) push(e Event) bool {
	if q.count == queueCap {
		return false
	}
	q.slots[(q.head+q.count)%queueCap] = e
	q.count++
	return true
}

func (q *eventQueue) pop() (Event, bool) {
	if q.count == 0 {
		return nil, false
	}
	e := q.slots[q.head]
	q.slots[q.head] = nil
	q.head = (q.head + 1) % queueCap
	q.count--
	return e, true
}

func (q *eventQueue) len() int { return q.count }
