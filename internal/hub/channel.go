package hub

// sendBuffer is the per-subscriber outbound queue depth. If a subscriber
// falls this far behind, further frames are dropped for it rather than
// stalling the actor or other subscribers.
const sendBuffer = 100

// Channel is one live push subscriber: an identity plus a buffered queue of
// outbound frames. Channels are created by [Hub.Subscribe] and closed by
// [Hub.Unsubscribe] or hub shutdown.
type Channel struct {
	id  uint64
	out chan []byte
}

// ID returns the opaque identifier the hub assigned to this channel.
func (c *Channel) ID() uint64 {
	return c.id
}

// Out returns the outbound frame queue. The transport layer drains it in
// order and stops when it is closed.
func (c *Channel) Out() <-chan []byte {
	return c.out
}

// trySend enqueues a frame without blocking and reports whether it was
// queued. Only the hub actor calls this.
func (c *Channel) trySend(frame []byte) bool {
	select {
	case c.out <- frame:
		return true
	default:
		return false
	}
}
