package room

import (
	"github.com/sirupsen/logrus"
)

// Broadcaster: delivers one serialized payload to a room's current members
type Broadcaster struct {
	registry *Registry
	log      *logrus.Entry
}

// NewBroadcaster creates a broadcaster reading membership from the registry
func NewBroadcaster(registry *Registry) *Broadcaster {
	return &Broadcaster{
		registry: registry,
		log:      logrus.WithField("component", "broadcaster"),
	}
}

// Broadcast sends the payload to every member of the room except the excluded
// connection. Delivery is fire-and-forget: a failed send is not retried and
// does not abort delivery to the others. The registry is never mutated here;
// a failed member's socket is closed so that its own close path runs the
// normal Leave.
func (b *Broadcaster) Broadcast(roomID string, payload []byte, exclude Conn) {
	for _, c := range b.registry.Members(roomID) {
		if c == exclude {
			continue
		}
		if err := c.Send(payload); err != nil {
			b.log.WithFields(logrus.Fields{
				"room_id": roomID,
				"conn_id": c.ID(),
			}).WithError(err).Warn("Broadcast send failed, closing connection")
			c.Close()
		}
	}
}
