package room

// Conn is one client's live duplex channel as seen by the registry and
// broadcaster. The concrete websocket wrapper lives in the transport package.
type Conn interface {
	// ID identifies the connection in logs
	ID() string
	// Send delivers one serialized message; returns an error once the
	// underlying channel is no longer writable
	Send(payload []byte) error
	// Close tears down the underlying channel
	Close() error
}
