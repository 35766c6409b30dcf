package handlers

import (
	"context"

	"github.com/harshkumar07/Collab-Board/internal/protocol"
	"github.com/harshkumar07/Collab-Board/internal/room"
)

// EventLog defines the durable per-room event history the session orchestrates
type EventLog interface {
	Append(ctx context.Context, roomID string, ev protocol.Event) error
	ReadAll(ctx context.Context, roomID string) ([]protocol.Event, error)
	DeleteAll(ctx context.Context, roomID string) error
}

// Registry defines the membership operations the session drives
type Registry interface {
	Join(ctx context.Context, roomID string, c room.Conn) error
	Leave(ctx context.Context, roomID string, c room.Conn)
}

// Broadcaster defines the fan-out operation for room-wide delivery
type Broadcaster interface {
	Broadcast(roomID string, payload []byte, exclude room.Conn)
}
