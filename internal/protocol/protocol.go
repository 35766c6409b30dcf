package protocol

import (
	"encoding/json"
	"fmt"
)

// Client -> server message types
const (
	TypeJoinRoom    = "JOIN_ROOM"
	TypeEvent       = "EVENT"
	TypeClearCanvas = "CLEAR_CANVAS"
)

// Server -> client message types
const (
	TypeSyncEvents = "SYNC_EVENTS"
	TypeUserCount  = "USER_COUNT"
	TypeError      = "ERROR"
)

// Event is a single stroke segment: two endpoints, a color and a width.
// Immutable once created; ordering is arrival order.
type Event struct {
	X1    float64 `json:"x1" validate:"min=-1000000,max=1000000"`
	Y1    float64 `json:"y1" validate:"min=-1000000,max=1000000"`
	X2    float64 `json:"x2" validate:"min=-1000000,max=1000000"`
	Y2    float64 `json:"y2" validate:"min=-1000000,max=1000000"`
	Color string  `json:"color" validate:"required,max=50"`
	Size  float64 `json:"size" validate:"gt=0,max=1000"`
}

// ClientMessage is the closed set of inbound message shapes. Exactly one of
// RoomID/Event is meaningful depending on Type.
type ClientMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId,omitempty"`
	Event  *Event `json:"event,omitempty"`
}

// Decode parses a raw inbound frame into a ClientMessage. A missing or
// unrecognized type is left for the dispatcher to reject.
func Decode(raw []byte) (*ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal client message: %w", err)
	}
	return &msg, nil
}

type syncEventsMessage struct {
	Type   string  `json:"type"`
	Events []Event `json:"events"`
}

type eventMessage struct {
	Type  string `json:"type"`
	Event Event  `json:"event"`
}

type clearCanvasMessage struct {
	Type string `json:"type"`
}

type userCountMessage struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// MarshalSyncEvents builds the one-time history sync sent after a join.
// The events field is always an array, never null.
func MarshalSyncEvents(events []Event) ([]byte, error) {
	if events == nil {
		events = []Event{}
	}
	return json.Marshal(syncEventsMessage{Type: TypeSyncEvents, Events: events})
}

// MarshalEvent builds a relayed stroke message
func MarshalEvent(ev Event) ([]byte, error) {
	return json.Marshal(eventMessage{Type: TypeEvent, Event: ev})
}

// MarshalClearCanvas builds the room-wide clear notification
func MarshalClearCanvas() ([]byte, error) {
	return json.Marshal(clearCanvasMessage{Type: TypeClearCanvas})
}

// MarshalUserCount builds the membership-count notification
func MarshalUserCount(count int) ([]byte, error) {
	return json.Marshal(userCountMessage{Type: TypeUserCount, Count: count})
}

// MarshalError builds an error reply for the offending connection only
func MarshalError(message string) ([]byte, error) {
	return json.Marshal(errorMessage{Type: TypeError, Message: message})
}
