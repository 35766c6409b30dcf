package handlers

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/harshkumar07/Collab-Board/internal/metrics"
	"github.com/harshkumar07/Collab-Board/internal/protocol"
	"github.com/harshkumar07/Collab-Board/internal/room"
)

// messageLabel caps metric label cardinality: client-supplied types outside
// the protocol all count as "unknown"
func messageLabel(msgType string) string {
	switch msgType {
	case protocol.TypeJoinRoom, protocol.TypeEvent, protocol.TypeClearCanvas:
		return msgType
	}
	return "unknown"
}

// State of a connection's room membership
type State int

const (
	StateUnjoined State = iota
	StateJoined
	StateClosed
)

// Session is the per-connection state machine: Unjoined -> Joined(room) ->
// Closed, with direct Joined -> Joined transitions on room switch (leave old,
// join new). A connection holds at most one membership at a time.
//
// A Session is owned by its connection's read loop and is not safe for
// concurrent use.
type Session struct {
	conn        room.Conn
	registry    Registry
	broadcaster Broadcaster
	store       EventLog
	validator   *protocol.Validator

	state  State
	roomID string
	log    *logrus.Entry
}

// NewSession creates a session in the Unjoined state
func NewSession(conn room.Conn, registry Registry, broadcaster Broadcaster, store EventLog, validator *protocol.Validator) *Session {
	return &Session{
		conn:        conn,
		registry:    registry,
		broadcaster: broadcaster,
		store:       store,
		validator:   validator,
		state:       StateUnjoined,
		log: logrus.WithFields(logrus.Fields{
			"component": "session",
			"conn_id":   conn.ID(),
		}),
	}
}

// State returns the current lifecycle state
func (s *Session) State() State {
	return s.state
}

// Room returns the current room, or the empty string while Unjoined
func (s *Session) Room() string {
	return s.roomID
}

// HandleMessage processes one inbound frame. Failures are reported back on
// the same connection as an ERROR message; they never close the connection
// and are never broadcast.
func (s *Session) HandleMessage(ctx context.Context, raw []byte) {
	msg, err := protocol.Decode(raw)
	if err != nil {
		s.sendError("invalid JSON")
		return
	}
	metrics.MessagesTotal.WithLabelValues(messageLabel(msg.Type)).Inc()

	switch msg.Type {
	case protocol.TypeJoinRoom:
		s.handleJoin(ctx, msg.RoomID)
	case protocol.TypeEvent:
		s.handleEvent(ctx, msg.Event)
	case protocol.TypeClearCanvas:
		s.handleClear(ctx)
	default:
		s.sendError("unknown message type")
	}
}

// handleJoin moves the session to Joined(room) and replays the room's full
// history to the joiner so it can reconstruct the drawing before any live
// events arrive
func (s *Session) handleJoin(ctx context.Context, roomID string) {
	newRoom := s.validator.CleanRoomID(roomID)
	if newRoom == "" {
		s.sendError("missing roomId")
		return
	}

	// Switching rooms is a leave-then-join, never dual membership
	if s.state == StateJoined && s.roomID != newRoom {
		s.registry.Leave(ctx, s.roomID, s.conn)
		s.state = StateUnjoined
		s.roomID = ""
	}

	if err := s.registry.Join(ctx, newRoom, s.conn); err != nil {
		if errors.Is(err, room.ErrRoomFull) {
			s.sendError("room is full")
			return
		}
		// Membership may already be recorded; keep the joined state but
		// skip the history sync for this attempt
		s.state = StateJoined
		s.roomID = newRoom
		s.log.WithError(err).WithField("room_id", newRoom).Error("Join failed after membership update")
		s.sendError("internal server error")
		return
	}
	s.state = StateJoined
	s.roomID = newRoom

	events, err := s.store.ReadAll(ctx, newRoom)
	if err != nil {
		s.log.WithError(err).WithField("room_id", newRoom).Error("Failed to read event history")
		s.sendError("internal server error")
		return
	}

	payload, err := protocol.MarshalSyncEvents(events)
	if err != nil {
		s.log.WithError(err).Error("Failed to marshal history sync")
		s.sendError("internal server error")
		return
	}
	if err := s.conn.Send(payload); err != nil {
		s.log.WithError(err).Debug("Failed to deliver history sync")
	}
}

// handleEvent appends a stroke to the room's log and relays it to everyone
// except the sender
func (s *Session) handleEvent(ctx context.Context, ev *protocol.Event) {
	if s.state != StateJoined {
		s.sendError("not joined to a room")
		return
	}
	if ev == nil {
		s.sendError("missing event data")
		return
	}
	if err := s.validator.ValidateEvent(ev); err != nil {
		s.sendError(err.Error())
		return
	}

	if err := s.store.Append(ctx, s.roomID, *ev); err != nil {
		s.log.WithError(err).WithField("room_id", s.roomID).Error("Failed to append event")
		s.sendError("internal server error")
		return
	}

	payload, err := protocol.MarshalEvent(*ev)
	if err != nil {
		s.log.WithError(err).Error("Failed to marshal event")
		s.sendError("internal server error")
		return
	}
	s.broadcaster.Broadcast(s.roomID, payload, s.conn)
}

// handleClear wipes the room's log and notifies every member, the clearer
// included, so all clients converge on an empty board. A benign no-op while
// Unjoined.
func (s *Session) handleClear(ctx context.Context) {
	if s.state != StateJoined {
		return
	}

	if err := s.store.DeleteAll(ctx, s.roomID); err != nil {
		s.log.WithError(err).WithField("room_id", s.roomID).Error("Failed to delete event log")
		s.sendError("internal server error")
		return
	}

	payload, err := protocol.MarshalClearCanvas()
	if err != nil {
		s.log.WithError(err).Error("Failed to marshal clear notification")
		return
	}
	s.broadcaster.Broadcast(s.roomID, payload, nil)
}

// Close leaves the current room, if any, and moves to the terminal state
func (s *Session) Close(ctx context.Context) {
	if s.state == StateJoined {
		s.registry.Leave(ctx, s.roomID, s.conn)
	}
	s.state = StateClosed
	s.roomID = ""
}

// sendError reports a failure to the offending connection only
func (s *Session) sendError(message string) {
	payload, err := protocol.MarshalError(message)
	if err != nil {
		s.log.WithError(err).Error("Failed to marshal error message")
		return
	}
	if err := s.conn.Send(payload); err != nil {
		s.log.WithError(err).Debug("Failed to deliver error message")
	}
}
