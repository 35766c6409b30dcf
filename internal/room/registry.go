package room

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/harshkumar07/Collab-Board/internal/protocol"
)

// ErrRoomFull is returned by Join when a room is at capacity
var ErrRoomFull = errors.New("room is full")

// ExpiryStore is the subset of the event log the registry drives on
// membership transitions
type ExpiryStore interface {
	ArmExpiry(ctx context.Context, roomID string, ttl time.Duration) error
	DisarmExpiry(ctx context.Context, roomID string) error
}

// Expiry store calls for the same room must not run concurrently, otherwise
// a disarm issued for a rejoin could be overtaken by the arm of the previous
// empty transition. Striped locks keep the serialization bounded.
const expiryLockStripes = 32

// Registry is the process-wide mapping from room name to its live member
// set. A room exists in the registry iff it has at least one member; its
// event log can outlive it under TTL.
type Registry struct {
	store       ExpiryStore
	ttl         time.Duration
	maxRoomSize int

	mu    sync.RWMutex
	rooms map[string]map[Conn]bool

	expiryLocks [expiryLockStripes]sync.Mutex

	broadcaster *Broadcaster
	log         *logrus.Entry
}

// NewRegistry creates an empty registry. ttl is the grace period armed on a
// room's event log when its last member leaves. maxRoomSize <= 0 disables
// the capacity check.
func NewRegistry(store ExpiryStore, ttl time.Duration, maxRoomSize int) *Registry {
	r := &Registry{
		store:       store,
		ttl:         ttl,
		maxRoomSize: maxRoomSize,
		rooms:       make(map[string]map[Conn]bool),
		log:         logrus.WithField("component", "registry"),
	}
	r.broadcaster = NewBroadcaster(r)
	return r
}

// Broadcaster returns the fan-out engine bound to this registry
func (r *Registry) Broadcaster() *Broadcaster {
	return r.broadcaster
}

// Join adds the connection to the room's member set (creating it if absent),
// disarms the event log's expiry, then announces the new member count to all
// members. Idempotent if the connection is already a member.
func (r *Registry) Join(ctx context.Context, roomID string, c Conn) error {
	r.mu.Lock()
	members := r.rooms[roomID]
	if members == nil {
		members = make(map[Conn]bool)
		r.rooms[roomID] = members
	}
	if !members[c] && r.maxRoomSize > 0 && len(members) >= r.maxRoomSize {
		r.mu.Unlock()
		return ErrRoomFull
	}
	members[c] = true
	r.mu.Unlock()

	lock := r.expiryLock(roomID)
	lock.Lock()
	err := r.store.DisarmExpiry(ctx, roomID)
	lock.Unlock()
	if err != nil {
		return fmt.Errorf("disarm expiry on join: %w", err)
	}

	r.notifyCount(roomID)
	r.log.WithFields(logrus.Fields{
		"room_id": roomID,
		"conn_id": c.ID(),
		"count":   r.MemberCount(roomID),
	}).Info("Connection joined room")
	return nil
}

// Leave removes the connection from the room's member set and announces the
// count to the remaining members. When the set becomes empty the room entry
// is dropped and exactly one expiry countdown is armed on its event log.
// No-op if the room or connection is unknown.
func (r *Registry) Leave(ctx context.Context, roomID string, c Conn) {
	r.mu.Lock()
	members, ok := r.rooms[roomID]
	if !ok || !members[c] {
		r.mu.Unlock()
		return
	}
	delete(members, c)
	empty := len(members) == 0
	if empty {
		delete(r.rooms, roomID)
	}
	r.mu.Unlock()

	r.notifyCount(roomID)

	logCtx := r.log.WithFields(logrus.Fields{"room_id": roomID, "conn_id": c.ID()})
	if empty {
		lock := r.expiryLock(roomID)
		lock.Lock()
		err := r.store.ArmExpiry(ctx, roomID, r.ttl)
		lock.Unlock()
		if err != nil {
			logCtx.WithError(err).Warn("Failed to arm event log expiry for empty room")
		} else {
			logCtx.WithField("ttl", r.ttl).Info("Room empty, event log expiry armed")
		}
	}
	logCtx.Info("Connection left room")
}

// MemberCount returns the current live member count (0 if the room is unknown)
func (r *Registry) MemberCount(roomID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms[roomID])
}

// Members returns a snapshot of the room's current member set
func (r *Registry) Members(roomID string) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.rooms[roomID]
	snapshot := make([]Conn, 0, len(members))
	for c := range members {
		snapshot = append(snapshot, c)
	}
	return snapshot
}

// notifyCount announces the current member count to everyone in the room,
// the actor included
func (r *Registry) notifyCount(roomID string) {
	payload, err := protocol.MarshalUserCount(r.MemberCount(roomID))
	if err != nil {
		r.log.WithError(err).Error("Failed to marshal user count")
		return
	}
	r.broadcaster.Broadcast(roomID, payload, nil)
}

// expiryLock returns the stripe serializing expiry store calls for a room
func (r *Registry) expiryLock(roomID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(roomID))
	return &r.expiryLocks[h.Sum32()%expiryLockStripes]
}
