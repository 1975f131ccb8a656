package realtime

import (
	"sort"
	"sync"

	"github.com/andrewpaige1/mindflow-api/access"
	"github.com/andrewpaige1/mindflow-api/metrics"
)

// Peer is a connection that can receive frames.
type Peer interface {
	ID() string
	Send(frame []byte) bool
}

type membership struct {
	peer  Peer
	level access.Level
}

// Rooms tracks which connections are joined to which map. A connection may
// be in several rooms; each membership remembers the level granted at join.
type Rooms struct {
	mu     sync.RWMutex
	rooms  map[string]map[string]membership // mapID -> connID
	byConn map[string]map[string]struct{}   // connID -> mapIDs
}

func NewRooms() *Rooms {
	return &Rooms{
		rooms:  make(map[string]map[string]membership),
		byConn: make(map[string]map[string]struct{}),
	}
}

// Join adds peer to the room of mapID, replacing the level of an existing
// membership.
func (r *Rooms) Join(peer Peer, mapID string, level access.Level) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[mapID]
	if !ok {
		room = make(map[string]membership)
		r.rooms[mapID] = room
	}
	if _, exists := room[peer.ID()]; !exists {
		metrics.RealtimeRoomMembers.Inc()
	}
	room[peer.ID()] = membership{peer: peer, level: level}

	maps, ok := r.byConn[peer.ID()]
	if !ok {
		maps = make(map[string]struct{})
		r.byConn[peer.ID()] = maps
	}
	maps[mapID] = struct{}{}
}

// Leave removes connID from one room. Leaving a room one is not in is a no-op.
func (r *Rooms) Leave(connID, mapID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(connID, mapID)
}

// LeaveAll removes connID from every room and returns the map ids it left.
func (r *Rooms) LeaveAll(connID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var left []string
	for mapID := range r.byConn[connID] {
		left = append(left, mapID)
	}
	for _, mapID := range left {
		r.leaveLocked(connID, mapID)
	}
	sort.Strings(left)
	return left
}

func (r *Rooms) leaveLocked(connID, mapID string) {
	room, ok := r.rooms[mapID]
	if !ok {
		return
	}
	if _, ok := room[connID]; !ok {
		return
	}
	delete(room, connID)
	metrics.RealtimeRoomMembers.Dec()
	if len(room) == 0 {
		delete(r.rooms, mapID)
	}
	if maps, ok := r.byConn[connID]; ok {
		delete(maps, mapID)
		if len(maps) == 0 {
			delete(r.byConn, connID)
		}
	}
}

// MembersOf returns the connection ids in the room of mapID, sorted.
func (r *Rooms) MembersOf(mapID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.rooms[mapID]))
	for id := range r.rooms[mapID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Membership returns the level connID was granted when it joined mapID.
func (r *Rooms) Membership(connID, mapID string) (access.Level, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.rooms[mapID][connID]
	if !ok {
		return access.LevelNone, false
	}
	return m.level, true
}

// peersExcept snapshots the peers of mapID other than connID.
func (r *Rooms) peersExcept(mapID, connID string) []Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	peers := make([]Peer, 0, len(r.rooms[mapID]))
	for id, m := range r.rooms[mapID] {
		if id != connID {
			peers = append(peers, m.peer)
		}
	}
	return peers
}
