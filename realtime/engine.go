package realtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/andrewpaige1/mindflow-api/access"
	"github.com/andrewpaige1/mindflow-api/logging"
	"github.com/andrewpaige1/mindflow-api/metrics"
	"github.com/andrewpaige1/mindflow-api/mindmap"
	"github.com/andrewpaige1/mindflow-api/models"
	"github.com/andrewpaige1/mindflow-api/store"
)

// Conn is a joined socket as seen by the engine.
type Conn interface {
	Peer
	UserID() uint
	// Enqueue appends job to the connection's persistence queue without
	// blocking and reports whether it was queued. Jobs of one connection run
	// one at a time in enqueue order.
	Enqueue(job func(ctx context.Context)) bool
}

type MapStore interface {
	GetMap(ctx context.Context, publicID string) (*models.Map, error)
	SaveNodes(ctx context.Context, m *models.Map) error
	SaveConnections(ctx context.Context, m *models.Map) error
}

type Resolver interface {
	Resolve(ctx context.Context, mapID string, userID uint) (access.Level, error)
}

// Engine relays change batches between the members of a map room and folds
// them into the stored map.
//
// A batch is broadcast to the other members before it is persisted. The
// sender's membership level, captured at join time, decides whether it may
// send nodes or edges changes at all; the resolver is only consulted on join.
type Engine struct {
	rooms    *Rooms
	resolver Resolver
	store    MapStore
	folds    keyedMutex
}

func NewEngine(rooms *Rooms, resolver Resolver, store MapStore) *Engine {
	return &Engine{rooms: rooms, resolver: resolver, store: store}
}

// Dispatch routes one incoming frame.
func (e *Engine) Dispatch(ctx context.Context, c Conn, f Frame) {
	switch f.Event {
	case EventJoin, EventLeave:
		var mapID string
		if err := json.Unmarshal(f.Data, &mapID); err != nil || mapID == "" {
			if f.Event == EventJoin {
				e.sendError(c, "Invalid map id")
			}
			return
		}
		if f.Event == EventJoin {
			e.Join(ctx, c, mapID)
		} else {
			e.Leave(c, mapID)
		}
	case EventNodesChange, EventEdgesChange:
		var p ChangePayload
		if err := json.Unmarshal(f.Data, &p); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("event", f.Event).Msg("malformed change payload")
			metrics.RealtimeDroppedBatches.WithLabelValues(f.Event, "invalid").Inc()
			return
		}
		if f.Event == EventNodesChange {
			e.NodesChange(ctx, c, p)
		} else {
			e.EdgesChange(ctx, c, p)
		}
	default:
		logging.Ctx(ctx).Debug().Str("event", f.Event).Msg("ignoring unknown event")
	}
}

// Join resolves the caller's level on mapID and adds it to the room, or
// replies with map:error.
func (e *Engine) Join(ctx context.Context, c Conn, mapID string) {
	level, err := e.resolver.Resolve(ctx, mapID, c.UserID())
	switch {
	case errors.Is(err, store.ErrNotFound):
		metrics.RealtimeJoins.WithLabelValues("not_found").Inc()
		e.rooms.Leave(c.ID(), mapID)
		e.sendError(c, "Map not found")
		return
	case err != nil:
		metrics.RealtimeJoins.WithLabelValues("error").Inc()
		logging.Ctx(ctx).Error().Err(err).Str("map_id", mapID).Msg("failed to resolve access on join")
		e.rooms.Leave(c.ID(), mapID)
		e.sendError(c, "Could not join map")
		return
	case level == access.LevelNone:
		metrics.RealtimeJoins.WithLabelValues("denied").Inc()
		e.rooms.Leave(c.ID(), mapID)
		e.sendError(c, "You do not have permission to access this map")
		return
	}

	e.rooms.Join(c, mapID, level)
	metrics.RealtimeJoins.WithLabelValues("joined").Inc()
	logging.Ctx(ctx).Info().
		Str("conn_id", c.ID()).
		Uint("user_id", c.UserID()).
		Str("map_id", mapID).
		Str("level", string(level)).
		Msg("joined map room")
	e.send(c, EventJoined, mapID)
}

func (e *Engine) Leave(c Conn, mapID string) {
	e.rooms.Leave(c.ID(), mapID)
}

// Disconnect removes c from every room it joined.
func (e *Engine) Disconnect(c Conn) {
	e.rooms.LeaveAll(c.ID())
}

func (e *Engine) NodesChange(ctx context.Context, c Conn, p ChangePayload) {
	changes, err := mindmap.DecodeNodeChanges(p.Changes)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("map_id", p.MapID).Msg("rejected nodes batch")
		metrics.RealtimeDroppedBatches.WithLabelValues(EventNodesChange, "invalid").Inc()
		return
	}
	if !e.admit(c, p.MapID, EventNodesChange, access.ActionEditNodes) {
		return
	}
	e.broadcast(ctx, c, p, EventNodesUpdated)

	mapID := p.MapID
	queued := c.Enqueue(func(ctx context.Context) {
		e.persist(ctx, mapID, "nodes", func(m *models.Map) error {
			m.Nodes = mindmap.StripTransient(mindmap.ApplyNodeChanges(m.Nodes, changes))
			return e.store.SaveNodes(ctx, m)
		})
	})
	if !queued {
		e.dropFold(ctx, c, mapID, EventNodesChange)
	}
}

func (e *Engine) EdgesChange(ctx context.Context, c Conn, p ChangePayload) {
	changes, err := mindmap.DecodeConnectionChanges(p.Changes)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("map_id", p.MapID).Msg("rejected edges batch")
		metrics.RealtimeDroppedBatches.WithLabelValues(EventEdgesChange, "invalid").Inc()
		return
	}
	if !e.admit(c, p.MapID, EventEdgesChange, access.ActionEditConnections) {
		return
	}
	e.broadcast(ctx, c, p, EventEdgesUpdated)

	mapID := p.MapID
	queued := c.Enqueue(func(ctx context.Context) {
		e.persist(ctx, mapID, "connections", func(m *models.Map) error {
			m.Connections = mindmap.ApplyConnectionChanges(m.Connections, changes)
			return e.store.SaveConnections(ctx, m)
		})
	})
	if !queued {
		e.dropFold(ctx, c, mapID, EventEdgesChange)
	}
}

// admit checks room membership and the join-time level. Refusals are silent
// towards the sender.
func (e *Engine) admit(c Conn, mapID, event string, action access.Action) bool {
	level, ok := e.rooms.Membership(c.ID(), mapID)
	if !ok {
		metrics.RealtimeDroppedBatches.WithLabelValues(event, "not_member").Inc()
		return false
	}
	if !access.Can(level, action) {
		metrics.RealtimeDroppedBatches.WithLabelValues(event, "forbidden").Inc()
		return false
	}
	return true
}

func (e *Engine) broadcast(ctx context.Context, c Conn, p ChangePayload, event string) {
	frame, err := EncodeFrame(event, p.Changes)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("failed to encode broadcast")
		return
	}
	for _, peer := range e.rooms.peersExcept(p.MapID, c.ID()) {
		if !peer.Send(frame) {
			// The peer missed a batch; keeping it would let its copy diverge.
			e.rooms.LeaveAll(peer.ID())
			metrics.RealtimeSendDropped.Inc()
			logging.Ctx(ctx).Warn().Str("conn_id", peer.ID()).Str("event", event).Msg("evicted peer with full send buffer")
		}
	}
	metrics.RealtimeBroadcasts.WithLabelValues(event).Inc()
}

// dropFold records a batch that was broadcast but will not be persisted
// because the sender's persistence queue is full.
func (e *Engine) dropFold(ctx context.Context, c Conn, mapID, event string) {
	metrics.RealtimeDroppedBatches.WithLabelValues(event, "persist_queue_full").Inc()
	logging.Ctx(ctx).Warn().
		Str("conn_id", c.ID()).
		Str("map_id", mapID).
		Str("event", event).
		Msg("persistence queue full, batch not persisted")
}

// persist loads the map, lets fold modify and save it, and records the
// outcome. Folds of one map do not interleave within this process.
func (e *Engine) persist(ctx context.Context, mapID, kind string, fold func(m *models.Map) error) {
	unlock := e.folds.Lock(mapID)
	defer unlock()

	start := time.Now()
	err := func() error {
		m, err := e.store.GetMap(ctx, mapID)
		if err != nil {
			return fmt.Errorf("load map %s: %w", mapID, err)
		}
		return fold(m)
	}()
	metrics.RecordPersist(kind, time.Since(start), err)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("map_id", mapID).Str("kind", kind).Msg("failed to persist changes")
	}
}

func (e *Engine) send(c Conn, event string, data any) {
	frame, err := EncodeFrame(event, data)
	if err != nil {
		logging.Error().Err(err).Str("event", event).Msg("failed to encode frame")
		return
	}
	if !c.Send(frame) {
		metrics.RealtimeSendDropped.Inc()
	}
}

func (e *Engine) sendError(c Conn, msg string) {
	e.send(c, EventError, msg)
}

// keyedMutex hands out one mutex per key and forgets keys nobody holds.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refMutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
