package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/andrewpaige1/mindflow-api/logging"
	"github.com/andrewpaige1/mindflow-api/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024 * 1024 // 1 MB, a whole-map add batch can be large

	sendBufferSize   = 256
	persistQueueSize = 256
)

// Session is one authenticated socket. It runs a read pump that dispatches
// frames to the engine, a write pump that drains the send buffer, and a
// persist worker that executes the session's fold jobs in order.
type Session struct {
	id     string
	userID uint
	conn   *websocket.Conn
	engine *Engine
	ctx    context.Context

	send chan []byte
	jobs chan func(context.Context)

	mu     sync.Mutex
	closed bool
}

func newSession(ctx context.Context, conn *websocket.Conn, userID uint, engine *Engine) *Session {
	return &Session{
		id:     uuid.NewString(),
		userID: userID,
		conn:   conn,
		engine: engine,
		ctx:    ctx,
		send:   make(chan []byte, sendBufferSize),
		jobs:   make(chan func(context.Context), persistQueueSize),
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) UserID() uint {
	return s.userID
}

// Send queues frame for writing without blocking. A session whose buffer
// is full is closed: the write pump flushes what is queued, then closes the
// socket so the client reconnects and reloads the map. Send returns false
// when the frame was not queued.
func (s *Session) Send(frame []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.send <- frame:
		return true
	default:
		s.closed = true
		close(s.send)
		return false
	}
}

// Enqueue queues job for the persist worker without blocking and reports
// whether it was queued. It must only be called from the read pump.
func (s *Session) Enqueue(job func(ctx context.Context)) bool {
	select {
	case s.jobs <- job:
		return true
	default:
		return false
	}
}

// run serves the socket until it closes. Queued persistence keeps running
// after the socket is gone.
func (s *Session) run() {
	metrics.RealtimeConnections.Inc()
	go s.writePump()
	go s.persistLoop()
	s.readPump()
}

func (s *Session) readPump() {
	log := logging.Ctx(s.ctx)
	defer func() {
		s.engine.Disconnect(s)
		close(s.jobs)
		s.closeSend()
		_ = s.conn.Close() // best-effort cleanup
		metrics.RealtimeConnections.Dec()
		log.Info().Str("conn_id", s.id).Msg("socket disconnected")
	}()

	s.conn.SetReadLimit(maxMessageSize)
	if err := s.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("conn_id", s.id).Msg("unexpected websocket close error")
			}
			return
		}
		f, err := DecodeFrame(msg)
		if err != nil {
			log.Warn().Err(err).Str("conn_id", s.id).Msg("ignoring malformed frame")
			continue
		}
		s.engine.Dispatch(s.ctx, s, f)
	}
}

func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-s.send:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Session) persistLoop() {
	for job := range s.jobs {
		job(s.ctx)
	}
}

func (s *Session) closeSend() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.send)
	}
}
