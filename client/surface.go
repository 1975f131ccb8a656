// Package client is the editing surface of one collaborator: it loads a map
// over REST, joins its realtime room and keeps a local copy of the document
// in step with local edits and remote updates.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/andrewpaige1/mindflow-api/access"
	"github.com/andrewpaige1/mindflow-api/logging"
	"github.com/andrewpaige1/mindflow-api/mindmap"
	"github.com/andrewpaige1/mindflow-api/models"
	"github.com/andrewpaige1/mindflow-api/realtime"
)

var (
	ErrReadOnly  = errors.New("map is read-only for this user")
	ErrNotJoined = errors.New("not joined to a map")
	ErrClosed    = errors.New("surface closed")
)

// JoinError is the reason the server gave for refusing a join.
type JoinError struct {
	Message string
}

func (e *JoinError) Error() string { return "join rejected: " + e.Message }

const writeWait = 10 * time.Second

// Surface is safe for concurrent use.
type Surface struct {
	baseURL string
	token   string
	http    *http.Client
	conn    *websocket.Conn

	writeMu sync.Mutex

	mu     sync.Mutex
	mapID  string
	level  access.Level
	doc    models.Map
	joined chan error

	done chan struct{}
}

// Dial opens the socket at baseURL (an http or https URL of the API server)
// authenticated with token.
func Dial(ctx context.Context, baseURL, token string) (*Surface, error) {
	baseURL = strings.TrimSuffix(baseURL, "/")
	wsURL := "ws" + strings.TrimPrefix(baseURL, "http") + "/ws"

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", wsURL, err)
	}

	s := &Surface{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
		conn:    conn,
		done:    make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

// Open loads mapID with the caller's access level and joins its room. It
// returns a *JoinError when the server refuses the join.
func (s *Surface) Open(ctx context.Context, mapID string) error {
	var doc models.Map
	if err := s.request(ctx, http.MethodGet, "/api/maps/"+mapID, nil, &doc); err != nil {
		return err
	}
	var acc struct {
		Level access.Level `json:"level"`
	}
	if err := s.request(ctx, http.MethodGet, "/api/maps/"+mapID+"/access", nil, &acc); err != nil {
		return err
	}

	joined := make(chan error, 1)
	s.mu.Lock()
	s.mapID = mapID
	s.level = acc.Level
	s.doc = doc
	s.joined = joined
	s.mu.Unlock()

	if err := s.emit(realtime.EventJoin, mapID); err != nil {
		return err
	}

	select {
	case err := <-joined:
		if err != nil {
			s.reset()
		}
		return err
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Leave leaves the current room. The local document is discarded.
func (s *Surface) Leave() error {
	s.mu.Lock()
	mapID := s.mapID
	s.mu.Unlock()
	if mapID == "" {
		return ErrNotJoined
	}
	s.reset()
	return s.emit(realtime.EventLeave, mapID)
}

func (s *Surface) Close() error {
	err := s.conn.Close()
	<-s.done
	return err
}

func (s *Surface) reset() {
	s.mu.Lock()
	s.mapID = ""
	s.level = access.LevelNone
	s.doc = models.Map{}
	s.joined = nil
	s.mu.Unlock()
}

func (s *Surface) Level() access.Level {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.level
}

// ReadOnly reports whether the caller may not edit nodes.
func (s *Surface) ReadOnly() bool {
	return !access.Can(s.Level(), access.ActionEditNodes)
}

// Document returns a copy of the local map.
func (s *Surface) Document() models.Map {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.doc
	doc.Nodes = append([]models.Node(nil), s.doc.Nodes...)
	doc.Connections = append([]models.Connection(nil), s.doc.Connections...)
	return doc
}

func (s *Surface) Nodes() []models.Node {
	return s.Document().Nodes
}

func (s *Surface) Connections() []models.Connection {
	return s.Document().Connections
}

func (s *Surface) MoveNode(id string, x, y float64) error {
	return s.editNodes(mindmap.MoveNode(id, x, y))
}

func (s *Surface) AddNode(n models.Node) error {
	return s.editNodes(mindmap.AddNode(n))
}

func (s *Surface) RemoveNode(id string) error {
	return s.editNodes(mindmap.RemoveNode(id))
}

func (s *Surface) Connect(c models.Connection) error {
	return s.editConnections(mindmap.AddConnection(c))
}

func (s *Surface) RemoveConnection(id string) error {
	return s.editConnections(mindmap.RemoveConnection(id))
}

// editNodes applies changes locally, then sends them to the room.
func (s *Surface) editNodes(changes ...mindmap.NodeChange) error {
	s.mu.Lock()
	if s.mapID == "" {
		s.mu.Unlock()
		return ErrNotJoined
	}
	if !access.Can(s.level, access.ActionEditNodes) {
		s.mu.Unlock()
		return ErrReadOnly
	}
	s.doc.Nodes = mindmap.ApplyNodeChanges(s.doc.Nodes, changes)
	mapID := s.mapID
	s.mu.Unlock()

	return s.emitChanges(realtime.EventNodesChange, mapID, changes)
}

func (s *Surface) editConnections(changes ...mindmap.ConnectionChange) error {
	s.mu.Lock()
	if s.mapID == "" {
		s.mu.Unlock()
		return ErrNotJoined
	}
	if !access.Can(s.level, access.ActionEditConnections) {
		s.mu.Unlock()
		return ErrReadOnly
	}
	s.doc.Connections = mindmap.ApplyConnectionChanges(s.doc.Connections, changes)
	mapID := s.mapID
	s.mu.Unlock()

	return s.emitChanges(realtime.EventEdgesChange, mapID, changes)
}

// Save overwrites the stored map with the local document.
func (s *Surface) Save(ctx context.Context) error {
	s.mu.Lock()
	if s.mapID == "" {
		s.mu.Unlock()
		return ErrNotJoined
	}
	if !access.Can(s.level, access.ActionEditMeta) {
		s.mu.Unlock()
		return ErrReadOnly
	}
	mapID := s.mapID
	body := map[string]any{
		"title":         s.doc.Title,
		"nodes":         mindmap.StripTransient(s.doc.Nodes),
		"connections":   append([]models.Connection(nil), s.doc.Connections...),
		"lineThickness": s.doc.LineThickness,
		"borderStyle":   s.doc.BorderStyle,
	}
	s.mu.Unlock()

	return s.request(ctx, http.MethodPut, "/api/maps/"+mapID, body, nil)
}

func (s *Surface) emitChanges(event, mapID string, changes any) error {
	raw, err := json.Marshal(changes)
	if err != nil {
		return fmt.Errorf("encode changes: %w", err)
	}
	return s.emit(event, realtime.ChangePayload{MapID: mapID, Changes: raw})
}

func (s *Surface) emit(event string, data any) error {
	frame, err := realtime.EncodeFrame(event, data)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, frame)
}

func (s *Surface) readLoop() {
	defer close(s.done)
	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.Warn().Err(err).Msg("socket closed")
			}
			return
		}
		f, err := realtime.DecodeFrame(msg)
		if err != nil {
			logging.Warn().Err(err).Msg("ignoring malformed frame")
			continue
		}
		s.handle(f)
	}
}

func (s *Surface) handle(f realtime.Frame) {
	switch f.Event {
	case realtime.EventJoined:
		s.resolveJoin(nil)
	case realtime.EventError:
		var msg string
		if err := json.Unmarshal(f.Data, &msg); err != nil {
			msg = string(f.Data)
		}
		if !s.resolveJoin(&JoinError{Message: msg}) {
			logging.Warn().Str("error", msg).Msg("server reported an error")
		}
	case realtime.EventNodesUpdated:
		changes, err := mindmap.DecodeNodeChanges(f.Data)
		if err != nil {
			logging.Warn().Err(err).Msg("ignoring invalid node changes")
			return
		}
		s.mu.Lock()
		if s.mapID != "" {
			s.doc.Nodes = mindmap.ApplyNodeChanges(s.doc.Nodes, changes)
		}
		s.mu.Unlock()
	case realtime.EventEdgesUpdated:
		changes, err := mindmap.DecodeConnectionChanges(f.Data)
		if err != nil {
			logging.Warn().Err(err).Msg("ignoring invalid connection changes")
			return
		}
		s.mu.Lock()
		if s.mapID != "" {
			s.doc.Connections = mindmap.ApplyConnectionChanges(s.doc.Connections, changes)
		}
		s.mu.Unlock()
	default:
		logging.Debug().Str("event", f.Event).Msg("ignoring unknown event")
	}
}

// resolveJoin reports the outcome of a pending Open. It returns false when
// no join was pending.
func (s *Surface) resolveJoin(err error) bool {
	s.mu.Lock()
	joined := s.joined
	s.joined = nil
	s.mu.Unlock()
	if joined == nil {
		return false
	}
	joined <- err
	return true
}

func (s *Surface) request(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Msg string `json:"msg"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return &APIError{Status: resp.StatusCode, Message: apiErr.Msg}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// APIError is a non-2xx REST reply.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}
