// Package mindmap holds the change vocabulary exchanged by collaborating
// editors and the reducer that folds a batch of changes into a map document.
// The server fold and the Go client apply batches through the same functions.
package mindmap

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/andrewpaige1/mindflow-api/models"
)

type ChangeType string

const (
	ChangePosition ChangeType = "position"
	ChangeAdd      ChangeType = "add"
	ChangeRemove   ChangeType = "remove"
)

var ErrInvalidChange = errors.New("invalid change")

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeChange is one entry of a nodes:change batch. Which fields are set
// depends on Type: position uses ID and Position, add uses Item, remove
// uses ID. A position change without a position is accepted and ignored.
type NodeChange struct {
	Type     ChangeType
	ID       string
	Position *Position
	Item     *models.Node
}

type nodeChangeWire struct {
	Type     ChangeType   `json:"type"`
	ID       string       `json:"id,omitempty"`
	Position *Position    `json:"position,omitempty"`
	Item     *models.Node `json:"item,omitempty"`
}

func (c *NodeChange) UnmarshalJSON(data []byte) error {
	var w nodeChangeWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidChange, err)
	}
	switch w.Type {
	case ChangePosition, ChangeRemove:
		if w.ID == "" {
			return fmt.Errorf("%w: %s change without id", ErrInvalidChange, w.Type)
		}
	case ChangeAdd:
		if w.Item == nil || w.Item.ID == "" {
			return fmt.Errorf("%w: add change without item id", ErrInvalidChange)
		}
	default:
		return fmt.Errorf("%w: unknown node change type %q", ErrInvalidChange, w.Type)
	}
	*c = NodeChange{Type: w.Type, ID: w.ID, Position: w.Position, Item: w.Item}
	return nil
}

func (c NodeChange) MarshalJSON() ([]byte, error) {
	w := nodeChangeWire{Type: c.Type}
	switch c.Type {
	case ChangePosition:
		w.ID, w.Position = c.ID, c.Position
	case ChangeAdd:
		w.Item = c.Item
	case ChangeRemove:
		w.ID = c.ID
	default:
		return nil, fmt.Errorf("%w: unknown node change type %q", ErrInvalidChange, c.Type)
	}
	return json.Marshal(w)
}

// ConnectionChange is one entry of an edges:change batch: add with Item or
// remove with ID.
type ConnectionChange struct {
	Type ChangeType
	ID   string
	Item *models.Connection
}

type connectionChangeWire struct {
	Type ChangeType         `json:"type"`
	ID   string             `json:"id,omitempty"`
	Item *models.Connection `json:"item,omitempty"`
}

func (c *ConnectionChange) UnmarshalJSON(data []byte) error {
	var w connectionChangeWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidChange, err)
	}
	switch w.Type {
	case ChangeRemove:
		if w.ID == "" {
			return fmt.Errorf("%w: remove change without id", ErrInvalidChange)
		}
	case ChangeAdd:
		if w.Item == nil || w.Item.ID == "" {
			return fmt.Errorf("%w: add change without item id", ErrInvalidChange)
		}
	default:
		return fmt.Errorf("%w: unknown connection change type %q", ErrInvalidChange, w.Type)
	}
	*c = ConnectionChange{Type: w.Type, ID: w.ID, Item: w.Item}
	return nil
}

func (c ConnectionChange) MarshalJSON() ([]byte, error) {
	w := connectionChangeWire{Type: c.Type}
	switch c.Type {
	case ChangeAdd:
		w.Item = c.Item
	case ChangeRemove:
		w.ID = c.ID
	default:
		return nil, fmt.Errorf("%w: unknown connection change type %q", ErrInvalidChange, c.Type)
	}
	return json.Marshal(w)
}

// DecodeNodeChanges parses a JSON array of node changes. One bad entry
// rejects the whole batch.
func DecodeNodeChanges(raw []byte) ([]NodeChange, error) {
	var changes []NodeChange
	if err := json.Unmarshal(raw, &changes); err != nil {
		return nil, fmt.Errorf("decode node changes: %w", wrapInvalid(err))
	}
	return changes, nil
}

func DecodeConnectionChanges(raw []byte) ([]ConnectionChange, error) {
	var changes []ConnectionChange
	if err := json.Unmarshal(raw, &changes); err != nil {
		return nil, fmt.Errorf("decode connection changes: %w", wrapInvalid(err))
	}
	return changes, nil
}

func wrapInvalid(err error) error {
	if errors.Is(err, ErrInvalidChange) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrInvalidChange, err)
}

// Constructors used by editors emitting changes.

func MoveNode(id string, x, y float64) NodeChange {
	return NodeChange{Type: ChangePosition, ID: id, Position: &Position{X: x, Y: y}}
}

func AddNode(n models.Node) NodeChange {
	return NodeChange{Type: ChangeAdd, Item: &n}
}

func RemoveNode(id string) NodeChange {
	return NodeChange{Type: ChangeRemove, ID: id}
}

func AddConnection(c models.Connection) ConnectionChange {
	return ConnectionChange{Type: ChangeAdd, Item: &c}
}

func RemoveConnection(id string) ConnectionChange {
	return ConnectionChange{Type: ChangeRemove, ID: id}
}
