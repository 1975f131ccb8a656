package mindmap

import "github.com/andrewpaige1/mindflow-api/models"

// ApplyNodeChanges folds changes into nodes in order and returns the new
// slice. The input slice is not modified. Changes naming an unknown id are
// ignored, which makes remove idempotent.
func ApplyNodeChanges(nodes []models.Node, changes []NodeChange) []models.Node {
	out := make([]models.Node, len(nodes))
	copy(out, nodes)

	for _, c := range changes {
		switch c.Type {
		case ChangePosition:
			if c.Position == nil {
				continue
			}
			if i := indexOfNode(out, c.ID); i >= 0 {
				out[i].SetPosition(c.Position.X, c.Position.Y)
			}
		case ChangeAdd:
			if c.Item != nil {
				out = append(out, *c.Item)
			}
		case ChangeRemove:
			if i := indexOfNode(out, c.ID); i >= 0 {
				out = append(out[:i:i], out[i+1:]...)
			}
		}
	}
	return out
}

// ApplyConnectionChanges is the connection counterpart of ApplyNodeChanges.
func ApplyConnectionChanges(conns []models.Connection, changes []ConnectionChange) []models.Connection {
	out := make([]models.Connection, len(conns))
	copy(out, conns)

	for _, c := range changes {
		switch c.Type {
		case ChangeAdd:
			if c.Item != nil {
				out = append(out, *c.Item)
			}
		case ChangeRemove:
			kept := out[:0:0]
			for _, conn := range out {
				if conn.ID != c.ID {
					kept = append(kept, conn)
				}
			}
			out = kept
		}
	}
	return out
}

// StripTransient returns a copy of nodes with client-only UI state cleared.
func StripTransient(nodes []models.Node) []models.Node {
	out := make([]models.Node, len(nodes))
	for i, n := range nodes {
		topics := make([]models.Topic, len(n.Topics))
		for j, t := range n.Topics {
			t.IsEditing = false
			topics[j] = t
		}
		n.Topics = topics
		out[i] = n
	}
	return out
}

func indexOfNode(nodes []models.Node, id string) int {
	for i := range nodes {
		if nodes[i].ID == id {
			return i
		}
	}
	return -1
}
