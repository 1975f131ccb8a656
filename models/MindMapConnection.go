package models

// Connection is a directed edge between two nodes of the same map. Endpoints
// are node ids and are not checked against the node list.
type Connection struct {
	ID     string `json:"id" validate:"required"`
	Source string `json:"source" validate:"required"`
	Target string `json:"target" validate:"required"`
}
