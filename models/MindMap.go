package models

import "time"

// Map is a single mind map document. Nodes and connections are stored inside
// the map row and are always read and written together with it.
type Map struct {
	ID       uint   `gorm:"primaryKey" json:"-"`
	PublicID string `gorm:"size:32;uniqueIndex;not null" json:"id"`

	OwnerID uint `gorm:"not null;index" json:"-"`
	Owner   User `gorm:"foreignKey:OwnerID" json:"owner"`

	Title       string       `gorm:"not null;size:200" json:"title"`
	Nodes       []Node       `gorm:"serializer:json" json:"nodes"`
	Connections []Connection `gorm:"serializer:json" json:"connections"`

	// Display attributes, opaque to the server.
	LineThickness int    `gorm:"default:2" json:"lineThickness"`
	BorderStyle   string `gorm:"size:20;default:solid" json:"borderStyle"`

	IsPublic bool    `gorm:"default:false" json:"isPublic"`
	ShareID  *string `gorm:"size:32;uniqueIndex" json:"shareId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
