package models

import "time"

// Flashcard is a study card derived from a map, optionally from one topic.
type Flashcard struct {
	ID       uint   `gorm:"primaryKey" json:"-"`
	PublicID string `gorm:"size:32;uniqueIndex;not null" json:"id"`

	MapID    uint `gorm:"not null;index" json:"-"`
	AuthorID uint `gorm:"not null;index" json:"-"`

	Front string `gorm:"not null;size:1000" json:"front"`
	Back  string `gorm:"not null;size:4000" json:"back"`

	// Optional tracking fields
	SourceNodeID    string `gorm:"size:100" json:"sourceNodeId,omitempty"`
	SourceTopicText string `gorm:"size:1000" json:"sourceTopicText,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}
