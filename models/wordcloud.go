package models

import "time"

// Word is a weighted keyword of a word cloud.
type Word struct {
	Text  string `json:"text" validate:"required,max=100"`
	Value int    `json:"value" validate:"min=0"`
}

type WordCloud struct {
	ID       uint   `gorm:"primaryKey" json:"-"`
	PublicID string `gorm:"size:32;uniqueIndex;not null" json:"id"`

	MapID    uint `gorm:"not null;index" json:"-"`
	AuthorID uint `gorm:"not null;index" json:"-"`

	MapTitle  string `gorm:"size:200" json:"mapTitle"`
	Words     []Word `gorm:"serializer:json" json:"words"`
	ImageData string `gorm:"type:text" json:"imageData,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}
