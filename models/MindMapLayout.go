package models

import (
	"strconv"
	"strings"
)

const MaxLinksPerTopic = 10

// Node is a positioned box on the canvas holding one or more topics.
// Left and Top are CSS-style lengths such as "50px".
type Node struct {
	ID     string  `json:"id" validate:"required,max=100"`
	Left   string  `json:"left"`
	Top    string  `json:"top"`
	Width  string  `json:"width,omitempty"`
	Height string  `json:"height,omitempty"`
	Topics []Topic `json:"topics" validate:"dive"`
}

type Topic struct {
	Text string `json:"text"`
	// max must match MaxLinksPerTopic.
	Links []Link `json:"links" validate:"max=10,dive"`
	// IsEditing is client UI state and is cleared before a map is saved.
	IsEditing bool `json:"isEditing,omitempty"`
}

type Link struct {
	Title string `json:"title"`
	URL   string `json:"url" validate:"required"`
}

// SetPosition writes x and y as pixel lengths.
func (n *Node) SetPosition(x, y float64) {
	n.Left = FormatPixels(x)
	n.Top = FormatPixels(y)
}

// Position parses Left and Top. Unparseable values read as 0.
func (n *Node) Position() (x, y float64) {
	return ParsePixels(n.Left), ParsePixels(n.Top)
}

// FormatPixels renders v the way browsers print numbers, e.g. 50 -> "50px",
// 12.5 -> "12.5px".
func FormatPixels(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}

func ParsePixels(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "px"), 64)
	if err != nil {
		return 0
	}
	return v
}
