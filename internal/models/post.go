package models

import (
	"time"

	"golang.org/x/net/html"
)

// PostDescriptor is one discovered feed item waiting for classification.
type PostDescriptor struct {
	ID           string
	Element      *html.Node
	DiscoveredAt time.Time
}
