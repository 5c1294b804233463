package models

import (
	"strings"
	"time"
)

// NewsItem is one ingested article. Immutable once created; the pipeline
// reads it, never mutates it.
type NewsItem struct {
	ID          string
	Headline    string
	Body        string
	Source      string
	URL         string
	PublishedAt time.Time
}

// Age returns how old the item is relative to now.
func (n NewsItem) Age(now time.Time) time.Duration {
	return now.Sub(n.PublishedAt)
}

// Text returns the combined searchable text of the item.
func (n NewsItem) Text() string {
	if n.Body == "" {
		return n.Headline
	}
	return n.Headline + ". " + n.Body
}

// ExtractedSymbol is one instrument match found in a news item.
// A single item may yield zero or more of these.
type ExtractedSymbol struct {
	Instrument   string
	Confidence   float64
	MatchedAlias string
}

// NormalizeInstrument uppercases and trims an instrument identifier.
func NormalizeInstrument(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
