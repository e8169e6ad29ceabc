// Package model defines domain entities for the application.
package model

import "time"

// TimestampLayout is the wire format for timestamps (ISO 8601, millisecond precision, UTC).
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// MaxContentLength is the longest transcription text, in characters.
const MaxContentLength = 50000

// Transcription is a stored transcript. It is immutable once created.
type Transcription struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Page is one page of a newest-first listing.
// NextToken is empty when HasMore is false.
type Page[T any] struct {
	Items     []T
	NextToken string
	HasMore   bool
}
