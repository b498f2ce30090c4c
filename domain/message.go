// Package domain contains core concepts of the chat client.
// Values are immutable once built and carry no transport concerns.
package domain

import "time"

// TimeLayout is the fixed wall-clock format stamped on every message.
const TimeLayout = "15:04:05"

// Message represents an immutable chat event as exchanged with the peers.
// Time is pre-formatted: the wire contract carries the display string,
// not an instant.
type Message struct {
	Sender  string
	Content string
	Time    string
}

// NewMessage stamps a message with the current wall clock.
func NewMessage(sender, content string, now time.Time) Message {
	return Message{Sender: sender, Content: content, Time: now.Format(TimeLayout)}
}
