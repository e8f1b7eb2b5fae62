package notify

import (
	"encoding/json"
	"strings"
	"time"
)

// Email is an outbound message addressed to one or more recipients.
type Email struct {
	Sender     string   `json:"sender"`
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
	Recipients []string `json:"recipients"`
}

// Valid reports whether the email has a subject, a body and at least one recipient.
func (e Email) Valid() bool {
	if strings.TrimSpace(e.Subject) == "" || strings.TrimSpace(e.Body) == "" {
		return false
	}
	for _, recipient := range e.Recipients {
		if strings.TrimSpace(recipient) != "" {
			return true
		}
	}
	return false
}

// Event wraps an email for transport over the message bus.
type Event struct {
	ID     string    `json:"id"`
	Source string    `json:"source"`
	Kind   string    `json:"kind"`
	Email  Email     `json:"email"`
	SentAt time.Time `json:"sent_at"`
}

// Encode serializes the event for the wire.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEvent parses an event received from the wire.
func DecodeEvent(payload []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return Event{}, err
	}
	return event, nil
}

// Subjects derives the NATS subject and Redis channel for a channel base.
func Subjects(channelBase string) (natsSubject, redisChannel string) {
	channelBase = strings.TrimSpace(channelBase)
	if channelBase == "" {
		return "", ""
	}
	return strings.ReplaceAll(channelBase, ":", ".") + ".emails", channelBase + ":emails"
}
