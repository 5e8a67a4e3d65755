package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"zodiac/internal/core"
)

// SignResolvedMessage is emitted after every successful lookup.
type SignResolvedMessage struct {
	Sign      string    `json:"sign"`
	Month     int       `json:"month"`
	Day       int       `json:"day"`
	Timestamp time.Time `json:"timestamp"`
}

func NewSignResolvedMessage(sign string, month, day int) *SignResolvedMessage {
	return &SignResolvedMessage{
		Sign:      sign,
		Month:     month,
		Day:       day,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *SignResolvedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// Validate rejects messages that could not have come from a real lookup.
func (m *SignResolvedMessage) Validate() error {
	if m.Sign == "" {
		return core.ErrEmptyName
	}
	if err := core.ValidateDate(m.Month, m.Day); err != nil {
		return err
	}
	if m.Timestamp.IsZero() {
		return errors.New("missing timestamp")
	}
	return nil
}

// SignResolvedMessageFromJSON creates a message from JSON bytes
func SignResolvedMessageFromJSON(data []byte) (*SignResolvedMessage, error) {
	var msg SignResolvedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
