// Package queue carries notification tasks from the API to the worker over a
// Redis stream consumed by a consumer group.
package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	TaskPendingReminder = "pending_reminder"
	TaskContactUs       = "contact_us"
)

const (
	fieldType    = "type"
	fieldPayload = "payload"
)

// Task is one stream entry: a type tag and a JSON payload.
type Task struct {
	ID      string
	Type    string
	Payload json.RawMessage
}

// ErrMalformedTask marks entries that can never be processed. The consumer
// acks them instead of leaving them for redelivery.
var ErrMalformedTask = errors.New("malformed task")

// Decode unmarshals the task payload into out.
func (t Task) Decode(out any) error {
	if len(t.Payload) == 0 {
		return fmt.Errorf("%w: empty payload", ErrMalformedTask)
	}
	if err := json.Unmarshal(t.Payload, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedTask, err)
	}
	return nil
}

// PendingReminder asks the worker to remind recipients of interested
// requests created in [From, To).
type PendingReminder struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// ContactUs is a contact form submission to relay to the site admin.
type ContactUs struct {
	UserID    string `json:"userId"`
	FromName  string `json:"fromName"`
	FromEmail string `json:"fromEmail"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
}

func encodeValues(taskType string, payload any) (map[string]any, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", taskType, err)
	}
	return map[string]any{fieldType: taskType, fieldPayload: string(raw)}, nil
}

func decodeMessage(msg redis.XMessage) (Task, error) {
	taskType, _ := msg.Values[fieldType].(string)
	if taskType == "" {
		return Task{}, fmt.Errorf("%w: message %s has no task type", ErrMalformedTask, msg.ID)
	}
	payload, _ := msg.Values[fieldPayload].(string)
	return Task{ID: msg.ID, Type: taskType, Payload: json.RawMessage(payload)}, nil
}
