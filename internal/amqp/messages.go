package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// Change kinds carried on the fanout exchange.
const (
	KindTransactionCreated = "transaction.created"
	KindTransactionDeleted = "transaction.deleted"
	KindGoalCreated        = "goal.created"
)

// ChangeEvent tells other instances that a user's collections changed and any
// cached dashboard state for that user is stale. It carries identifiers only;
// receivers reload from storage.
type ChangeEvent struct {
	Kind      string    `json:"kind"`
	UserID    string    `json:"user_id"`
	EntityID  string    `json:"entity_id,omitempty"`
	Source    string    `json:"source,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewChangeEvent stamps an event with the current time.
func NewChangeEvent(kind, userID, entityID string) ChangeEvent {
	return ChangeEvent{
		Kind:      kind,
		UserID:    userID,
		EntityID:  entityID,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e ChangeEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ChangeEventFromJSON decodes and checks an event body.
func ChangeEventFromJSON(data []byte) (ChangeEvent, error) {
	var ev ChangeEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return ChangeEvent{}, err
	}
	if ev.Kind == "" || ev.UserID == "" {
		return ChangeEvent{}, errors.New("change event missing kind or user_id")
	}
	return ev, nil
}
