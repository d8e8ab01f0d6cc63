package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"room8/internal/notify"
)

// SyncAction tells the worker what to do with a chore's calendar event.
type SyncAction string

const (
	ActionUpsert SyncAction = "upsert"
	ActionDelete SyncAction = "delete"
)

// ChoreSyncMessage asks the worker to mirror one chore to the calendar.
// Upserts carry only the id; the worker reads the current chore itself.
// Deletes carry the event id since the chore is already gone.
type ChoreSyncMessage struct {
	ChoreID   string     `json:"chore_id"`
	Action    SyncAction `json:"action"`
	EventID   string     `json:"event_id,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

func NewChoreSyncMessage(choreID string, action SyncAction, eventID string) *ChoreSyncMessage {
	return &ChoreSyncMessage{
		ChoreID:   choreID,
		Action:    action,
		EventID:   eventID,
		Timestamp: time.Now(),
	}
}

func (m *ChoreSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChoreSyncMessageFromJSON decodes and validates a sync message.
func ChoreSyncMessageFromJSON(data []byte) (*ChoreSyncMessage, error) {
	var msg ChoreSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ChoreID == "" {
		return nil, fmt.Errorf("sync message without chore id")
	}
	if msg.Action != ActionUpsert && msg.Action != ActionDelete {
		return nil, fmt.Errorf("unknown sync action %q", msg.Action)
	}
	return &msg, nil
}

// ReminderMessage is a fired chore reminder for downstream delivery.
type ReminderMessage struct {
	notify.Reminder
	Timestamp time.Time `json:"timestamp"`
}

func NewReminderMessage(r notify.Reminder) *ReminderMessage {
	return &ReminderMessage{Reminder: r, Timestamp: time.Now()}
}

func (m *ReminderMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ReminderMessageFromJSON(data []byte) (*ReminderMessage, error) {
	var msg ReminderMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
