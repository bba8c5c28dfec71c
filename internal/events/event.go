package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Action 表示资源生命周期中的一次变化。
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
	ActionStarted Action = "started"
	ActionStopped Action = "stopped"
)

// Event 描述一次资源变更，序列化为 JSON 后投递到事件总线。
type Event struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Action     Action    `json:"action"`
	ResourceID string    `json:"resource_id"`
	Name       string    `json:"name"`
	OccurredAt time.Time `json:"occurred_at"`
}

// New 构造一个带有唯一 ID 和时间戳的事件。
func New(kind string, action Action, resourceID, name string) Event {
	return Event{
		ID:         uuid.NewString(),
		Kind:       kind,
		Action:     action,
		ResourceID: resourceID,
		Name:       name,
		OccurredAt: time.Now().UTC(),
	}
}

func (e Event) encode() ([]byte, error) {
	return json.Marshal(e)
}

func decode(raw []byte) (Event, error) {
	var event Event
	err := json.Unmarshal(raw, &event)
	return event, err
}

// Handler 处理从总线上取出的事件。
type Handler func(ctx context.Context, event Event) error

// Publisher 负责向总线投递事件。
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Consumer 负责从总线中消费事件。
type Consumer interface {
	Consume(ctx context.Context, workerCount int, handler Handler) error
	Close() error
}

// Bus 同时具备发布与消费能力。
type Bus interface {
	Publisher
	Consumer
}
