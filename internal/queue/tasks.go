package queue

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/freightlane/internal/constants"
	"github.com/freightlane/internal/events"

	"github.com/hibiken/asynq"
)

const (
	// TaskEventRedeliver 事件补偿投递任务
	TaskEventRedeliver = constants.TaskEventRedeliver
)

// EventRedeliverPayload 事件补偿投递任务载荷
type EventRedeliverPayload struct {
	Sink  string       `json:"sink"`
	Event events.Event `json:"event"`
}

// NewEventRedeliverTask 创建事件补偿投递任务
func NewEventRedeliverTask(payload EventRedeliverPayload) (*asynq.Task, error) {
	if strings.TrimSpace(payload.Sink) == "" {
		return nil, fmt.Errorf("redeliver sink is required")
	}
	if payload.Event.Sensitive {
		return nil, fmt.Errorf("sensitive event cannot be queued")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskEventRedeliver, body), nil
}

// ParseEventRedeliverPayload 解析事件补偿投递任务载荷
func ParseEventRedeliverPayload(body []byte) (EventRedeliverPayload, error) {
	var payload EventRedeliverPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return payload, err
	}
	if strings.TrimSpace(payload.Sink) == "" || payload.Event.ID == "" {
		return payload, fmt.Errorf("invalid redeliver payload")
	}
	return payload, nil
}
