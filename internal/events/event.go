package events

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Recipient 事件接收范围（推送通道名）
type Recipient string

// 广播通道
const (
	AllAdmins   Recipient = "admins"
	AllCarriers Recipient = "carriers"
)

const (
	scopeAdmin   = "admin"
	scopeShipper = "shipper"
	scopeCarrier = "carrier"
)

// ErrSensitiveRecipient 敏感事件只能投递给单个管理员
var ErrSensitiveRecipient = errors.New("sensitive event must target individual admins only")

// AdminRecipient 单个管理员通道
func AdminRecipient(adminID uint) Recipient {
	return Recipient(fmt.Sprintf("%s:%d", scopeAdmin, adminID))
}

// ShipperRecipient 货主通道
func ShipperRecipient(shipperID uint) Recipient {
	return Recipient(fmt.Sprintf("%s:%d", scopeShipper, shipperID))
}

// CarrierRecipient 承运方通道
func CarrierRecipient(carrierID uint) Recipient {
	return Recipient(fmt.Sprintf("%s:%d", scopeCarrier, carrierID))
}

// IsIndividualAdmin 是否为单个管理员通道
func (r Recipient) IsIndividualAdmin() bool {
	return strings.HasPrefix(string(r), scopeAdmin+":")
}

// Event 实时事件
type Event struct {
	ID         string                 `json:"event_id"`
	Name       string                 `json:"name"`
	EntityType string                 `json:"entity_type"`
	EntityID   uint                   `json:"entity_id"`
	NewStatus  string                 `json:"new_status"`
	Timestamp  time.Time              `json:"timestamp"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	Recipients []Recipient            `json:"recipients"`
	Sensitive  bool                   `json:"sensitive,omitempty"`
}

// New 创建普通事件
func New(name, entityType string, entityID uint, newStatus string, payload map[string]interface{}, recipients ...Recipient) Event {
	return Event{
		ID:         uuid.NewString(),
		Name:       name,
		EntityType: entityType,
		EntityID:   entityID,
		NewStatus:  newStatus,
		Timestamp:  time.Now(),
		Payload:    payload,
		Recipients: dedupeRecipients(recipients),
	}
}

// NewSensitive 创建仅投递给指定管理员的敏感事件
func NewSensitive(name, entityType string, entityID uint, newStatus string, payload map[string]interface{}, adminID uint) Event {
	evt := New(name, entityType, entityID, newStatus, payload, AdminRecipient(adminID))
	evt.Sensitive = true
	return evt
}

// Validate 校验事件的投递范围
func (e Event) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return errors.New("event name is required")
	}
	if len(e.Recipients) == 0 {
		return errors.New("event has no recipients")
	}
	if !e.Sensitive {
		return nil
	}
	for _, recipient := range e.Recipients {
		if !recipient.IsIndividualAdmin() {
			return ErrSensitiveRecipient
		}
	}
	return nil
}

func dedupeRecipients(recipients []Recipient) []Recipient {
	seen := make(map[Recipient]struct{}, len(recipients))
	result := make([]Recipient, 0, len(recipients))
	for _, recipient := range recipients {
		if strings.TrimSpace(string(recipient)) == "" {
			continue
		}
		if _, ok := seen[recipient]; ok {
			continue
		}
		seen[recipient] = struct{}{}
		result = append(result, recipient)
	}
	return result
}
