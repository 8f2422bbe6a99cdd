package service

import (
	"github.com/freightlane/internal/constants"
	"github.com/freightlane/internal/events"
	"github.com/freightlane/internal/models"
)

// EventPublisher 实时事件发布
type EventPublisher interface {
	Publish(evt events.Event)
}

// publishAll 事务提交后逐个发布事件
func publishAll(publisher EventPublisher, evts []events.Event) {
	if publisher == nil {
		return
	}
	for _, evt := range evts {
		publisher.Publish(evt)
	}
}

// loadRecipients 货源事件接收方
func loadRecipients(load *models.Load) []events.Recipient {
	recipients := []events.Recipient{events.AllAdmins, events.ShipperRecipient(load.ShipperID)}
	if load.AssignedCarrierID != nil {
		recipients = append(recipients, events.CarrierRecipient(*load.AssignedCarrierID))
	}
	return recipients
}

// loadUpdatedEvent 货源状态变更事件
func loadUpdatedEvent(load *models.Load, extra ...events.Recipient) events.Event {
	payload := map[string]interface{}{
		"reference_no": load.ReferenceNo,
		"version":      load.Version,
	}
	if load.AssignedCarrierID != nil {
		payload["assigned_carrier_id"] = *load.AssignedCarrierID
	}
	recipients := append(loadRecipients(load), extra...)
	return events.New(constants.EventLoadUpdated, constants.EntityLoad, load.ID, load.Status, payload, recipients...)
}

// bidUpdatedEvent 报价状态变更事件
func bidUpdatedEvent(bid *models.Bid, load *models.Load) events.Event {
	payload := map[string]interface{}{
		"load_id": bid.LoadID,
		"amount":  bid.Amount.String(),
	}
	if bid.CounterAmount != nil {
		payload["counter_amount"] = bid.CounterAmount.String()
	}
	return events.New(constants.EventBidUpdated, constants.EntityBid, bid.ID, bid.Status, payload,
		events.AllAdmins,
		events.ShipperRecipient(load.ShipperID),
		events.CarrierRecipient(bid.CarrierID),
	)
}
