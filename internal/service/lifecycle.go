package service

import (
	"sort"

	"github.com/freightlane/internal/constants"
	"github.com/freightlane/internal/metrics"
	"github.com/freightlane/internal/models"
	"github.com/freightlane/internal/repository"
)

// transitionTable 状态流转表：源状态 -> 允许的目标状态
type transitionTable map[string]map[string]bool

func (t transitionTable) allows(from, to string) bool {
	return t[from][to]
}

// sources 能够流转到目标状态的全部源状态
func (t transitionTable) sources(to string) []string {
	result := make([]string, 0)
	for from, targets := range t {
		if targets[to] {
			result = append(result, from)
		}
	}
	sort.Strings(result)
	return result
}

var loadTransitions = transitionTable{
	constants.LoadStatusPending: {
		constants.LoadStatusPriced:      true,
		constants.LoadStatusCancelled:   true,
		constants.LoadStatusUnavailable: true,
	},
	constants.LoadStatusPriced: {
		constants.LoadStatusPostedToCarriers: true,
		constants.LoadStatusCancelled:        true,
		constants.LoadStatusUnavailable:      true,
	},
	constants.LoadStatusPostedToCarriers: {
		constants.LoadStatusOpenForBid:  true,
		constants.LoadStatusCancelled:   true,
		constants.LoadStatusUnavailable: true,
	},
	constants.LoadStatusOpenForBid: {
		constants.LoadStatusCounterReceived: true,
		constants.LoadStatusAwarded:         true,
		constants.LoadStatusCancelled:       true,
		constants.LoadStatusUnavailable:     true,
	},
	constants.LoadStatusCounterReceived: {
		constants.LoadStatusOpenForBid:  true,
		constants.LoadStatusAwarded:     true,
		constants.LoadStatusCancelled:   true,
		constants.LoadStatusUnavailable: true,
	},
	constants.LoadStatusUnavailable: {
		constants.LoadStatusPending:    true,
		constants.LoadStatusOpenForBid: true,
		constants.LoadStatusCancelled:  true,
	},
	constants.LoadStatusAwarded: {
		constants.LoadStatusInvoiceCreated: true,
		constants.LoadStatusCancelled:      true,
	},
	constants.LoadStatusInvoiceCreated: {
		constants.LoadStatusInvoiceSent: true,
		constants.LoadStatusCancelled:   true,
	},
	constants.LoadStatusInvoiceSent: {
		constants.LoadStatusInvoiceAcknowledged: true,
		constants.LoadStatusCancelled:           true,
	},
	constants.LoadStatusInvoiceAcknowledged: {
		constants.LoadStatusInvoicePaid: true,
		constants.LoadStatusCancelled:   true,
	},
	constants.LoadStatusInvoicePaid: {
		constants.LoadStatusInTransit: true,
		constants.LoadStatusCancelled: true,
	},
	constants.LoadStatusInTransit: {
		constants.LoadStatusDelivered: true,
	},
	constants.LoadStatusDelivered: {
		constants.LoadStatusClosed: true,
	},
}

var bidTransitions = transitionTable{
	constants.BidStatusPending: {
		constants.BidStatusAccepted:  true,
		constants.BidStatusRejected:  true,
		constants.BidStatusCountered: true,
		constants.BidStatusExpired:   true,
	},
	constants.BidStatusCountered: {
		constants.BidStatusAccepted: true,
		constants.BidStatusRejected: true,
		constants.BidStatusExpired:  true,
	},
}

var shipmentTransitions = transitionTable{
	constants.ShipmentStatusAssigned: {
		constants.ShipmentStatusInTransit: true,
		constants.ShipmentStatusCancelled: true,
	},
	constants.ShipmentStatusInTransit: {
		constants.ShipmentStatusDelivered: true,
	},
}

var otpRequestTransitions = transitionTable{
	constants.OtpRequestStatusPending: {
		constants.OtpRequestStatusApproved: true,
		constants.OtpRequestStatusRejected: true,
	},
	constants.OtpRequestStatusApproved: {
		constants.OtpRequestStatusApproved: true,
	},
}

var invoiceTransitions = transitionTable{
	constants.InvoiceStatusCreated: {
		constants.InvoiceStatusSent: true,
		constants.InvoiceStatusVoid: true,
	},
	constants.InvoiceStatusSent: {
		constants.InvoiceStatusAcknowledged: true,
		constants.InvoiceStatusVoid:         true,
	},
	constants.InvoiceStatusAcknowledged: {
		constants.InvoiceStatusPaid: true,
		constants.InvoiceStatusVoid: true,
	},
}

// preAwardLoadStatuses 尚未成交的货源状态
var preAwardLoadStatuses = map[string]bool{
	constants.LoadStatusPending:          true,
	constants.LoadStatusPriced:           true,
	constants.LoadStatusPostedToCarriers: true,
	constants.LoadStatusOpenForBid:       true,
	constants.LoadStatusCounterReceived:  true,
	constants.LoadStatusUnavailable:      true,
}

// carrierAssignedLoadStatuses 必须存在中标承运方的货源状态
var carrierAssignedLoadStatuses = map[string]bool{
	constants.LoadStatusAwarded:             true,
	constants.LoadStatusInvoiceCreated:      true,
	constants.LoadStatusInvoiceSent:         true,
	constants.LoadStatusInvoiceAcknowledged: true,
	constants.LoadStatusInvoicePaid:         true,
	constants.LoadStatusInTransit:           true,
	constants.LoadStatusDelivered:           true,
	constants.LoadStatusClosed:              true,
}

// biddableLoadStatuses 可处理报价的货源状态
var biddableLoadStatuses = []string{constants.LoadStatusOpenForBid, constants.LoadStatusCounterReceived}

// IsCarrierAssignedLoadStatus 该状态下货源是否必须有中标承运方
func IsCarrierAssignedLoadStatus(status string) bool {
	return carrierAssignedLoadStatuses[status]
}

// recordTransition 在同一事务内写入状态流转日志
func recordTransition(repo repository.TransitionLogRepository, entityType string, entityID uint, from, to string, actor Actor, reason string) error {
	metrics.TransitionsTotal.WithLabelValues(entityType, to).Inc()
	if repo == nil {
		return nil
	}
	return repo.Create(&models.StatusTransitionLog{
		EntityType: entityType,
		EntityID:   entityID,
		FromStatus: from,
		ToStatus:   to,
		ActorRole:  actor.Role,
		ActorID:    actor.ID,
		Reason:     reason,
	})
}

// rejectTransition 记录被拒绝的流转并返回原错误
func rejectTransition(entityType string, err error) error {
	if err == nil {
		return nil
	}
	if kind := ErrorKind(err); kind != "" {
		metrics.TransitionRejectionsTotal.WithLabelValues(entityType, kind).Inc()
	}
	return err
}
