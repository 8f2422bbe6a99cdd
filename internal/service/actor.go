package service

import (
	"strings"

	"github.com/freightlane/internal/constants"
)

// Actor 操作人
type Actor struct {
	ID   uint
	Role string
}

// AdminActor 管理员
func AdminActor(id uint) Actor { return Actor{ID: id, Role: constants.RoleAdmin} }

// ShipperActor 货主
func ShipperActor(id uint) Actor { return Actor{ID: id, Role: constants.RoleShipper} }

// CarrierActor 承运方
func CarrierActor(id uint) Actor { return Actor{ID: id, Role: constants.RoleCarrier} }

// IsAdmin 是否管理员
func (a Actor) IsAdmin() bool { return a.Role == constants.RoleAdmin }

// IsShipper 是否货主
func (a Actor) IsShipper() bool { return a.Role == constants.RoleShipper }

// IsCarrier 是否承运方
func (a Actor) IsCarrier() bool { return a.Role == constants.RoleCarrier }

// Valid 角色与 ID 是否有效
func (a Actor) Valid() bool {
	if a.ID == 0 {
		return false
	}
	switch strings.TrimSpace(a.Role) {
	case constants.RoleAdmin, constants.RoleShipper, constants.RoleCarrier:
		return true
	default:
		return false
	}
}

// Authorizer 角色权限判定
type Authorizer interface {
	Enforce(role, object, action string) (bool, error)
}

// 权限对象
const (
	ObjectLoads       = "/loads"
	ObjectBids        = "/bids"
	ObjectShipments   = "/shipments"
	ObjectOtpRequests = "/otp-requests"
	ObjectInvoices    = "/invoices"
	ObjectDocuments   = "/documents"
	ObjectFleet       = "/fleet"
)

// 权限动作
const (
	ActionCreate      = "CREATE"
	ActionPrice       = "PRICE"
	ActionPost        = "POST"
	ActionOpen        = "OPEN"
	ActionCancel      = "CANCEL"
	ActionUnavailable = "UNAVAILABLE"
	ActionResubmit    = "RESUBMIT"
	ActionClose       = "CLOSE"
	ActionAccept      = "ACCEPT"
	ActionCounter     = "COUNTER"
	ActionReject      = "REJECT"
	ActionRespond     = "RESPOND"
	ActionWithdraw    = "WITHDRAW"
	ActionRequest     = "REQUEST"
	ActionApprove     = "APPROVE"
	ActionRegenerate  = "REGENERATE"
	ActionVerify      = "VERIFY"
	ActionAssign      = "ASSIGN"
	ActionSend        = "SEND"
	ActionAcknowledge = "ACKNOWLEDGE"
	ActionPay         = "PAY"
	ActionRead        = "READ"
)

// authorize 校验角色权限，未配置权限组件时仅校验操作人有效
func authorize(authorizer Authorizer, actor Actor, object, action string) error {
	if !actor.Valid() {
		return ErrUnauthorized
	}
	if authorizer == nil {
		return nil
	}
	allowed, err := authorizer.Enforce(actor.Role, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrUnauthorized
	}
	return nil
}
