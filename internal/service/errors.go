package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// 错误分类
var (
	ErrNotFound          = errors.New("资源不存在")
	ErrInvalidTransition = errors.New("当前状态不允许该操作")
	ErrUnauthorized      = errors.New("无权执行该操作")
	ErrComplianceBlocked = errors.New("合规证件缺失或已过期")
	ErrAlreadyProcessed  = errors.New("已被处理")
	ErrAlreadyAwarded    = errors.New("货源已成交")
	ErrDuplicatePending  = errors.New("存在待处理的申请")
	ErrInvalidCode       = errors.New("验证码错误")
	ErrExpired           = errors.New("验证码已过期")
	ErrAlreadyConsumed   = errors.New("验证码已使用")
	ErrAttemptsExceeded  = errors.New("验证码错误次数过多")
	ErrBadRequest        = errors.New("请求参数错误")
)

// 具体错误
var (
	ErrLoadNotFound       = fmt.Errorf("%w: 货源不存在", ErrNotFound)
	ErrBidNotFound        = fmt.Errorf("%w: 报价不存在", ErrNotFound)
	ErrShipmentNotFound   = fmt.Errorf("%w: 运单不存在", ErrNotFound)
	ErrOtpRequestNotFound = fmt.Errorf("%w: 验证码申请不存在", ErrNotFound)
	ErrOtpNotFound        = fmt.Errorf("%w: 验证码不存在", ErrNotFound)
	ErrInvoiceNotFound    = fmt.Errorf("%w: 账单不存在", ErrNotFound)
	ErrCarrierNotFound    = fmt.Errorf("%w: 承运方不存在", ErrNotFound)
	ErrTruckNotFound      = fmt.Errorf("%w: 车辆不存在", ErrNotFound)
	ErrDriverNotFound     = fmt.Errorf("%w: 司机不存在", ErrNotFound)

	ErrPriceInvalid          = fmt.Errorf("%w: 价格必须大于 0", ErrBadRequest)
	ErrAmountInvalid         = fmt.Errorf("%w: 金额必须大于 0", ErrBadRequest)
	ErrLoadInputInvalid      = fmt.Errorf("%w: 货源信息不完整", ErrBadRequest)
	ErrTargetStatusInvalid   = fmt.Errorf("%w: 目标状态无效", ErrBadRequest)
	ErrRequestTypeInvalid    = fmt.Errorf("%w: 申请类型无效", ErrBadRequest)
	ErrValidityOutOfRange    = fmt.Errorf("%w: 有效期超出允许范围", ErrBadRequest)
	ErrDocumentInputInvalid  = fmt.Errorf("%w: 证件信息不完整", ErrBadRequest)
	ErrFleetInputInvalid     = fmt.Errorf("%w: 车队信息不完整", ErrBadRequest)
	ErrResourceNotOwned      = fmt.Errorf("%w: 车辆或司机不属于该承运方", ErrBadRequest)
	ErrSoloResourceFixed     = fmt.Errorf("%w: 个体司机使用登记车辆", ErrInvalidTransition)
	ErrShipmentResourcesMiss = fmt.Errorf("%w: 运单未分配司机或车辆", ErrInvalidTransition)
	ErrCarrierSuspended      = fmt.Errorf("%w: 承运方已停用", ErrUnauthorized)
)

// BlockingDoc 阻断操作的证件
type BlockingDoc struct {
	SubjectKind  string `json:"subject_kind"`
	SubjectID    uint   `json:"subject_id"`
	DocumentType string `json:"document_type"`
	Reason       string `json:"reason"` // missing / expired
}

// ComplianceBlockedError 合规阻断错误，携带阻断证件
type ComplianceBlockedError struct {
	BlockingDocs []BlockingDoc
}

// Error 实现 error
func (e *ComplianceBlockedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrComplianceBlocked.Error(), strings.Join(e.DocumentTypes(), ","))
}

// Is 与 ErrComplianceBlocked 匹配
func (e *ComplianceBlockedError) Is(target error) bool {
	return target == ErrComplianceBlocked
}

// DocumentTypes 去重排序后的阻断证件类型
func (e *ComplianceBlockedError) DocumentTypes() []string {
	seen := make(map[string]struct{}, len(e.BlockingDocs))
	types := make([]string, 0, len(e.BlockingDocs))
	for _, doc := range e.BlockingDocs {
		if _, ok := seen[doc.DocumentType]; ok {
			continue
		}
		seen[doc.DocumentType] = struct{}{}
		types = append(types, doc.DocumentType)
	}
	sort.Strings(types)
	return types
}

var errorKinds = []struct {
	target error
	kind   string
}{
	{ErrComplianceBlocked, "ComplianceBlocked"},
	{ErrAlreadyAwarded, "AlreadyAwarded"},
	{ErrAlreadyProcessed, "AlreadyProcessed"},
	{ErrDuplicatePending, "DuplicatePending"},
	{ErrAlreadyConsumed, "AlreadyConsumed"},
	{ErrExpired, "Expired"},
	{ErrAttemptsExceeded, "AttemptsExceeded"},
	{ErrInvalidCode, "InvalidCode"},
	{ErrUnauthorized, "Unauthorized"},
	{ErrInvalidTransition, "InvalidTransition"},
	{ErrNotFound, "NotFound"},
	{ErrBadRequest, "BadRequest"},
}

// ErrorKind 返回错误所属分类，未知错误返回空字符串
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	for _, item := range errorKinds {
		if errors.Is(err, item.target) {
			return item.kind
		}
	}
	return ""
}
