package shared

import (
	"errors"
	"strings"

	"github.com/freightlane/internal/http/response"
	"github.com/freightlane/internal/i18n"
	"github.com/freightlane/internal/logger"
	"github.com/freightlane/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if id := c.GetString(response.RequestIDKey); id != "" {
		return logger.SW("request_id", id)
	}
	return logger.S()
}

// RespondError 返回国际化错误响应，并在有原始错误时记录日志。
func RespondError(c *gin.Context, code int, key string, err error) {
	locale := i18n.ResolveLocale(c)
	msg := i18n.T(locale, key)
	appErr := response.WrapError(code, msg, err)
	if err != nil {
		RequestLog(c).Errorw("handler_error",
			"code", appErr.Code,
			"message", appErr.Message,
			"error", err,
		)
	}
	appErr.Render(c)
}

// mappedServiceError 业务错误到接口响应的映射
type mappedServiceError struct {
	target error
	code   int
	key    string
}

// 具体错误在前，分类错误在后
var serviceErrorRules = []mappedServiceError{
	{target: service.ErrLoadNotFound, code: response.CodeNotFound, key: "error.load_not_found"},
	{target: service.ErrBidNotFound, code: response.CodeNotFound, key: "error.bid_not_found"},
	{target: service.ErrShipmentNotFound, code: response.CodeNotFound, key: "error.shipment_not_found"},
	{target: service.ErrOtpRequestNotFound, code: response.CodeNotFound, key: "error.otp_request_not_found"},
	{target: service.ErrOtpNotFound, code: response.CodeNotFound, key: "error.otp_not_found"},
	{target: service.ErrInvoiceNotFound, code: response.CodeNotFound, key: "error.invoice_not_found"},
	{target: service.ErrCarrierNotFound, code: response.CodeNotFound, key: "error.carrier_not_found"},
	{target: service.ErrTruckNotFound, code: response.CodeNotFound, key: "error.truck_not_found"},
	{target: service.ErrDriverNotFound, code: response.CodeNotFound, key: "error.driver_not_found"},
	{target: service.ErrPriceInvalid, code: response.CodeBadRequest, key: "error.price_invalid"},
	{target: service.ErrAmountInvalid, code: response.CodeBadRequest, key: "error.amount_invalid"},
	{target: service.ErrLoadInputInvalid, code: response.CodeBadRequest, key: "error.load_input_invalid"},
	{target: service.ErrTargetStatusInvalid, code: response.CodeBadRequest, key: "error.target_status_invalid"},
	{target: service.ErrRequestTypeInvalid, code: response.CodeBadRequest, key: "error.request_type_invalid"},
	{target: service.ErrValidityOutOfRange, code: response.CodeBadRequest, key: "error.validity_out_of_range"},
	{target: service.ErrDocumentInputInvalid, code: response.CodeBadRequest, key: "error.document_input_invalid"},
	{target: service.ErrFleetInputInvalid, code: response.CodeBadRequest, key: "error.fleet_input_invalid"},
	{target: service.ErrResourceNotOwned, code: response.CodeBadRequest, key: "error.resource_not_owned"},
	{target: service.ErrSoloResourceFixed, code: response.CodeConflict, key: "error.solo_resource_fixed"},
	{target: service.ErrShipmentResourcesMiss, code: response.CodeConflict, key: "error.resources_missing"},
	{target: service.ErrCarrierSuspended, code: response.CodeForbidden, key: "error.carrier_suspended"},
	{target: service.ErrAlreadyAwarded, code: response.CodeConflict, key: "error.already_awarded"},
	{target: service.ErrAlreadyProcessed, code: response.CodeConflict, key: "error.already_processed"},
	{target: service.ErrDuplicatePending, code: response.CodeConflict, key: "error.duplicate_pending"},
	{target: service.ErrAlreadyConsumed, code: response.CodeConflict, key: "error.otp_consumed"},
	{target: service.ErrExpired, code: response.CodeGone, key: "error.otp_expired"},
	{target: service.ErrAttemptsExceeded, code: response.CodeTooManyRequests, key: "error.attempts_exceeded"},
	{target: service.ErrInvalidCode, code: response.CodeUnprocessableEntity, key: "error.invalid_code"},
	{target: service.ErrUnauthorized, code: response.CodeForbidden, key: "error.forbidden"},
	{target: service.ErrInvalidTransition, code: response.CodeConflict, key: "error.invalid_transition"},
	{target: service.ErrNotFound, code: response.CodeNotFound, key: "error.not_found"},
	{target: service.ErrBadRequest, code: response.CodeBadRequest, key: "error.bad_request"},
}

// RespondServiceError 按业务错误分类返回响应，未识别的错误按 500 记录
func RespondServiceError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	locale := i18n.ResolveLocale(c)

	var blocked *service.ComplianceBlockedError
	if errors.As(err, &blocked) {
		msg := i18n.Sprintf(locale, "error.compliance_blocked", strings.Join(blocked.DocumentTypes(), ", "))
		RequestLog(c).Infow("compliance_blocked_response", "blocking_docs", blocked.DocumentTypes())
		appErr := response.WrapError(response.CodeUnprocessableEntity, msg, err).WithKind(service.ErrorKind(err))
		appErr.BlockingDocs = blocked.BlockingDocs
		appErr.Render(c)
		return
	}

	for _, rule := range serviceErrorRules {
		if errors.Is(err, rule.target) {
			RequestLog(c).Debugw("service_error_response", "code", rule.code, "error", err)
			response.WrapError(rule.code, i18n.T(locale, rule.key), err).WithKind(service.ErrorKind(err)).Render(c)
			return
		}
	}
	RespondError(c, response.CodeInternal, "error.internal", err)
}
