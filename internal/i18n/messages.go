package i18n

import "github.com/freightlane/internal/constants"

var catalogs = map[string]map[string]string{
	constants.LocaleEnUS: {
		"error.bad_request":            "Invalid request parameters",
		"error.unauthorized":           "Authentication required",
		"error.token_invalid":          "Token is invalid or expired",
		"error.forbidden":              "Not allowed to perform this action",
		"error.not_found":              "Resource not found",
		"error.load_not_found":         "Load not found",
		"error.bid_not_found":          "Bid not found",
		"error.shipment_not_found":     "Shipment not found",
		"error.otp_request_not_found":  "OTP request not found",
		"error.otp_not_found":          "No approved OTP for this shipment",
		"error.invoice_not_found":      "Invoice not found",
		"error.carrier_not_found":      "Carrier not found",
		"error.truck_not_found":        "Truck not found",
		"error.driver_not_found":       "Driver not found",
		"error.invalid_transition":     "The current status does not allow this action",
		"error.compliance_blocked":     "Compliance documents missing or expired: %s",
		"error.already_processed":      "Already processed",
		"error.already_awarded":        "Load has already been awarded",
		"error.duplicate_pending":      "A pending request already exists",
		"error.invalid_code":           "Invalid OTP code",
		"error.otp_expired":            "OTP has expired",
		"error.otp_consumed":           "OTP has already been used",
		"error.attempts_exceeded":      "Too many wrong OTP attempts",
		"error.price_invalid":          "Price must be greater than zero",
		"error.amount_invalid":         "Amount must be greater than zero",
		"error.load_input_invalid":     "Load details are incomplete",
		"error.target_status_invalid":  "Target status is invalid",
		"error.request_type_invalid":   "Request type is invalid",
		"error.validity_out_of_range":  "Validity is outside the allowed range",
		"error.document_input_invalid": "Document details are incomplete",
		"error.fleet_input_invalid":    "Fleet details are incomplete",
		"error.resource_not_owned":     "Truck or driver does not belong to the carrier",
		"error.solo_resource_fixed":    "Solo carriers use their registered truck",
		"error.resources_missing":      "Shipment has no driver or truck assigned",
		"error.carrier_suspended":      "Carrier is suspended",
		"error.id_invalid":             "Invalid id",
		"error.rate_limited":           "Too many requests, retry in %d seconds",
		"error.rate_limit_unavailable": "Rate limiter unavailable",
		"error.internal":               "Internal server error",
		"error.authz_failed":           "Authorization policy update failed",
	},
	constants.LocaleZhCN: {
		"error.bad_request":            "请求参数错误",
		"error.unauthorized":           "请先登录",
		"error.token_invalid":          "令牌无效或已过期",
		"error.forbidden":              "无权执行该操作",
		"error.not_found":              "资源不存在",
		"error.load_not_found":         "货源不存在",
		"error.bid_not_found":          "报价不存在",
		"error.shipment_not_found":     "运单不存在",
		"error.otp_request_not_found":  "验证码申请不存在",
		"error.otp_not_found":          "该运单没有已批准的验证码",
		"error.invoice_not_found":      "账单不存在",
		"error.carrier_not_found":      "承运方不存在",
		"error.truck_not_found":        "车辆不存在",
		"error.driver_not_found":       "司机不存在",
		"error.invalid_transition":     "当前状态不允许该操作",
		"error.compliance_blocked":     "合规证件缺失或已过期：%s",
		"error.already_processed":      "已被处理",
		"error.already_awarded":        "货源已成交",
		"error.duplicate_pending":      "存在待处理的申请",
		"error.invalid_code":           "验证码错误",
		"error.otp_expired":            "验证码已过期",
		"error.otp_consumed":           "验证码已使用",
		"error.attempts_exceeded":      "验证码错误次数过多",
		"error.price_invalid":          "价格必须大于 0",
		"error.amount_invalid":         "金额必须大于 0",
		"error.load_input_invalid":     "货源信息不完整",
		"error.target_status_invalid":  "目标状态无效",
		"error.request_type_invalid":   "申请类型无效",
		"error.validity_out_of_range":  "有效期超出允许范围",
		"error.document_input_invalid": "证件信息不完整",
		"error.fleet_input_invalid":    "车队信息不完整",
		"error.resource_not_owned":     "车辆或司机不属于该承运方",
		"error.solo_resource_fixed":    "个体司机使用登记车辆",
		"error.resources_missing":      "运单未分配司机或车辆",
		"error.carrier_suspended":      "承运方已停用",
		"error.id_invalid":             "ID 无效",
		"error.rate_limited":           "请求过于频繁，请 %d 秒后重试",
		"error.rate_limit_unavailable": "限流服务不可用",
		"error.internal":               "服务器内部错误",
		"error.authz_failed":           "权限策略更新失败",
	},
}
