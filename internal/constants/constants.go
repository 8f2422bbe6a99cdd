package constants

// 货源状态常量
const (
	LoadStatusPending             = "pending"
	LoadStatusPriced              = "priced"
	LoadStatusPostedToCarriers    = "posted_to_carriers"
	LoadStatusOpenForBid          = "open_for_bid"
	LoadStatusCounterReceived     = "counter_received"
	LoadStatusAwarded             = "awarded"
	LoadStatusInvoiceCreated      = "invoice_created"
	LoadStatusInvoiceSent         = "invoice_sent"
	LoadStatusInvoiceAcknowledged = "invoice_acknowledged"
	LoadStatusInvoicePaid         = "invoice_paid"
	LoadStatusInTransit           = "in_transit"
	LoadStatusDelivered           = "delivered"
	LoadStatusClosed              = "closed"
	LoadStatusCancelled           = "cancelled"
	LoadStatusUnavailable         = "unavailable"
)

// 报价状态常量
const (
	BidStatusPending   = "pending"
	BidStatusAccepted  = "accepted"
	BidStatusRejected  = "rejected"
	BidStatusCountered = "countered"
	BidStatusExpired   = "expired"
)

// 运单状态常量
const (
	ShipmentStatusAssigned  = "assigned"
	ShipmentStatusInTransit = "in_transit"
	ShipmentStatusDelivered = "delivered"
	ShipmentStatusCancelled = "cancelled"
)

// OTP 申请类型常量
const (
	OtpRequestTypeTripStart    = "trip_start"
	OtpRequestTypeTripEnd      = "trip_end"
	OtpRequestTypeRegistration = "registration"
)

// OTP 申请状态常量
const (
	OtpRequestStatusPending  = "pending"
	OtpRequestStatusApproved = "approved"
	OtpRequestStatusRejected = "rejected"
)

// 账单状态常量
const (
	InvoiceStatusCreated      = "created"
	InvoiceStatusSent         = "sent"
	InvoiceStatusAcknowledged = "acknowledged"
	InvoiceStatusPaid         = "paid"
	InvoiceStatusVoid         = "void"
)

// 承运方类型常量
const (
	CarrierKindSolo       = "solo"
	CarrierKindEnterprise = "enterprise"
)

// 承运方状态常量
const (
	CarrierStatusActive    = "active"
	CarrierStatusSuspended = "suspended"
)

// 证件归属主体常量
const (
	DocumentOwnerCarrier = "carrier"
	DocumentOwnerTruck   = "truck"
	DocumentOwnerDriver  = "driver"
)

// 证件类型常量
const (
	DocumentTypeDrivingLicense      = "driving_license"
	DocumentTypeVehicleRegistration = "vehicle_registration"
	DocumentTypeInsurance           = "insurance"
	DocumentTypeFitnessCertificate  = "fitness_certificate"
	DocumentTypePermit              = "permit"
	DocumentTypeBusinessLicense     = "business_license"
)

// 角色常量
const (
	RoleAdmin   = "admin"
	RoleShipper = "shipper"
	RoleCarrier = "carrier"
	RoleSystem  = "system"
)

// 状态流转实体类型常量
const (
	EntityLoad       = "load"
	EntityBid        = "bid"
	EntityShipment   = "shipment"
	EntityOtpRequest = "otp_request"
	EntityInvoice    = "invoice"
	EntityDocument   = "document"
)

// 实时事件名称常量
const (
	EventLoadUpdated      = "load_updated"
	EventBidUpdated       = "bid_updated"
	EventOtpRequested     = "otp_requested"
	EventOtpApproved      = "otp_approved"
	EventOtpRejected      = "otp_rejected"
	EventTripCompleted    = "trip_completed"
	EventDocumentUploaded = "document_uploaded"
)

// 队列常量
const (
	QueueDefault           = "default"
	QueueCritical          = "critical"
	TaskEventRedeliver     = "event:redeliver"
	EventRedeliverMaxRetry = 8
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "fl"
)

// 站点语言常量
const (
	LocaleZhCN = "zh-CN"
	LocaleEnUS = "en-US"
)

// 支持的站点语言顺序（含回退顺序）
var SupportedLocales = []string{LocaleEnUS, LocaleZhCN}
