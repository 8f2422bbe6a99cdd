package repository

import "time"

// LoadListFilter 查询货源列表的过滤条件
type LoadListFilter struct {
	Page        int
	PageSize    int
	Statuses    []string
	ShipperID   uint
	CarrierID   uint
	Keyword     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// BidListFilter 查询报价列表的过滤条件
type BidListFilter struct {
	Page      int
	PageSize  int
	LoadID    uint
	CarrierID uint
	Statuses  []string
}

// OtpRequestListFilter 查询验证码申请列表的过滤条件
type OtpRequestListFilter struct {
	Page        int
	PageSize    int
	ShipmentID  uint
	RequestType string
	Status      string
}

// TransitionLogListFilter 查询状态流转日志的过滤条件
type TransitionLogListFilter struct {
	Page       int
	PageSize   int
	EntityType string
	EntityID   uint
}
