package cache

import (
	"context"
	"fmt"
	"time"
)

const defaultComplianceRecordTTL = time.Minute

func complianceRecordKey(carrierID uint) string {
	return fmt.Sprintf("compliance:carrier:%d", carrierID)
}

// GetComplianceRecord 获取承运方合规概览快照（仅用于展示，不参与放行判断）
func GetComplianceRecord(ctx context.Context, carrierID uint, dest interface{}) (bool, error) {
	if carrierID == 0 {
		return false, nil
	}
	return GetJSON(ctx, complianceRecordKey(carrierID), dest)
}

// SetComplianceRecord 写入承运方合规概览快照
func SetComplianceRecord(ctx context.Context, carrierID uint, record interface{}, ttl time.Duration) error {
	if carrierID == 0 || record == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultComplianceRecordTTL
	}
	return SetJSON(ctx, complianceRecordKey(carrierID), record, ttl)
}

// DelComplianceRecord 证件变更后删除快照
func DelComplianceRecord(ctx context.Context, carrierID uint) error {
	if carrierID == 0 {
		return nil
	}
	return Del(ctx, complianceRecordKey(carrierID))
}
