package repository

import "gorm.io/gorm"

// compareAndSetStatus 仅当当前状态属于 from 时写入新状态，返回是否命中
func compareAndSetStatus(db *gorm.DB, model interface{}, id uint, from []string, to string, updates map[string]interface{}) (bool, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = to
	query := db.Model(model).Where("id = ?", id)
	if len(from) > 0 {
		query = query.Where("status IN ?", from)
	}
	result := query.Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
