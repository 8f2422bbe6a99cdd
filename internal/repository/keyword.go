package repository

import (
	"strings"

	"gorm.io/gorm"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// keywordMatch 生成多列模糊匹配条件，关键字中的通配符按字面匹配
// postgres 使用 ILIKE，其余方言使用 LIKE（sqlite 对 ASCII 不区分大小写）
func keywordMatch(db *gorm.DB, keyword string, columns ...string) (string, []interface{}) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" || len(columns) == 0 {
		return "", nil
	}
	operator := "LIKE"
	if db != nil && db.Dialector != nil && db.Dialector.Name() == "postgres" {
		operator = "ILIKE"
	}
	pattern := "%" + likeEscaper.Replace(keyword) + "%"
	parts := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for i, column := range columns {
		parts[i] = column + " " + operator + ` ? ESCAPE '\'`
		args[i] = pattern
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}
