package i18n

import (
	"fmt"
	"strings"

	"github.com/freightlane/internal/constants"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"
)

// LocaleContextKey 请求上下文中的语言键
const LocaleContextKey = "locale"

var matcher = language.NewMatcher([]language.Tag{
	language.AmericanEnglish,
	language.SimplifiedChinese,
})

// ResolveLocale 解析请求语言，优先 query lang，其次 Accept-Language
func ResolveLocale(c *gin.Context) string {
	if c == nil {
		return constants.LocaleEnUS
	}
	if value, ok := c.Get(LocaleContextKey); ok {
		if locale, ok := value.(string); ok && locale != "" {
			return locale
		}
	}
	locale := MatchAcceptLanguage(c.GetHeader("Accept-Language"))
	if lang := strings.TrimSpace(c.Query("lang")); lang != "" {
		locale = NormalizeLocale(lang)
	}
	c.Set(LocaleContextKey, locale)
	return locale
}

// MatchAcceptLanguage 按 Accept-Language 匹配支持的语言
func MatchAcceptLanguage(header string) string {
	if strings.TrimSpace(header) == "" {
		return constants.LocaleEnUS
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return constants.LocaleEnUS
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return constants.LocaleEnUS
	}
	return constants.SupportedLocales[index]
}

// NormalizeLocale 归一化语言标识，不支持的语言回退 en-US
func NormalizeLocale(raw string) string {
	normalized := strings.TrimSpace(raw)
	if normalized == "" {
		return constants.LocaleEnUS
	}
	tag, err := language.Parse(normalized)
	if err != nil {
		return constants.LocaleEnUS
	}
	_, index, confidence := matcher.Match(tag)
	if confidence == language.No {
		return constants.LocaleEnUS
	}
	return constants.SupportedLocales[index]
}

// T 翻译消息键，缺失时回退 en-US，再缺失返回键本身
func T(locale, key string) string {
	if catalog, ok := catalogs[locale]; ok {
		if msg, ok := catalog[key]; ok {
			return msg
		}
	}
	if msg, ok := catalogs[constants.LocaleEnUS][key]; ok {
		return msg
	}
	return key
}

// Sprintf 翻译并格式化消息
func Sprintf(locale, key string, args ...interface{}) string {
	return fmt.Sprintf(T(locale, key), args...)
}
