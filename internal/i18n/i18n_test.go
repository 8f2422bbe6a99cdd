package i18n

import (
	"net/http/httptest"
	"testing"

	"github.com/freightlane/internal/constants"

	"github.com/gin-gonic/gin"
)

func TestMatchAcceptLanguage(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{header: "", want: constants.LocaleEnUS},
		{header: "zh-CN,zh;q=0.9", want: constants.LocaleZhCN},
		{header: "zh", want: constants.LocaleZhCN},
		{header: "en-GB,en;q=0.8", want: constants.LocaleEnUS},
		{header: "fr-FR", want: constants.LocaleEnUS},
		{header: ";;;", want: constants.LocaleEnUS},
	}
	for _, item := range cases {
		if got := MatchAcceptLanguage(item.header); got != item.want {
			t.Fatalf("match %q want %s got %s", item.header, item.want, got)
		}
	}
}

func TestTranslateFallback(t *testing.T) {
	if got := T(constants.LocaleZhCN, "error.already_awarded"); got != "货源已成交" {
		t.Fatalf("unexpected zh message: %s", got)
	}
	if got := T("de-DE", "error.already_awarded"); got != "Load has already been awarded" {
		t.Fatalf("unexpected fallback message: %s", got)
	}
	if got := T(constants.LocaleEnUS, "error.unknown_key"); got != "error.unknown_key" {
		t.Fatalf("missing key want key got %s", got)
	}
	if got := Sprintf(constants.LocaleEnUS, "error.compliance_blocked", "insurance"); got != "Compliance documents missing or expired: insurance" {
		t.Fatalf("unexpected formatted message: %s", got)
	}
}

func TestCatalogsHaveSameKeys(t *testing.T) {
	en := catalogs[constants.LocaleEnUS]
	zh := catalogs[constants.LocaleZhCN]
	for key := range en {
		if _, ok := zh[key]; !ok {
			t.Fatalf("zh-CN catalog missing key %s", key)
		}
	}
	if len(en) != len(zh) {
		t.Fatalf("catalog size mismatch en=%d zh=%d", len(en), len(zh))
	}
}

func TestResolveLocaleQueryOverridesHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/api/v1/loads?lang=zh-CN", nil)
	c.Request.Header.Set("Accept-Language", "en-US")
	if got := ResolveLocale(c); got != constants.LocaleZhCN {
		t.Fatalf("want zh-CN got %s", got)
	}
}
