package translation

import (
	"strings"

	"github.com/leonelquinteros/gotext"
)

// Configure loads the "default" domain for lang from dir.
// Message IDs are the English texts, so a missing catalog falls back to English.
func Configure(dir, lang string) {
	gotext.Configure(dir, strings.ToLower(lang), "default")
}

func GetLanguage() string {
	lang := gotext.GetLanguage()

	if lang == "und" || lang == "" {
		return "en"
	}

	return lang
}

// Translate looks msgID up and formats it with vars when any are given
func Translate(msgID string, vars ...interface{}) string {
	return gotext.Get(msgID, vars...)
}
