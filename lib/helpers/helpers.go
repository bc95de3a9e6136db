package helpers

import (
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var markdownV2Replacer = strings.NewReplacer(
	"\\", "\\\\",
	".", "\\.", "-", "\\-", "_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]",
	"(", "\\(", ")", "\\)", "~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#",
	"+", "\\+", "=", "\\=", "|", "\\|", "{", "\\{", "}", "\\}", "!", "\\!",
)

// EscapeMarkdownV2 escapes text for Telegram's MarkdownV2 parse mode
func EscapeMarkdownV2(text string) string {
	return markdownV2Replacer.Replace(text)
}

// FormatPriceUS formats a live price with precision that depends on its magnitude
func FormatPriceUS(price float64, escapeMarkdown bool) string {
	decimals := 6

	if price >= 1000 {
		decimals = 2
	} else if price > 1.2 {
		decimals = 4
	} else if price < 0.00001 {
		decimals = 8
	}

	p := message.NewPrinter(language.English)
	formatted := p.Sprintf("%.*f", decimals, price)

	if escapeMarkdown {
		return EscapeMarkdownV2(formatted)
	}
	return formatted
}

func FormatPriceRoundedUS(price float64) string {
	p := message.NewPrinter(language.English)
	return EscapeMarkdownV2(p.Sprintf("%d", int64(price+0.5)))
}

// FormatTarget renders a user supplied target with thousands separators,
// keeping the decimals the user typed
func FormatTarget(target float64) string {
	return EscapeMarkdownV2(humanize.CommafWithDigits(target, 8))
}
