package caption

import (
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatLikes renders counts below 1000 as plain digits and larger counts
// with the locale's digits and thousands separator.
func FormatLikes(n int, tag language.Tag) string {
	if n < 1000 {
		return strconv.Itoa(n)
	}
	return message.NewPrinter(tag).Sprintf("%d", n)
}
