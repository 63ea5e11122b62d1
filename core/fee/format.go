package fee

import (
	"strconv"
	"time"
)

// FormatCDF renders a whole Congolese Franc amount the way the fr-CD locale
// does: thousands separated by spaces, "FC" suffix (eg. "50 000 FC").
func FormatCDF(amount int) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}

	s := strconv.Itoa(amount)
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ' ')
		}
		out = append(out, c)
	}
	if neg {
		return "-" + string(out) + " FC"
	}
	return string(out) + " FC"
}

// FormatDate renders a date in the fr-FR short form, eg. "15/09/2024".
func FormatDate(t time.Time) string {
	return t.Format("02/01/2006")
}
