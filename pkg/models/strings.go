package models

import (
	"strconv"
	"strings"
)

func splitPositions(position string) []string {
	fields := strings.FieldsFunc(strings.ToUpper(position), func(r rune) bool {
		return r == '/' || r == ',' || r == '-' || r == ' '
	})
	return fields
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// FormatMoney renders 12500000 as "12,500,000".
func FormatMoney(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	s := strconv.FormatInt(v, 10)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String()
}
