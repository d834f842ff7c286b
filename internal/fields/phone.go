package fields

import "strings"

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizePhone strips formatting and a leading NANP country code.
func NormalizePhone(raw string) string {
	d := digitsOf(raw)
	if len(d) == 11 && d[0] == '1' {
		return d[1:]
	}
	return d
}

// AreaCode returns the first three digits of a ten digit national number.
func AreaCode(raw string) (string, bool) {
	d := NormalizePhone(raw)
	if len(d) != 10 {
		return "", false
	}
	return d[:3], true
}
