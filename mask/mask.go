package mask

import (
	"strings"
	"unicode/utf8"
)

// Glyph replaces every hidden character.
const Glyph = "*"

const (
	phoneLength  = 11
	idCardLong   = 18
	idCardShort  = 15
	bankCardMin  = 8
	addressShort = 6
	addressMax   = 4
	ellipsis     = "..."
)

// Phone masks an 11-digit mobile number as 138****5678. Anything else,
// including an already masked number, is returned unchanged.
func Phone(s string) string {
	if len(s) != phoneLength || !allDigits(s) {
		return s
	}
	return s[:3] + strings.Repeat(Glyph, 4) + s[7:]
}

// IDCard masks a national ID number. 18-character numbers keep the first 6
// and last 4 characters, 15-character numbers the first 6 and last 3. The
// final character of an 18-character number may be the check letter X.
func IDCard(s string) string {
	switch len(s) {
	case idCardLong:
		if !allDigits(s[:17]) || !isCheckChar(s[17]) {
			return s
		}
		return s[:6] + strings.Repeat(Glyph, 8) + s[14:]
	case idCardShort:
		if !allDigits(s) {
			return s
		}
		return s[:6] + strings.Repeat(Glyph, 6) + s[12:]
	default:
		return s
	}
}

// Email keeps the domain and at most the first and last character of the
// local part. Local parts of one or two characters are kept whole.
func Email(s string) string {
	at := strings.LastIndexByte(s, '@')
	if at <= 0 || at == len(s)-1 {
		return s
	}
	local, domain := []rune(s[:at]), s[at+1:]
	if len(local) <= 2 {
		return string(local) + strings.Repeat(Glyph, 4) + "@" + domain
	}
	return string(local[0]) + strings.Repeat(Glyph, 4) + string(local[len(local)-1]) + "@" + domain
}

// Name keeps the first character and, for names of three or more
// characters, the last one.
func Name(s string) string {
	r := []rune(s)
	switch {
	case len(r) <= 1:
		return s
	case len(r) == 2:
		return string(r[0]) + Glyph
	default:
		return string(r[0]) + strings.Repeat(Glyph, len(r)-2) + string(r[len(r)-1])
	}
}

// BankCard keeps the first and last four characters.
func BankCard(s string) string {
	r := []rune(s)
	if len(r) < bankCardMin {
		return s
	}
	return string(r[:4]) + strings.Repeat(Glyph, len(r)-8) + string(r[len(r)-4:])
}

// Address reveals the first 30% of the characters, rounded up, followed by
// at most four glyphs and an ellipsis.
func Address(s string) string {
	n := utf8.RuneCountInString(s)
	if n <= addressShort {
		return s
	}
	visible := (n*3 + 9) / 10
	return string([]rune(s)[:visible]) + strings.Repeat(Glyph, min(n-visible, addressMax)) + ellipsis
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isCheckChar(c byte) bool {
	return c >= '0' && c <= '9' || c == 'X' || c == 'x'
}
