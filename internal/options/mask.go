package options

import "unicode/utf8"

const (
	maskedPrefix   = "••••"
	maskVisibleLen = 4
)

// MaskAPIKey hides all but the last four characters of key. Short keys are
// hidden entirely.
func MaskAPIKey(key string) string {
	if key == "" {
		return ""
	}

	n := utf8.RuneCountInString(key)
	if n <= 2*maskVisibleLen {
		return maskedPrefix
	}

	runes := []rune(key)

	return maskedPrefix + string(runes[n-maskVisibleLen:])
}
