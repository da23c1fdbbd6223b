package common

import (
	"path/filepath"
	"regexp"
	"strings"

	"taxtally/deductions/internal/models"
)

// accountDigits finds a 4+ digit run in a statement file name, usually the
// tail of the card or account number.
var accountDigits = regexp.MustCompile(`\d{4,}`)

// AccountIDFromFileName derives a stable account identifier for an uploaded
// statement. The last run of four or more digits in the file name is used,
// keeping its last four; otherwise the bank identifier stands in.
func AccountIDFromFileName(bank models.BankID, fileName string) string {
	base := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	runs := accountDigits.FindAllString(base, -1)
	if len(runs) == 0 {
		return SanitizeAccountID(string(bank))
	}
	digits := runs[len(runs)-1]
	if len(digits) > 4 {
		digits = digits[len(digits)-4:]
	}
	return SanitizeAccountID(string(bank) + "-" + digits)
}

// SanitizeAccountID makes an account identifier safe to use as a storage
// key: only letters, digits, '_', '-' and '.' survive, ".." sequences are
// removed and an empty result becomes "UNKNOWN".
func SanitizeAccountID(accountID string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(accountID) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	sanitized := b.String()
	for strings.Contains(sanitized, "..") {
		sanitized = strings.ReplaceAll(sanitized, "..", "_")
	}
	for strings.Contains(sanitized, "__") {
		sanitized = strings.ReplaceAll(sanitized, "__", "_")
	}
	sanitized = strings.Trim(sanitized, "_.")
	if sanitized == "" {
		return "UNKNOWN"
	}
	return sanitized
}
