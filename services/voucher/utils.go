package voucher

import "strings"

// =========================================================
// Helpers
// =========================================================

// NormalizeCode upper-cases and trims a voucher code as entered by a user.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// maskCode hides the middle of a code for logs.
func maskCode(code string) string {
	if len(code) < 6 {
		return "***"
	}
	return code[:3] + "****" + code[len(code)-3:]
}
