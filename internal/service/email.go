package service

import "strings"

// NormalizeEmail lowercases and trims an address before any comparison or
// storage; dedup sets are built from normalized addresses only.
func NormalizeEmail(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// ValidEmail is a loose syntax check: exactly one @, a non-empty local part,
// and a dot strictly inside the domain part. The provider does the real
// verification; this only keeps obviously broken rows out of a batch.
func ValidEmail(addr string) bool {
	at := strings.IndexByte(addr, '@')
	if at <= 0 || at != strings.LastIndexByte(addr, '@') {
		return false
	}

	domain := addr[at+1:]
	if len(domain) < 3 {
		return false
	}
	if domain[0] == '.' || domain[len(domain)-1] == '.' {
		return false
	}
	return strings.Contains(domain, ".")
}
