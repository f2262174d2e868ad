package retry

import "strings"

// defaultRetryableSubstrings are matched case-insensitively against
// an error's message (spec §4.3).
var defaultRetryableSubstrings = []string{
	"ECONNRESET",
	"ETIMEDOUT",
	"ECONNREFUSED",
	"fetch failed",
	"rate limit",
}

// IsRetryable classifies err as transient. If allowList is non-empty
// it is authoritative: err is retryable iff its message contains one
// of the allow-listed codes, case-insensitively. Otherwise the
// default substring predicate applies (spec §4.3).
func IsRetryable(err error, allowList []string) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())

	if len(allowList) > 0 {
		for _, code := range allowList {
			if strings.Contains(msg, strings.ToLower(code)) {
				return true
			}
		}
		return false
	}

	for _, sub := range defaultRetryableSubstrings {
		if strings.Contains(msg, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}
