package session

import (
	"fmt"
	"strings"
)

const maxParamValueLen = 200

// Parameter keys whose values are masked outright before storage, logging,
// or transmission.
var secretParamKeys = []string{
	"api_key", "apikey", "token", "secret", "password", "passwd",
	"authorization", "credential", "private_key",
}

// SanitizeParams renders tool parameters safe for persistence and transport:
// every value is stringified and truncated, and values under secret-looking
// keys are masked.
func SanitizeParams(params map[string]any) map[string]string {
	if len(params) == 0 {
		return nil
	}
	out := make(map[string]string, len(params))
	for k, v := range params {
		if isSecretKey(k) {
			out[k] = "***"
			continue
		}
		var str string
		switch tv := v.(type) {
		case string:
			str = tv
		case nil:
			str = ""
		default:
			str = fmt.Sprintf("%v", tv)
		}
		out[k] = truncate(str, maxParamValueLen)
	}
	return out
}

func isSecretKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range secretParamKeys {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}
