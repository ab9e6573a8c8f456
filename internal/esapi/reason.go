package esapi

import "github.com/tidwall/gjson"

// Reason digs a human-readable failure message out of an engine error
// payload. The envelope varies by version and endpoint (structured error
// object, root_cause list, or a bare string), so the lookup is tolerant
// rather than typed.
func Reason(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	for _, path := range []string{
		"error.root_cause.0.reason",
		"error.reason",
		"error.type",
		"error",
	} {
		if v := gjson.GetBytes(body, path); v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
	}
	return ""
}
