package http

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

// queryList reads a multi-select parameter given as repeated keys and/or
// comma-separated values (?department=Math,Science&department=Art).
func queryList(q url.Values, key string) []string {
	var out []string
	for _, raw := range q[key] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// queryInt parses an optional integer parameter; a malformed value is
// reported under the parameter name.
func queryInt(q url.Values, key string, errs *validator.ValidationErrors) int {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		errs.Add(key, key+" must be a number")
		return 0
	}
	return n
}
