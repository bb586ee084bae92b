// Package strings normalizes the code lists that travel between pipeline
// stages.
package strings

import (
	"strings"
)

// DedupeAndTrim trims each value and drops empties and repeats, keeping the
// first occurrence. Order is preserved.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}

// NormalizeCode renders a reason code in its canonical form, for example
// " high_dti_ratio" becomes "HIGH_DTI_RATIO".
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
