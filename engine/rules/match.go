package rules

import "strings"

// MatchesSolution compares an answer to a solution case-insensitively.
// No trimming happens here; input surfaces trim before submitting.
func MatchesSolution(answer, solution string) bool {
	return strings.EqualFold(answer, solution)
}
