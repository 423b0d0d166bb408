package engine

import "regexp"

var mentionPattern = regexp.MustCompile(`@(\w+)`)

// ScanMentions extracts every @username token from answer content, in order.
// Repeated mentions of the same user are returned once per occurrence; the
// dispatcher fires one candidate notification per match, not per user.
func ScanMentions(content string) []string {
	matches := mentionPattern.FindAllStringSubmatch(content, -1)
	usernames := make([]string, 0, len(matches))
	for _, m := range matches {
		usernames = append(usernames, m[1])
	}
	return usernames
}
