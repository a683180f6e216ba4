package extract

import (
	"regexp"
	"strings"
)

var followUpPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bProgrammato\b.*?(?:\.|\n|$)`),
	regexp.MustCompile(`(?i)\bFollow[-\s]?up\s*:\s*(.*?)(?:\.|\n|$)`),
	regexp.MustCompile(`(?i)\bcontrollo\b.*?\b(prossima settimana|tra\s+\d+\s+giorni)\b.*?(?:\.|\n|$)`),
	regexp.MustCompile(`(?i)\bricontatto\b.*?(?:\.|\n|$)`),
}

// FollowUp extracts the planned follow-up clause. When a pattern carries a
// capture group the group is returned, otherwise the whole matched span
// trimmed of its trailing period.
func FollowUp(text string) (string, bool) {
	for _, pattern := range followUpPatterns {
		groups := pattern.FindStringSubmatch(text)
		if groups == nil {
			continue
		}

		if len(groups) > 1 {
			value := strings.TrimSpace(groups[1])
			if value == "" {
				return "", false
			}
			return value, true
		}

		value := strings.TrimRight(strings.TrimSpace(groups[0]), ".")
		if value == "" {
			return "", false
		}
		return value, true
	}
	return "", false
}
