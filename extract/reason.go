package extract

import (
	"regexp"
	"strings"
)

var (
	reasonMotivoPattern    = regexp.MustCompile(`(?i)\bMotivo(?: della visita)?\s*:\s*(.*?)(?:\.|\n|$)`)
	reasonRiferiscePattern = regexp.MustCompile(`(?i)\b(?:Paziente\s+)?Riferisce\s+(.*?)(?:\.|\n|$)`)
	reasonRiferitoPattern  = regexp.MustCompile(`(?i)\bRiferito\s+(.*?)(?:\.|\n|$)`)

	headerLinePattern = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`)
	timeTokenPattern  = regexp.MustCompile(`\b\d{1,2}:\d{2}\b`)
)

// A line with none of these is never promoted to reason-for-visit by the
// last-resort tier.
var reasonKeywords = []string{
	"controllo", "monitoraggio", "rivalutazione", "dolore", "caduta",
	"medicazione", "verifica", "stanchezza", "appetito",
}

// Reason extracts the reason for the visit through four fallback tiers:
// an explicit "Motivo:" label, a "[Paziente] riferisce" clause, a "Riferito"
// clause, then the first non-header line carrying a reason keyword. Each
// tier returns on first hit; later tiers run only when all earlier tiers
// found nothing.
func Reason(text string) (string, bool) {
	for _, pattern := range []*regexp.Regexp{
		reasonMotivoPattern,
		reasonRiferiscePattern,
		reasonRiferitoPattern,
	} {
		groups := pattern.FindStringSubmatch(text)
		if groups == nil {
			continue
		}
		reason := strings.TrimSpace(groups[1])
		if reason != "" {
			return reason, true
		}
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		low := strings.ToLower(line)

		// skip the date/time header line
		if headerLinePattern.MatchString(line) && timeTokenPattern.MatchString(line) {
			continue
		}
		if strings.HasPrefix(low, "visita") {
			continue
		}

		for _, keyword := range reasonKeywords {
			if strings.Contains(low, keyword) {
				return strings.TrimRight(line, "."), true
			}
		}
	}
	return "", false
}
