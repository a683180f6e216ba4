package extract

import (
	"adicare.it/ace/types"
	"regexp"
	"strings"
)

const (
	InterventionMedicazione = "medicazione"
	InterventionVitalsCheck = "controllo_parametri_vitali"
)

var (
	vitalsKeywordPattern = regexp.MustCompile(
		`(?i)\b(parametri|pa|pressione|fc|bpm|temperatura|temp|spo2|sato2|saturazione)\b`)
	vitalsRecordedPattern = regexp.MustCompile(
		`(?i)\b(?:rilevat\w*|misurat\w*)\s+(?:i\s+)?parametri\b`)
)

// Interventions extracts the performed interventions from keyword presence.
// The controllo_parametri_vitali trigger is a policy knob: under
// VitalsTriggerKeyword any vitals-related token is enough; under
// VitalsTriggerConfirmed the code is emitted only for an actually extracted
// vital value or an explicit "rilevati/misurati parametri" phrase.
// Duplicates are removed preserving first-seen order.
func Interventions(text string, policy string, vitals types.Vitals) []string {
	low := strings.ToLower(text)
	var interventions []string

	if strings.Contains(low, "medicazione") || strings.Contains(low, "bendaggio") {
		interventions = append(interventions, InterventionMedicazione)
	}

	vitalsChecked := false
	switch policy {
	case types.VitalsTriggerConfirmed:
		vitalsChecked = vitals.Any() || vitalsRecordedPattern.MatchString(text)
	default:
		vitalsChecked = vitalsKeywordPattern.MatchString(text)
	}
	if vitalsChecked {
		interventions = append(interventions, InterventionVitalsCheck)
	}

	seen := make(map[string]bool, len(interventions))
	out := make([]string, 0, len(interventions))
	for _, item := range interventions {
		if seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}
