package pipeline

import (
	"adicare.it/ace/extract"
	"adicare.it/ace/normalize"
	"adicare.it/ace/types"
	"regexp"
	"sort"
	"strings"
)

// Canonical phrasings the follow-up field collapses onto.
const (
	followUpNewCheck    = "programmato nuovo controllo"
	followUpNextWeek    = "programmato controllo la prossima settimana"
	defaultVitalsReason = "controllo parametri vitali"
)

// Local dictation abbreviations expanded during reason canonicalization.
var reasonAbbreviations = []struct {
	pattern     *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`\bpz\b\.?`), "paziente"},
	{regexp.MustCompile(`\bctrl\b\.?`), "controllo"},
	{regexp.MustCompile(`\bdx\b\.?`), "destra"},
	{regexp.MustCompile(`\bsx\b\.?`), "sinistra"},
}

// Filler openings that carry no clinical content once the clause is kept.
var reasonFillers = []string{
	"il paziente riferisce",
	"paziente riferisce",
	"si reca per",
	"visita domiciliare per",
	"visita per",
}

var (
	followUpDaysPattern = regexp.MustCompile(`tra\s+(\d+)\s+giorni`)
	woundCarePattern    = regexp.MustCompile(`(?i)\b(medicazione|bendaggio|ferita|lesione|ulcera|piaga)\b`)
)

// postProcess repairs and normalizes the merged record. It is idempotent:
// running it on an already-normalized record changes nothing. It re-derives
// low-confidence fields but never destroys an already-present value.
func (ppln *Pipeline) postProcess(rec *types.ClinicalRecord, text string) {
	if rec.Clinical.ReasonForVisit != nil {
		reason := canonicalReason(*rec.Clinical.ReasonForVisit)
		if reason == "" {
			rec.Clinical.ReasonForVisit = nil
		} else {
			rec.Clinical.ReasonForVisit = &reason
		}
	}

	if rec.Clinical.FollowUp != nil {
		followUp := canonicalFollowUp(*rec.Clinical.FollowUp)
		if followUp == "" {
			rec.Clinical.FollowUp = nil
		} else {
			rec.Clinical.FollowUp = &followUp
		}
	}

	// model strategies may come back with no reason at all; the rule
	// extractor is the fallback of record
	if rec.Clinical.ReasonForVisit == nil {
		if reason, isOk := extract.Reason(text); isOk {
			reason = canonicalReason(reason)
			if reason != "" {
				rec.Clinical.ReasonForVisit = &reason
			}
		}
	}

	if rec.Clinical.FollowUp == nil && strings.Contains(strings.ToLower(text), "nuovo controllo") {
		followUp := followUpNewCheck
		rec.Clinical.FollowUp = &followUp
	}

	reason := ""
	if rec.Clinical.ReasonForVisit != nil {
		reason = *rec.Clinical.ReasonForVisit
	}
	rec.Clinical.Interventions = canonicalInterventions(rec.Clinical.Interventions, text, reason)

	if rec.Clinical.Vitals.Any() {
		if !contains(rec.Clinical.Interventions, extract.InterventionVitalsCheck) {
			rec.Clinical.Interventions = append(
				[]string{extract.InterventionVitalsCheck}, rec.Clinical.Interventions...)
		}
		if rec.Clinical.ReasonForVisit == nil {
			reason := defaultVitalsReason
			rec.Clinical.ReasonForVisit = &reason
		}
	}

	rec.Coding.ProblemsNormalized = filterProblems(rec.Coding.ProblemsNormalized)
}

// canonicalReason lowercases, expands dictation abbreviations, strips filler
// openings, folds "+" into " e " and collapses whitespace.
func canonicalReason(reason string) string {
	reason = strings.ToLower(reason)
	reason = strings.ReplaceAll(reason, "+", " e ")
	for _, abbr := range reasonAbbreviations {
		reason = abbr.pattern.ReplaceAllString(reason, abbr.replacement)
	}
	reason = strings.Join(strings.Fields(reason), " ")
	// stripping one filler can expose another, so run to a fixpoint
	for {
		stripped := reason
		for _, filler := range reasonFillers {
			stripped = strings.TrimSpace(strings.TrimPrefix(stripped, filler))
		}
		if stripped == reason {
			break
		}
		reason = stripped
	}
	return strings.TrimRight(reason, ".")
}

// canonicalFollowUp maps an extracted follow-up clause onto the small set of
// canonical phrasings.
func canonicalFollowUp(followUp string) string {
	followUp = strings.Join(strings.Fields(strings.ToLower(followUp)), " ")
	if groups := followUpDaysPattern.FindStringSubmatch(followUp); groups != nil {
		return "programmato controllo tra " + groups[1] + " giorni"
	}
	if strings.Contains(followUp, "prossima settimana") {
		return followUpNextWeek
	}
	if strings.Contains(followUp, "nuovo controllo") ||
		strings.Contains(followUp, "programmato") ||
		strings.Contains(followUp, "ricontatto") {
		return followUpNewCheck
	}
	return strings.TrimRight(followUp, ".")
}

// canonicalInterventions maps synonyms onto the controlled vocabulary,
// infers medicazione from wound-care mentions and drops anything that ends
// up outside the vocabulary.
func canonicalInterventions(items []string, text string, reason string) []string {
	out := make([]string, 0, len(items)+1)
	seen := make(map[string]bool, len(items)+1)

	keep := func(code string) {
		if normalize.InterventionVocab[code] && !seen[code] {
			seen[code] = true
			out = append(out, code)
		}
	}

	for _, item := range items {
		item = strings.Join(strings.Fields(strings.ToLower(item)), " ")
		if item == "" {
			continue
		}
		if normalize.InterventionVocab[item] {
			keep(item)
			continue
		}
		if code, isOk := normalize.InterventionSynonyms[item]; isOk {
			keep(code)
		}
	}

	if woundCarePattern.MatchString(text) || woundCarePattern.MatchString(reason) {
		keep(extract.InterventionMedicazione)
	}
	return out
}

func filterProblems(problems []string) []string {
	set := make(map[string]bool, len(problems))
	for _, code := range problems {
		if normalize.ProblemVocab[code] {
			set[code] = true
		}
	}
	out := make([]string, 0, len(set))
	for code := range set {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

func contains(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
