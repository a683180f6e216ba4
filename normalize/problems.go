package normalize

import (
	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"regexp"
	"sort"
	"strings"
)

// Precision/recall tuning knobs. The fuzzy threshold is tuned high on
// purpose to bound false positives; phrases shorter than the minimum length
// are never fuzzy-matched because short strings score spuriously well.
const (
	DefaultFuzzyThreshold = 90
	MinFuzzyPhraseLength  = 8
)

type ProblemNormalizerParams struct {
	FuzzyThreshold  int `json:"fuzzy_threshold"`
	MinPhraseLength int `json:"min_phrase_length"`
}

// Family rules catch high-variance roots that the exact phrase list misses
// (declensions, typos ending differently, composed forms).
var familyRules = []struct {
	pattern *regexp.Regexp
	code    string
}{
	{regexp.MustCompile(`(?i)\bipertens\w*`), "ipertensione"},
	{regexp.MustCompile(`(?i)\bscompens\w*`), "scompenso_cardiaco"},
	{regexp.MustCompile(`(?i)\bdisidrat\w*`), "disidratazione"},
}

var fatigueCues = []string{"stanchezza", "astenia", "affaticamento", "spossatezza"}

var appetiteCues = []string{
	"scarso appetito", "inappetenza", "ridotto appetito",
	"mangia poco", "non mangia", "poco appetito",
}

var dolorePattern = regexp.MustCompile(`(?i)\bdolore\b`)

// non-alphanumeric noise goes to spaces; Italian accented vowels survive
var textNoisePattern = regexp.MustCompile(`[^0-9a-zàèéìíòóùú]+`)

func normalizeText(text string) string {
	low := strings.ToLower(text)
	return strings.TrimSpace(textNoisePattern.ReplaceAllString(low, " "))
}

// NewProblemNormalizer builds the controlled-vocabulary problem normalizer.
// Every step is additive (a union over the accumulated code set); the final
// vocabulary intersection guarantees no out-of-vocabulary leakage.
func NewProblemNormalizer(params ProblemNormalizerParams) func(text string) []string {
	threshold := params.FuzzyThreshold
	if threshold <= 0 {
		threshold = DefaultFuzzyThreshold
	}
	minPhraseLength := params.MinPhraseLength
	if minPhraseLength <= 0 {
		minPhraseLength = MinFuzzyPhraseLength
	}

	return func(text string) []string {
		normalized := normalizeText(text)
		if normalized == "" {
			return []string{}
		}
		found := make(map[string]bool)

		// 1. exact phrase lookup
		for phrase, code := range SynonymMap {
			if strings.Contains(normalized, phrase) {
				found[code] = true
			}
		}

		// 2. regex family roots
		for _, rule := range familyRules {
			if rule.pattern.MatchString(normalized) {
				found[rule.code] = true
			}
		}

		// 3. fuzzy match for phrases not already satisfied
		for phrase, code := range SynonymMap {
			if found[code] || len(phrase) < minPhraseLength {
				continue
			}
			if fuzzy.PartialRatio(phrase, normalized) >= threshold {
				found[code] = true
			}
		}

		// 4. compound inference: fatigue plus reduced appetite
		if containsAny(normalized, fatigueCues) && containsAny(normalized, appetiteCues) {
			found["malnutrizione"] = true
		}

		// 5. broad recall rule: any pain mention
		if dolorePattern.MatchString(normalized) {
			found["dolore_cronico"] = true
		}

		out := make([]string, 0, len(found))
		for code := range found {
			if ProblemVocab[code] {
				out = append(out, code)
			}
		}
		sort.Strings(out)
		return out
	}
}

// Problems normalizes with the default tuning; callers with a RunConfig
// should build their own normalizer instead.
func Problems(text string) []string {
	return NewProblemNormalizer(ProblemNormalizerParams{})(text)
}

func containsAny(text string, cues []string) bool {
	for _, cue := range cues {
		if strings.Contains(text, cue) {
			return true
		}
	}
	return false
}
