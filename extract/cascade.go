package extract

import "regexp"

// Rule is one step of an ordered extraction cascade: a compiled pattern plus
// an optional acceptance check over its submatches. Accept exists to reject
// numeric false positives (dates, line numbers), not to validate medicine.
type Rule struct {
	Pattern *regexp.Regexp
	Accept  func(groups []string) bool
}

// Cascade evaluates rules in priority order, most specific first, and stops
// at the first accepted hit.
type Cascade []Rule

func (cascade Cascade) FirstMatch(text string) ([]string, bool) {
	for _, rule := range cascade {
		groups := rule.Pattern.FindStringSubmatch(text)
		if groups == nil {
			continue
		}
		if rule.Accept != nil && !rule.Accept(groups) {
			continue
		}
		return groups, true
	}
	return nil, false
}
