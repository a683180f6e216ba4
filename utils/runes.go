package utils

import "strings"

// Unicode sub/superscript digits show up in dictated vitals ("SpO₂", "O²").
var digitFolds = map[rune]rune{
	'₀': '0', '₁': '1', '₂': '2', '₃': '3', '₄': '4',
	'₅': '5', '₆': '6', '₇': '7', '₈': '8', '₉': '9',
	'⁰': '0', '¹': '1', '²': '2', '³': '3', '⁴': '4',
	'⁵': '5', '⁶': '6', '⁷': '7', '⁸': '8', '⁹': '9',
}

func FoldDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if plain, isOk := digitFolds[r]; isOk {
			return plain
		}
		return r
	}, s)
}
