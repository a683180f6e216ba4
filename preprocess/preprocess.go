package preprocess

import (
	"adicare.it/ace/utils"
	"strings"
)

// Clean is the text normalization applied to every raw note before any
// extractor runs: encoding noise out, line structure preserved. The
// per-field extractors rely on line boundaries surviving this step.
func Clean(text string) string {
	text = strings.TrimPrefix(text, "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = utils.FoldDigits(text)

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
