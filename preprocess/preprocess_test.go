package preprocess

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestClean(t *testing.T) {
	cases := []struct {
		name     string
		text     string
		expected string
	}{
		{"crlf to lf", "riga uno\r\nriga due", "riga uno\nriga due"},
		{"bare cr to lf", "riga uno\rriga due", "riga uno\nriga due"},
		{"bom stripped", "\ufeffVisita domiciliare", "Visita domiciliare"},
		{"subscript digits folded", "SpO₂ 96%", "SpO2 96%"},
		{"whitespace collapsed per line", "PA   120/80\t rilevata", "PA 120/80 rilevata"},
		{"line boundaries survive", "  PA 120/80  \n\n  FC 74  ", "PA 120/80\n\nFC 74"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Clean(tc.text))
		})
	}
}
