package evaluate

import (
	"adicare.it/ace/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestF1ForLists(t *testing.T) {
	cases := []struct {
		name     string
		gold     []string
		pred     []string
		expected ListScores
	}{
		{
			"half overlap",
			[]string{"a", "b"},
			[]string{"b", "c"},
			ListScores{Precision: 0.5, Recall: 0.5, F1: 0.5},
		},
		{
			"both empty is perfect",
			[]string{},
			nil,
			ListScores{Precision: 1.0, Recall: 1.0, F1: 1.0},
		},
		{
			"prediction without gold",
			[]string{},
			[]string{"a"},
			ListScores{Precision: 0, Recall: 0, F1: 0},
		},
		{
			"duplicates collapse",
			[]string{"a", "a"},
			[]string{"a"},
			ListScores{Precision: 1.0, Recall: 1.0, F1: 1.0},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, F1ForLists(tc.gold, tc.pred))
		})
	}
}

func buildRecord(reason string, interventions []string, problems []string, heartRate *int) *types.ClinicalRecord {
	rec := types.NewRecord("X")
	if reason != "" {
		rec.Clinical.ReasonForVisit = &reason
	}
	rec.Clinical.Interventions = interventions
	rec.Coding.ProblemsNormalized = problems
	rec.Clinical.Vitals.HeartRate = heartRate
	return rec
}

func TestEvaluate(t *testing.T) {
	hr74, hr80 := 74, 80
	gold := map[string]*types.ClinicalRecord{
		"ADI-0001": buildRecord("controllo settimanale", []string{"medicazione"}, []string{"ipertensione"}, &hr74),
		"ADI-0002": buildRecord("dolore al ginocchio", []string{"gestione_terapia"}, []string{"dolore_cronico"}, nil),
		"ADI-9999": buildRecord("senza predizione", nil, nil, nil),
	}
	pred := map[string]*types.ClinicalRecord{
		// exact match up to case and spacing
		"ADI-0001": buildRecord("Controllo   settimanale", []string{"medicazione"}, []string{"ipertensione"}, &hr74),
		// wrong reason, wrong vitals, half-right problems
		"ADI-0002": buildRecord("altro motivo", []string{"gestione_terapia"}, []string{"dolore_cronico", "caduta"}, &hr80),
	}

	report := Evaluate(gold, pred)
	require.Equal(t, 2, report.Summary.NRecords)

	assert.Equal(t, 0.5, report.Summary.TextFieldAccuracy["clinical.reason_for_visit"])
	// follow-up is nil on both sides of both pairs
	assert.Equal(t, 1.0, report.Summary.TextFieldAccuracy["clinical.follow_up"])
	assert.Equal(t, 0.5, report.Summary.VitalsExactMatchRate)

	interventionScores := report.Summary.ListF1Macro["clinical.interventions"]
	assert.Equal(t, 1.0, interventionScores.F1)

	first := report.PerRecord["ADI-0001"]
	assert.True(t, first.VitalsExactMatch)
	assert.True(t, first.TextFields["clinical.reason_for_visit"].Correct)

	second := report.PerRecord["ADI-0002"]
	assert.False(t, second.VitalsExactMatch)
	assert.False(t, second.TextFields["clinical.reason_for_visit"].Correct)
	problemScores := second.Lists["coding.problems_normalized"]
	assert.Equal(t, 0.5, problemScores.Precision)
	assert.Equal(t, 1.0, problemScores.Recall)

	_, scored := report.PerRecord["ADI-9999"]
	assert.False(t, scored, "gold records without a prediction are skipped")
}

func TestEvaluateEmptyInput(t *testing.T) {
	report := Evaluate(nil, nil)
	assert.Equal(t, 0, report.Summary.NRecords)
	assert.Equal(t, 0.0, report.Summary.TextFieldAccuracy["clinical.reason_for_visit"])
}
