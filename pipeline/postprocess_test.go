package pipeline

import (
	"adicare.it/ace/types"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestCanonicalReason(t *testing.T) {
	cases := []struct {
		name     string
		reason   string
		expected string
	}{
		{"abbreviations and plus", "Pz riferisce dolore + stanchezza.", "dolore e stanchezza"},
		{"filler opening stripped", "Visita domiciliare per medicazione ferita dx.", "medicazione ferita destra"},
		{"whitespace collapsed", "  controllo   settimanale ", "controllo settimanale"},
		{"already canonical", "controllo settimanale", "controllo settimanale"},
		{"stacked fillers", "Visita per il paziente riferisce dolore.", "dolore"},
		{"reduces to nothing", "Paziente riferisce.", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, canonicalReason(tc.reason))
		})
	}
}

func TestCanonicalFollowUp(t *testing.T) {
	cases := []struct {
		name     string
		followUp string
		expected string
	}{
		{"days clause", "Programmato nuovo controllo tra 7 giorni", "programmato controllo tra 7 giorni"},
		{"next week clause", "controllo la prossima settimana", followUpNextWeek},
		{"bare new check", "nuovo controllo", followUpNewCheck},
		{"ricontatto", "Ricontatto telefonico previsto", followUpNewCheck},
		{"free text passthrough", "Telefonata alla famiglia.", "telefonata alla famiglia"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, canonicalFollowUp(tc.followUp))
		})
	}
}

func TestCanonicalInterventions(t *testing.T) {
	interventions := canonicalInterventions(
		[]string{"Bendaggio", "controllo parametri", "qualcosa di ignoto"}, "", "")
	assert.Equal(t, []string{"medicazione", "controllo_parametri_vitali"}, interventions)

	// wound-care mention in the note infers medicazione
	interventions = canonicalInterventions([]string{}, "Ulcera sacrale in miglioramento.", "")
	assert.Equal(t, []string{"medicazione"}, interventions)

	// duplicates collapse, first-seen order survives
	interventions = canonicalInterventions(
		[]string{"prelievo", "prelievo ematico", "medicazione"}, "", "")
	assert.Equal(t, []string{"prelievo_ematico", "medicazione"}, interventions)
}

func TestPostProcessRepairsModelGaps(t *testing.T) {
	ppln, err := New(types.RunConfig{Strategy: types.StrategyRules}, nil)
	require.NoError(t, err)

	text := "Paziente riferisce dolore alla gamba. Fissato nuovo controllo."
	rec := types.NewRecord("ADI-0100")
	ppln.postProcess(rec, text)

	require.NotNil(t, rec.Clinical.ReasonForVisit)
	assert.Equal(t, "dolore alla gamba", *rec.Clinical.ReasonForVisit)

	require.NotNil(t, rec.Clinical.FollowUp)
	assert.Equal(t, followUpNewCheck, *rec.Clinical.FollowUp)
}

func TestPostProcessVitalsImplyCheck(t *testing.T) {
	ppln, err := New(types.RunConfig{Strategy: types.StrategyRules}, nil)
	require.NoError(t, err)

	rec := types.NewRecord("ADI-0101")
	heartRate := 74
	rec.Clinical.Vitals.HeartRate = &heartRate
	ppln.postProcess(rec, "")

	assert.Equal(t, []string{"controllo_parametri_vitali"}, rec.Clinical.Interventions)
	require.NotNil(t, rec.Clinical.ReasonForVisit)
	assert.Equal(t, defaultVitalsReason, *rec.Clinical.ReasonForVisit)
}

func TestPostProcessDropsOutOfVocabularyProblems(t *testing.T) {
	ppln, err := New(types.RunConfig{Strategy: types.StrategyRules}, nil)
	require.NoError(t, err)

	rec := types.NewRecord("ADI-0102")
	rec.Coding.ProblemsNormalized = []string{"ipertensione", "codice_inventato", "ipertensione"}
	ppln.postProcess(rec, "")

	assert.Equal(t, []string{"ipertensione"}, rec.Coding.ProblemsNormalized)
}

func TestPostProcessIsIdempotent(t *testing.T) {
	ppln, err := New(types.RunConfig{Strategy: types.StrategyRules}, nil)
	require.NoError(t, err)

	rec, err := ppln.Extract("ADI-0103", sampleNote)
	require.NoError(t, err)

	again := *rec
	ppln.postProcess(&again, sampleNote)
	if diff := cmp.Diff(rec, &again); diff != "" {
		t.Errorf("post-processing is not idempotent (-once +twice):\n%s", diff)
	}

	// a reason where stripping one filler exposes another must stabilize
	// after the first pass
	stacked := types.NewRecord("ADI-0104")
	reason := "Visita per il paziente riferisce dolore"
	stacked.Clinical.ReasonForVisit = &reason
	ppln.postProcess(stacked, "")
	require.NotNil(t, stacked.Clinical.ReasonForVisit)
	assert.Equal(t, "dolore", *stacked.Clinical.ReasonForVisit)

	twice := *stacked
	ppln.postProcess(&twice, "")
	if diff := cmp.Diff(stacked, &twice); diff != "" {
		t.Errorf("post-processing is not idempotent for stacked fillers (-once +twice):\n%s", diff)
	}
}
