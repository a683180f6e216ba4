package quality

import (
	"adicare.it/ace/types"
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestCheckEmptyRecord(t *testing.T) {
	report := Check(types.NewRecord("ADI-0001"))

	assert.Equal(t, []string{
		"meta.visit_datetime",
		"clinical.reason_for_visit",
		"clinical.interventions",
	}, report.MissingMandatoryFields)
	assert.Equal(t, []string{
		"no interventions extracted",
		"no vital signs extracted",
	}, report.Warnings)
}

func TestCheckCompleteRecord(t *testing.T) {
	rec := types.NewRecord("ADI-0002")
	dt := "2026-02-24T09:10:00"
	reason := "controllo parametri vitali"
	systolic, diastolic := 120, 80
	rec.Meta.VisitDatetime = &dt
	rec.Clinical.ReasonForVisit = &reason
	rec.Clinical.Interventions = []string{"controllo_parametri_vitali"}
	rec.Clinical.Vitals.BloodPressureSystolic = &systolic
	rec.Clinical.Vitals.BloodPressureDiastolic = &diastolic

	report := Check(rec)
	assert.Empty(t, report.MissingMandatoryFields)
	assert.Empty(t, report.Warnings)
}

func TestCheckIncompleteBloodPressure(t *testing.T) {
	rec := types.NewRecord("ADI-0003")
	systolic := 120
	rec.Clinical.Vitals.BloodPressureSystolic = &systolic

	report := Check(rec)
	assert.Contains(t, report.Warnings, "BP incomplete: systolic/diastolic mismatch")
}

func TestCheckVitalsCheckWithoutValues(t *testing.T) {
	rec := types.NewRecord("ADI-0004")
	rec.Clinical.Interventions = []string{"controllo_parametri_vitali"}

	report := Check(rec)
	assert.Contains(t, report.Warnings,
		"controllo_parametri_vitali recorded without any extracted vital value")
	assert.NotContains(t, report.Warnings, "no interventions extracted")
}
