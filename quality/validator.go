package quality

import (
	"adicare.it/ace/extract"
	"adicare.it/ace/types"
	"encoding/json"
	"strings"
)

// MandatoryFields are the dotted paths a finished record must carry.
var MandatoryFields = []string{
	"meta.visit_datetime",
	"meta.operator_role",
	"clinical.reason_for_visit",
	"clinical.interventions",
}

type Report struct {
	MissingMandatoryFields []string `json:"missing_mandatory_fields"`
	Warnings               []string `json:"warnings"`
}

// Check validates a finished record against the mandatory-field list and the
// cross-field consistency rules. It only reports; missing optional data is
// normal and never an error.
func Check(rec *types.ClinicalRecord) Report {
	report := Report{
		MissingMandatoryFields: []string{},
		Warnings:               []string{},
	}

	asMap := recordAsMap(rec)
	for _, path := range MandatoryFields {
		if isEmpty(lookupPath(asMap, path)) {
			report.MissingMandatoryFields = append(report.MissingMandatoryFields, path)
		}
	}

	vitals := rec.Clinical.Vitals
	if (vitals.BloodPressureSystolic == nil) != (vitals.BloodPressureDiastolic == nil) {
		report.Warnings = append(report.Warnings, "BP incomplete: systolic/diastolic mismatch")
	}
	if len(rec.Clinical.Interventions) == 0 {
		report.Warnings = append(report.Warnings, "no interventions extracted")
	}
	if !vitals.Any() {
		report.Warnings = append(report.Warnings, "no vital signs extracted")
	}
	if !vitals.Any() && containsString(rec.Clinical.Interventions, extract.InterventionVitalsCheck) {
		report.Warnings = append(report.Warnings,
			"controllo_parametri_vitali recorded without any extracted vital value")
	}
	return report
}

func recordAsMap(rec *types.ClinicalRecord) map[string]interface{} {
	buf, err := json.Marshal(rec)
	if err != nil {
		return nil
	}
	var asMap map[string]interface{}
	if err := json.Unmarshal(buf, &asMap); err != nil {
		return nil
	}
	return asMap
}

func lookupPath(doc map[string]interface{}, path string) interface{} {
	var current interface{} = doc
	for _, part := range strings.Split(path, ".") {
		asMap, isOk := current.(map[string]interface{})
		if !isOk {
			return nil
		}
		current, isOk = asMap[part]
		if !isOk {
			return nil
		}
	}
	return current
}

func isEmpty(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []interface{}:
		return len(v) == 0
	default:
		return false
	}
}

func containsString(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
