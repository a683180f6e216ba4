package types

// ClinicalRecord is the structured output produced for a single ADI
// home-visit note. It is created empty per note, populated by exactly one
// extraction strategy, normalized by post-processing and finalized by the
// quality validator before serialization.
type ClinicalRecord struct {
	Meta     Meta     `json:"meta"`
	Patient  Patient  `json:"patient"`
	Clinical Clinical `json:"clinical"`
	Coding   Coding   `json:"coding"`
	Quality  Quality  `json:"quality"`
}

type Meta struct {
	RecordID      string   `json:"record_id"`
	TemplateType  []string `json:"template_type"`
	VisitDatetime *string  `json:"visit_datetime"`
	OperatorRole  string   `json:"operator_role"`
}

type Patient struct {
	PatientID string  `json:"patient_id"`
	Age       *int    `json:"age"`
	Sex       *string `json:"sex"`
}

type Clinical struct {
	ReasonForVisit *string  `json:"reason_for_visit"`
	AnamnesisBrief []string `json:"anamnesis_brief"`
	Vitals         Vitals   `json:"vitals"`
	Consciousness  *string  `json:"consciousness"`
	Mobility       *string  `json:"mobility"`
	Interventions  []string `json:"interventions"`
	CriticalIssues []string `json:"critical_issues"`
	FollowUp       *string  `json:"follow_up"`
}

type Vitals struct {
	BloodPressureSystolic  *int     `json:"blood_pressure_systolic"`
	BloodPressureDiastolic *int     `json:"blood_pressure_diastolic"`
	HeartRate              *int     `json:"heart_rate"`
	Temperature            *float64 `json:"temperature"`
	SpO2                   *int     `json:"spo2"`
}

// Any reports whether at least one vital value was extracted.
func (vitals Vitals) Any() bool {
	return vitals.BloodPressureSystolic != nil ||
		vitals.BloodPressureDiastolic != nil ||
		vitals.HeartRate != nil ||
		vitals.Temperature != nil ||
		vitals.SpO2 != nil
}

type Coding struct {
	ProblemsNormalized []string `json:"problems_normalized"`
}

type Quality struct {
	MissingMandatoryFields []string `json:"missing_mandatory_fields"`
	Warnings               []string `json:"warnings"`
}

// NewRecord builds the empty record scaffold for one note. Defaults match
// the ADI diary templates the notes are dictated against.
func NewRecord(recordID string) *ClinicalRecord {
	return &ClinicalRecord{
		Meta: Meta{
			RecordID:     recordID,
			TemplateType: []string{"diario_clinico", "presa_in_carico"},
			OperatorRole: "infermiere",
		},
		Patient: Patient{
			PatientID: "SYNTH-" + recordID,
		},
		Clinical: Clinical{
			AnamnesisBrief: []string{},
			Interventions:  []string{},
			CriticalIssues: []string{},
		},
		Coding: Coding{
			ProblemsNormalized: []string{},
		},
		Quality: Quality{
			MissingMandatoryFields: []string{},
			Warnings:               []string{},
		},
	}
}
