package evaluate

import (
	"adicare.it/ace/types"
	"sort"
	"strings"
)

// Field sets scored against gold records.
var (
	TextFields = []string{"clinical.reason_for_visit", "clinical.follow_up"}
	ListFields = []string{"clinical.interventions", "coding.problems_normalized"}
)

type ListScores struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

type TextFieldScore struct {
	Gold    *string `json:"gold"`
	Pred    *string `json:"pred"`
	Correct bool    `json:"correct"`
}

type ListFieldScore struct {
	Gold []string `json:"gold"`
	Pred []string `json:"pred"`
	ListScores
}

type RecordScores struct {
	TextFields       map[string]TextFieldScore `json:"text_fields"`
	Lists            map[string]ListFieldScore `json:"lists"`
	VitalsExactMatch bool                      `json:"vitals_exact_match"`
}

type Summary struct {
	NRecords             int                   `json:"n_records"`
	TextFieldAccuracy    map[string]float64    `json:"text_field_accuracy"`
	VitalsExactMatchRate float64               `json:"vitals_exact_match_rate"`
	ListF1Macro          map[string]ListScores `json:"list_f1_macro"`
}

// Report is the evaluation output: macro-averaged summary plus per-record
// raw values and scores keyed by record id.
type Report struct {
	Summary   Summary                 `json:"summary"`
	PerRecord map[string]RecordScores `json:"per_record"`
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

// F1ForLists computes set precision/recall/F1 over two lists; duplicates
// collapse. An empty gold against an empty prediction is a perfect match.
func F1ForLists(gold []string, pred []string) ListScores {
	goldSet := toSet(gold)
	predSet := toSet(pred)

	if len(goldSet) == 0 && len(predSet) == 0 {
		return ListScores{Precision: 1.0, Recall: 1.0, F1: 1.0}
	}

	tp := 0
	for item := range predSet {
		if goldSet[item] {
			tp++
		}
	}
	fp := len(predSet) - tp
	fn := len(goldSet) - tp

	var precision, recall, f1 float64
	if tp+fp > 0 {
		precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		recall = float64(tp) / float64(tp+fn)
	}
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}
	return ListScores{Precision: precision, Recall: recall, F1: f1}
}

// Evaluate joins gold and predicted records by id and scores each pair.
// Gold records without a paired prediction are skipped.
func Evaluate(gold map[string]*types.ClinicalRecord, pred map[string]*types.ClinicalRecord) Report {
	report := Report{
		Summary: Summary{
			TextFieldAccuracy: make(map[string]float64, len(TextFields)),
			ListF1Macro:       make(map[string]ListScores, len(ListFields)),
		},
		PerRecord: make(map[string]RecordScores),
	}

	textCorrect := make(map[string]int, len(TextFields))
	listSums := make(map[string]ListScores, len(ListFields))
	vitalsCorrect := 0

	ids := make([]string, 0, len(gold))
	for id := range gold {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		goldRec := gold[id]
		predRec, isOk := pred[id]
		if !isOk {
			continue
		}
		report.Summary.NRecords++

		scores := RecordScores{
			TextFields: make(map[string]TextFieldScore, len(TextFields)),
			Lists:      make(map[string]ListFieldScore, len(ListFields)),
		}

		for _, field := range TextFields {
			goldValue := normalizeText(textField(goldRec, field))
			predValue := normalizeText(textField(predRec, field))
			correct := equalText(goldValue, predValue)
			scores.TextFields[field] = TextFieldScore{Gold: goldValue, Pred: predValue, Correct: correct}
			if correct {
				textCorrect[field]++
			}
		}

		scores.VitalsExactMatch = vitalsExactMatch(goldRec.Clinical.Vitals, predRec.Clinical.Vitals)
		if scores.VitalsExactMatch {
			vitalsCorrect++
		}

		for _, field := range ListFields {
			goldList := listField(goldRec, field)
			predList := listField(predRec, field)
			listScores := F1ForLists(goldList, predList)
			scores.Lists[field] = ListFieldScore{Gold: goldList, Pred: predList, ListScores: listScores}

			sums := listSums[field]
			sums.Precision += listScores.Precision
			sums.Recall += listScores.Recall
			sums.F1 += listScores.F1
			listSums[field] = sums
		}

		report.PerRecord[id] = scores
	}

	n := report.Summary.NRecords
	for _, field := range TextFields {
		if n > 0 {
			report.Summary.TextFieldAccuracy[field] = float64(textCorrect[field]) / float64(n)
		} else {
			report.Summary.TextFieldAccuracy[field] = 0
		}
	}
	if n > 0 {
		report.Summary.VitalsExactMatchRate = float64(vitalsCorrect) / float64(n)
	}
	for _, field := range ListFields {
		sums := listSums[field]
		if n > 0 {
			report.Summary.ListF1Macro[field] = ListScores{
				Precision: sums.Precision / float64(n),
				Recall:    sums.Recall / float64(n),
				F1:        sums.F1 / float64(n),
			}
		} else {
			report.Summary.ListF1Macro[field] = ListScores{}
		}
	}
	return report
}

func textField(rec *types.ClinicalRecord, field string) *string {
	switch field {
	case "clinical.reason_for_visit":
		return rec.Clinical.ReasonForVisit
	case "clinical.follow_up":
		return rec.Clinical.FollowUp
	}
	return nil
}

func listField(rec *types.ClinicalRecord, field string) []string {
	switch field {
	case "clinical.interventions":
		return rec.Clinical.Interventions
	case "coding.problems_normalized":
		return rec.Coding.ProblemsNormalized
	}
	return nil
}

func normalizeText(value *string) *string {
	if value == nil {
		return nil
	}
	normalized := strings.Join(strings.Fields(strings.ToLower(*value)), " ")
	return &normalized
}

func equalText(a *string, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func vitalsExactMatch(gold types.Vitals, pred types.Vitals) bool {
	return equalInt(gold.BloodPressureSystolic, pred.BloodPressureSystolic) &&
		equalInt(gold.BloodPressureDiastolic, pred.BloodPressureDiastolic) &&
		equalInt(gold.HeartRate, pred.HeartRate) &&
		equalFloat(gold.Temperature, pred.Temperature) &&
		equalInt(gold.SpO2, pred.SpO2)
}

func equalInt(a *int, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func equalFloat(a *float64, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
