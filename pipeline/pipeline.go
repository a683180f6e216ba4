package pipeline

import (
	"adicare.it/ace/extract"
	"adicare.it/ace/logger"
	"adicare.it/ace/normalize"
	"adicare.it/ace/preprocess"
	"adicare.it/ace/quality"
	"adicare.it/ace/types"
	"encoding/json"
	"errors"
	"fmt"
	jsonpatch "github.com/evanphx/json-patch"
	"github.com/rs/zerolog"
	"sort"
)

// Generator is the external text-generation collaborator. It returns the
// model's structured output as a raw JSON object.
type Generator interface {
	Generate(text string) ([]byte, error)
	ModelName() string
}

// Pipeline turns one raw note into a finished ClinicalRecord using the
// strategy fixed at construction time.
type Pipeline struct {
	cfg       types.RunConfig
	generator Generator
	problems  func(text string) []string
	aceLogger zerolog.Logger
}

// modelOutput is the clinical/coding substructure the collaborator returns.
type modelOutput struct {
	Clinical types.Clinical `json:"clinical"`
	Coding   types.Coding   `json:"coding"`
}

func New(cfg types.RunConfig, generator Generator) (*Pipeline, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Strategy != types.StrategyRules && generator == nil {
		return nil, fmt.Errorf("strategy %q needs a text-generation collaborator", cfg.Strategy)
	}
	aceLogger := logger.NewLogger("Pipeline")
	aceLogger.Info().
		Str("strategy", cfg.Strategy).
		Str("vitals_trigger", cfg.VitalsTrigger).
		Uint64("config_hash", cfg.GetHashCode()).
		Msg("Pipeline configured")
	return &Pipeline{
		cfg:       cfg,
		generator: generator,
		problems: normalize.NewProblemNormalizer(normalize.ProblemNormalizerParams{
			FuzzyThreshold: cfg.FuzzyThreshold,
		}),
		aceLogger: aceLogger,
	}, nil
}

func (ppln *Pipeline) Config() types.RunConfig {
	return ppln.cfg
}

// Extract runs the configured strategy on one note, applies the
// post-processing pass and finalizes the record with the quality report.
func (ppln *Pipeline) Extract(recordID string, rawText string) (*types.ClinicalRecord, error) {
	text := preprocess.Clean(rawText)
	rec := types.NewRecord(recordID)

	var err error
	switch ppln.cfg.Strategy {
	case types.StrategyRules:
		ppln.applyRules(rec, text)
	case types.StrategyModel:
		err = ppln.applyModel(rec, text)
	case types.StrategyHybrid:
		err = ppln.applyHybrid(rec, text)
	default:
		err = fmt.Errorf("unknown strategy %q", ppln.cfg.Strategy)
	}
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", recordID, err)
	}

	ppln.postProcess(rec, text)

	report := quality.Check(rec)
	rec.Quality.MissingMandatoryFields = report.MissingMandatoryFields
	rec.Quality.Warnings = report.Warnings
	return rec, nil
}

func (ppln *Pipeline) applyRules(rec *types.ClinicalRecord, text string) {
	if dt, isOk := extract.Datetime(text); isOk {
		rec.Meta.VisitDatetime = &dt
	}
	if reason, isOk := extract.Reason(text); isOk {
		rec.Clinical.ReasonForVisit = &reason
	}
	if followUp, isOk := extract.FollowUp(text); isOk {
		rec.Clinical.FollowUp = &followUp
	}
	rec.Clinical.Vitals = extractVitals(text)
	rec.Clinical.Interventions = extract.Interventions(text, ppln.cfg.VitalsTrigger, rec.Clinical.Vitals)
	rec.Coding.ProblemsNormalized = ppln.problems(text)
}

// applyModel trusts the collaborator verbatim. Its output is applied to the
// record scaffold as a JSON merge patch, so any key the model omits keeps
// the record default.
func (ppln *Pipeline) applyModel(rec *types.ClinicalRecord, text string) error {
	merged, err := ppln.generateMerged(rec, text)
	if err != nil {
		return err
	}
	rec.Clinical = merged.Clinical
	rec.Coding = merged.Coding
	if dt, isOk := extract.Datetime(text); isOk {
		rec.Meta.VisitDatetime = &dt
	}
	return nil
}

// applyHybrid takes free-text fields from the collaborator but always
// recomputes vitals with the rule extractors, and unions the collaborator's
// problem codes with the normalizer's.
func (ppln *Pipeline) applyHybrid(rec *types.ClinicalRecord, text string) error {
	merged, err := ppln.generateMerged(rec, text)
	if err != nil {
		return err
	}
	rec.Clinical = merged.Clinical
	rec.Clinical.Vitals = extractVitals(text)
	rec.Coding.ProblemsNormalized = unionSorted(merged.Coding.ProblemsNormalized, ppln.problems(text))
	if dt, isOk := extract.Datetime(text); isOk {
		rec.Meta.VisitDatetime = &dt
	}
	return nil
}

func (ppln *Pipeline) generateMerged(rec *types.ClinicalRecord, text string) (*modelOutput, error) {
	if ppln.generator == nil {
		return nil, errors.New("text-generation collaborator is not configured")
	}
	out, err := ppln.generator.Generate(text)
	if err != nil {
		return nil, err
	}

	base, err := json.Marshal(modelOutput{Clinical: rec.Clinical, Coding: rec.Coding})
	if err != nil {
		return nil, err
	}
	mergedJSON, err := jsonpatch.MergePatch(base, out)
	if err != nil {
		return nil, fmt.Errorf("merging model output: %w", err)
	}
	var merged modelOutput
	if err := json.Unmarshal(mergedJSON, &merged); err != nil {
		return nil, fmt.Errorf("merged model output does not fit the record shape: %w", err)
	}
	return &merged, nil
}

func extractVitals(text string) types.Vitals {
	var vitals types.Vitals
	vitals.BloodPressureSystolic, vitals.BloodPressureDiastolic = extract.BloodPressure(text)
	vitals.HeartRate = extract.HeartRate(text)
	vitals.Temperature = extract.Temperature(text)
	vitals.SpO2 = extract.SpO2(text)
	return vitals
}

func unionSorted(a []string, b []string) []string {
	set := make(map[string]bool, len(a)+len(b))
	for _, item := range a {
		set[item] = true
	}
	for _, item := range b {
		set[item] = true
	}
	out := make([]string, 0, len(set))
	for item := range set {
		out = append(out, item)
	}
	sort.Strings(out)
	return out
}
