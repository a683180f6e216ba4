package batch

import (
	"adicare.it/ace/evaluate"
	"adicare.it/ace/llm"
	"adicare.it/ace/logger"
	"adicare.it/ace/pipeline"
	"adicare.it/ace/types"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// NotePattern matches the raw ADI note files inside a batch directory.
const NotePattern = "ADI-*.txt"

var batchLogger = logger.NewLogger("Batch")

// ProcessDir runs the pipeline over every note in notesDir and writes one
// indented JSON record per note into outDir. In rules-only mode a single
// unreadable or failing note is logged and skipped; in model/hybrid mode a
// collaborator failure aborts the batch, persisting the raw model output
// when there is one.
func ProcessDir(ppln *pipeline.Pipeline, notesDir string, outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	notePaths, err := filepath.Glob(filepath.Join(notesDir, NotePattern))
	if err != nil {
		return err
	}
	sort.Strings(notePaths)
	if len(notePaths) == 0 {
		batchLogger.Warn().Str("notes_dir", notesDir).Msg("No notes found")
		return nil
	}

	rulesOnly := ppln.Config().Strategy == types.StrategyRules
	for _, notePath := range notePaths {
		recordID := strings.TrimSuffix(path.Base(notePath), ".txt")
		noteLogger := batchLogger.With().Str("record_id", recordID).Logger()

		raw, err := ioutil.ReadFile(notePath)
		if err != nil {
			noteLogger.Warn().Err(err).Msg("Skipping unreadable note")
			continue
		}

		rec, err := ppln.Extract(recordID, string(raw))
		if err != nil {
			var outputErr *llm.OutputError
			if errors.As(err, &outputErr) {
				rawPath := filepath.Join(outDir, recordID+".raw_output.txt")
				if writeErr := ioutil.WriteFile(rawPath, []byte(outputErr.Raw), 0o644); writeErr == nil {
					noteLogger.Error().Str("raw_output_path", rawPath).Msg("Persisted raw model output for postmortem")
				}
			}
			if rulesOnly {
				noteLogger.Warn().Err(err).Msg("Skipping note that failed extraction")
				continue
			}
			return fmt.Errorf("record %s: %w", recordID, err)
		}

		if err := WriteRecord(filepath.Join(outDir, recordID+".json"), rec); err != nil {
			return err
		}
		noteLogger.Info().Msg("Wrote record")
	}
	return nil
}

// WriteRecord persists one record as indented UTF-8 JSON.
func WriteRecord(filePath string, rec *types.ClinicalRecord) error {
	buf, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	return ioutil.WriteFile(filePath, append(buf, '\n'), 0o644)
}

// LoadRecords reads every *.json record in dir, keyed by record id (file
// stem). Used for both gold and prediction directories.
func LoadRecords(dir string) (map[string]*types.ClinicalRecord, error) {
	recordPaths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	records := make(map[string]*types.ClinicalRecord, len(recordPaths))
	for _, recordPath := range recordPaths {
		buf, err := ioutil.ReadFile(recordPath)
		if err != nil {
			return nil, err
		}
		var rec types.ClinicalRecord
		if err := json.Unmarshal(buf, &rec); err != nil {
			return nil, fmt.Errorf("record %s: %w", recordPath, err)
		}
		records[strings.TrimSuffix(path.Base(recordPath), ".json")] = &rec
	}
	return records, nil
}

// WriteReport persists an evaluation report as indented JSON.
func WriteReport(filePath string, report evaluate.Report) error {
	buf, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return ioutil.WriteFile(filePath, append(buf, '\n'), 0o644)
}
