package api

import (
	"adicare.it/ace/pipeline"
	"adicare.it/ace/utils"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
)

type Request struct {
	Pipeline *pipeline.Pipeline
}

// ProcessData extracts a structured record from the raw note text in the
// request body and returns it as JSON.
func (req *Request) ProcessData(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	logger := makeRequestLogger(r)

	if r.Method != "POST" {
		logger.Err(nil).Int("status", http.StatusMethodNotAllowed).Msg("Only 'POST' method is allowed here")
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}

	msg, err := ioutil.ReadAll(r.Body)
	if err != nil {
		logger.Err(err).Int("status", http.StatusBadRequest).Msg("Could not read request body")
		http.Error(w, "", http.StatusBadRequest)
		return
	}

	recordID := fmt.Sprintf("API-%016x", utils.HashBytes(msg))
	logger.Info().Str("tid", recordID).Msg("Starting extraction for request from API")
	rec, err := req.Pipeline.Extract(recordID, string(msg))
	if err != nil {
		logger.Err(err).Int("status", http.StatusBadGateway).Msg("Extraction failed")
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	resp, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		logger.Err(err).Int("status", http.StatusInternalServerError).Msg("Could not serialize record")
		http.Error(w, "", http.StatusInternalServerError)
		return
	}
	_, _ = w.Write(resp)
	logger.Info().Int("status", http.StatusOK).Msg("Finished processing request")
}
