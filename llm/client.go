package llm

import (
	"adicare.it/ace/logger"
	"adicare.it/ace/types"
	"adicare.it/ace/utils"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"io/ioutil"
	"net/http"
	"time"
)

// Failure classes a caller can test with errors.Is. None of them is retried
// automatically; the run has to be re-invoked.
var (
	ErrUnreachable = errors.New("text-generation endpoint unreachable")
	ErrBadStatus   = errors.New("text-generation endpoint returned non-200 status")
	ErrInvalidJSON = errors.New("text-generation output is not valid JSON")
)

// OutputError carries the raw model output for postmortem when the response
// could not be parsed.
type OutputError struct {
	Raw string
	err error
}

func (e *OutputError) Error() string {
	return e.err.Error()
}

func (e *OutputError) Unwrap() error {
	return e.err
}

const systemPrompt = `You extract structured clinical data from Italian ADI home-visit notes.
Return ONLY valid JSON with this structure:
{ "clinical": { "reason_for_visit": null|string, "follow_up": null|string, "interventions": [], "vitals": { "blood_pressure_systolic": null|number, "blood_pressure_diastolic": null|number, "heart_rate": null|number, "temperature": null|number, "spo2": null|number } }, "coding": { "problems_normalized": [] } }
Rules:
- Do NOT invent data.
- Do NOT confuse dates with blood pressure.
- Use null if missing.
- Output must be strict JSON (no commentary, no markdown).`

type Config struct {
	Endpoint       string `envconfig:"ACE_LLM_ENDPOINT" default:"http://localhost:11434"`
	Model          string `envconfig:"ACE_LLM_MODEL" default:"llama3.1:8b"`
	TimeoutSeconds int    `envconfig:"ACE_LLM_TIMEOUT_SECONDS" default:"90"`
}

// Cache lets callers memoize model responses keyed by a content hash.
// Nil cache means every call goes to the endpoint.
type Cache interface {
	Get(key uint64) ([]byte, bool)
	Set(key uint64, value []byte) error
}

type Client struct {
	httpClient *http.Client
	endpoint   string
	model      string
	cache      Cache
	aceLogger  zerolog.Logger
}

type generateRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	Stream  bool                   `json:"stream"`
	Options map[string]interface{} `json:"options"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// NewClient builds a collaborator client from the environment.
func NewClient() (*Client, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return NewClientWithConfig(cfg), nil
}

func NewClientWithConfig(cfg Config) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		endpoint:   cfg.Endpoint,
		model:      cfg.Model,
		aceLogger:  logger.NewLogger("LLM client"),
	}
}

// NewClientFromRunConfig wires the client to the run configuration
// (endpoint, model and timeout selected per run rather than per process).
func NewClientFromRunConfig(runCfg types.RunConfig) *Client {
	return NewClientWithConfig(Config{
		Endpoint:       runCfg.Endpoint,
		Model:          runCfg.Model,
		TimeoutSeconds: runCfg.TimeoutSeconds,
	})
}

func (client *Client) WithCache(cache Cache) *Client {
	client.cache = cache
	return client
}

func (client *Client) ModelName() string {
	return client.model
}

// Generate sends one note to the collaborator and returns the first balanced
// JSON object found in its response. The call is synchronous with a bounded
// timeout and is never retried here.
func (client *Client) Generate(text string) ([]byte, error) {
	cacheKey := utils.HashString(client.model + "\x00" + text)
	if client.cache != nil {
		if cached, isOk := client.cache.Get(cacheKey); isOk {
			client.aceLogger.Debug().Uint64("cache_key", cacheKey).Msg("Serving model output from cache")
			return cached, nil
		}
	}

	payload, err := json.Marshal(generateRequest{
		Model:   client.model,
		Prompt:  fmt.Sprintf("%s\n\nTEXT:\n%s\n\nJSON ONLY:", systemPrompt, text),
		Stream:  false,
		Options: map[string]interface{}{"temperature": 0.1},
	})
	if err != nil {
		return nil, err
	}

	resp, err := client.httpClient.Post(
		client.endpoint+"/api/generate", "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreachable, client.endpoint, err)
	}
	defer resp.Body.Close()

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrUnreachable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d: %s", ErrBadStatus, resp.StatusCode, string(body))
	}

	var genResp generateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return nil, &OutputError{
			Raw: string(body),
			err: fmt.Errorf("%w: response envelope: %v", ErrInvalidJSON, err),
		}
	}

	span, isOk := firstJSONObject(genResp.Response)
	if !isOk {
		client.aceLogger.Error().Str("raw_output", genResp.Response).Msg("Model output contains no JSON object")
		return nil, &OutputError{
			Raw: genResp.Response,
			err: fmt.Errorf("%w: no balanced object in output", ErrInvalidJSON),
		}
	}
	if !json.Valid([]byte(span)) {
		client.aceLogger.Error().Str("raw_output", genResp.Response).Msg("Model output is not valid JSON")
		return nil, &OutputError{
			Raw: genResp.Response,
			err: fmt.Errorf("%w: unparsable object in output", ErrInvalidJSON),
		}
	}

	out := []byte(span)
	if client.cache != nil {
		if err := client.cache.Set(cacheKey, out); err != nil {
			client.aceLogger.Warn().Err(err).Msg("Failed to cache model output")
		}
	}
	return out, nil
}

// firstJSONObject returns the first balanced {...} span, tolerating
// incidental commentary around it. String literals and escapes are honored
// so braces inside values do not unbalance the scan.
func firstJSONObject(s string) (string, bool) {
	depth := 0
	start := -1
	inString := false
	escaped := false
	for i, r := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
