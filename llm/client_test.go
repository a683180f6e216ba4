package llm

import (
	"encoding/json"
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"testing"
)

type mapCache struct {
	values map[uint64][]byte
}

func newMapCache() *mapCache {
	return &mapCache{values: make(map[uint64][]byte)}
}

func (cache *mapCache) Get(key uint64) ([]byte, bool) {
	value, found := cache.values[key]
	return value, found
}

func (cache *mapCache) Set(key uint64, value []byte) error {
	cache.values[key] = value
	return nil
}

func respondWith(t *testing.T, modelOutput string) (*httptest.Server, *int) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		require.Equal(t, "/api/generate", r.URL.Path)

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.False(t, req.Stream)

		_ = json.NewEncoder(w).Encode(generateResponse{Response: modelOutput})
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func testClient(endpoint string) *Client {
	return NewClientWithConfig(Config{
		Endpoint:       endpoint,
		Model:          "test-model",
		TimeoutSeconds: 5,
	})
}

func TestGenerateExtractsObjectFromCommentary(t *testing.T) {
	server, _ := respondWith(t, `Ecco il risultato richiesto:
{"clinical": {"reason_for_visit": "controllo"}, "coding": {"problems_normalized": []}}
Spero sia utile!`)

	out, err := testClient(server.URL).Generate("nota di prova")
	require.NoError(t, err)
	assert.JSONEq(t, `{"clinical": {"reason_for_visit": "controllo"}, "coding": {"problems_normalized": []}}`, string(out))
}

func TestGenerateHonorsBracesInsideStrings(t *testing.T) {
	server, _ := respondWith(t, `{"clinical": {"reason_for_visit": "nota {con parentesi}"}}`)

	out, err := testClient(server.URL).Generate("nota")
	require.NoError(t, err)
	assert.JSONEq(t, `{"clinical": {"reason_for_visit": "nota {con parentesi}"}}`, string(out))
}

func TestGenerateBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	_, err := testClient(server.URL).Generate("nota")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBadStatus))
}

func TestGenerateInvalidOutputKeepsRaw(t *testing.T) {
	server, _ := respondWith(t, "mi dispiace, non posso produrre JSON")

	_, err := testClient(server.URL).Generate("nota")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidJSON))

	var outputErr *OutputError
	require.True(t, errors.As(err, &outputErr))
	assert.Equal(t, "mi dispiace, non posso produrre JSON", outputErr.Raw)
}

func TestGenerateUnbalancedOutputKeepsRaw(t *testing.T) {
	server, _ := respondWith(t, `{"clinical": {"reason_for_visit": "tronco"`)

	_, err := testClient(server.URL).Generate("nota")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidJSON))

	var outputErr *OutputError
	require.True(t, errors.As(err, &outputErr))
	assert.Contains(t, outputErr.Raw, "tronco")
}

func TestGenerateUnreachableEndpoint(t *testing.T) {
	client := testClient("http://127.0.0.1:1")
	_, err := client.Generate("nota")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnreachable))
}

func TestGenerateUsesCache(t *testing.T) {
	server, calls := respondWith(t, `{"clinical": {}, "coding": {}}`)
	client := testClient(server.URL).WithCache(newMapCache())

	first, err := client.Generate("stessa nota")
	require.NoError(t, err)
	second, err := client.Generate("stessa nota")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, *calls, "second call must be served from cache")

	// a different note misses the cache
	_, err = client.Generate("altra nota")
	require.NoError(t, err)
	assert.Equal(t, 2, *calls)
}

func TestFirstJSONObject(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected string
		found    bool
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`, true},
		{"nested object", `pre {"a": {"b": 2}} post`, `{"a": {"b": 2}}`, true},
		{"brace in string", `{"a": "}"}`, `{"a": "}"}`, true},
		{"escaped quote", `{"a": "\"}\""}`, `{"a": "\"}\""}`, true},
		{"stray closing brace", `} {"a": 1}`, `{"a": 1}`, true},
		{"no object", "nessun oggetto qui", "", false},
		{"unbalanced", `{"a": 1`, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			span, found := firstJSONObject(tc.input)
			require.Equal(t, tc.found, found)
			assert.Equal(t, tc.expected, span)
		})
	}
}
