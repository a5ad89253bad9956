package gemini_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerlens/internal/analyzer"
	"ledgerlens/internal/analyzer/gemini"
	"ledgerlens/internal/config"
	"ledgerlens/internal/domain"
	"ledgerlens/internal/port"
)

func newTestAnalyzer(serverURL string) *gemini.Analyzer {
	cfg := &config.AnalyzerConfig{
		Provider:     "gemini",
		APIKey:       "test-gemini-key",
		DefaultModel: "gemini-2.0-flash",
		TimeoutSecs:  30,
	}
	return gemini.NewAnalyzerWithEndpoint(cfg, serverURL)
}

func successResponse(text string) map[string]interface{} {
	return map[string]interface{}{
		"candidates": []map[string]interface{}{
			{
				"content": map[string]interface{}{
					"role": "model",
					"parts": []map[string]interface{}{
						{"text": text},
					},
				},
				"finishReason": "STOP",
			},
		},
	}
}

func analyzeInput() port.AnalyzeInput {
	return port.AnalyzeInput{
		MediaBytes:  []byte("fake-jpeg-bytes"),
		ContentType: "image/jpeg",
		Mode:        domain.MediaModeImage,
	}
}

func TestGeminiAnalyzer_Success(t *testing.T) {
	draftJSON := `{"place":"Blue Bottle","amount":4.5,"transaction_type":"debit","category":"dining","vendor_type":"cafe","confidence":"high","items":[]}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-gemini-key", r.Header.Get("x-goog-api-key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var reqBody map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))

		contents := reqBody["contents"].([]interface{})
		require.Len(t, contents, 1)
		parts := contents[0].(map[string]interface{})["parts"].([]interface{})
		require.Len(t, parts, 2)

		inlineData := parts[0].(map[string]interface{})["inline_data"].(map[string]interface{})
		assert.Equal(t, "image/jpeg", inlineData["mime_type"])
		assert.NotEmpty(t, inlineData["data"])
		assert.NotEmpty(t, parts[1].(map[string]interface{})["text"])

		genConfig := reqBody["generationConfig"].(map[string]interface{})
		assert.Equal(t, "application/json", genConfig["responseMimeType"])

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(successResponse(draftJSON))
	}))
	defer server.Close()

	a := newTestAnalyzer(server.URL)
	out, err := a.Analyze(context.Background(), analyzeInput())

	require.NoError(t, err)
	assert.Equal(t, "gemini-2.0-flash", out.ModelUsed)
	assert.NotEmpty(t, out.PromptUsed)
	assert.JSONEq(t, draftJSON, string(out.Draft))
}

func TestGeminiAnalyzer_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429}}`))
	}))
	defer server.Close()

	a := newTestAnalyzer(server.URL)
	_, err := a.Analyze(context.Background(), analyzeInput())

	var rl *analyzer.RateLimitError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, "gemini", rl.Provider)
	assert.Equal(t, int64(7), int64(rl.RetryAfter.Seconds()))
	assert.True(t, analyzer.Retryable(err))
}

func TestGeminiAnalyzer_ServerErrorIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	a := newTestAnalyzer(server.URL)
	_, err := a.Analyze(context.Background(), analyzeInput())

	var te *analyzer.TransientError
	require.ErrorAs(t, err, &te)
	assert.True(t, analyzer.Retryable(err))
}

func TestGeminiAnalyzer_ClientErrorIsPermanent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid argument"}}`))
	}))
	defer server.Close()

	a := newTestAnalyzer(server.URL)
	_, err := a.Analyze(context.Background(), analyzeInput())

	var pe *analyzer.PermanentError
	require.ErrorAs(t, err, &pe)
	assert.False(t, analyzer.Retryable(err))
}

func TestGeminiAnalyzer_NonJSONCandidateIsMalformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(successResponse("Sure! Here is the receipt data you asked for..."))
	}))
	defer server.Close()

	a := newTestAnalyzer(server.URL)
	_, err := a.Analyze(context.Background(), analyzeInput())

	var mo *analyzer.MalformedOutputError
	require.ErrorAs(t, err, &mo)
	assert.True(t, analyzer.Retryable(err))
}

func TestGeminiAnalyzer_EmptyCandidatesIsMalformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	a := newTestAnalyzer(server.URL)
	_, err := a.Analyze(context.Background(), analyzeInput())

	var mo *analyzer.MalformedOutputError
	require.ErrorAs(t, err, &mo)
}
