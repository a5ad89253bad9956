package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"ledgerlens/internal/analyzer"
	"ledgerlens/internal/config"
	"ledgerlens/internal/port"
)

const (
	apiBaseURL   = "https://generativelanguage.googleapis.com/v1beta/models"
	providerName = "gemini"
)

// Analyzer implements port.MediaAnalyzer using Google's Gemini API.
type Analyzer struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewAnalyzer creates a Gemini-based media analyzer.
func NewAnalyzer(cfg *config.AnalyzerConfig) *Analyzer {
	return newAnalyzer(cfg, "")
}

// NewAnalyzerWithEndpoint creates an analyzer pointing at a custom API endpoint (for testing).
func NewAnalyzerWithEndpoint(cfg *config.AnalyzerConfig, endpoint string) *Analyzer {
	return newAnalyzer(cfg, endpoint)
}

func newAnalyzer(cfg *config.AnalyzerConfig, endpoint string) *Analyzer {
	model := cfg.DefaultModel
	if model == "" {
		model = "gemini-2.0-flash"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	if endpoint == "" {
		endpoint = fmt.Sprintf("%s/%s:generateContent", apiBaseURL, model)
	}
	return &Analyzer{
		apiKey:   cfg.APIKey,
		model:    model,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (a *Analyzer) Analyze(ctx context.Context, input port.AnalyzeInput) (*port.AnalyzeOutput, error) {
	prompt := analyzer.BuildReceiptPrompt(input.Mode)

	encoded := base64.StdEncoding.EncodeToString(input.MediaBytes)

	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"role": "user",
				"parts": []map[string]interface{}{
					{
						"inline_data": map[string]interface{}{
							"mime_type": input.ContentType,
							"data":      encoded,
						},
					},
					{
						"text": prompt,
					},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"responseMimeType": "application/json",
			"maxOutputTokens":  8192,
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &analyzer.PermanentError{Provider: providerName, Err: fmt.Errorf("marshaling request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, &analyzer.PermanentError{Provider: providerName, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		// Timeouts and connection failures are worth another attempt.
		return nil, &analyzer.TransientError{Provider: providerName, Err: fmt.Errorf("calling gemini API: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &analyzer.TransientError{Provider: providerName, Err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp, respBody)
	}

	return parseResponse(respBody, a.model, prompt)
}

// classifyStatus maps a non-200 response onto the analyzer error taxonomy:
// 429 carries the provider's requested backoff, 5xx is transient, any other
// 4xx will fail the same way on every attempt.
func classifyStatus(resp *http.Response, body []byte) error {
	apiErr := fmt.Errorf("gemini API error (status %d): %s", resp.StatusCode, truncate(string(body), 500))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &analyzer.RateLimitError{
			Provider:   providerName,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        apiErr,
		}
	case resp.StatusCode >= 500:
		return &analyzer.TransientError{Provider: providerName, Err: apiErr}
	default:
		return &analyzer.PermanentError{Provider: providerName, Err: apiErr}
	}
}

func parseRetryAfter(val string) time.Duration {
	secs, err := strconv.Atoi(val)
	if err != nil || secs <= 0 {
		return 60 * time.Second
	}
	return time.Duration(secs) * time.Second
}

// geminiResponse models the Gemini API response.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

func parseResponse(body []byte, model, prompt string) (*port.AnalyzeOutput, error) {
	var resp geminiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &analyzer.MalformedOutputError{
			Provider: providerName,
			Raw:      truncate(string(body), 500),
			Err:      fmt.Errorf("unmarshaling response: %w", err),
		}
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, &analyzer.MalformedOutputError{
			Provider: providerName,
			Raw:      truncate(string(body), 500),
			Err:      errors.New("empty response from API: no candidates"),
		}
	}

	text := resp.Candidates[0].Content.Parts[0].Text

	if !json.Valid([]byte(text)) {
		return nil, &analyzer.MalformedOutputError{
			Provider: providerName,
			Raw:      truncate(text, 500),
			Err:      errors.New("candidate text is not valid JSON"),
		}
	}

	return &port.AnalyzeOutput{
		Draft:      json.RawMessage(text),
		ModelUsed:  model,
		PromptUsed: prompt,
	}, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
