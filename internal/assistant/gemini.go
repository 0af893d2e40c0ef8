package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// CredentialKey is the persisted-store key holding the Gemini API key.
const CredentialKey = "gemini_api_key"

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-1.5-flash-latest"

	// Page context embedded in the remote prompt is capped at this size.
	remoteContextBudget = 2000

	maxRetries = 3
	baseDelay  = 2 * time.Second
)

// GeminiClient calls the Gemini generateContent API.
type GeminiClient struct {
	apiKey     func() string
	model      string
	baseURL    string
	httpClient *http.Client
	stats      *LLMStats

	// sleep is replaced in tests to observe backoff without waiting.
	sleep func(time.Duration)
}

// NewGeminiClient builds the remote backend. apiKey is called per request
// so a credential saved at runtime takes effect without a restart.
func NewGeminiClient(apiKey func() string, model string, stats *LLMStats) *GeminiClient {
	if model == "" {
		model = defaultModel
	}
	return &GeminiClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		stats: stats,
		sleep: time.Sleep,
	}
}

// Model returns the configured model name.
func (c *GeminiClient) Model() string { return c.model }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiRequest struct {
	Contents         []geminiContent  `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// Ask sends the prompt, retrying rate-limited calls up to maxRetries times
// after the initial attempt, with exponential backoff (2s, 4s, 8s) or the
// delay the error payload suggests.
func (c *GeminiClient) Ask(ctx context.Context, query, pageContext string) (string, error) {
	key := c.apiKey()
	if key == "" {
		return "", errf(KindInvalidCredential, "no Gemini API key configured")
	}

	prompt := buildPrompt(query, pageContext)

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		text, retryAfter, err := c.generate(ctx, key, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err

		var ae *Error
		if !errors.As(err, &ae) || ae.Kind != KindRateLimited {
			return "", err
		}
		if attempt == maxRetries {
			break
		}

		delay := retryAfter
		if delay <= 0 {
			delay = baseDelay << uint(attempt)
		}
		c.sleep(delay)

		if ctx.Err() != nil {
			return "", errf(KindNetworkError, "request cancelled: %v", ctx.Err())
		}
	}
	return "", lastErr
}

func (c *GeminiClient) generate(ctx context.Context, key, prompt string) (string, time.Duration, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     0.7,
			MaxOutputTokens: 1000,
		},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", 0, errf(KindUnexpectedFormat, "marshal request: %v", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, key)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", 0, errf(KindNetworkError, "create request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", 0, &Error{Kind: KindNetworkError, Message: "gemini api", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", 0, &Error{Kind: KindNetworkError, Message: "read response", Err: err}
	}
	if c.stats != nil {
		c.stats.Record(time.Since(start).Milliseconds())
	}

	if resp.StatusCode != http.StatusOK {
		retryAfter, cerr := classifyAPIError(resp.StatusCode, respBody)
		return "", retryAfter, cerr
	}

	var apiResp geminiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", 0, errf(KindUnexpectedFormat, "decode response: %v", err)
	}
	if len(apiResp.Candidates) == 0 || len(apiResp.Candidates[0].Content.Parts) == 0 {
		return "", 0, errf(KindUnexpectedFormat, "unexpected API response format")
	}
	return apiResp.Candidates[0].Content.Parts[0].Text, 0, nil
}

// classifyAPIError maps a non-2xx response to a tagged error and, for rate
// limits, extracts any server-suggested retry delay.
func classifyAPIError(status int, body []byte) (time.Duration, error) {
	message := "API request failed"
	var apiResp geminiResponse
	if err := json.Unmarshal(body, &apiResp); err == nil && apiResp.Error != nil && apiResp.Error.Message != "" {
		message = apiResp.Error.Message
	}
	lower := strings.ToLower(message)

	switch {
	case status == http.StatusTooManyRequests ||
		strings.Contains(lower, "quota") ||
		strings.Contains(lower, "rate limit"):
		return suggestedDelay(message), errf(KindRateLimited, "%s", message)
	case status == http.StatusBadRequest && strings.Contains(message, "API_KEY_INVALID"):
		return 0, errf(KindInvalidCredential, "invalid API key")
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return 0, errf(KindInvalidCredential, "%s", message)
	default:
		return 0, errf(KindUnexpectedFormat, "status %d: %s", status, message)
	}
}

var retryDelayRe = regexp.MustCompile(`(?i)retry.*?(\d+)\s*second`)

// suggestedDelay parses "retry in N seconds" out of an error message.
func suggestedDelay(message string) time.Duration {
	m := retryDelayRe.FindStringSubmatch(message)
	if m == nil {
		return 0
	}
	secs, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func buildPrompt(query, pageContext string) string {
	if pageContext == "" {
		return "You are a tutor. Answer this question clearly and concisely:\n\nQuestion: " + query
	}
	return fmt.Sprintf(`You are a tutor helping a student understand their textbook. Answer the question clearly and concisely using the provided context when relevant.

Context from current page:
%s

Question: %s

Provide a clear, educational response formatted with proper paragraphs.`,
		truncate(pageContext, remoteContextBudget), query)
}
