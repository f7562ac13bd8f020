package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/joeshaw/aveiro-bus/internal/logging"
	"github.com/joeshaw/aveiro-bus/internal/metrics"
	"github.com/joeshaw/aveiro-bus/internal/models"
)

const finishReasonSafety = "SAFETY"

type GeminiOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	Metrics    metrics.Metricer
}

// Gemini talks to the Generative Language generateContent endpoint.
type Gemini struct {
	opts GeminiOptions
}

func NewGemini(opts GeminiOptions) *Gemini {
	if opts.Model == "" {
		opts.Model = "gemini-1.5-flash-latest"
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "https://generativelanguage.googleapis.com"
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Noop
	}
	return &Gemini{opts: opts}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiCandidate struct {
	Content      *geminiContent `json:"content"`
	FinishReason string         `json:"finishReason"`
}

type geminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
	Error      *geminiError      `json:"error"`
}

// contents builds the request turns: the history as alternating user
// and model turns, followed by the question.
func contents(history []models.Message, question string) []geminiContent {
	turns := make([]geminiContent, 0, len(history)+1)
	for _, m := range history {
		role := "model"
		if m.FromUser {
			role = "user"
		}
		turns = append(turns, geminiContent{Role: role, Parts: []geminiPart{{Text: m.Text}}})
	}
	return append(turns, geminiContent{Role: "user", Parts: []geminiPart{{Text: question}}})
}

func (g *Gemini) Reply(ctx context.Context, history []models.Message, question string) (string, error) {
	if g.opts.APIKey == "" {
		return "", ErrMissingAPIKey
	}

	body, err := json.Marshal(geminiRequest{Contents: contents(history, question)})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		g.opts.BaseURL, url.PathEscape(g.opts.Model), url.QueryEscape(g.opts.APIKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := g.opts.HTTPClient.Do(req)
	if err != nil {
		g.opts.Metrics.RecordUpstream("gemini", metrics.OutcomeError, time.Since(start))
		return "", fmt.Errorf("gemini: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		g.opts.Metrics.RecordUpstream("gemini", metrics.OutcomeError, time.Since(start))
		return "", fmt.Errorf("gemini: read body: %w", err)
	}

	reply, err := parseGeminiResponse(resp.StatusCode, data)
	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = metrics.OutcomeStatus
		logging.WithContext(ctx).Warn("Gemini request failed",
			zap.Int("status", resp.StatusCode), zap.Error(err))
	}
	g.opts.Metrics.RecordUpstream("gemini", outcome, time.Since(start))
	return reply, err
}

func parseGeminiResponse(code int, data []byte) (string, error) {
	var resp geminiResponse
	jsonErr := json.Unmarshal(data, &resp)

	if code < 200 || code > 299 {
		if jsonErr == nil && resp.Error != nil {
			return "", &APIError{Provider: "gemini", Code: resp.Error.Code, Status: resp.Error.Status, Message: resp.Error.Message}
		}
		return "", &APIError{Provider: "gemini", Code: code, Status: http.StatusText(code)}
	}
	if jsonErr != nil {
		return "", fmt.Errorf("%w: %v", ErrUnexpectedResponse, jsonErr)
	}

	switch {
	case resp.Candidates != nil:
		if len(resp.Candidates) == 0 {
			return "", ErrEmptyReply
		}
		first := resp.Candidates[0]
		if first.Content == nil || len(first.Content.Parts) == 0 {
			if first.FinishReason == finishReasonSafety {
				return "", ErrBlocked
			}
			return "", ErrEmptyReply
		}
		reply := strings.TrimSpace(first.Content.Parts[0].Text)
		if reply == "" {
			return "", ErrEmptyReply
		}
		return reply, nil
	case resp.Error != nil:
		return "", &APIError{Provider: "gemini", Code: resp.Error.Code, Status: resp.Error.Status, Message: resp.Error.Message}
	default:
		return "", ErrUnexpectedResponse
	}
}
