package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/joeshaw/aveiro-bus/internal/metrics"
	"github.com/joeshaw/aveiro-bus/internal/models"
)

type OpenAIOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	Metrics    metrics.Metricer
}

// OpenAI answers through the chat completions API.
type OpenAI struct {
	client  openai.Client
	model   string
	hasKey  bool
	metrics metrics.Metricer
}

func NewOpenAI(opts OpenAIOptions) *OpenAI {
	if opts.Model == "" {
		opts.Model = "gpt-4o-mini"
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Noop
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(2),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}

	return &OpenAI{
		client:  openai.NewClient(reqOpts...),
		model:   opts.Model,
		hasKey:  opts.APIKey != "",
		metrics: opts.Metrics,
	}
}

// completionMessages builds the chat completion turns for history and question.
func completionMessages(history []models.Message, question string) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+2)
	msgs = append(msgs, openai.SystemMessage(systemPrompt))
	for _, m := range history {
		if m.FromUser {
			msgs = append(msgs, openai.UserMessage(m.Text))
		} else {
			msgs = append(msgs, openai.AssistantMessage(m.Text))
		}
	}
	return append(msgs, openai.UserMessage(question))
}

const systemPrompt = "You are the assistant of AveiroBus, the public bus service of Aveiro, Portugal. " +
	"Answer questions about lines, stops, schedules and getting around Aveiro. " +
	"Reply in the language of the question."

func (o *OpenAI) Reply(ctx context.Context, history []models.Message, question string) (string, error) {
	if !o.hasKey {
		return "", ErrMissingAPIKey
	}

	start := time.Now()
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.model),
		Messages: completionMessages(history, question),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			o.metrics.RecordUpstream("openai", metrics.OutcomeStatus, time.Since(start))
			return "", &APIError{Provider: "openai", Code: apiErr.StatusCode, Status: apiErr.Code, Message: apiErr.Message}
		}
		o.metrics.RecordUpstream("openai", metrics.OutcomeError, time.Since(start))
		return "", fmt.Errorf("openai: %w", err)
	}
	o.metrics.RecordUpstream("openai", metrics.OutcomeOK, time.Since(start))

	if len(resp.Choices) == 0 {
		return "", ErrEmptyReply
	}
	choice := resp.Choices[0]
	if choice.FinishReason == "content_filter" {
		return "", ErrBlocked
	}
	reply := strings.TrimSpace(choice.Message.Content)
	if reply == "" {
		return "", ErrEmptyReply
	}
	return reply, nil
}
