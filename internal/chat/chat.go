// Package chat answers free-form questions through a generative
// language model and keeps each session's conversation.
package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/joeshaw/aveiro-bus/internal/models"
)

var (
	ErrMissingAPIKey = errors.New("chat: API key is not configured")
	ErrEmptyQuestion = errors.New("chat: question is empty")
	// ErrEmptyReply means the model answered without any text.
	ErrEmptyReply = errors.New("chat: received an empty response from the API")
	// ErrBlocked means the provider withheld the answer for safety reasons.
	ErrBlocked = errors.New("chat: response was blocked due to safety reasons")
	// ErrUnexpectedResponse means the body had neither an answer nor an error.
	ErrUnexpectedResponse = errors.New("chat: unexpected API response format")
)

// APIError is an error reported by the model provider.
type APIError struct {
	Provider string
	Code     int
	Status   string
	Message  string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: API error: %d %s", e.Provider, e.Code, e.Status)
	}
	return fmt.Sprintf("%s: API error: %s", e.Provider, e.Message)
}

// Assistant produces the next reply of a conversation.
type Assistant interface {
	Reply(ctx context.Context, history []models.Message, question string) (string, error)
}

// FriendlyMessage turns an Ask failure into text that can be shown to
// the person asking.
func FriendlyMessage(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyQuestion):
		return "Please type a question."
	case errors.Is(err, ErrBlocked):
		return "The response was blocked due to safety reasons."
	case errors.Is(err, ErrEmptyReply):
		return "Received an empty response from the API."
	case errors.Is(err, ErrUnexpectedResponse):
		return "Unexpected API response format."
	case errors.Is(err, ErrMissingAPIKey):
		return "The assistant is not configured."
	case errors.As(err, &apiErr):
		if apiErr.Message != "" {
			return "API Error: " + apiErr.Message
		}
		return fmt.Sprintf("API Error: %d - %s", apiErr.Code, apiErr.Status)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "The assistant took too long to answer. Please try again."
	default:
		return "Could not reach the assistant. Please try again later."
	}
}
