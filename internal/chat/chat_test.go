package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeshaw/aveiro-bus/internal/models"
	"github.com/joeshaw/aveiro-bus/internal/storage"
)

func geminiServer(t *testing.T, code int, body string, got *geminiRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		if got != nil {
			data, _ := io.ReadAll(r.Body)
			assert.NoError(t, json.Unmarshal(data, got))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newGemini(srv *httptest.Server) *Gemini {
	return NewGemini(GeminiOptions{APIKey: "secret", Model: "gemini-test", BaseURL: srv.URL + "/"})
}

func TestGeminiReply(t *testing.T) {
	var got geminiRequest
	srv := geminiServer(t, http.StatusOK,
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"  A linha L4 passa na Universidade. \n"}]},"finishReason":"STOP"}]}`,
		&got)

	history := []models.Message{
		{Text: "Olá", FromUser: true},
		{Text: "Olá! Como posso ajudar?"},
	}
	reply, err := newGemini(srv).Reply(context.Background(), history, "Que linha vai para a Universidade?")
	require.NoError(t, err)
	assert.Equal(t, "A linha L4 passa na Universidade.", reply)

	require.Len(t, got.Contents, 3)
	assert.Equal(t, "user", got.Contents[0].Role)
	assert.Equal(t, "model", got.Contents[1].Role)
	assert.Equal(t, "user", got.Contents[2].Role)
	assert.Equal(t, "Que linha vai para a Universidade?", got.Contents[2].Parts[0].Text)
}

func TestGeminiReplyErrors(t *testing.T) {
	tests := []struct {
		name    string
		code    int
		body    string
		wantErr error
		apiMsg  string
		apiCode int
	}{
		{"no candidates", http.StatusOK, `{"candidates":[]}`, ErrEmptyReply, "", 0},
		{"blocked", http.StatusOK, `{"candidates":[{"finishReason":"SAFETY"}]}`, ErrBlocked, "", 0},
		{"no content", http.StatusOK, `{"candidates":[{"finishReason":"MAX_TOKENS"}]}`, ErrEmptyReply, "", 0},
		{"no parts", http.StatusOK, `{"candidates":[{"content":{"parts":[]}}]}`, ErrEmptyReply, "", 0},
		{"blank text", http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"  "}]}}]}`, ErrEmptyReply, "", 0},
		{"error in success body", http.StatusOK, `{"error":{"code":429,"message":"Quota exceeded","status":"RESOURCE_EXHAUSTED"}}`, nil, "Quota exceeded", 429},
		{"error body", http.StatusBadRequest, `{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`, nil, "API key not valid", 400},
		{"bare failure", http.StatusServiceUnavailable, `upstream down`, nil, "", 503},
		{"unexpected format", http.StatusOK, `{"hello":"world"}`, ErrUnexpectedResponse, "", 0},
		{"not json", http.StatusOK, `<html>`, ErrUnexpectedResponse, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := geminiServer(t, tt.code, tt.body, nil)
			_, err := newGemini(srv).Reply(context.Background(), nil, "Olá")
			require.Error(t, err)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.apiCode, apiErr.Code)
			assert.Equal(t, tt.apiMsg, apiErr.Message)
		})
	}
}

func TestGeminiMissingKey(t *testing.T) {
	_, err := NewGemini(GeminiOptions{}).Reply(context.Background(), nil, "Olá")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestOpenAIReply(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		data, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(data, &got))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-test",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":" Olá! "}}]}`)
	}))
	defer srv.Close()

	o := NewOpenAI(OpenAIOptions{APIKey: "secret", Model: "gpt-test", BaseURL: srv.URL + "/v1"})
	reply, err := o.Reply(context.Background(), []models.Message{{Text: "hi", FromUser: true}, {Text: "hello"}}, "Olá")
	require.NoError(t, err)
	assert.Equal(t, "Olá!", reply)

	assert.Equal(t, "gpt-test", got.Model)
	require.Len(t, got.Messages, 4)
	assert.Equal(t, []string{"system", "user", "assistant", "user"},
		[]string{got.Messages[0].Role, got.Messages[1].Role, got.Messages[2].Role, got.Messages[3].Role})
	assert.Equal(t, "Olá", got.Messages[3].Content)
}

func TestOpenAIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key","param":null}}`)
	}))
	defer srv.Close()

	o := NewOpenAI(OpenAIOptions{APIKey: "secret", BaseURL: srv.URL + "/v1"})
	_, err := o.Reply(context.Background(), nil, "Olá")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Code)
	assert.Equal(t, "Incorrect API key provided", apiErr.Message)

	_, err = NewOpenAI(OpenAIOptions{}).Reply(context.Background(), nil, "Olá")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestOpenAIEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-test","choices":[]}`)
	}))
	defer srv.Close()

	_, err := NewOpenAI(OpenAIOptions{APIKey: "secret", BaseURL: srv.URL + "/v1"}).Reply(context.Background(), nil, "Olá")
	assert.ErrorIs(t, err, ErrEmptyReply)
}

type fakeAssistant struct {
	reply   string
	err     error
	history []models.Message
}

func (f *fakeAssistant) Reply(_ context.Context, history []models.Message, _ string) (string, error) {
	f.history = history
	return f.reply, f.err
}

func newStore(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestAsk(t *testing.T) {
	db := newStore(t)
	assistant := &fakeAssistant{reply: "Apanhe a linha L4."}
	svc := NewService(assistant, db, 2)
	ctx := context.Background()

	reply, err := svc.Ask(ctx, "s1", "  Como vou para a Universidade? ")
	require.NoError(t, err)
	assert.Equal(t, "Apanhe a linha L4.", reply.Text)
	assert.False(t, reply.FromUser)
	assert.NotEmpty(t, reply.ID)
	assert.Empty(t, assistant.history)

	_, err = svc.Ask(ctx, "s1", "E de volta?")
	require.NoError(t, err)
	require.Len(t, assistant.history, 2, "history window")
	assert.Equal(t, "Como vou para a Universidade?", assistant.history[0].Text)
	assert.True(t, assistant.history[0].FromUser)

	msgs, err := svc.History(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, "E de volta?", msgs[2].Text)
	assert.True(t, msgs[3].CreatedAt.After(msgs[2].CreatedAt))

	other, err := svc.History(ctx, "s2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestAskErrors(t *testing.T) {
	db := newStore(t)
	ctx := context.Background()

	_, err := NewService(&fakeAssistant{}, db, 0).Ask(ctx, "s1", "   ")
	assert.ErrorIs(t, err, ErrEmptyQuestion)

	_, err = NewService(&fakeAssistant{err: ErrBlocked}, db, 0).Ask(ctx, "s1", "pergunta")
	assert.ErrorIs(t, err, ErrBlocked)

	msgs, err := db.Messages(ctx, "s1", 0)
	require.NoError(t, err)
	assert.Empty(t, msgs, "failed turns are not stored")
}

func TestFriendlyMessage(t *testing.T) {
	assert.Equal(t, "", FriendlyMessage(nil))
	assert.Equal(t, "The response was blocked due to safety reasons.", FriendlyMessage(ErrBlocked))
	assert.Equal(t, "Received an empty response from the API.", FriendlyMessage(ErrEmptyReply))
	assert.Equal(t, "API Error: Quota exceeded", FriendlyMessage(&APIError{Message: "Quota exceeded"}))
	assert.Equal(t, "API Error: 503 - Service Unavailable", FriendlyMessage(&APIError{Code: 503, Status: "Service Unavailable"}))
	assert.Equal(t, "Could not reach the assistant. Please try again later.", FriendlyMessage(errors.New("dial tcp: refused")))
}
