package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/joeshaw/aveiro-bus/internal/logging"
	"github.com/joeshaw/aveiro-bus/internal/models"
)

// DefaultHistory is how many earlier messages are sent with a question.
const DefaultHistory = 20

// Store keeps conversations.
type Store interface {
	AddMessages(ctx context.Context, msgs ...models.Message) error
	Messages(ctx context.Context, session string, limit int) ([]models.Message, error)
}

type Service struct {
	assistant Assistant
	store     Store
	history   int
	now       func() time.Time
}

func NewService(assistant Assistant, store Store, history int) *Service {
	if history <= 0 {
		history = DefaultHistory
	}
	return &Service{
		assistant: assistant,
		store:     store,
		history:   history,
		now:       time.Now,
	}
}

// Ask sends question with the session's recent history to the
// assistant. The question and the reply are stored only when the
// assistant answers.
func (s *Service) Ask(ctx context.Context, session, question string) (*models.Message, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	history, err := s.store.Messages(ctx, session, s.history)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	asked := s.now().UTC()
	text, err := s.assistant.Reply(ctx, history, question)
	if err != nil {
		return nil, err
	}

	userMsg := models.Message{ID: uuid.NewString(), Session: session, Text: question, FromUser: true, CreatedAt: asked}
	reply := models.Message{ID: uuid.NewString(), Session: session, Text: text, CreatedAt: s.now().UTC()}
	if !reply.CreatedAt.After(asked) {
		reply.CreatedAt = asked.Add(time.Millisecond)
	}

	if err := s.store.AddMessages(ctx, userMsg, reply); err != nil {
		return nil, fmt.Errorf("save messages: %w", err)
	}

	logging.WithContext(ctx).Debug("Assistant replied",
		zap.String("session", session),
		zap.Int("history", len(history)),
		zap.Int("reply_length", len(text)))

	return &reply, nil
}

// History returns the whole conversation of a session, oldest first.
func (s *Service) History(ctx context.Context, session string) ([]models.Message, error) {
	msgs, err := s.store.Messages(ctx, session, 0)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return msgs, nil
}
