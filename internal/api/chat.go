package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/joeshaw/aveiro-bus/internal/models"
)

type askRequest struct {
	Text string `json:"text"`
}

// handleChatAsk sends one question to the assistant and returns its reply.
func (s *Server) handleChatAsk(w http.ResponseWriter, r *http.Request) {
	if s.chat == nil {
		s.sendError(w, r, errNotConfigured)
		return
	}
	session := mux.Vars(r)["session"]

	var req askRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.sendErrorResponse(w, r, http.StatusBadRequest, "Body must be {\"text\": \"...\"}")
		return
	}

	reply, err := s.chat.Ask(r.Context(), session, req.Text)
	if err != nil {
		s.sendError(w, r, err)
		return
	}

	s.sendStatus(w, r, http.StatusCreated, Response{
		Data: messageToResource(*reply),
		Links: map[string]string{
			"self": "/chat/" + session,
		},
	})
}

// handleChatHistory returns a session's conversation, oldest first.
func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	if s.chat == nil {
		s.sendError(w, r, errNotConfigured)
		return
	}
	session := mux.Vars(r)["session"]

	msgs, err := s.chat.History(r.Context(), session)
	if err != nil {
		s.sendError(w, r, err)
		return
	}

	resources := make([]Resource, len(msgs))
	for i, m := range msgs {
		resources[i] = messageToResource(m)
	}

	s.sendResponse(w, r, Response{
		Data: resources,
		Links: map[string]string{
			"self": "/chat/" + session,
		},
	})
}

func messageToResource(m models.Message) Resource {
	author := "assistant"
	if m.FromUser {
		author = "user"
	}
	return Resource{
		Type: "message",
		ID:   m.ID,
		Attributes: map[string]any{
			"text":       strings.TrimSpace(m.Text),
			"author":     author,
			"from_user":  m.FromUser,
			"created_at": m.CreatedAt,
		},
	}
}
