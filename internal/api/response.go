package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/joeshaw/aveiro-bus/internal/autocomplete"
	"github.com/joeshaw/aveiro-bus/internal/chat"
	"github.com/joeshaw/aveiro-bus/internal/directions"
	"github.com/joeshaw/aveiro-bus/internal/logging"
	"github.com/joeshaw/aveiro-bus/internal/maps"
	"github.com/joeshaw/aveiro-bus/internal/notices"
	"github.com/joeshaw/aveiro-bus/internal/preferences"
)

const contentType = "application/vnd.api+json"

// Resource represents a JSON:API resource object
type Resource struct {
	Type          string                  `json:"type"`
	ID            string                  `json:"id"`
	Attributes    any                     `json:"attributes,omitempty"`
	Relationships map[string]Relationship `json:"relationships,omitempty"`
	Links         map[string]string       `json:"links,omitempty"`
}

// Relationship represents a JSON:API relationship object
type Relationship struct {
	Data  any               `json:"data,omitempty"`
	Links map[string]string `json:"links,omitempty"`
}

// ResourceIdentifier represents a JSON:API resource identifier object
type ResourceIdentifier struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Response represents a JSON:API response document
type Response struct {
	Data     any               `json:"data"`
	Included []Resource        `json:"included,omitempty"`
	Links    map[string]string `json:"links,omitempty"`
	Meta     map[string]any    `json:"meta,omitempty"`
}

// ErrorResponse represents a JSON:API error response
type ErrorResponse struct {
	Errors []Error `json:"errors"`
}

// Error represents a JSON:API error object
type Error struct {
	Status string `json:"status,omitempty"`
	Title  string `json:"title,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// errNotConfigured is reported when the service behind an endpoint is absent.
var errNotConfigured = errors.New("service is not configured")

// sendResponse sends a JSON:API response
func (s *Server) sendResponse(w http.ResponseWriter, r *http.Request, response Response) {
	s.sendStatus(w, r, http.StatusOK, response)
}

func (s *Server) sendStatus(w http.ResponseWriter, r *http.Request, code int, response Response) {
	jsonData, err := json.Marshal(response)
	if err != nil {
		logging.WithContext(r.Context()).Error("Error marshaling JSON", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(code)
	w.Write(jsonData)
}

// sendErrorResponse sends a JSON:API error response
func (s *Server) sendErrorResponse(w http.ResponseWriter, r *http.Request, statusCode int, message string) {
	response := ErrorResponse{
		Errors: []Error{
			{
				Status: strconv.Itoa(statusCode),
				Title:  http.StatusText(statusCode),
				Detail: message,
			},
		},
	}

	jsonData, err := json.Marshal(response)
	if err != nil {
		logging.WithContext(r.Context()).Error("Error marshaling JSON error response", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(statusCode)
	w.Write(jsonData)
}

// sendError maps a service error onto an HTTP status and error document.
func (s *Server) sendError(w http.ResponseWriter, r *http.Request, err error) {
	code, detail := classify(err)

	log := logging.WithContext(r.Context())
	if code >= http.StatusInternalServerError {
		log.Warn("Request failed", zap.Int("status", code), zap.Error(err))
	} else {
		log.Debug("Request rejected", zap.Int("status", code), zap.Error(err))
	}

	s.sendErrorResponse(w, r, code, detail)
}

func classify(err error) (int, string) {
	var (
		chatErr   *chat.APIError
		reqErr    *maps.RequestError
		httpErr   *maps.HTTPError
		statusErr *maps.StatusError
	)

	switch {
	case errors.Is(err, directions.ErrMissingPlace),
		errors.Is(err, preferences.ErrUnsupportedLanguage):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, chat.ErrEmptyQuestion):
		return http.StatusBadRequest, chat.FriendlyMessage(err)
	case errors.Is(err, notices.ErrNotFound):
		return http.StatusNotFound, "Notice not found"
	case errors.Is(err, autocomplete.ErrSuperseded):
		return http.StatusConflict, "Superseded by a newer request"
	case errors.Is(err, errNotConfigured),
		errors.Is(err, maps.ErrMissingAPIKey):
		return http.StatusServiceUnavailable, "Service is not configured"
	case errors.Is(err, chat.ErrMissingAPIKey):
		return http.StatusServiceUnavailable, chat.FriendlyMessage(err)
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Upstream service timed out"
	case errors.As(err, &reqErr):
		return http.StatusServiceUnavailable, maps.Category(err)
	case errors.As(err, &statusErr), errors.As(err, &httpErr),
		errors.Is(err, maps.ErrEmptyResponse):
		return http.StatusBadGateway, maps.Category(err)
	case errors.As(err, &chatErr),
		errors.Is(err, chat.ErrBlocked),
		errors.Is(err, chat.ErrEmptyReply),
		errors.Is(err, chat.ErrUnexpectedResponse):
		return http.StatusBadGateway, chat.FriendlyMessage(err)
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// decodeBody reads a JSON request body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
