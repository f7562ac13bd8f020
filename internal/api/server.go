package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/joeshaw/aveiro-bus/internal/directions"
	"github.com/joeshaw/aveiro-bus/internal/logging"
	"github.com/joeshaw/aveiro-bus/internal/maps"
	"github.com/joeshaw/aveiro-bus/internal/metrics"
	"github.com/joeshaw/aveiro-bus/internal/models"
	"github.com/joeshaw/aveiro-bus/internal/preferences"
	"github.com/joeshaw/aveiro-bus/internal/store"
)

// Directions searches bus itineraries.
type Directions interface {
	Search(ctx context.Context, q directions.Query) (*directions.Result, error)
}

// Places suggests places for partial input.
type Places interface {
	Suggest(ctx context.Context, session, input string) ([]maps.PlacePrediction, error)
}

// Chat answers questions about the bus service.
type Chat interface {
	Ask(ctx context.Context, session, question string) (*models.Message, error)
	History(ctx context.Context, session string) ([]models.Message, error)
}

// Preferences reads and updates user settings.
type Preferences interface {
	Get(ctx context.Context, userID string) models.Preferences
	Apply(ctx context.Context, userID string, p preferences.Patch) (models.Preferences, error)
}

// Notices lists service alerts.
type Notices interface {
	List(ctx context.Context) ([]models.Notice, error)
	Get(ctx context.Context, id string) (*models.Notice, error)
}

// Options wires the services behind the API. A nil service makes its
// endpoints answer 503.
type Options struct {
	Store       *store.Store
	Directions  Directions
	Places      Places
	Chat        Chat
	Preferences Preferences
	Notices     Notices

	// Metrics enables request metrics and the /metrics endpoint.
	Metrics *metrics.Metrics

	// Location is the time zone of the timetable. Defaults to Europe/Lisbon.
	Location *time.Location
}

// Server represents the API server
type Server struct {
	store       *store.Store
	directions  Directions
	places      Places
	chat        Chat
	preferences Preferences
	notices     Notices

	metrics  metrics.Metricer
	registry *metrics.Metrics
	location *time.Location
	now      func() time.Time
}

// NewServer creates a new API server
func NewServer(opts Options) *Server {
	s := &Server{
		store:       opts.Store,
		directions:  opts.Directions,
		places:      opts.Places,
		chat:        opts.Chat,
		preferences: opts.Preferences,
		notices:     opts.Notices,
		metrics:     metrics.Noop,
		registry:    opts.Metrics,
		location:    opts.Location,
		now:         time.Now,
	}
	if s.store == nil {
		s.store = store.NewStore()
	}
	if opts.Metrics != nil {
		s.metrics = opts.Metrics
	}
	if s.location == nil {
		s.location = defaultLocation()
	}
	return s
}

func defaultLocation() *time.Location {
	loc, err := time.LoadLocation("Europe/Lisbon")
	if err != nil {
		return time.UTC
	}
	return loc
}

// Router creates and returns the HTTP router
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/", s.handleIndex).Methods("GET")
	r.HandleFunc("/routes", s.handleRoutes).Methods("GET")
	r.HandleFunc("/routes/{id}", s.handleRoute).Methods("GET")
	r.HandleFunc("/stops", s.handleStops).Methods("GET")
	r.HandleFunc("/stops/{id}", s.handleStop).Methods("GET")
	r.HandleFunc("/stops/{id}/departures", s.handleDepartures).Methods("GET")
	r.HandleFunc("/trips/{id}", s.handleTrip).Methods("GET")
	r.HandleFunc("/shapes", s.handleShapes).Methods("GET")
	r.HandleFunc("/shapes/{id}", s.handleShape).Methods("GET")
	r.HandleFunc("/lines.kml", s.handleLinesKML).Methods("GET")
	r.HandleFunc("/directions", s.handleDirections).Methods("GET")
	r.HandleFunc("/places/autocomplete", s.handleAutocomplete).Methods("GET")
	r.HandleFunc("/chat/{session}", s.handleChatHistory).Methods("GET")
	r.HandleFunc("/chat/{session}", s.handleChatAsk).Methods("POST")
	r.HandleFunc("/users/{id}/preferences", s.handleGetPreferences).Methods("GET")
	r.HandleFunc("/users/{id}/preferences", s.handlePatchPreferences).Methods("PATCH")
	r.HandleFunc("/notices", s.handleNotices).Methods("GET")
	r.HandleFunc("/notices/{id}", s.handleNotice).Methods("GET")
	if s.registry != nil {
		r.Handle("/metrics", s.registry.Handler()).Methods("GET")
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.sendErrorResponse(w, r, http.StatusNotFound, "No such endpoint")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.sendErrorResponse(w, r, http.StatusMethodNotAllowed, r.Method+" is not supported here")
	})

	r.Use(routeMiddleware)

	return s.requestMiddleware(s.corsMiddleware(r))
}

// corsMiddleware adds CORS headers to all responses
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusRecorder remembers the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.code = code
	sr.ResponseWriter.WriteHeader(code)
}

// unmatchedRoute labels requests no route template matched.
const unmatchedRoute = "unmatched"

type routeLabelKey struct{}

// routeLabel carries the matched route template back out of the router.
type routeLabel struct {
	template string
}

// routeMiddleware runs inside the router and records the template of
// the matched route.
func routeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if label, ok := r.Context().Value(routeLabelKey{}).(*routeLabel); ok {
			if cur := mux.CurrentRoute(r); cur != nil {
				if tmpl, err := cur.GetPathTemplate(); err == nil {
					label.template = tmpl
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

// requestMiddleware wraps the whole router. It tags the request with an
// id, logs it and records metrics under the matched route template.
func (s *Server) requestMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		label := &routeLabel{template: unmatchedRoute}
		ctx := logging.NewContext(r.Context(), zap.String("request_id", id))
		ctx = context.WithValue(ctx, routeLabelKey{}, label)
		r = r.WithContext(ctx)

		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		start := time.Now()

		defer func() {
			if err := recover(); err != nil {
				logging.WithContext(ctx).Error("Panic while serving request",
					zap.Any("panic", err), zap.String("path", r.URL.EscapedPath()))
				s.sendErrorResponse(rec, r, http.StatusInternalServerError, "Internal server error")
			}

			elapsed := time.Since(start)
			s.metrics.RecordRequest(label.template, rec.code, elapsed)
			logging.WithContext(ctx).Info("HTTP request served",
				zap.String("method", r.Method),
				zap.String("path", r.URL.EscapedPath()),
				zap.String("route", label.template),
				zap.Int("status", rec.code),
				zap.Duration("duration", elapsed),
				zap.String("user_agent", r.UserAgent()))
		}()

		next.ServeHTTP(rec, r)
	})
}
