// Package maps is a client for the Google Maps Directions and Places
// Autocomplete web services.
package maps

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/joeshaw/aveiro-bus/internal/logging"
	"github.com/joeshaw/aveiro-bus/internal/metrics"
	"github.com/joeshaw/aveiro-bus/internal/models"
)

const (
	DefaultBaseURL = "https://maps.googleapis.com/maps/api"
	userAgent      = "aveiro-bus/1.0 (+https://github.com/joeshaw/aveiro-bus)"
)

// Options configures a Client. Zero values fall back to defaults for
// Aveiro, Portugal.
type Options struct {
	APIKey     string
	BaseURL    string
	Language   string
	Components string
	Bias       models.LatLng
	BiasRadius int

	HTTPClient *http.Client
	Attempts   uint
	Metrics    metrics.Metricer

	// RetryInterval is the first backoff delay between attempts.
	RetryInterval time.Duration
}

type Client struct {
	opts Options
}

func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.Language == "" {
		opts.Language = "pt-PT"
	}
	if opts.Components == "" {
		opts.Components = "country:PT"
	}
	if opts.Bias == (models.LatLng{}) {
		opts.Bias = models.LatLng{Lat: 40.64427, Lng: -8.64554}
	}
	if opts.BiasRadius == 0 {
		opts.BiasRadius = 10000
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Attempts == 0 {
		opts.Attempts = 3
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Noop
	}
	if opts.RetryInterval == 0 {
		opts.RetryInterval = 500 * time.Millisecond
	}
	return &Client{opts: opts}
}

// DirectionsRequest holds the parameters of a bus directions search.
// Origin and Destination are free text addresses, place names or
// "lat,lng" pairs.
type DirectionsRequest struct {
	Origin               string
	Destination          string
	WheelchairAccessible bool
	DepartureTime        time.Time
	ArrivalTime          time.Time
	Language             string
}

// Params builds the query string of the request, without the API key.
func (r DirectionsRequest) Params(defaultLanguage string) url.Values {
	params := url.Values{}
	params.Set("origin", r.Origin)
	params.Set("destination", r.Destination)
	params.Set("mode", "transit")
	params.Set("transit_mode", "bus")
	params.Set("alternatives", "true")

	lang := r.Language
	if lang == "" {
		lang = defaultLanguage
	}
	params.Set("language", lang)

	if r.WheelchairAccessible {
		params.Set("wheelchair_accessible", "true")
	}
	if !r.ArrivalTime.IsZero() {
		params.Set("arrival_time", fmt.Sprint(r.ArrivalTime.Unix()))
	} else if !r.DepartureTime.IsZero() {
		params.Set("departure_time", fmt.Sprint(r.DepartureTime.Unix()))
	}
	return params
}

// Directions returns the alternative routes for req. Every route is
// marked wheelchair accessible when the request asked for it.
func (c *Client) Directions(ctx context.Context, req DirectionsRequest) ([]Route, error) {
	var resp DirectionsResponse
	if err := c.get(ctx, "directions", "/directions/json", req.Params(c.opts.Language), &resp, StatusOK); err != nil {
		return nil, err
	}

	routes := resp.Routes
	if req.WheelchairAccessible {
		for i := range routes {
			routes[i].WheelchairAccessible = true
		}
	}
	return routes, nil
}

// AutocompleteParams builds the query string for input, without the API key.
func (c *Client) AutocompleteParams(input string) url.Values {
	params := url.Values{}
	params.Set("input", input)
	params.Set("language", c.opts.Language)
	params.Set("components", c.opts.Components)
	params.Set("location", fmt.Sprintf("%g,%g", c.opts.Bias.Lat, c.opts.Bias.Lng))
	params.Set("radius", fmt.Sprint(c.opts.BiasRadius))
	return params
}

// Autocomplete returns place predictions for a partial query, biased
// towards Aveiro. ZERO_RESULTS yields an empty list.
func (c *Client) Autocomplete(ctx context.Context, input string) ([]PlacePrediction, error) {
	var resp AutocompleteResponse
	if err := c.get(ctx, "autocomplete", "/place/autocomplete/json", c.AutocompleteParams(input), &resp, StatusOK, StatusZeroResults); err != nil {
		return nil, err
	}

	if resp.Status == StatusZeroResults {
		return []PlacePrediction{}, nil
	}
	return resp.Predictions, nil
}

// vendorResponse is a decoded body carrying the service status.
type vendorResponse interface {
	vendorStatus() (status, message string)
}

// get performs a GET with retries on gateway errors and transport
// failures, then decodes the JSON body into out. A body status other
// than the accepted ones is returned as a *StatusError.
func (c *Client) get(ctx context.Context, service, path string, params url.Values, out vendorResponse, accepted ...string) error {
	if c.opts.APIKey == "" {
		return ErrMissingAPIKey
	}
	params.Set("key", c.opts.APIKey)
	reqURL := c.opts.BaseURL + path + "?" + params.Encode()

	log := logging.WithContext(ctx).With(zap.String("service", service))
	start := time.Now()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.opts.RetryInterval

	body, err := backoff.Retry(ctx, func() ([]byte, error) {
		return c.fetch(ctx, service, reqURL)
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(c.opts.Attempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Warn("Retrying upstream request", zap.Error(err), zap.Duration("next", next))
		}),
	)
	if err != nil {
		// The final attempt may still carry the permanent marker.
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			err = perm.Err
		}
		c.opts.Metrics.RecordUpstream(service, metrics.OutcomeError, time.Since(start))
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		c.opts.Metrics.RecordUpstream(service, metrics.OutcomeError, time.Since(start))
		return fmt.Errorf("maps: decode %s response: %w", service, err)
	}

	if status, message := out.vendorStatus(); !slices.Contains(accepted, status) {
		c.opts.Metrics.RecordUpstream(service, metrics.OutcomeStatus, time.Since(start))
		return &StatusError{Service: service, Status: status, Message: message}
	}

	c.opts.Metrics.RecordUpstream(service, metrics.OutcomeOK, time.Since(start))
	log.Debug("Upstream request completed", zap.Duration("elapsed", time.Since(start)))
	return nil
}

func (c *Client) fetch(ctx context.Context, service, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, backoff.Permanent(&RequestError{Service: service, Err: err})
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(&RequestError{Service: service, Err: ctx.Err()})
		}
		return nil, &RequestError{Service: service, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Service: service, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		httpErr := &HTTPError{Service: service, Code: resp.StatusCode, Body: truncate(string(body), 256)}
		switch resp.StatusCode {
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return nil, httpErr
		}
		return nil, backoff.Permanent(httpErr)
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil, backoff.Permanent(ErrEmptyResponse)
	}
	return body, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Category classifies err into the three failure kinds shown to users.
func Category(err error) string {
	var (
		reqErr    *RequestError
		httpErr   *HTTPError
		statusErr *StatusError
	)
	switch {
	case errors.Is(err, ErrEmptyResponse):
		return "empty response"
	case errors.As(err, &statusErr):
		return "API returned non-OK status"
	case errors.As(err, &httpErr), errors.As(err, &reqErr):
		return "network failed"
	default:
		return "unknown"
	}
}
