package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/sync/singleflight"

	"github.com/roach88/prodsys/internal/action"
	"github.com/roach88/prodsys/internal/entity"
)

// FieldError carries the transport error text when no response arrived.
const FieldError = "error"

// RequestIDHeader correlates a call with the server's logs.
const RequestIDHeader = "X-Request-ID"

const maxBodyBytes = 8 << 20

// StatusError reports a non-2xx response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URL, e.Code)
}

type response struct {
	code int
	body []byte
}

type httpConfig struct {
	client       *http.Client
	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
	timeout      time.Duration
	logger       *slog.Logger
}

// HTTPOption configures an HTTPCollaborator.
type HTTPOption func(*httpConfig)

// WithHTTPClient sets the underlying client, e.g. an httptest server client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(cfg *httpConfig) {
		cfg.client = c
	}
}

// WithRetryMax sets how many times a failed call is retried. Zero disables
// retries.
func WithRetryMax(n int) HTTPOption {
	return func(cfg *httpConfig) {
		cfg.retryMax = n
	}
}

// WithRetryWait bounds the backoff between retries.
func WithRetryWait(minWait, maxWait time.Duration) HTTPOption {
	return func(cfg *httpConfig) {
		cfg.retryWaitMin = minWait
		cfg.retryWaitMax = maxWait
	}
}

// WithTimeout limits each attempt.
func WithTimeout(d time.Duration) HTTPOption {
	return func(cfg *httpConfig) {
		cfg.timeout = d
	}
}

// WithLogger sets the logger used for transport and retry messages.
func WithLogger(l *slog.Logger) HTTPOption {
	return func(cfg *httpConfig) {
		if l != nil {
			cfg.logger = l
		}
	}
}

// HTTPCollaborator fetches entities from the publishing REST API:
//
//	GET {base}/api/{resource}/{id}/          single record
//	GET {base}/api/{resource}/?id__in=1,2    {"results": [...]}
//
// Concurrent calls for the same URL share one round trip. The shared call
// runs on its own context, cancelled once every caller waiting on it has
// gone, so one caller giving up does not fail the others.
type HTTPCollaborator struct {
	base   *url.URL
	client *retryablehttp.Client
	logger *slog.Logger
	group  singleflight.Group

	mu      sync.Mutex
	flights map[string]*flight
}

// flight tracks the callers waiting on one shared call.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// NewHTTP creates a collaborator against the API rooted at base.
func NewHTTP(base string, opts ...HTTPOption) (*HTTPCollaborator, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse api base %q: %w", base, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api base %q: scheme must be http or https", base)
	}

	cfg := httpConfig{
		retryMax:     3,
		retryWaitMin: 200 * time.Millisecond,
		retryWaitMax: 5 * time.Second,
		timeout:      30 * time.Second,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	// Copy so the caller's client keeps its own timeout.
	httpClient := &http.Client{}
	if cfg.client != nil {
		copied := *cfg.client
		httpClient = &copied
	}
	httpClient.Timeout = cfg.timeout

	client := &retryablehttp.Client{
		HTTPClient:   httpClient,
		Logger:       cfg.logger,
		RetryWaitMin: cfg.retryWaitMin,
		RetryWaitMax: cfg.retryWaitMax,
		RetryMax:     cfg.retryMax,
		CheckRetry:   retryablehttp.DefaultRetryPolicy,
		Backoff:      retryablehttp.DefaultBackoff,
		// Hand the last response back so its status code reaches the cache.
		ErrorHandler: retryablehttp.PassthroughErrorHandler,
	}

	return &HTTPCollaborator{
		base:    u,
		client:  client,
		logger:  cfg.logger,
		flights: make(map[string]*flight),
	}, nil
}

// Handle performs the call behind req and dispatches one completion per
// requested id.
func (c *HTTPCollaborator) Handle(ctx context.Context, req action.Action, d Dispatcher) {
	res := req.Resource()

	switch req.Kind() {
	case action.KindRequestOne:
		if req.Payload.Prefetch {
			c.logger.Debug("prefetch", "resource", res, "id", req.Payload.ID)
		}
		c.dispatch(d, c.fetchOne(ctx, res, req.Payload.ID))

	case action.KindRequestMany:
		for _, a := range c.fetchMany(ctx, res, req.Payload.IDs) {
			c.dispatch(d, a)
		}

	default:
		c.logger.Warn("transport ignoring non-request action", "type", req.Type)
	}
}

func (c *HTTPCollaborator) dispatch(d Dispatcher, a action.Action) {
	if !d.Dispatch(a) {
		c.logger.Warn("completion dropped: cache stopped", "type", a.Type, "targets", a.Targets())
	}
}

func (c *HTTPCollaborator) fetchOne(ctx context.Context, res action.Resource, id entity.ID) action.Action {
	u := c.base.JoinPath("api", string(res), string(id)).String() + "/"

	resp, err := c.get(ctx, u)
	if err != nil {
		c.logger.Info("fetch failed", "resource", res, "id", id, "error", err)
		return action.NewFetchedOne(res, id, failure(err))
	}

	rec, err := entity.DecodeRecord(resp.body)
	if err != nil {
		c.logger.Warn("decode record", "url", u, "error", err)
		return action.NewFetchedOne(res, id, statusOnly(resp.code).With(FieldError, entity.String(err.Error())))
	}
	return action.NewFetchedOne(res, id, rec.With(entity.FieldHTTPStatus, entity.Int(int64(resp.code))))
}

// fetchMany returns a FetchedMany for the records the API returned, plus a
// FetchedOne for every id it left out or could not serve.
func (c *HTTPCollaborator) fetchMany(ctx context.Context, res action.Resource, ids []entity.ID) []action.Action {
	if len(ids) == 0 {
		return nil
	}

	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = string(id)
	}
	u := c.base.JoinPath("api", string(res)).String() + "/?" + url.Values{"id__in": {strings.Join(raw, ",")}}.Encode()

	each := func(payload entity.Record) []action.Action {
		out := make([]action.Action, 0, len(ids))
		for _, id := range ids {
			out = append(out, action.NewFetchedOne(res, id, payload))
		}
		return out
	}

	resp, err := c.get(ctx, u)
	if err != nil {
		c.logger.Info("batch fetch failed", "resource", res, "ids", len(ids), "error", err)
		return each(failure(err))
	}

	results, err := decodeResults(resp.body)
	if err != nil {
		c.logger.Warn("decode results", "url", u, "error", err)
		return each(statusOnly(resp.code).With(FieldError, entity.String(err.Error())))
	}

	got := make(map[entity.ID]bool, len(results))
	for _, r := range results {
		if id, ok := r.ID(); ok {
			got[id] = true
		}
	}

	out := []action.Action{action.NewFetchedMany(res, results)}
	for _, id := range ids {
		if !got[id] {
			out = append(out, action.NewFetchedOne(res, id, statusOnly(http.StatusNotFound)))
		}
	}
	return out
}

func (c *HTTPCollaborator) get(ctx context.Context, u string) (*response, error) {
	fl := c.join(ctx, u)
	defer c.leave(u, fl)

	ch := c.group.DoChan(u, func() (any, error) {
		return c.roundTrip(fl.ctx, u)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("GET %s: %w", u, ctx.Err())
	case res = <-ch:
	}

	if res.Shared {
		c.logger.Debug("shared in-flight call", "url", u)
	}
	if res.Err != nil {
		return nil, res.Err
	}
	resp := res.Val.(*response)
	if !success(resp.code) {
		return nil, &StatusError{URL: u, Code: resp.code}
	}
	return resp, nil
}

// join registers a waiter for u, creating the shared call context on the
// first one. The context keeps ctx's values but not its cancellation.
func (c *HTTPCollaborator) join(ctx context.Context, u string) *flight {
	c.mu.Lock()
	defer c.mu.Unlock()

	fl, ok := c.flights[u]
	if !ok {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		fl = &flight{ctx: fctx, cancel: cancel}
		c.flights[u] = fl
	}
	fl.waiters++
	return fl
}

// leave drops a waiter. The last one cancels the shared call and makes
// the next caller start a fresh one.
func (c *HTTPCollaborator) leave(u string, fl *flight) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fl.waiters--
	if fl.waiters > 0 {
		return
	}
	fl.cancel()
	c.group.Forget(u)
	if c.flights[u] == fl {
		delete(c.flights, u)
	}
}

func (c *HTTPCollaborator) roundTrip(ctx context.Context, u string) (*response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID())

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("request failed", "url", u, "request_id", req.Header.Get(RequestIDHeader), "error", err)
		return nil, fmt.Errorf("GET %s: %w", u, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", u, err)
	}

	c.logger.Debug("response", "url", u, "status", resp.StatusCode, "bytes", len(body))
	return &response{code: resp.StatusCode, body: body}, nil
}

func decodeResults(body []byte) ([]entity.Record, error) {
	v, err := entity.DecodeValue(body)
	if err != nil {
		return nil, err
	}
	obj, isObj := v.(entity.Object)
	if !isObj {
		return nil, errors.New("batch response is not an object")
	}
	arr, isArr := obj["results"].(entity.Array)
	if !isArr {
		return nil, errors.New(`batch response has no "results" array`)
	}

	out := make([]entity.Record, 0, len(arr))
	for i, item := range arr {
		fields, isObj := item.(entity.Object)
		if !isObj {
			return nil, fmt.Errorf("results[%d] is not an object", i)
		}
		out = append(out, entity.Record(fields))
	}
	return out, nil
}

func requestID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func success(code int) bool {
	return code >= 200 && code < 300
}

func statusOnly(code int) entity.Record {
	return entity.Record{entity.FieldHTTPStatus: entity.Int(int64(code))}
}

// failure encodes a failed call: the response status when there was one,
// otherwise status 0 and the error text.
func failure(err error) entity.Record {
	var se *StatusError
	if errors.As(err, &se) {
		return statusOnly(se.Code)
	}
	return entity.Record{
		entity.FieldHTTPStatus: entity.Int(0),
		FieldError:             entity.String(err.Error()),
	}
}
