package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/prodsys/internal/action"
	"github.com/roach88/prodsys/internal/entity"
)

type recorder struct {
	mu      sync.Mutex
	actions []action.Action
	closed  bool
}

func (r *recorder) Dispatch(a action.Action) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	r.actions = append(r.actions, a)
	return true
}

func (r *recorder) all() []action.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]action.Action(nil), r.actions...)
}

func newCollaborator(t *testing.T, srv *httptest.Server, opts ...HTTPOption) *HTTPCollaborator {
	t.Helper()
	opts = append([]HTTPOption{
		WithHTTPClient(srv.Client()),
		WithRetryMax(0),
		WithTimeout(5 * time.Second),
	}, opts...)
	c, err := NewHTTP(srv.URL, opts...)
	require.NoError(t, err)
	return c
}

func TestNewHTTP_RejectsBadBase(t *testing.T) {
	_, err := NewHTTP("ftp://example.org")
	assert.Error(t, err)

	_, err = NewHTTP("://nope")
	assert.Error(t, err)
}

func TestNewHTTP_DoesNotMutateClient(t *testing.T) {
	own := &http.Client{}
	c, err := NewHTTP("http://example.org", WithHTTPClient(own), WithTimeout(time.Second))
	require.NoError(t, err)

	assert.Zero(t, own.Timeout)
	assert.Equal(t, time.Second, c.client.HTTPClient.Timeout)
	assert.NotSame(t, own, c.client.HTTPClient)
}

func TestHTTP_FetchOne(t *testing.T) {
	var gotPath, gotRequestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRequestID = r.Header.Get(RequestIDHeader)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 7, "title": "Studentvalg", "crop_box": {"x": 0.5}}`))
	}))
	defer srv.Close()

	rec := &recorder{}
	newCollaborator(t, srv).Handle(context.Background(), action.NewRequestOne(action.Stories, "7", false), rec)

	assert.Equal(t, "/api/stories/7/", gotPath)
	parsed, err := uuid.Parse(gotRequestID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())

	got := rec.all()
	require.Len(t, got, 1)
	assert.Equal(t, action.KindFetchedOne, got[0].Kind())
	assert.Equal(t, entity.ID("7"), got[0].Payload.ID)

	fields := got[0].Payload.Fields
	assert.Equal(t, entity.Int(7), fields["id"])
	assert.Equal(t, entity.String("Studentvalg"), fields["title"])
	assert.Equal(t, entity.Object{"x": entity.Float(0.5)}, fields["crop_box"])
	assert.Equal(t, entity.Int(200), fields[entity.FieldHTTPStatus])
}

func TestHTTP_FetchOneNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail": "Not found."}`, http.StatusNotFound)
	}))
	defer srv.Close()

	rec := &recorder{}
	newCollaborator(t, srv).Handle(context.Background(), action.NewRequestOne(action.Photos, "404", true), rec)

	got := rec.all()
	require.Len(t, got, 1)
	assert.Equal(t, entity.Record{entity.FieldHTTPStatus: entity.Int(404)}, got[0].Payload.Fields)
}

func TestHTTP_NoResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := srv.URL
	srv.Close()

	c, err := NewHTTP(base, WithRetryMax(0), WithTimeout(time.Second))
	require.NoError(t, err)

	rec := &recorder{}
	c.Handle(context.Background(), action.NewRequestOne(action.Stories, "1", false), rec)

	got := rec.all()
	require.Len(t, got, 1)
	fields := got[0].Payload.Fields
	assert.Equal(t, entity.Int(0), fields[entity.FieldHTTPStatus])
	assert.Contains(t, fields, FieldError)
}

func TestHTTP_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"id": 1}`))
	}))
	defer srv.Close()

	c := newCollaborator(t, srv, WithRetryMax(3), WithRetryWait(time.Millisecond, 5*time.Millisecond))
	rec := &recorder{}
	c.Handle(context.Background(), action.NewRequestOne(action.Issues, "1", false), rec)

	assert.Equal(t, int32(3), calls.Load())
	got := rec.all()
	require.Len(t, got, 1)
	assert.Equal(t, entity.Int(200), got[0].Payload.Fields[entity.FieldHTTPStatus])
}

func TestHTTP_RetriesExhaustedKeepStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newCollaborator(t, srv, WithRetryMax(1), WithRetryWait(time.Millisecond, time.Millisecond))
	rec := &recorder{}
	c.Handle(context.Background(), action.NewRequestOne(action.Stories, "1", false), rec)

	got := rec.all()
	require.Len(t, got, 1)
	assert.Equal(t, entity.Int(502), got[0].Payload.Fields[entity.FieldHTTPStatus])
}

func TestHTTP_FetchMany(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/contributors/", r.URL.Path)
		gotQuery = r.URL.Query().Get("id__in")
		_, _ = w.Write([]byte(`{"count": 2, "results": [{"id": 1, "name": "A"}, {"id": 2, "name": "B"}]}`))
	}))
	defer srv.Close()

	rec := &recorder{}
	req := action.NewRequestMany(action.Contributors, []entity.ID{"1", "2", "3"})
	newCollaborator(t, srv).Handle(context.Background(), req, rec)

	assert.Equal(t, "1,2,3", gotQuery)

	got := rec.all()
	require.Len(t, got, 2)
	assert.Equal(t, action.KindFetchedMany, got[0].Kind())
	assert.Len(t, got[0].Payload.Results, 2)

	assert.Equal(t, action.KindFetchedOne, got[1].Kind(), "missing id still completes")
	assert.Equal(t, entity.ID("3"), got[1].Payload.ID)
	assert.Equal(t, entity.Int(404), got[1].Payload.Fields[entity.FieldHTTPStatus])
}

func TestHTTP_FetchManyFailureCompletesEveryID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	rec := &recorder{}
	req := action.NewRequestMany(action.StoryTypes, []entity.ID{"4", "5"})
	newCollaborator(t, srv).Handle(context.Background(), req, rec)

	got := rec.all()
	require.Len(t, got, 2)
	for i, id := range []entity.ID{"4", "5"} {
		assert.Equal(t, id, got[i].Payload.ID)
		assert.Equal(t, entity.Int(403), got[i].Payload.Fields[entity.FieldHTTPStatus])
	}
}

func TestHTTP_FetchManyMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[1, 2]`))
	}))
	defer srv.Close()

	rec := &recorder{}
	newCollaborator(t, srv).Handle(context.Background(), action.NewRequestMany(action.Stories, []entity.ID{"1"}), rec)

	got := rec.all()
	require.Len(t, got, 1)
	assert.Equal(t, entity.Int(200), got[0].Payload.Fields[entity.FieldHTTPStatus])
	assert.Contains(t, got[0].Payload.Fields, FieldError)
}

func TestHTTP_IgnoresFetchedActions(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	rec := &recorder{}
	newCollaborator(t, srv).Handle(context.Background(), action.NewFetchedOne(action.Stories, "1", nil), rec)

	assert.Zero(t, calls.Load())
	assert.Empty(t, rec.all())
}

func TestHTTP_DispatchAfterStopIsDropped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": 1}`))
	}))
	defer srv.Close()

	rec := &recorder{closed: true}
	newCollaborator(t, srv).Handle(context.Background(), action.NewRequestOne(action.Stories, "1", false), rec)

	assert.Empty(t, rec.all())
}

func TestDispatchFunc(t *testing.T) {
	var got action.Action
	d := DispatchFunc(func(a action.Action) bool {
		got = a
		return true
	})

	a := action.NewRequestOne(action.Stories, "1", false)
	assert.True(t, d.Dispatch(a))
	assert.Equal(t, a.Type, got.Type)
}

// blockingServer answers 200 once release is closed, counting calls and
// reporting each one on started.
func blockingServer(t *testing.T) (srv *httptest.Server, started chan struct{}, release chan struct{}, calls *atomic.Int32) {
	t.Helper()
	started = make(chan struct{}, 4)
	release = make(chan struct{})
	calls = &atomic.Int32{}
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		started <- struct{}{}
		select {
		case <-release:
			_, _ = w.Write([]byte(`{"id": 7}`))
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	return srv, started, release, calls
}

func (c *HTTPCollaborator) waitersFor(u string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if fl, ok := c.flights[u]; ok {
		return fl.waiters
	}
	return 0
}

func TestHTTP_SharedCallSurvivesCancelledWaiter(t *testing.T) {
	srv, started, release, calls := blockingServer(t)
	c := newCollaborator(t, srv)
	u := srv.URL + "/api/stories/7/"

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	defer cancelFirst()

	firstErr := make(chan error, 1)
	go func() {
		_, err := c.get(firstCtx, u)
		firstErr <- err
	}()
	<-started

	type result struct {
		resp *response
		err  error
	}
	second := make(chan result, 1)
	go func() {
		resp, err := c.get(context.Background(), u)
		second <- result{resp, err}
	}()
	require.Eventually(t, func() bool { return c.waitersFor(u) == 2 }, time.Second, 5*time.Millisecond)

	cancelFirst()
	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(release)
	select {
	case got := <-second:
		require.NoError(t, got.err)
		assert.Equal(t, http.StatusOK, got.resp.code)
	case <-time.After(2 * time.Second):
		t.Fatal("remaining caller did not return")
	}
	assert.Equal(t, int32(1), calls.Load())
	assert.Zero(t, c.waitersFor(u))
}

func TestHTTP_LastWaiterLeavingCancelsCall(t *testing.T) {
	srv, started, release, calls := blockingServer(t)
	defer close(release)
	c := newCollaborator(t, srv)
	u := srv.URL + "/api/stories/7/"

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := c.get(ctx, u)
		errc <- err
	}()
	<-started
	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)
	assert.Zero(t, c.waitersFor(u))

	// The next caller starts a fresh call rather than joining the abandoned one.
	next := make(chan error, 1)
	go func() {
		_, err := c.get(context.Background(), u)
		next <- err
	}()
	<-started
	assert.Equal(t, int32(2), calls.Load())
}
