package handler

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"dirpx.dev/backstop"
	"dirpx.dev/backstop/apierror"
	"dirpx.dev/backstop/apis"
	"dirpx.dev/backstop/contract"
	"dirpx.dev/backstop/listener"
	listenermock "dirpx.dev/backstop/listener/mock"
)

var invalidRequest = apierror.New("INVALID_REQUEST", "99001", "Invalid request", http.StatusBadRequest)

func testCatalog(t testing.TB) *apierror.Catalog {
	t.Helper()
	cat, err := apierror.NewCatalog(apierror.Config{
		Project: []apierror.Error{invalidRequest},
		Range:   apierror.IntegerRange("project", 99000, 99999),
	})
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	return cat
}

// seqIDs returns an ID generator producing id-1, id-2, ...
func seqIDs() func() string {
	var n atomic.Int64
	return func() string { return fmt.Sprintf("id-%d", n.Add(1)) }
}

// syncBuffer is a bytes.Buffer safe for concurrent writers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// records parses the JSON log lines written so far.
func (b *syncBuffer) records(t testing.TB) []map[string]any {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []map[string]any
	sc := bufio.NewScanner(bytes.NewReader(b.buf.Bytes()))
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("log line %q: %v", sc.Text(), err)
		}
		out = append(out, m)
	}
	return out
}

func newTestLogger() (*slog.Logger, *syncBuffer) {
	buf := &syncBuffer{}
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

// recordingObserver counts observer events.
type recordingObserver struct {
	mu        sync.Mutex
	handled   []int
	unhandled []bool
	failed    []string
}

func (o *recordingObserver) Handled(status int, _ []apierror.Error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.handled = append(o.handled, status)
}

func (o *recordingObserver) Unhandled(lastDitch bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.unhandled = append(o.unhandled, lastDitch)
}

func (o *recordingObserver) ListenerFailed(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failed = append(o.failed, name)
}

// fakeRequest is a minimal apis.RequestInfo.
type fakeRequest struct {
	uri, method, query string
	headers            map[string][]string
}

func (r fakeRequest) Context() context.Context     { return context.Background() }
func (r fakeRequest) URI() string                  { return r.uri }
func (r fakeRequest) Method() string               { return r.method }
func (r fakeRequest) QueryString() string          { return r.query }
func (r fakeRequest) Headers() map[string][]string { return r.headers }
func (r fakeRequest) Attribute(string) any         { return nil }
func (r fakeRequest) Body() (string, error)        { return "", nil }

func (r fakeRequest) Header(name string) string {
	if v := r.HeaderValues(name); len(v) > 0 {
		return v[0]
	}
	return ""
}

func (r fakeRequest) HeaderValues(name string) []string {
	return r.headers[http.CanonicalHeaderKey(name)]
}

type HandlerTestSuite struct {
	suite.Suite
	catalog  *apierror.Catalog
	logs     *syncBuffer
	observer *recordingObserver
	opts     []Option
}

func (s *HandlerTestSuite) SetupTest() {
	s.catalog = testCatalog(s.T())
	logger, buf := newTestLogger()
	s.logs = buf
	s.observer = &recordingObserver{}
	s.opts = []Option{WithLogger(logger), WithObserver(s.observer), WithIDGenerator(seqIDs())}
}

func (s *HandlerTestSuite) newJSON(listeners ...listener.Listener) (*Handler[[]byte], *Unhandled[[]byte]) {
	h, err := New(s.catalog, listeners, JSON(contract.DefaultSerializer()), s.opts...)
	s.Require().NoError(err)
	u, err := NewUnhandled(s.catalog, JSON(contract.DefaultSerializer()), JSONLastDitch, s.opts...)
	s.Require().NoError(err)
	return h, u
}

func (s *HandlerTestSuite) TestMaybeHandle_PicksHighestPriorityStatus() {
	h, _ := s.newJSON(listener.Defaults(s.catalog)...)
	exc := backstop.MustAPIException(s.catalog.GenericServiceError(), invalidRequest)

	resp, err := h.MaybeHandle(exc, nil)
	s.Require().NoError(err)
	s.Require().NotNil(resp)

	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Equal("id-1", resp.ErrorID)
	s.JSONEq(`{"error_id":"id-1","errors":[{"code":"99001","message":"Invalid request"}]}`, string(resp.Representation))
	s.Equal([]string{"id-1"}, resp.Headers[HeaderErrorUID])
	s.Equal([]int{http.StatusBadRequest}, s.observer.handled)

	recs := s.logs.records(s.T())
	s.Require().Len(recs, 1)
	s.Equal("WARN", recs[0]["level"])
	s.Equal("id-1", recs[0][HeaderErrorUID])
	s.Equal("GENERIC_SERVICE_ERROR,INVALID_REQUEST", recs[0][KeyContributingErrors])
	s.Equal("INVALID_REQUEST", recs[0][KeyResponseErrors])
	s.Equal("*backstop.APIException", recs[0][KeyErrorType])
	s.NotContains(recs[0], KeyError, "4xx responses do not log the cause chain by default")
}

func (s *HandlerTestSuite) TestMaybeHandle_ServerErrorLogsAtErrorWithDetail() {
	h, _ := s.newJSON(listener.Defaults(s.catalog)...)
	exc, err := backstop.NewBuilder().
		WithAPIErrors(s.catalog.GenericServiceError()).
		WithCause(errors.New("db down")).
		WithExtraDetailsForLogging(backstop.P("shard", "7")).
		Build()
	s.Require().NoError(err)

	resp, herr := h.MaybeHandle(exc, nil)
	s.Require().NoError(herr)
	s.Equal(http.StatusInternalServerError, resp.StatusCode)

	recs := s.logs.records(s.T())
	s.Require().Len(recs, 1)
	s.Equal("ERROR", recs[0]["level"])
	s.Equal("7", recs[0]["shard"])
	s.Contains(recs[0][KeyError], "db down")
}

func (s *HandlerTestSuite) TestMaybeHandle_LoggingBehaviorOverrides() {
	h, _ := s.newJSON(listener.Defaults(s.catalog)...)

	quiet, err := backstop.NewBuilder().
		WithAPIErrors(s.catalog.GenericServiceError()).
		WithLoggingBehavior(backstop.ForceNoDetail).
		Build()
	s.Require().NoError(err)
	loud, err := backstop.NewBuilder().
		WithAPIErrors(s.catalog.GenericBadRequest()).
		WithLoggingBehavior(backstop.ForceFullDetail).
		Build()
	s.Require().NoError(err)

	_, err = h.MaybeHandle(quiet, nil)
	s.Require().NoError(err)
	_, err = h.MaybeHandle(loud, nil)
	s.Require().NoError(err)

	recs := s.logs.records(s.T())
	s.Require().Len(recs, 2)
	s.NotContains(recs[0], KeyError)
	s.Contains(recs[1], KeyError)
}

func (s *HandlerTestSuite) TestMaybeHandle_MergesHeadersAndMasksRequestHeaders() {
	h, _ := s.newJSON(listener.Defaults(s.catalog)...)
	exc, err := backstop.NewBuilder().
		WithAPIErrors(s.catalog.TooManyRequests()).
		WithExtraResponseHeader("Retry-After", "30").
		Build()
	s.Require().NoError(err)
	req := fakeRequest{
		uri:    "/orders/42",
		method: http.MethodPost,
		query:  "dry_run=true",
		headers: map[string][]string{
			"Authorization": {"Bearer secret"},
			"Accept":        {"application/json"},
		},
	}

	resp, herr := h.MaybeHandle(exc, req)
	s.Require().NoError(herr)
	s.Equal(http.StatusTooManyRequests, resp.StatusCode)
	s.Equal([]string{"30"}, resp.Headers["Retry-After"])
	s.Equal([]string{"id-1"}, resp.Headers[HeaderErrorUID])

	recs := s.logs.records(s.T())
	s.Require().Len(recs, 1)
	s.Equal("/orders/42", recs[0][KeyRequestURI])
	s.Equal("POST", recs[0][KeyRequestMethod])
	s.Equal("dry_run=true", recs[0][KeyQueryString])
	s.Equal("Accept=application/json; Authorization=[MASKED]", recs[0][KeyRequestHeaders])
}

func (s *HandlerTestSuite) TestMaybeHandle_NobodyClaims() {
	h, u := s.newJSON(listener.Defaults(s.catalog)...)
	plain := errors.New("boom")

	resp, err := h.MaybeHandle(plain, nil)
	s.NoError(err)
	s.Nil(resp)

	out := Respond(h, u, plain, nil)
	s.Equal(http.StatusInternalServerError, out.StatusCode)
	s.JSONEq(`{"error_id":"id-1","errors":[{"code":"10","message":"An error occurred while fulfilling the request"}]}`, string(out.Representation))
	s.Equal([]bool{false}, s.observer.unhandled)
}

func (s *HandlerTestSuite) TestMaybeHandle_ListenerPanicFallsThrough() {
	ctrl := gomock.NewController(s.T())
	broken := listenermock.NewMockListener(ctrl)
	broken.EXPECT().ShouldHandle(gomock.Any()).DoAndReturn(func(error) listener.Result {
		panic("listener bug")
	})

	h, _ := s.newJSON(broken, listener.NewGeneric())
	resp, err := h.MaybeHandle(backstop.MustAPIException(s.catalog.NotFound()), nil)
	s.Require().NoError(err)
	s.Require().NotNil(resp)
	s.Equal(http.StatusNotFound, resp.StatusCode)
	s.Equal([]string{"*listenermock.MockListener"}, s.observer.failed)

	recs := s.logs.records(s.T())
	s.Require().Len(recs, 2)
	s.Equal("listener panicked; trying the next one", recs[0]["msg"])
	s.Equal("*listenermock.MockListener", recs[0]["listener"])
}

func (s *HandlerTestSuite) TestMaybeHandle_ListenerPanicWithoutSuccessorIsUnhandled() {
	ctrl := gomock.NewController(s.T())
	broken := listenermock.NewMockListener(ctrl)
	broken.EXPECT().ShouldHandle(gomock.Any()).DoAndReturn(func(error) listener.Result {
		panic("listener bug")
	})

	h, u := s.newJSON(broken)
	out := Respond(h, u, errors.New("boom"), nil)
	s.Equal(http.StatusInternalServerError, out.StatusCode)
}

func (s *HandlerTestSuite) TestMaybeHandle_SerializationFailureUsesFallback() {
	h, _ := s.newJSON(listener.Defaults(s.catalog)...)
	unencodable := invalidRequest.WithMetadata(map[string]any{"ch": make(chan int)})

	resp, err := h.MaybeHandle(backstop.MustAPIException(unencodable), nil)
	s.Require().NoError(err)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Equal(string(contract.Fallback("id-1")), string(resp.Representation))
	s.Equal(
		`{"error_id":"id-1","errors":[{"code":"10","message":"An error occurred while fulfilling the request"}]}`,
		string(resp.Representation),
	)

	recs := s.logs.records(s.T())
	s.Require().Len(recs, 2)
	s.Equal("error response rendering degraded", recs[1]["msg"])
}

func (s *HandlerTestSuite) TestMaybeHandle_StatusMissingFromPriorityIsUnexpected() {
	teapot := apierror.New("TEAPOT", "99418", "I'm a teapot", http.StatusTeapot)
	claim := listener.Func(func(error) listener.Result {
		return listener.Handle([]apierror.Error{teapot})
	})
	h, u := s.newJSON(claim)

	resp, err := h.MaybeHandle(errors.New("brew"), nil)
	s.Nil(resp)
	var uhe *UnexpectedHandlingError
	s.Require().ErrorAs(err, &uhe)
	s.ErrorIs(err, apierror.ErrCatalogMisconfigured)
	s.EqualError(uhe.Original, "brew")

	out := Respond(h, u, errors.New("brew"), nil)
	s.Equal(http.StatusInternalServerError, out.StatusCode)
}

func (s *HandlerTestSuite) TestMaybeHandle_EmptyClaimIsUnexpected() {
	claim := listener.Func(func(error) listener.Result { return listener.Handle(nil) })
	h, _ := s.newJSON(claim)

	_, err := h.MaybeHandle(errors.New("x"), nil)
	s.ErrorIs(err, apierror.ErrNoErrors)
}

func (s *HandlerTestSuite) TestMaybeHandle_PrepareFailures() {
	failing := func(contract.ErrorContract, int, []apierror.Error, error, apis.RequestInfo) (string, error) {
		return "", errors.New("template missing")
	}
	panicking := func(contract.ErrorContract, int, []apierror.Error, error, apis.RequestInfo) (string, error) {
		panic("renderer bug")
	}
	for name, prep := range map[string]PrepareFunc[string]{"error": failing, "panic": panicking} {
		s.Run(name, func() {
			h, err := New(s.catalog, listener.Defaults(s.catalog), prep, s.opts...)
			s.Require().NoError(err)
			resp, herr := h.MaybeHandle(backstop.MustAPIException(s.catalog.NotFound()), nil)
			s.Nil(resp)
			var uhe *UnexpectedHandlingError
			s.ErrorAs(herr, &uhe)
		})
	}
}

func (s *HandlerTestSuite) TestMaybeHandle_PassesFilteredErrorsToPrepare() {
	var gotStatus int
	var gotErrs []apierror.Error
	var gotErr error
	prep := func(c contract.ErrorContract, status int, errs []apierror.Error, err error, _ apis.RequestInfo) (contract.ErrorContract, error) {
		gotStatus, gotErrs, gotErr = status, errs, err
		return c, nil
	}
	h, err := New(s.catalog, listener.Defaults(s.catalog), prep, s.opts...)
	s.Require().NoError(err)

	exc := backstop.MustAPIException(s.catalog.NotFound(), s.catalog.GenericServiceError())
	resp, herr := h.MaybeHandle(exc, nil)
	s.Require().NoError(herr)

	s.Equal(http.StatusNotFound, gotStatus)
	s.Require().Len(gotErrs, 1)
	s.Equal("NOT_FOUND", gotErrs[0].Name())
	s.Same(exc, gotErr)
	s.Equal("id-1", resp.Representation.ErrorID)
	s.Require().Len(resp.Representation.Errors, 1)
	s.Equal("The requested resource was not found", resp.Representation.Errors[0].Message)
}

func (s *HandlerTestSuite) TestConstructors_RequireCollaborators() {
	_, err := New[[]byte](nil, nil, JSON(contract.DefaultSerializer()))
	s.ErrorIs(err, ErrNoCatalog)
	_, err = New[[]byte](s.catalog, nil, nil)
	s.ErrorIs(err, ErrNoPrepareFunc)
	_, err = NewUnhandled[[]byte](s.catalog, JSON(contract.DefaultSerializer()), nil)
	s.ErrorIs(err, ErrNoLastDitchFunc)
}

func TestHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}

func TestRespond_Concurrent(t *testing.T) {
	cat := testCatalog(t)
	logger := slog.New(slog.NewTextHandler(&syncBuffer{}, nil))
	h, err := New(cat, listener.Defaults(cat), JSON(contract.DefaultSerializer()), WithLogger(logger))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	u, err := NewUnhandled(cat, JSON(contract.DefaultSerializer()), JSONLastDitch, WithLogger(logger))
	if err != nil {
		t.Fatalf("NewUnhandled: %v", err)
	}
	failures := []struct {
		err    error
		status int
	}{
		{backstop.MustAPIException(invalidRequest, cat.GenericServiceError()), 400},
		{backstop.NewServerTimeoutError("billing", nil), 503},
		{errors.New("plain"), 500},
	}

	var wg sync.WaitGroup
	const N = 32
	wg.Add(N)
	for i := 0; i < N; i++ {
		go func(i int) {
			defer wg.Done()
			f := failures[i%len(failures)]
			for j := 0; j < 100; j++ {
				resp := Respond(h, u, f.err, nil)
				if resp.StatusCode != f.status {
					t.Errorf("status = %d; want %d", resp.StatusCode, f.status)
					return
				}
				if !strings.Contains(string(resp.Representation), resp.ErrorID) {
					t.Errorf("payload %s lacks error id %s", resp.Representation, resp.ErrorID)
					return
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestMaskHeaders(t *testing.T) {
	sensitive := headerSet([]string{"authorization", "x-api-key"})
	got := maskHeaders(map[string][]string{
		"X-Api-Key":     {"k"},
		"Accept":        {"a", "b"},
		"authorization": {"t"},
	}, sensitive)
	want := "Accept=a,b; X-Api-Key=[MASKED]; authorization=[MASKED]"
	if got != want {
		t.Fatalf("maskHeaders = %q; want %q", got, want)
	}
	if got := maskHeaders(nil, sensitive); got != "" {
		t.Fatalf("maskHeaders(nil) = %q", got)
	}
}
