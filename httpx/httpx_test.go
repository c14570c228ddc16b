package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otelcodes "go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"dirpx.dev/backstop"
	"dirpx.dev/backstop/apierror"
	"dirpx.dev/backstop/apis"
	"dirpx.dev/backstop/contract"
	"dirpx.dev/backstop/handler"
)

func newTestHandler(t *testing.T) (*Handler, *apierror.Catalog) {
	t.Helper()
	cat, err := apierror.NewCatalog(apierror.Config{Range: apierror.AllowAllCodes})
	require.NoError(t, err)
	h, err := NewDefault(cat, handler.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	return h, cat
}

type payload struct {
	ErrorID string `json:"error_id"`
	Errors  []struct {
		Code     string         `json:"code"`
		Message  string         `json:"message"`
		Metadata map[string]any `json:"metadata"`
	} `json:"errors"`
}

func decodePayload(t *testing.T, rec *httptest.ResponseRecorder) payload {
	t.Helper()
	require.NoError(t, contract.Validate(rec.Body.Bytes()), "body: %s", rec.Body.String())
	var p payload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	return p
}

func TestWriteError_APIException(t *testing.T) {
	h, cat := newTestHandler(t)
	exc, err := backstop.NewBuilder().
		WithAPIErrors(cat.TooManyRequests()).
		WithExtraResponseHeader("Retry-After", "30").
		Build()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	resp := h.WriteError(rec, httptest.NewRequest(http.MethodGet, "/orders", nil), exc)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))
	assert.Equal(t, []string{resp.ErrorID}, rec.Header()["error_uid"])

	p := decodePayload(t, rec)
	assert.Equal(t, resp.ErrorID, p.ErrorID)
	require.Len(t, p.Errors, 1)
	assert.Equal(t, "429", p.Errors[0].Code)
	assert.Equal(t, "Too many requests", p.Errors[0].Message)
}

func TestMiddleware_RecoversPanics(t *testing.T) {
	h, _ := newTestHandler(t)
	srv := h.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("nil map write")
	}))

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	p := decodePayload(t, rec)
	require.Len(t, p.Errors, 1)
	assert.Equal(t, "10", p.Errors[0].Code)
}

func TestMiddleware_ReraisesAbort(t *testing.T) {
	h, _ := newTestHandler(t)
	srv := h.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		srv.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestWrap_FrameworkErrors(t *testing.T) {
	h, _ := newTestHandler(t)

	type order struct {
		Qty int `json:"qty"`
	}
	decode := h.Wrap(func(w http.ResponseWriter, r *http.Request) error {
		if err := RequireAccept(r); err != nil {
			return err
		}
		var o order
		if err := DecodeJSON(w, r, &o, 32); err != nil {
			return err
		}
		w.WriteHeader(http.StatusCreated)
		return nil
	})

	tests := []struct {
		name        string
		body        string
		contentType string
		accept      string
		wantStatus  int
		wantCode    string
		wantMeta    map[string]any
	}{
		{name: "ok", body: `{"qty":1}`, wantStatus: http.StatusCreated},
		{name: "syntax", body: `{"qty" 1}`, wantStatus: 400, wantCode: "110"},
		{name: "unknown field", body: `{"qty":1,"colour":"red"}`, wantStatus: 400, wantCode: "110"},
		{name: "too large", body: `{"qty":1,"pad":"` + strings.Repeat("x", 64) + `"}`, wantStatus: 400, wantCode: "110"},
		{name: "type mismatch", body: `{"qty":"many"}`, wantStatus: 400, wantCode: "102",
			wantMeta: map[string]any{"field": "qty", "expected_type": "int"}},
		{name: "empty body", body: ``, wantStatus: 400, wantCode: "101"},
		{name: "truncated", body: `{"qty":`, wantStatus: 400, wantCode: "110"},
		{name: "media type", body: `qty=1`, contentType: "application/x-www-form-urlencoded", wantStatus: 415, wantCode: "415"},
		{name: "not acceptable", body: `{"qty":1}`, accept: "text/html", wantStatus: 406, wantCode: "406"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}
			rec := httptest.NewRecorder()
			decode.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code, "body: %s", rec.Body.String())
			if tt.wantCode == "" {
				return
			}
			p := decodePayload(t, rec)
			require.Len(t, p.Errors, 1)
			assert.Equal(t, tt.wantCode, p.Errors[0].Code)
			if tt.wantMeta != nil {
				assert.Equal(t, tt.wantMeta, p.Errors[0].Metadata)
			}
		})
	}
}

func TestWrap_RoutingErrors(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.Wrap(func(http.ResponseWriter, *http.Request) error {
		return MethodNotAllowed(http.MethodGet, http.MethodPost)
	}).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/orders", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET, POST", rec.Header().Get("Allow"))

	rec = httptest.NewRecorder()
	h.NotFound().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "404", decodePayload(t, rec).Errors[0].Code)
}

func TestWriteError_TagsSpan(t *testing.T) {
	h, _ := newTestHandler(t)
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx, span := tp.Tracer("test").Start(context.Background(), "GET /boom")
	req := httptest.NewRequest(http.MethodGet, "/boom", nil).WithContext(ctx)
	resp := h.WriteError(httptest.NewRecorder(), req, errors.New("kaboom"))
	span.End()

	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	got := map[string]string{}
	for _, a := range spans[0].Attributes {
		got[string(a.Key)] = a.Value.Emit()
	}
	assert.Equal(t, resp.ErrorID, got[AttrErrorID])
	assert.Equal(t, "500", got[AttrStatusCode])
	assert.Equal(t, otelcodes.Error, spans[0].Status.Code)
}

func TestRequestInfo(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/orders/7?verbose=1", strings.NewReader("0123456789"))
	req.Header.Set("X-Trace", "a")
	req.Header.Add("X-Trace", "b")
	req = req.WithContext(WithAttribute(req.Context(), "tenant", "acme"))

	ri := NewRequestInfo(req, 0)
	assert.Equal(t, "/orders/7", ri.URI())
	assert.Equal(t, http.MethodPost, ri.Method())
	assert.Equal(t, "verbose=1", ri.QueryString())
	assert.Equal(t, "a", ri.Header("x-trace"))
	assert.Equal(t, []string{"a", "b"}, ri.HeaderValues("X-Trace"))
	assert.Equal(t, "acme", ri.Attribute("tenant"))
	assert.Nil(t, ri.Attribute("missing"))

	body, err := ri.Body()
	require.NoError(t, err)
	assert.Equal(t, "0123456789", body)
	// Cached, and still readable by the application.
	body, err = ri.Body()
	require.NoError(t, err)
	assert.Equal(t, "0123456789", body)
	rest, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(rest))
}

func TestRequestInfo_BodyTooLarge(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789"))
	_, err := NewRequestInfo(req, 4).Body()
	assert.ErrorIs(t, err, apis.ErrBodyUnreadable)
}

func TestRequestInfo_NoBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	body, err := NewRequestInfo(req, 0).Body()
	assert.NoError(t, err)
	assert.Empty(t, body)
}

func TestFrameworkListener_UnknownFieldPair(t *testing.T) {
	cat, err := apierror.NewCatalog(apierror.Config{Range: apierror.AllowAllCodes})
	require.NoError(t, err)

	var v struct{ Qty int }
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"colour":"red"}`))
	err = DecodeJSON(httptest.NewRecorder(), req, &v, 0)
	require.ErrorIs(t, err, ErrUnknownField)

	res := NewFrameworkListener(cat).ShouldHandle(err)
	require.True(t, res.ShouldHandle)
	assert.Equal(t, []string{"MALFORMED_REQUEST"}, res.Errors.Names())
	assert.Contains(t, res.ExtraDetailsForLogging, apis.P(KeyJSONField, "colour"))
}
