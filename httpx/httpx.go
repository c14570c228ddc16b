/*
   Copyright 2025 The DIRPX Authors

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

// Package httpx adapts the error handler to net/http.
//
// A Handler writes error responses as JSON error contracts, recovers
// panicking handlers and tags the active OpenTelemetry span with the error
// ID and status:
//
//	h, _ := httpx.NewDefault(cat)
//	mux.Handle("POST /orders", h.Wrap(createOrder))
//	http.ListenAndServe(":8080", h.Middleware(mux))
package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"dirpx.dev/backstop"
	"dirpx.dev/backstop/apierror"
	"dirpx.dev/backstop/contract"
	"dirpx.dev/backstop/handler"
)

// Span attribute keys set by WriteError.
const (
	AttrErrorID    = "error.id"
	AttrStatusCode = "http.response.status_code"
)

// Handler writes error responses for a catalog.
type Handler struct {
	handler   *handler.Handler[[]byte]
	unhandled *handler.Unhandled[[]byte]
	maxBody   int64
}

// Option configures a Handler.
type Option func(*Handler)

// WithMaxBodyBytes bounds the request body exposed to listeners and logs.
func WithMaxBodyBytes(n int64) Option {
	return func(h *Handler) { h.maxBody = n }
}

// New returns a Handler over an existing handler pair.
func New(h *handler.Handler[[]byte], u *handler.Unhandled[[]byte], opts ...Option) *Handler {
	out := &Handler{handler: h, unhandled: u, maxBody: DefaultMaxBodyBytes}
	for _, opt := range opts {
		opt(out)
	}
	return out
}

// NewDefault builds a Handler for cat with Listeners(cat) and
// contract.DefaultSerializer.
func NewDefault(cat *apierror.Catalog, opts ...handler.Option) (*Handler, error) {
	ser := handler.JSON(contract.DefaultSerializer())
	h, err := handler.New(cat, Listeners(cat), ser, opts...)
	if err != nil {
		return nil, err
	}
	u, err := handler.NewUnhandled(cat, ser, handler.JSONLastDitch, opts...)
	if err != nil {
		return nil, err
	}
	return New(h, u), nil
}

// WriteError handles err and writes the response. It returns what was
// written.
func (h *Handler) WriteError(w http.ResponseWriter, r *http.Request, err error) handler.ResponseInfo[[]byte] {
	resp := handler.Respond(h.handler, h.unhandled, err, NewRequestInfo(r, h.maxBody))

	hdr := w.Header()
	for k, vs := range resp.Headers {
		// Assigned directly so names such as error_uid keep their spelling.
		hdr[k] = append(hdr[k], vs...)
	}
	hdr.Set("Content-Type", "application/json")

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(
		attribute.String(AttrErrorID, resp.ErrorID),
		attribute.Int(AttrStatusCode, resp.StatusCode),
	)
	if resp.StatusCode >= http.StatusInternalServerError {
		span.SetStatus(otelcodes.Error, http.StatusText(resp.StatusCode))
	}

	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(resp.Representation)
	return resp
}

// Middleware recovers panics in next and answers them with WriteError,
// unless next already started the response. http.ErrAbortHandler is
// re-raised.
func (h *Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tw := &trackingWriter{ResponseWriter: w}
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == http.ErrAbortHandler || tw.wrote {
				panic(v)
			}
			h.WriteError(w, r, backstop.NewPanicError(v))
		}()
		next.ServeHTTP(tw, r)
	})
}

// Wrap adapts an error-returning handler. A returned error is written with
// WriteError; panics are recovered as in Middleware.
func (h *Handler) Wrap(fn func(http.ResponseWriter, *http.Request) error) http.Handler {
	return h.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			h.WriteError(w, r, err)
		}
	}))
}

// NotFound answers every request with the catalog's not found error.
func (h *Handler) NotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.WriteError(w, r, ErrNotFound)
	})
}

// DecodeJSON decodes the request body into v, reading at most maxBytes.
// Unknown fields, trailing data and oversized bodies are errors; all of
// them are classified by FrameworkListener.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any, maxBytes int64) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !isJSON(ct) {
		return fmt.Errorf("%w: %s", ErrUnsupportedMediaType, ct)
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if strings.HasPrefix(err.Error(), unknownFieldPrefix) {
			return fmt.Errorf("%w: %w", ErrUnknownField, err)
		}
		return err
	}
	if dec.More() {
		return &json.SyntaxError{Offset: dec.InputOffset()}
	}
	return nil
}

// RequireAccept returns ErrNotAcceptable unless the request accepts JSON.
func RequireAccept(r *http.Request) error {
	accept := r.Header.Values("Accept")
	if len(accept) == 0 {
		return nil
	}
	for _, a := range strings.Split(strings.Join(accept, ","), ",") {
		mt := strings.TrimSpace(strings.SplitN(a, ";", 2)[0])
		if slices.Contains([]string{"*/*", "application/*", "application/json"}, mt) {
			return nil
		}
	}
	return ErrNotAcceptable
}

const unknownFieldPrefix = "json: unknown field "

func isJSON(contentType string) bool {
	mt := strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	return strings.EqualFold(mt, "application/json")
}

type trackingWriter struct {
	http.ResponseWriter
	wrote bool
}

func (w *trackingWriter) WriteHeader(code int) {
	w.wrote = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *trackingWriter) Write(b []byte) (int, error) {
	w.wrote = true
	return w.ResponseWriter.Write(b)
}

func (w *trackingWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
