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

package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"dirpx.dev/backstop/apierror"
	"dirpx.dev/backstop/apis"
	"dirpx.dev/backstop/listener"
)

// Routing and content negotiation failures recognized by FrameworkListener.
var (
	ErrNotFound             = errors.New("httpx: not found")
	ErrMethodNotAllowed     = errors.New("httpx: method not allowed")
	ErrNotAcceptable        = errors.New("httpx: not acceptable")
	ErrUnsupportedMediaType = errors.New("httpx: unsupported media type")
	// ErrUnknownField wraps the decoder error for a body field the target
	// type does not have.
	ErrUnknownField = errors.New("httpx: unknown field")
)

// Log pair keys written by FrameworkListener.
const (
	KeyJSONOffset   = "json_error_offset"
	KeyBodyLimit    = "request_body_limit"
	KeyJSONField    = "json_field"
	KeyJSONExpected = "json_expected_type"
	KeyJSONValue    = "json_value"
)

// MethodNotAllowedError is ErrMethodNotAllowed plus the methods the
// resource accepts, sent back in the Allow header.
type MethodNotAllowedError struct {
	Allowed []string
}

// MethodNotAllowed returns a *MethodNotAllowedError.
func MethodNotAllowed(allowed ...string) error {
	return &MethodNotAllowedError{Allowed: allowed}
}

func (e *MethodNotAllowedError) Error() string {
	if len(e.Allowed) == 0 {
		return ErrMethodNotAllowed.Error()
	}
	return ErrMethodNotAllowed.Error() + " (allowed: " + strings.Join(e.Allowed, ", ") + ")"
}

func (e *MethodNotAllowedError) Unwrap() error { return ErrMethodNotAllowed }

// FrameworkListener classifies failures raised by net/http plumbing:
// routing, content negotiation and request body decoding.
type FrameworkListener struct {
	catalog *apierror.Catalog
}

// NewFrameworkListener returns the net/http listener for cat.
func NewFrameworkListener(cat *apierror.Catalog) *FrameworkListener {
	return &FrameworkListener{catalog: cat}
}

func (*FrameworkListener) Name() string { return "http_framework" }

func (l *FrameworkListener) ShouldHandle(err error) listener.Result {
	one := func(e apierror.Error, pairs ...apis.Pair) listener.Result {
		return listener.Handle([]apierror.Error{e}, pairs...)
	}

	var (
		mna *MethodNotAllowedError
		se  *json.SyntaxError
		mbe *http.MaxBytesError
		ute *json.UnmarshalTypeError
	)
	switch {
	case errors.Is(err, ErrNotFound):
		return one(l.catalog.NotFound())
	case errors.As(err, &mna) && len(mna.Allowed) > 0:
		return listener.HandleWithHeaders([]apierror.Error{l.catalog.MethodNotAllowed()},
			map[string][]string{"Allow": {strings.Join(mna.Allowed, ", ")}})
	case errors.Is(err, ErrMethodNotAllowed):
		return one(l.catalog.MethodNotAllowed())
	case errors.Is(err, ErrNotAcceptable):
		return one(l.catalog.NoAcceptableRepresentation())
	case errors.Is(err, ErrUnsupportedMediaType):
		return one(l.catalog.UnsupportedMediaType())
	case errors.Is(err, ErrUnknownField):
		return one(l.catalog.MalformedRequest(), apis.P(KeyJSONField, unknownField(err)))
	case errors.As(err, &se):
		return one(l.catalog.MalformedRequest(), apis.P(KeyJSONOffset, strconv.FormatInt(se.Offset, 10)))
	case errors.As(err, &mbe):
		return one(l.catalog.MalformedRequest(), apis.P(KeyBodyLimit, strconv.FormatInt(mbe.Limit, 10)))
	case errors.As(err, &ute):
		md := map[string]any{"expected_type": ute.Type.String()}
		if ute.Field != "" {
			md["field"] = ute.Field
		}
		return one(l.catalog.TypeConversionError().WithMetadata(md),
			apis.P(KeyJSONField, ute.Field),
			apis.P(KeyJSONExpected, ute.Type.String()),
			apis.P(KeyJSONValue, ute.Value),
		)
	case errors.Is(err, io.ErrUnexpectedEOF):
		// A body that stops mid-value was sent, just not completely.
		return one(l.catalog.MalformedRequest())
	case errors.Is(err, io.EOF), errors.Is(err, apis.ErrBodyUnreadable):
		return one(l.catalog.MissingExpectedContent())
	}
	return listener.Ignore()
}

// unknownField extracts the field name from the decoder's message, which is
// the only place encoding/json reports it.
func unknownField(err error) string {
	msg := err.Error()
	i := strings.Index(msg, unknownFieldPrefix)
	if i < 0 {
		return ""
	}
	return strings.Trim(msg[i+len(unknownFieldPrefix):], `"`)
}

// Listeners returns listener.Defaults followed by the framework listener.
func Listeners(cat *apierror.Catalog, opts ...listener.Option) []listener.Listener {
	return append(listener.Defaults(cat, opts...), NewFrameworkListener(cat))
}
