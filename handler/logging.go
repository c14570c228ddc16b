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

package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"dirpx.dev/backstop/apierror"
	"dirpx.dev/backstop/apis"
)

// maskedValue replaces sensitive header values in log lines.
const maskedValue = "[MASKED]"

// Log keys shared by Handler and Unhandled.
const (
	KeyErrorType          = "error_type"
	KeyStatus             = "http_status"
	KeyContributingErrors = "contributing_errors"
	KeyResponseErrors     = "response_errors"
	KeyRequestURI         = "request_uri"
	KeyRequestMethod      = "request_method"
	KeyQueryString        = "query_string"
	KeyRequestHeaders     = "request_headers"
	KeyUnhandled          = "unhandled_error"
	KeyError              = "error"
)

func errorNames(errs []apierror.Error) string {
	names := make([]string, len(errs))
	for i, e := range errs {
		names[i] = e.Name()
	}
	return strings.Join(names, ",")
}

// requestAttrs describes req for a log line. Sensitive header values are
// masked; headers are rendered sorted by name as "Name=v1,v2; Other=v".
func requestAttrs(req apis.RequestInfo, sensitive map[string]struct{}) []slog.Attr {
	return []slog.Attr{
		slog.String(KeyRequestURI, req.URI()),
		slog.String(KeyRequestMethod, req.Method()),
		slog.String(KeyQueryString, req.QueryString()),
		slog.String(KeyRequestHeaders, maskHeaders(req.Headers(), sensitive)),
	}
}

func maskHeaders(h map[string][]string, sensitive map[string]struct{}) string {
	if len(h) == 0 {
		return ""
	}
	names := make([]string, 0, len(h))
	for k := range h {
		names = append(names, k)
	}
	slices.Sort(names)

	parts := make([]string, 0, len(names))
	for _, k := range names {
		v := strings.Join(h[k], ",")
		if _, ok := sensitive[http.CanonicalHeaderKey(k)]; ok {
			v = maskedValue
		}
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, "; ")
}

func pairAttrs(pairs []apis.Pair) []slog.Attr {
	out := make([]slog.Attr, len(pairs))
	for i, p := range pairs {
		out[i] = slog.String(p.Key, p.Value)
	}
	return out
}

// logDetail reports whether the failure's cause chain goes into the log
// line. An explicit LoggingBehavior on the failure wins; otherwise only
// 5xx responses carry detail.
func logDetail(err error, status int) bool {
	var c apis.LoggingBehaviorCarrier
	if errors.As(err, &c) {
		switch c.LoggingBehavior() {
		case apis.ForceFullDetail:
			return true
		case apis.ForceNoDetail:
			return false
		}
	}
	return status >= http.StatusInternalServerError
}

func levelFor(status int) slog.Level {
	if status >= http.StatusInternalServerError {
		return slog.LevelError
	}
	return slog.LevelWarn
}

func typeName(err error) string {
	if err == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%T", err)
}
