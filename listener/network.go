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

package listener

import (
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"dirpx.dev/backstop"
	"dirpx.dev/backstop/apierror"
	"dirpx.dev/backstop/apis"
)

// Log pair keys written by DownstreamNetwork.
const (
	KeyConnectionType            = "connection_type"
	KeyDownstreamFailureKind     = "downstream_failure_kind"
	KeyDownstreamStatusCode      = "downstream_status_code"
	KeyDownstreamResponseBody    = "downstream_response_body"
	KeyDownstreamResponseHeaders = "downstream_response_headers"
)

// DownstreamNetwork claims failures implementing apis.NetworkFailure.
//
// Timeouts and unreachable downstreams are temporary service problems.
// An unexpected downstream status of 429 or 503 is a temporary outside
// dependency error; any other status, and a generic network failure, is an
// unrecoverable outside dependency error.
type DownstreamNetwork struct {
	catalog       *apierror.Catalog
	maxBodyLength int
}

// NewDownstreamNetwork returns the downstream network listener.
func NewDownstreamNetwork(cat *apierror.Catalog, opts ...Option) *DownstreamNetwork {
	o := buildOptions(opts)
	return &DownstreamNetwork{catalog: cat, maxBodyLength: o.maxBodyLength}
}

func (*DownstreamNetwork) Name() string { return "downstream_network" }

func (l *DownstreamNetwork) ShouldHandle(err error) Result {
	nf, ok := outermost(err).(apis.NetworkFailure)
	if !ok {
		return Ignore()
	}

	kind := nf.NetworkFailureKind()
	pairs := []backstop.Pair{
		backstop.P(KeyConnectionType, nf.ConnectionType()),
		backstop.P(KeyDownstreamFailureKind, kind.String()),
	}

	switch kind {
	case apis.NetworkFailureTimeout, apis.NetworkFailureUnreachable:
		return Handle([]apierror.Error{l.catalog.TemporaryServiceProblem()}, pairs...)
	case apis.NetworkFailureHTTPStatus:
		st, ok := nf.(apis.DownstreamHTTPStatus)
		if !ok {
			break
		}
		pairs = append(pairs,
			backstop.P(KeyDownstreamStatusCode, strconv.Itoa(st.DownstreamStatusCode())),
			backstop.P(KeyDownstreamResponseBody, truncate(st.DownstreamResponseBody(), l.maxBodyLength)),
		)
		if h := st.DownstreamResponseHeaders(); len(h) > 0 {
			pairs = append(pairs, backstop.P(KeyDownstreamResponseHeaders, renderHeaders(h)))
		}
		switch st.DownstreamStatusCode() {
		case http.StatusTooManyRequests, http.StatusServiceUnavailable:
			return Handle([]apierror.Error{l.catalog.OutsideDependencyTemporaryError()}, pairs...)
		}
	}
	return Handle([]apierror.Error{l.catalog.OutsideDependencyUnrecoverableError()}, pairs...)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "...(truncated)"
}

func renderHeaders(h map[string][]string) string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%s", k, strings.Join(h[k], ","))
	}
	return strings.Join(parts, "; ")
}

// Defaults returns the standard listener chain for cat: generic,
// client data validation, serverside validation and downstream network.
func Defaults(cat *apierror.Catalog, opts ...Option) []Listener {
	return []Listener{
		NewGeneric(),
		NewClientDataValidation(cat, opts...),
		NewServersideValidation(cat),
		NewDownstreamNetwork(cat, opts...),
	}
}
