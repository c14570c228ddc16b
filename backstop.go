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

package backstop

import (
	"errors"
	"maps"
	"slices"
	"strings"

	"dirpx.dev/backstop/apierror"
	"dirpx.dev/backstop/apis"
)

// Pair is one key/value detail for a log line.
type Pair = apis.Pair

// P is shorthand for Pair{Key: k, Value: v}.
func P(k, v string) Pair { return apis.P(k, v) }

// LoggingBehavior controls whether the cause chain of a handled failure is
// logged. See the constants below.
type LoggingBehavior = apis.LoggingBehavior

const (
	DeferToDefault  = apis.DeferToDefault
	ForceFullDetail = apis.ForceFullDetail
	ForceNoDetail   = apis.ForceNoDetail
)

// ErrNoAPIErrors is returned when an APIException would carry no errors.
var ErrNoAPIErrors = errors.New("backstop: APIException requires at least one API error")

// APIException is the failure a service returns when it already knows
// which catalog errors describe the problem.
//
// It carries:
//   - one or more catalog errors (required, in the order added);
//   - key/value pairs for the server-side log line;
//   - extra response headers (multi-value);
//   - an optional cause for errors.Is / errors.As;
//   - an optional message, used only in logs;
//   - a LoggingBehavior override.
//
// Build one with NewAPIException or NewBuilder. An APIException is never
// mutated after construction.
type APIException struct {
	errs     []apierror.Error
	details  []Pair
	headers  map[string][]string
	cause    error
	message  string
	behavior LoggingBehavior
}

// NewAPIException is a shortcut for NewBuilder().WithAPIErrors(errs...).Build().
func NewAPIException(errs ...apierror.Error) (*APIException, error) {
	return NewBuilder().WithAPIErrors(errs...).Build()
}

// MustAPIException is like NewAPIException but panics when errs is empty.
// Intended for call sites that pass literal catalog errors.
func MustAPIException(errs ...apierror.Error) *APIException {
	e, err := NewAPIException(errs...)
	if err != nil {
		panic(err)
	}
	return e
}

// Error implements the built-in error interface.
//
// The format is:
//
//	<message or "api exception">: [NAME, ...]: <cause>
func (e *APIException) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	if e.message != "" {
		b.WriteString(e.message)
	} else {
		b.WriteString("api exception")
	}
	b.WriteString(": [")
	for i, ae := range e.errs {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(ae.Name())
	}
	b.WriteString("]")
	if e.cause != nil {
		b.WriteString(": ")
		b.WriteString(e.cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause, enabling errors.Is / errors.As chains.
func (e *APIException) Unwrap() error { return e.cause }

// APIErrors returns a copy of the carried catalog errors in insertion order.
func (e *APIException) APIErrors() []apierror.Error { return slices.Clone(e.errs) }

// ExtraDetailsForLogging returns a copy of the logging pairs. Never nil.
func (e *APIException) ExtraDetailsForLogging() []Pair {
	out := make([]Pair, len(e.details))
	copy(out, e.details)
	return out
}

// ExtraResponseHeaders returns a copy of the extra response headers.
func (e *APIException) ExtraResponseHeaders() map[string][]string { return cloneHeaders(e.headers) }

// Message returns the log message, possibly empty.
func (e *APIException) Message() string { return e.message }

// LoggingBehavior returns the logging override.
func (e *APIException) LoggingBehavior() LoggingBehavior { return e.behavior }

func cloneHeaders(h map[string][]string) map[string][]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string][]string, len(h))
	for k, v := range h {
		out[k] = slices.Clone(v)
	}
	return out
}

var (
	_ apis.APIErrorCarrier        = (*APIException)(nil)
	_ apis.LoggingDetailer        = (*APIException)(nil)
	_ apis.HeaderCarrier          = (*APIException)(nil)
	_ apis.LoggingBehaviorCarrier = (*APIException)(nil)
)

// mergeHeaders appends the values of src to dst, key by key.
func mergeHeaders(dst, src map[string][]string) map[string][]string {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string][]string, len(src))
	}
	for _, k := range slices.Sorted(maps.Keys(src)) {
		dst[k] = append(dst[k], src[k]...)
	}
	return dst
}
