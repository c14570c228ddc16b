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
	"slices"

	"dirpx.dev/backstop/apierror"
)

// Builder accumulates the parts of an APIException. Every With* call adds
// to what was there; nothing is replaced except the cause, message and
// logging behavior, which are single-valued.
//
// Usage:
//
//	return backstop.NewBuilder().
//	    WithAPIErrors(errs.InvalidEmail).
//	    WithExtraDetailsForLogging(backstop.P("user_id", id)).
//	    WithCause(err).
//	    Build()
//
// A Builder is not safe for concurrent use.
type Builder struct {
	errs     []apierror.Error
	details  []Pair
	headers  map[string][]string
	cause    error
	message  string
	behavior LoggingBehavior
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder { return &Builder{} }

// WithAPIErrors appends errs, keeping order and duplicates.
func (b *Builder) WithAPIErrors(errs ...apierror.Error) *Builder {
	b.errs = append(b.errs, errs...)
	return b
}

// WithExtraDetailsForLogging appends logging pairs.
func (b *Builder) WithExtraDetailsForLogging(pairs ...Pair) *Builder {
	b.details = append(b.details, pairs...)
	return b
}

// WithExtraResponseHeaders appends header values; existing values for the
// same header are kept.
func (b *Builder) WithExtraResponseHeaders(h map[string][]string) *Builder {
	b.headers = mergeHeaders(b.headers, h)
	return b
}

// WithExtraResponseHeader appends values for a single header.
func (b *Builder) WithExtraResponseHeader(name string, values ...string) *Builder {
	return b.WithExtraResponseHeaders(map[string][]string{name: values})
}

// WithCause sets the underlying cause.
func (b *Builder) WithCause(err error) *Builder {
	b.cause = err
	return b
}

// WithMessage sets the log message.
func (b *Builder) WithMessage(msg string) *Builder {
	b.message = msg
	return b
}

// WithLoggingBehavior sets the logging override.
func (b *Builder) WithLoggingBehavior(lb LoggingBehavior) *Builder {
	b.behavior = lb
	return b
}

// Build returns the APIException, or ErrNoAPIErrors when no error was added.
// The Builder may be reused; later changes do not affect built values.
func (b *Builder) Build() (*APIException, error) {
	if len(b.errs) == 0 {
		return nil, ErrNoAPIErrors
	}
	details := slices.Clone(b.details)
	if details == nil {
		details = []Pair{}
	}
	return &APIException{
		errs:     slices.Clone(b.errs),
		details:  details,
		headers:  cloneHeaders(b.headers),
		cause:    b.cause,
		message:  b.message,
		behavior: b.behavior,
	}, nil
}
