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

//go:generate mockgen -destination=mock/mock_listener.go -package=listenermock dirpx.dev/backstop/listener Listener

package listener

import (
	"fmt"
	"maps"
	"slices"

	"dirpx.dev/backstop"
	"dirpx.dev/backstop/apierror"
	"dirpx.dev/backstop/apis"
)

// Listener inspects a failure and either claims it, returning the catalog
// errors that describe it, or defers to the next listener.
//
// Implementations must be stateless (or immutable) and safe for concurrent
// use. They should not panic; the handler recovers a panicking listener and
// moves on, but logs it as a bug.
type Listener interface {
	ShouldHandle(err error) Result
}

// Named is implemented by listeners that want a readable name in logs and
// metrics. Other listeners are reported by their Go type.
type Named interface {
	Name() string
}

// Func adapts a function to the Listener interface.
type Func func(err error) Result

// ShouldHandle calls f(err).
func (f Func) ShouldHandle(err error) Result { return f(err) }

// NameOf returns the log name of l.
func NameOf(l Listener) string {
	if n, ok := l.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", l)
}

// Result is a listener's verdict.
//
// The zero Result defers. Use Handle, HandleWithHeaders or Ignore to build
// one so that ExtraDetailsForLogging is never nil.
type Result struct {
	ShouldHandle           bool
	Errors                 apierror.SortedSet
	ExtraDetailsForLogging []backstop.Pair
	ExtraResponseHeaders   map[string][]string
}

// Handle claims the failure with errs. A nil errs yields an empty set.
func Handle(errs []apierror.Error, pairs ...backstop.Pair) Result {
	return Result{
		ShouldHandle:           true,
		Errors:                 apierror.NewSortedSet(errs...),
		ExtraDetailsForLogging: clonePairs(pairs),
	}
}

// HandleWithHeaders is Handle plus extra response headers.
func HandleWithHeaders(errs []apierror.Error, headers map[string][]string, pairs ...backstop.Pair) Result {
	r := Handle(errs, pairs...)
	if len(headers) > 0 {
		r.ExtraResponseHeaders = maps.Clone(headers)
	}
	return r
}

// Ignore defers to the next listener.
func Ignore() Result {
	return Result{ExtraDetailsForLogging: []backstop.Pair{}}
}

func clonePairs(pairs []backstop.Pair) []backstop.Pair {
	out := slices.Clone(pairs)
	if out == nil {
		out = []backstop.Pair{}
	}
	return out
}

// outermost returns the first error in err's tree, depth first, that one of
// the built-in listeners classifies, or nil. A failure's own kind decides
// its response even when its cause is another classified failure.
func outermost(err error) error {
	if err == nil {
		return nil
	}
	switch err.(type) {
	case apis.APIErrorCarrier, apis.NetworkFailure,
		*backstop.ClientDataValidationError, *backstop.ServersideValidationError:
		return err
	}
	switch u := err.(type) {
	case interface{ Unwrap() error }:
		return outermost(u.Unwrap())
	case interface{ Unwrap() []error }:
		for _, e := range u.Unwrap() {
			if found := outermost(e); found != nil {
				return found
			}
		}
	}
	return nil
}
