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

	"dirpx.dev/backstop/apierror"
	"dirpx.dev/backstop/apis"
	"dirpx.dev/backstop/contract"
)

// HeaderErrorUID is the response header (and log key) carrying the error ID.
const HeaderErrorUID = "error_uid"

// ResponseInfo describes the response an adapter must write.
type ResponseInfo[T any] struct {
	StatusCode     int
	Representation T
	Headers        map[string][]string
	ErrorID        string
}

// PrepareFunc renders the error contract into the framework's response
// type. errs holds the errors sent to the client, err is the original
// failure.
//
// A PrepareFunc that had to degrade (for example to a fallback payload)
// returns the degraded representation together with an error wrapping
// ErrDegraded. Any other error aborts the handling.
type PrepareFunc[T any] func(c contract.ErrorContract, status int, errs []apierror.Error, err error, req apis.RequestInfo) (T, error)

// LastDitchFunc renders the hardcoded response used when nothing else
// worked. It must not fail.
type LastDitchFunc[T any] func(errorID string) T

// ErrDegraded marks a PrepareFunc result that is usable but not the
// intended representation.
var ErrDegraded = errors.New("handler: representation degraded")

// JSON returns a PrepareFunc rendering the contract with s. When the
// contract cannot be serialized the fallback payload is returned along
// with an error wrapping ErrDegraded.
func JSON(s contract.Serializer) PrepareFunc[[]byte] {
	return func(c contract.ErrorContract, _ int, _ []apierror.Error, _ error, _ apis.RequestInfo) ([]byte, error) {
		out, err := s.MarshalOrFallback(c)
		if err != nil {
			return out, fmt.Errorf("%w: %w", ErrDegraded, err)
		}
		return out, nil
	}
}

// JSONLastDitch renders contract.FallbackTemplate.
func JSONLastDitch(errorID string) []byte { return contract.Fallback(errorID) }

// UnexpectedHandlingError is returned by Handler.MaybeHandle when handling
// itself failed: a misconfigured catalog, a failing PrepareFunc or a panic.
// Callers must route the original failure to an Unhandled handler.
type UnexpectedHandlingError struct {
	// Original is the failure being handled.
	Original error
	// Err is what went wrong while handling it.
	Err error
}

func (e *UnexpectedHandlingError) Error() string {
	return fmt.Sprintf("handler: unexpected error while handling %q: %v", errString(e.Original), e.Err)
}

func (e *UnexpectedHandlingError) Unwrap() error { return e.Err }

func errString(err error) string {
	if err == nil {
		return "<nil>"
	}
	return err.Error()
}

// Respond handles err with h and falls back to u when no listener claims
// it or h fails. It always returns a response.
func Respond[T any](h *Handler[T], u *Unhandled[T], err error, req apis.RequestInfo) ResponseInfo[T] {
	resp, herr := h.MaybeHandle(err, req)
	if herr == nil && resp != nil {
		return *resp
	}
	return u.Handle(err, req)
}
