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

package apierror

import (
	"net/http"
	"slices"

	"dirpx.dev/backstop/code"
)

// CoreErrors are the framework-level hooks every catalog must supply. The
// listeners and handlers in this module refer to these entries by role (for
// example "the generic service error"), never by name, so a project may
// rename or restyle them as long as every hook is set.
type CoreErrors struct {
	GenericServiceError                 Error
	OutsideDependencyUnrecoverableError Error
	ServersideValidationError           Error
	TemporaryServiceProblem             Error
	OutsideDependencyTemporaryError     Error
	GenericBadRequest                   Error
	MissingExpectedContent              Error
	TypeConversionError                 Error
	MalformedRequest                    Error
	Unauthorized                        Error
	Forbidden                           Error
	NotFound                            Error
	MethodNotAllowed                    Error
	NoAcceptableRepresentation          Error
	UnsupportedMediaType                Error
	TooManyRequests                     Error

	// Extra lists additional core entries that have no hook.
	Extra []Error
}

// Core entries shipped with the module. DefaultCoreErrors bundles them.
var (
	GenericServiceError = New("GENERIC_SERVICE_ERROR", code.GenericService,
		"An error occurred while fulfilling the request", http.StatusInternalServerError)
	OutsideDependencyUnrecoverableError = New("OUTSIDE_DEPENDENCY_RETURNED_AN_UNRECOVERABLE_ERROR", code.OutsideDependencyUnrecoverable,
		"An error occurred while fulfilling the request", http.StatusInternalServerError)
	ServersideValidationError = New("SERVERSIDE_VALIDATION_ERROR", code.ServersideValidation,
		"An error occurred while fulfilling the request", http.StatusInternalServerError)
	TemporaryServiceProblem = New("TEMPORARY_SERVICE_PROBLEM", code.TemporaryServiceProblem,
		"A temporary error occurred. The request may be retried", http.StatusServiceUnavailable)
	OutsideDependencyTemporaryError = New("OUTSIDE_DEPENDENCY_RETURNED_A_TEMPORARY_ERROR", code.OutsideDependencyTemporary,
		"A temporary error occurred. The request may be retried", http.StatusServiceUnavailable)
	GenericBadRequest = New("GENERIC_BAD_REQUEST", code.GenericBadRequest,
		"Invalid request", http.StatusBadRequest)
	MissingExpectedContent = New("MISSING_EXPECTED_CONTENT", code.MissingExpectedContent,
		"Missing expected content", http.StatusBadRequest)
	TypeConversionError = New("TYPE_CONVERSION_ERROR", code.TypeConversion,
		"Type conversion error", http.StatusBadRequest)
	MalformedRequest = New("MALFORMED_REQUEST", code.MalformedRequest,
		"Malformed request", http.StatusBadRequest)
	Unauthorized = New("UNAUTHORIZED", code.Unauthorized,
		"Unauthorized access", http.StatusUnauthorized)
	Forbidden = New("FORBIDDEN", code.Forbidden,
		"Forbidden access", http.StatusForbidden)
	NotFound = New("NOT_FOUND", code.NotFound,
		"The requested resource was not found", http.StatusNotFound)
	MethodNotAllowed = New("METHOD_NOT_ALLOWED", code.MethodNotAllowed,
		"The requested method is not allowed for this resource", http.StatusMethodNotAllowed)
	NoAcceptableRepresentation = New("NO_ACCEPTABLE_REPRESENTATION", code.NoAcceptableRepresentation,
		"No acceptable representation for this resource", http.StatusNotAcceptable)
	UnsupportedMediaType = New("UNSUPPORTED_MEDIA_TYPE", code.UnsupportedMediaType,
		"Unsupported media type", http.StatusUnsupportedMediaType)
	TooManyRequests = New("TOO_MANY_REQUESTS", code.TooManyRequests,
		"Too many requests", http.StatusTooManyRequests)
)

// DefaultCoreErrors returns the module's baseline core errors.
func DefaultCoreErrors() CoreErrors {
	return CoreErrors{
		GenericServiceError:                 GenericServiceError,
		OutsideDependencyUnrecoverableError: OutsideDependencyUnrecoverableError,
		ServersideValidationError:           ServersideValidationError,
		TemporaryServiceProblem:             TemporaryServiceProblem,
		OutsideDependencyTemporaryError:     OutsideDependencyTemporaryError,
		GenericBadRequest:                   GenericBadRequest,
		MissingExpectedContent:              MissingExpectedContent,
		TypeConversionError:                 TypeConversionError,
		MalformedRequest:                    MalformedRequest,
		Unauthorized:                        Unauthorized,
		Forbidden:                           Forbidden,
		NotFound:                            NotFound,
		MethodNotAllowed:                    MethodNotAllowed,
		NoAcceptableRepresentation:          NoAcceptableRepresentation,
		UnsupportedMediaType:                UnsupportedMediaType,
		TooManyRequests:                     TooManyRequests,
	}
}

// hook pairs a CoreErrors field name with its value, for validation messages.
type hook struct {
	field string
	err   Error
}

func (c CoreErrors) hooks() []hook {
	return []hook{
		{"GenericServiceError", c.GenericServiceError},
		{"OutsideDependencyUnrecoverableError", c.OutsideDependencyUnrecoverableError},
		{"ServersideValidationError", c.ServersideValidationError},
		{"TemporaryServiceProblem", c.TemporaryServiceProblem},
		{"OutsideDependencyTemporaryError", c.OutsideDependencyTemporaryError},
		{"GenericBadRequest", c.GenericBadRequest},
		{"MissingExpectedContent", c.MissingExpectedContent},
		{"TypeConversionError", c.TypeConversionError},
		{"MalformedRequest", c.MalformedRequest},
		{"Unauthorized", c.Unauthorized},
		{"Forbidden", c.Forbidden},
		{"NotFound", c.NotFound},
		{"MethodNotAllowed", c.MethodNotAllowed},
		{"NoAcceptableRepresentation", c.NoAcceptableRepresentation},
		{"UnsupportedMediaType", c.UnsupportedMediaType},
		{"TooManyRequests", c.TooManyRequests},
	}
}

// List returns every core entry: hooks in declaration order, then Extra.
// Unset hooks are skipped.
func (c CoreErrors) List() []Error {
	hs := c.hooks()
	out := make([]Error, 0, len(hs)+len(c.Extra))
	for _, h := range hs {
		if !h.err.IsZero() {
			out = append(out, h.err)
		}
	}
	return append(out, c.Extra...)
}

func (c CoreErrors) isZero() bool {
	for _, h := range c.hooks() {
		if !h.err.IsZero() {
			return false
		}
	}
	return len(c.Extra) == 0
}

// defaultStatusPriority orders HTTP statuses most-important first. Access
// and protocol problems outrank payload problems, and client errors outrank
// server errors: when a request is both invalid and hit a downstream
// failure, fixing the request is the actionable part.
var defaultStatusPriority = []int{
	http.StatusForbidden,
	http.StatusUnauthorized,
	http.StatusMethodNotAllowed,
	http.StatusNotAcceptable,
	http.StatusUnsupportedMediaType,
	http.StatusTooManyRequests,
	http.StatusBadRequest,
	http.StatusNotFound,
	http.StatusServiceUnavailable,
	http.StatusInternalServerError,
}

// DefaultStatusPriority returns a copy of the module's default status
// priority order.
func DefaultStatusPriority() []int {
	return slices.Clone(defaultStatusPriority)
}

// IsWrapperAroundCoreError reports whether candidate renders identically to
// one of core: same code, message and status. Names are not compared, so a
// project entry repeating a core entry verbatim also counts.
func IsWrapperAroundCoreError(candidate Error, core []Error) bool {
	for _, c := range core {
		if c.SameContent(candidate) {
			return true
		}
	}
	return false
}
