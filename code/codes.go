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

package code

// Core service-failure codes
//
// These are the codes of the framework-supplied core errors that describe
// failures on our side of the wire. Projects must not reuse them for their
// own errors unless the project error is a wrapper around the core error.
const (
	// GenericService is the catch-all code for unexpected failures.
	// Always rendered with HTTP 500 and the generic message; the real cause
	// lives in the server-side log line that carries the same error id.
	GenericService Code = "10"

	// OutsideDependencyUnrecoverable indicates that a downstream dependency
	// answered with a failure that retrying will not fix.
	// Can be mapped to an HTTP 500.
	OutsideDependencyUnrecoverable Code = "20"

	// ServersideValidation indicates that an object we produced (or received
	// from a downstream system) failed post-hoc validation.
	// Can be mapped to an HTTP 500.
	ServersideValidation Code = "30"

	// TemporaryServiceProblem indicates a transient failure on our side, for
	// example a downstream call that timed out.
	// Can be mapped to an HTTP 503.
	TemporaryServiceProblem Code = "40"

	// OutsideDependencyTemporary indicates that a downstream dependency
	// answered with a failure that is likely to go away on retry.
	// Can be mapped to an HTTP 503.
	OutsideDependencyTemporary Code = "50"
)

// Core request-failure codes
//
// These codes describe failures caused by the caller's request.
const (
	// GenericBadRequest is used when the request is wrong in a way that no
	// more specific error describes.
	GenericBadRequest Code = "100"

	// MissingExpectedContent indicates an empty or absent request body where
	// one was required.
	MissingExpectedContent Code = "101"

	// TypeConversion indicates a request value that could not be converted
	// to the expected type, e.g. "abc" for an integer field.
	TypeConversion Code = "102"

	// MalformedRequest indicates a request body that could not be parsed.
	MalformedRequest Code = "110"
)

// Core protocol-level codes
//
// These codes mirror the HTTP status they are rendered with.
const (
	Unauthorized               Code = "401"
	Forbidden                  Code = "403"
	NotFound                   Code = "404"
	MethodNotAllowed           Code = "405"
	NoAcceptableRepresentation Code = "406"
	UnsupportedMediaType       Code = "415"
	TooManyRequests            Code = "429"
)
