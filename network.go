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
	"fmt"

	"dirpx.dev/backstop/apis"
)

// NetworkError is a failed call to a downstream system. ConnectionType
// names that system, e.g. "payments-api" or "postgres".
type NetworkError struct {
	connectionType string
	cause          error
}

// NewNetworkError returns a generic downstream failure.
func NewNetworkError(connectionType string, cause error) *NetworkError {
	return &NetworkError{connectionType: connectionType, cause: cause}
}

func (e *NetworkError) Error() string { return e.describe("call failed") }

func (e *NetworkError) Unwrap() error { return e.cause }

// ConnectionType names the downstream system.
func (e *NetworkError) ConnectionType() string { return e.connectionType }

// NetworkFailureKind implements apis.NetworkFailure.
func (e *NetworkError) NetworkFailureKind() apis.NetworkFailureKind {
	return apis.NetworkFailureGeneric
}

func (e *NetworkError) describe(what string) string {
	if e.cause == nil {
		return fmt.Sprintf("downstream %s: %s", e.connectionType, what)
	}
	return fmt.Sprintf("downstream %s: %s: %v", e.connectionType, what, e.cause)
}

// ServerTimeoutError means the downstream did not answer in time.
type ServerTimeoutError struct {
	NetworkError
}

// NewServerTimeoutError returns a timeout failure.
func NewServerTimeoutError(connectionType string, cause error) *ServerTimeoutError {
	return &ServerTimeoutError{NetworkError{connectionType: connectionType, cause: cause}}
}

func (e *ServerTimeoutError) Error() string { return e.describe("timed out") }

// NetworkFailureKind implements apis.NetworkFailure.
func (e *ServerTimeoutError) NetworkFailureKind() apis.NetworkFailureKind {
	return apis.NetworkFailureTimeout
}

// ServerUnreachableError means no connection to the downstream could be made.
type ServerUnreachableError struct {
	NetworkError
}

// NewServerUnreachableError returns an unreachable failure.
func NewServerUnreachableError(connectionType string, cause error) *ServerUnreachableError {
	return &ServerUnreachableError{NetworkError{connectionType: connectionType, cause: cause}}
}

func (e *ServerUnreachableError) Error() string { return e.describe("unreachable") }

// NetworkFailureKind implements apis.NetworkFailure.
func (e *ServerUnreachableError) NetworkFailureKind() apis.NetworkFailureKind {
	return apis.NetworkFailureUnreachable
}

// ServerHTTPStatusError means the downstream answered with an unexpected
// HTTP status.
type ServerHTTPStatusError struct {
	NetworkError
	status  int
	body    string
	headers map[string][]string
}

// NewServerHTTPStatusError returns a failure carrying the downstream
// response details.
func NewServerHTTPStatusError(connectionType string, status int, body string, headers map[string][]string, cause error) *ServerHTTPStatusError {
	return &ServerHTTPStatusError{
		NetworkError: NetworkError{connectionType: connectionType, cause: cause},
		status:       status,
		body:         body,
		headers:      cloneHeaders(headers),
	}
}

func (e *ServerHTTPStatusError) Error() string {
	return e.describe(fmt.Sprintf("unexpected HTTP status %d", e.status))
}

// NetworkFailureKind implements apis.NetworkFailure.
func (e *ServerHTTPStatusError) NetworkFailureKind() apis.NetworkFailureKind {
	return apis.NetworkFailureHTTPStatus
}

// DownstreamStatusCode returns the status the downstream answered with.
func (e *ServerHTTPStatusError) DownstreamStatusCode() int { return e.status }

// DownstreamResponseBody returns the downstream response body.
func (e *ServerHTTPStatusError) DownstreamResponseBody() string { return e.body }

// DownstreamResponseHeaders returns a copy of the downstream response headers.
func (e *ServerHTTPStatusError) DownstreamResponseHeaders() map[string][]string {
	return cloneHeaders(e.headers)
}

var (
	_ apis.NetworkFailure       = (*NetworkError)(nil)
	_ apis.NetworkFailure       = (*ServerTimeoutError)(nil)
	_ apis.NetworkFailure       = (*ServerUnreachableError)(nil)
	_ apis.DownstreamHTTPStatus = (*ServerHTTPStatusError)(nil)
)
