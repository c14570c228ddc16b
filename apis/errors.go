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

package apis

import (
	"dirpx.dev/backstop/apierror"
)

// APIErrorCarrier is implemented by failures that already know which
// catalog errors describe them.
type APIErrorCarrier interface {
	error

	// APIErrors returns the catalog errors, in the order they were added.
	// Callers must not modify the returned slice.
	APIErrors() []apierror.Error
}

// LoggingDetailer is implemented by failures that carry extra key/value
// pairs for the server-side log line. The pairs are never sent to clients.
type LoggingDetailer interface {
	error

	ExtraDetailsForLogging() []Pair
}

// HeaderCarrier is implemented by failures that ask for extra response
// headers, e.g. Retry-After on a rate-limit error.
type HeaderCarrier interface {
	error

	ExtraResponseHeaders() map[string][]string
}

// LoggingBehaviorCarrier is implemented by failures that override how much
// detail the handler logs for them.
type LoggingBehaviorCarrier interface {
	error

	LoggingBehavior() LoggingBehavior
}

// LoggingBehavior controls whether the cause chain of a handled failure is
// logged.
type LoggingBehavior int

const (
	// DeferToDefault logs the cause chain for 5xx responses only.
	DeferToDefault LoggingBehavior = iota
	// ForceFullDetail always logs the cause chain.
	ForceFullDetail
	// ForceNoDetail never logs the cause chain.
	ForceNoDetail
)

func (b LoggingBehavior) String() string {
	switch b {
	case ForceFullDetail:
		return "force_full_detail"
	case ForceNoDetail:
		return "force_no_detail"
	default:
		return "defer_to_default"
	}
}

// NetworkFailureKind tells apart the ways a downstream call can fail.
type NetworkFailureKind int

const (
	// NetworkFailureGeneric is a downstream failure with no more specific kind.
	NetworkFailureGeneric NetworkFailureKind = iota
	// NetworkFailureTimeout means the downstream did not answer in time.
	NetworkFailureTimeout
	// NetworkFailureUnreachable means no connection could be established.
	NetworkFailureUnreachable
	// NetworkFailureHTTPStatus means the downstream answered with an
	// unexpected HTTP status; see DownstreamHTTPStatus.
	NetworkFailureHTTPStatus
)

func (k NetworkFailureKind) String() string {
	switch k {
	case NetworkFailureTimeout:
		return "timeout"
	case NetworkFailureUnreachable:
		return "unreachable"
	case NetworkFailureHTTPStatus:
		return "http_status"
	default:
		return "generic"
	}
}

// NetworkFailure is implemented by failures of calls to downstream systems.
type NetworkFailure interface {
	error

	// ConnectionType names the downstream system that was being called.
	ConnectionType() string
	NetworkFailureKind() NetworkFailureKind
}

// DownstreamHTTPStatus is a NetworkFailure where the downstream answered
// with an HTTP status the caller did not expect.
type DownstreamHTTPStatus interface {
	NetworkFailure

	DownstreamStatusCode() int
	DownstreamResponseBody() string
	DownstreamResponseHeaders() map[string][]string
}
