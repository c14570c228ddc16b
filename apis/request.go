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
	"context"
	"errors"
)

// ErrBodyUnreadable is returned by RequestInfo.Body when the request body
// cannot be read (already consumed, too large, broken connection).
var ErrBodyUnreadable = errors.New("backstop: request body unreadable")

// RequestInfo is a read-only view of an inbound request, used for logging
// and by listeners that need request context. Header lookups are
// case-insensitive.
type RequestInfo interface {
	// Context returns the request's context.
	Context() context.Context

	URI() string
	Method() string
	QueryString() string

	// Headers returns every header. Callers must not modify the result.
	Headers() map[string][]string
	// Header returns the first value of the named header, or "".
	Header(name string) string
	// HeaderValues returns every value of the named header.
	HeaderValues(name string) []string

	// Attribute returns a framework-specific request attribute, or nil.
	Attribute(name string) any

	// Body returns the request body. It fails with an error matching
	// ErrBodyUnreadable when the body cannot be read.
	Body() (string, error)
}

// NoRequest is a RequestInfo for failures that did not originate in a
// request, such as background jobs.
var NoRequest RequestInfo = noRequest{}

type noRequest struct{}

func (noRequest) Context() context.Context     { return context.Background() }
func (noRequest) URI() string                  { return "" }
func (noRequest) Method() string               { return "" }
func (noRequest) QueryString() string          { return "" }
func (noRequest) Headers() map[string][]string { return nil }
func (noRequest) Header(string) string         { return "" }
func (noRequest) HeaderValues(string) []string { return nil }
func (noRequest) Attribute(string) any         { return nil }
func (noRequest) Body() (string, error)        { return "", nil }
