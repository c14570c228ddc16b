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

package httpx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"dirpx.dev/backstop/apis"
)

// DefaultMaxBodyBytes bounds how much of a request body RequestInfo.Body
// reads.
const DefaultMaxBodyBytes = 64 << 10

// AttributeRoute is the Attribute name under which the matched
// http.ServeMux pattern is exposed.
const AttributeRoute = "http.route"

type attrKey string

// WithAttribute returns a copy of ctx carrying a request attribute readable
// through RequestInfo.Attribute.
func WithAttribute(ctx context.Context, name string, v any) context.Context {
	return context.WithValue(ctx, attrKey(name), v)
}

type requestInfo struct {
	r       *http.Request
	maxBody int64

	once    sync.Once
	body    string
	bodyErr error
}

// NewRequestInfo adapts r for the handler. The body is read at most once,
// on demand, and at most maxBody bytes of it (DefaultMaxBodyBytes when
// maxBody <= 0). After reading, r.Body is replaced so that later readers
// still see the same bytes.
func NewRequestInfo(r *http.Request, maxBody int64) apis.RequestInfo {
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	return &requestInfo{r: r, maxBody: maxBody}
}

func (ri *requestInfo) Context() context.Context          { return ri.r.Context() }
func (ri *requestInfo) URI() string                       { return ri.r.URL.Path }
func (ri *requestInfo) Method() string                    { return ri.r.Method }
func (ri *requestInfo) QueryString() string               { return ri.r.URL.RawQuery }
func (ri *requestInfo) Headers() map[string][]string      { return ri.r.Header }
func (ri *requestInfo) Header(name string) string         { return ri.r.Header.Get(name) }
func (ri *requestInfo) HeaderValues(name string) []string { return ri.r.Header.Values(name) }

func (ri *requestInfo) Attribute(name string) any {
	if name == AttributeRoute && ri.r.Pattern != "" {
		return ri.r.Pattern
	}
	return ri.r.Context().Value(attrKey(name))
}

func (ri *requestInfo) Body() (string, error) {
	ri.once.Do(ri.readBody)
	return ri.body, ri.bodyErr
}

func (ri *requestInfo) readBody() {
	if ri.r.Body == nil || ri.r.Body == http.NoBody {
		return
	}
	data, err := io.ReadAll(io.LimitReader(ri.r.Body, ri.maxBody+1))
	ri.r.Body = io.NopCloser(bytes.NewReader(data))
	switch {
	case err != nil:
		ri.bodyErr = fmt.Errorf("%w: %v", apis.ErrBodyUnreadable, err)
	case int64(len(data)) > ri.maxBody:
		ri.bodyErr = fmt.Errorf("%w: body exceeds %d bytes", apis.ErrBodyUnreadable, ri.maxBody)
	default:
		ri.body = string(data)
	}
}
