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
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"dirpx.dev/backstop/apis"
)

// DefaultSensitiveHeaders are masked in log lines unless WithSensitiveHeaders
// replaces them.
var DefaultSensitiveHeaders = []string{
	"Authorization",
	"Proxy-Authorization",
	"Cookie",
	"Set-Cookie",
	"X-Api-Key",
}

type options struct {
	logger    *slog.Logger
	observer  apis.Observer
	newID     func() string
	sensitive map[string]struct{}
}

// Option configures a Handler or an Unhandled handler.
type Option func(*options)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithObserver sets the observer notified of every outcome.
func WithObserver(obs apis.Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithIDGenerator replaces the error ID generator (random UUIDv4 by
// default). Mostly useful in tests.
func WithIDGenerator(fn func() string) Option {
	return func(o *options) { o.newID = fn }
}

// WithSensitiveHeaders replaces the set of request headers whose values are
// masked in log lines. Names are case-insensitive.
func WithSensitiveHeaders(names ...string) Option {
	return func(o *options) { o.sensitive = headerSet(names) }
}

func buildOptions(opts []Option) options {
	o := options{sensitive: headerSet(DefaultSensitiveHeaders)}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.observer == nil {
		o.observer = apis.NopObserver{}
	}
	if o.newID == nil {
		o.newID = uuid.NewString
	}
	return o
}

func headerSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[http.CanonicalHeaderKey(n)] = struct{}{}
	}
	return set
}
