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

package listener

import "log/slog"

// DefaultMaxBodyLength bounds downstream response bodies copied into logs.
const DefaultMaxBodyLength = 1024

type options struct {
	logger        *slog.Logger
	maxBodyLength int
}

// Option configures the listeners of this package.
type Option func(*options)

// WithLogger sets the logger used to report catalog misconfiguration
// detected while classifying. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMaxBodyLength bounds downstream response bodies copied into log
// pairs. Non-positive values keep the default.
func WithMaxBodyLength(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxBodyLength = n
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{maxBodyLength: DefaultMaxBodyLength}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}
