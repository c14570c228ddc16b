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

package mapper

import (
	"google.golang.org/grpc/codes"
)

// Option configures the Mapper at build time.
// All options are applied to an internal builder and then frozen into
// an immutable Mapper.
type Option func(*builder)

// WithStatus sets or replaces the gRPC code for an HTTP status.
func WithStatus(httpStatus int, c codes.Code) Option {
	return func(b *builder) { b.statusRules[httpStatus] = c }
}

// WithNameOverride registers an exact rule for one catalog error name.
// Name rules take precedence over status rules.
func WithNameOverride(name string, c codes.Code) Option {
	return func(b *builder) { b.nameOverride[name] = c }
}

// WithNamePrefix adds a longest-prefix-match rule on error names. Names
// are split into segments on '_' and '.'; "*" matches one segment. A more
// specific prefix wins.
func WithNamePrefix(prefix string, c codes.Code) Option {
	return func(b *builder) { b.namePrefixes = append(b.namePrefixes, prefixRule{prefix, c}) }
}

// WithClientErrorFallback sets the code for 4xx statuses without a rule.
// Defaults to codes.FailedPrecondition.
func WithClientErrorFallback(c codes.Code) Option {
	return func(b *builder) { b.fallbackClient = c }
}

// WithServerErrorFallback sets the code for 5xx statuses without a rule.
// Defaults to codes.Internal.
func WithServerErrorFallback(c codes.Code) Option {
	return func(b *builder) { b.fallbackServer = c }
}
