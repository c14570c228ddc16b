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
	"errors"
	"fmt"
	"strings"

	"google.golang.org/grpc/codes"

	"dirpx.dev/backstop/apierror"
	"dirpx.dev/backstop/apis"
	"dirpx.dev/backstop/mapper/internal/segmenttrie"
)

// ErrInvalidRule is returned by New when an option carries an invalid
// status, name or prefix.
var ErrInvalidRule = errors.New("mapper: invalid rule")

// New constructs an immutable apis.Mapper snapshot.
//
// Build process:
//
//  1. Seed the builder with the default status table.
//  2. Apply options.
//  3. Validate statuses and exact names, build the name-prefix trie.
//  4. Freeze maps into fresh copies.
func New(opts ...Option) (apis.Mapper, error) {
	b := newBuilder()
	for k, v := range defaultGRPC {
		b.statusRules[k] = v
	}
	for _, opt := range opts {
		opt(b)
	}

	for s := range b.statusRules {
		if s < 100 || s > 599 {
			return nil, fmt.Errorf("%w: HTTP status %d out of range", ErrInvalidRule, s)
		}
	}
	for name := range b.nameOverride {
		if err := apierror.ValidateName(name); err != nil {
			return nil, fmt.Errorf("%w: name override %q: %v", ErrInvalidRule, name, err)
		}
	}

	var trie *segmenttrie.Trie[codes.Code]
	if len(b.namePrefixes) > 0 {
		trie = segmenttrie.New[codes.Code]()
		for _, r := range b.namePrefixes {
			if err := trie.Insert(strings.TrimSpace(r.prefix), r.val); err != nil {
				return nil, fmt.Errorf("%w: name prefix %q: %v", ErrInvalidRule, r.prefix, err)
			}
		}
	}

	return &mapper{
		status:   freezeStatusRules(b.statusRules),
		override: freezeNameOverrides(b.nameOverride),
		prefixes: trie,

		fallbackClient: b.fallbackClient,
		fallbackServer: b.fallbackServer,
		fallbackOther:  b.fallbackOther,
	}, nil
}

// MustNew is New that panics on error. Intended for package-level vars.
func MustNew(opts ...Option) apis.Mapper {
	m, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return m
}

// mapper is safe for concurrent use once constructed; nothing is mutated
// after New returns.
type mapper struct {
	status   map[int]codes.Code
	override map[string]codes.Code
	// prefixes is nil when no prefix rule was registered.
	prefixes *segmenttrie.Trie[codes.Code]

	fallbackClient codes.Code
	fallbackServer codes.Code
	fallbackOther  codes.Code
}

// GRPCCode resolves the gRPC code for a response.
//
// Resolution order (highest to lowest):
//  1. exact name override, for the first error in errs that has one;
//  2. longest name-prefix match, for the first error in errs that has one;
//  3. status rule;
//  4. class fallback (4xx, 5xx, anything else).
func (m *mapper) GRPCCode(status int, errs []apierror.Error) codes.Code {
	for _, e := range errs {
		if v, ok := m.override[e.Name()]; ok {
			return v
		}
	}
	if m.prefixes != nil {
		for _, e := range errs {
			if v, ok := m.prefixes.Match(e.Name()); ok {
				return v
			}
		}
	}
	c, _ := m.byStatus(status)
	return c
}

func (m *mapper) byStatus(status int) (codes.Code, bool) {
	if v, ok := m.status[status]; ok {
		return v, true
	}
	switch {
	case status >= 400 && status < 500:
		return m.fallbackClient, false
	case status >= 500 && status < 600:
		return m.fallbackServer, false
	default:
		return m.fallbackOther, false
	}
}

// Explain produces a textual trace of how the mapper resolved the gRPC
// code for one (status, name) pair.
//
// Example output:
//
//	status=503 name="OUTSIDE_DEPENDENCY_TIMEOUT"
//	grpc: source=prefix pattern="OUTSIDE_DEPENDENCY" -> UNAVAILABLE(14)
//
// source is one of override, prefix, status or fallback. pattern is the
// prefix as registered and may contain "*".
func (m *mapper) Explain(status int, name string) string {
	var b strings.Builder
	_, _ = fmt.Fprintf(&b, "status=%d name=%q\n", status, name)

	if v, ok := m.override[name]; ok {
		_, _ = fmt.Fprintf(&b, "grpc: source=override -> %s", codeLabel(v))
		return b.String()
	}
	if m.prefixes != nil {
		if v, ok, pat := m.prefixes.MatchWithPattern(name); ok {
			_, _ = fmt.Fprintf(&b, "grpc: source=prefix pattern=%q -> %s", pat, codeLabel(v))
			return b.String()
		}
	}
	if v, ok := m.byStatus(status); ok {
		_, _ = fmt.Fprintf(&b, "grpc: source=status -> %s", codeLabel(v))
	} else {
		_, _ = fmt.Fprintf(&b, "grpc: source=fallback -> %s", codeLabel(v))
	}
	return b.String()
}
