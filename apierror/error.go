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
	"errors"
	"fmt"
	"maps"
	"reflect"
	"regexp"
	"slices"
	"strings"

	"dirpx.dev/backstop/code"
)

// Error is one named, coded, HTTP-status-mapped entry of an error catalog.
//
// It is an immutable value: every field is unexported, Metadata returns a
// copy, and the With* helpers return modified copies. Error deliberately does
// not implement the built-in error interface. It describes what a client is
// told, not what went wrong; failures carry Errors (see the backstop
// package), they are not Errors themselves.
//
// Two Errors are the same catalog entry when Equal reports true: name, code,
// message, status and metadata all match.
type Error struct {
	name     string
	code     code.Code
	message  string
	status   int
	metadata map[string]any
}

// Option is a functional option applied by New.
type Option func(Error) Error

// WithMetadataOption adds a single metadata key/value on construction.
func WithMetadataOption(k string, v any) Option {
	return func(e Error) Error {
		return e.WithMetadata(map[string]any{k: v})
	}
}

// WithMetadataMapOption merges md into the metadata on construction.
func WithMetadataMapOption(md map[string]any) Option {
	return func(e Error) Error {
		return e.WithMetadata(md)
	}
}

// New is the constructor for catalog entries.
//
// Usage:
//
//	var InvalidRequest = apierror.New("INVALID_REQUEST", "99001", "Invalid request", 400,
//	    apierror.WithMetadataOption("doc", "https://example.com/errors/99001"),
//	)
//
// New does not validate; catalogs validate all of their entries at
// construction time (see NewCatalog).
func New(name string, c code.Code, message string, httpStatus int, opts ...Option) Error {
	e := Error{name: name, code: c, message: message, status: httpStatus}
	for _, opt := range opts {
		e = opt(e)
	}
	return e
}

// Wrap builds a wrapper entry: a new name with the code, message, status
// and metadata of base. Wrappers exist so that log lines can tell two
// situations apart while the client sees the same contract.
func Wrap(name string, base Error) Error {
	cp := base
	cp.name = name
	cp.metadata = cloneMetadata(base.metadata)
	return cp
}

// Name returns the unique (within a catalog) name of the entry.
func (e Error) Name() string { return e.name }

// Code returns the client-visible error code.
func (e Error) Code() code.Code { return e.code }

// Message returns the client-visible message.
func (e Error) Message() string { return e.message }

// HTTPStatus returns the HTTP status this entry is rendered with.
func (e Error) HTTPStatus() int { return e.status }

// Metadata returns a copy of the entry's metadata. It returns nil when the
// entry has no metadata.
func (e Error) Metadata() map[string]any { return cloneMetadata(e.metadata) }

// HasMetadata reports whether the entry carries any metadata.
func (e Error) HasMetadata() bool { return len(e.metadata) > 0 }

// IsZero reports whether e is the zero Error.
func (e Error) IsZero() bool {
	return e.name == "" && e.code == "" && e.message == "" && e.status == 0 && len(e.metadata) == 0
}

// WithMetadata returns a copy of e whose metadata is e's metadata overlaid
// with md. All other fields are forwarded unchanged, so the result keeps the
// name, code, message and status of e.
//
// This is how a generic catalog entry gets contextual detail (for example
// the offending field of a validation failure) without a new named error.
func (e Error) WithMetadata(md map[string]any) Error {
	if len(md) == 0 {
		return e
	}
	cp := e
	m := make(map[string]any, len(e.metadata)+len(md))
	maps.Copy(m, e.metadata)
	maps.Copy(m, md)
	cp.metadata = m
	return cp
}

// Equal reports full-value equality. Nil and empty metadata are equal.
func (e Error) Equal(o Error) bool {
	if e.name != o.name || e.code != o.code || e.message != o.message || e.status != o.status {
		return false
	}
	if len(e.metadata) == 0 && len(o.metadata) == 0 {
		return true
	}
	return reflect.DeepEqual(e.metadata, o.metadata)
}

// SameContent reports whether e and o render identically apart from the
// name: same code, message and HTTP status.
func (e Error) SameContent(o Error) bool {
	return e.code == o.code && e.message == o.message && e.status == o.status
}

// String renders e for logs, e.g. `NOT_FOUND(code=404, status=404)`.
func (e Error) String() string {
	return fmt.Sprintf("%s(code=%s, status=%d)", e.name, e.code, e.status)
}

// Compare is the total order used by SortedSet: code (numeric-aware), then
// name, then status, message and a canonical rendering of the metadata.
// It returns -1, 0 or +1.
func Compare(a, b Error) int {
	if c := code.Compare(a.code, b.code); c != 0 {
		return c
	}
	if c := strings.Compare(a.name, b.name); c != 0 {
		return c
	}
	switch {
	case a.status < b.status:
		return -1
	case a.status > b.status:
		return 1
	}
	if c := strings.Compare(a.message, b.message); c != 0 {
		return c
	}
	if c := strings.Compare(metadataKey(a.metadata), metadataKey(b.metadata)); c != 0 {
		return c
	}
	return strings.Compare(typedMetadataKey(a.metadata), typedMetadataKey(b.metadata))
}

// MaxNameLength is the maximum length of an entry name.
const MaxNameLength = 128

// nameFmt accepts identifiers such as GENERIC_SERVICE_ERROR or
// billing.card_declined: a letter first, then letters, digits, '_', '.' and '-'.
const nameFmt = `^[A-Za-z][A-Za-z0-9_.\-]*$`

var nameRe = regexp.MustCompile(nameFmt)

// ErrNameInvalid is returned by ValidateName for malformed entry names.
var ErrNameInvalid = errors.New("backstop: invalid error name")

// ValidateName checks that name is usable as a catalog entry name.
func ValidateName(name string) error {
	if len(name) > MaxNameLength || !nameRe.MatchString(name) {
		return ErrNameInvalid
	}
	return nil
}

func cloneMetadata(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	return maps.Clone(src)
}

// metadataKey renders metadata deterministically; fmt prints maps with
// sorted keys.
func metadataKey(md map[string]any) string {
	if len(md) == 0 {
		return ""
	}
	return fmt.Sprint(md)
}

// typedMetadataKey separates values that print alike but differ in type,
// such as int(1) and int64(1).
func typedMetadataKey(md map[string]any) string {
	var b strings.Builder
	for _, k := range slices.Sorted(maps.Keys(md)) {
		v := md[k]
		_, _ = fmt.Fprintf(&b, "%q=%T(%#v);", k, v, v)
	}
	return b.String()
}
