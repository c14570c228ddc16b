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
	"reflect"
	"slices"
)

// Violation is one failed constraint. Message is expected to be the name of
// a catalog error, e.g. "INVALID_EMAIL"; the validation listener looks it up
// by that name.
type Violation struct {
	// Field is the path of the offending field, e.g. "address.zip". May be
	// empty for object-level constraints.
	Field string
	// Constraint names the rule that failed, e.g. "required" or "pattern".
	Constraint string
	// Message is the catalog error name for this violation.
	Message string
}

func (v Violation) String() string {
	if v.Field == "" {
		return fmt.Sprintf("%s: %s", v.Constraint, v.Message)
	}
	return fmt.Sprintf("%s %s: %s", v.Field, v.Constraint, v.Message)
}

// ClientDataValidationError reports that data sent by the client failed
// validation. It maps to 4xx catalog errors.
type ClientDataValidationError struct {
	objects    []any
	violations []Violation
	groups     []string
	cause      error
}

// NewClientDataValidationError records the validated objects, the
// violations found and the validation groups that were considered.
func NewClientDataValidationError(objects []any, violations []Violation, groups ...string) *ClientDataValidationError {
	return &ClientDataValidationError{
		objects:    slices.Clone(objects),
		violations: slices.Clone(violations),
		groups:     slices.Clone(groups),
	}
}

// WithCause returns a copy of e with cause attached.
func (e *ClientDataValidationError) WithCause(cause error) *ClientDataValidationError {
	cp := *e
	cp.cause = cause
	return &cp
}

func (e *ClientDataValidationError) Error() string {
	return fmt.Sprintf("client data validation failed for %s: %d violation(s)", typeNames(e.objects), len(e.violations))
}

func (e *ClientDataValidationError) Unwrap() error { return e.cause }

// Objects returns the validated objects.
func (e *ClientDataValidationError) Objects() []any { return slices.Clone(e.objects) }

// Violations returns the violations in the order they were reported.
func (e *ClientDataValidationError) Violations() []Violation { return slices.Clone(e.violations) }

// Groups returns the validation groups that were considered.
func (e *ClientDataValidationError) Groups() []string { return slices.Clone(e.groups) }

// ServersideValidationError reports that data produced or received by the
// server (for example a downstream response) failed validation. The client
// did nothing wrong, so it maps to a 5xx catalog error.
type ServersideValidationError struct {
	object     any
	violations []Violation
}

// NewServersideValidationError records the validated object and the
// violations found.
func NewServersideValidationError(object any, violations []Violation) *ServersideValidationError {
	return &ServersideValidationError{object: object, violations: slices.Clone(violations)}
}

func (e *ServersideValidationError) Error() string {
	return fmt.Sprintf("serverside validation failed for %s: %d violation(s)", typeName(e.object), len(e.violations))
}

// Object returns the validated object.
func (e *ServersideValidationError) Object() any { return e.object }

// ObjectType returns the Go type name of the validated object.
func (e *ServersideValidationError) ObjectType() string { return typeName(e.object) }

// Violations returns the violations in the order they were reported.
func (e *ServersideValidationError) Violations() []Violation { return slices.Clone(e.violations) }

func typeName(v any) string {
	if v == nil {
		return "<nil>"
	}
	return reflect.TypeOf(v).String()
}

func typeNames(objs []any) string {
	names := make([]string, len(objs))
	for i, o := range objs {
		names[i] = typeName(o)
	}
	return fmt.Sprint(names)
}
