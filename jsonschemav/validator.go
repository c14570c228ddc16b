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

// Package jsonschemav validates request documents against a JSON schema and
// reports failures as *backstop.ClientDataValidationError, ready for the
// client data validation listener.
//
// Each schema violation becomes a backstop.Violation whose Message is the
// name of the catalog error to report. Names are chosen by rules keyed on
// the gojsonschema error type ("required", "invalid_type", "number_gte",
// ...), optionally narrowed to one field.
package jsonschemav

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"dirpx.dev/backstop"
)

// DefaultFallbackErrorName is reported for violations no rule covers.
const DefaultFallbackErrorName = "GENERIC_BAD_REQUEST"

// ErrInvalidSchema is returned by New for schemas gojsonschema rejects.
var ErrInvalidSchema = errors.New("jsonschemav: invalid schema")

const rootField = "(root)"

// Validator is a compiled schema plus naming rules. It is safe for
// concurrent use.
type Validator struct {
	schema   *gojsonschema.Schema
	rules    map[string]string
	fallback string
	groups   []string
}

// Option configures a Validator.
type Option func(*Validator)

// WithRule reports violations of the given constraint type as errorName.
func WithRule(constraint, errorName string) Option {
	return func(v *Validator) { v.rules[ruleKey("", constraint)] = errorName }
}

// WithFieldRule is WithRule limited to one field, e.g. "address.zip".
// Field rules beat constraint-wide rules.
func WithFieldRule(field, constraint, errorName string) Option {
	return func(v *Validator) { v.rules[ruleKey(field, constraint)] = errorName }
}

// WithFallbackErrorName replaces DefaultFallbackErrorName.
func WithFallbackErrorName(name string) Option {
	return func(v *Validator) { v.fallback = name }
}

// WithGroups sets the validation groups reported with every failure.
func WithGroups(groups ...string) Option {
	return func(v *Validator) { v.groups = slices.Clone(groups) }
}

// New compiles schemaJSON.
func New(schemaJSON string, opts ...Option) (*Validator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	v := &Validator{
		schema:   schema,
		rules:    make(map[string]string),
		fallback: DefaultFallbackErrorName,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Validate checks a JSON document. It returns nil when the document is
// valid and a *backstop.ClientDataValidationError when it is not. A
// document that is not JSON at all yields the decoder's error, wrapped.
func (v *Validator) Validate(doc []byte) error {
	return v.validate(string(doc), gojsonschema.NewBytesLoader(doc))
}

// ValidateValue is Validate for an already decoded Go value.
func (v *Validator) ValidateValue(obj any) error {
	return v.validate(obj, gojsonschema.NewGoLoader(obj))
}

func (v *Validator) validate(obj any, loader gojsonschema.JSONLoader) error {
	res, err := v.schema.Validate(loader)
	if err != nil {
		return fmt.Errorf("jsonschemav: load document: %w", err)
	}
	if res.Valid() {
		return nil
	}

	violations := make([]backstop.Violation, 0, len(res.Errors()))
	for _, re := range res.Errors() {
		field := fieldOf(re)
		violations = append(violations, backstop.Violation{
			Field:      field,
			Constraint: re.Type(),
			Message:    v.errorName(field, re.Type()),
		})
	}
	// gojsonschema does not promise an order.
	slices.SortFunc(violations, func(a, b backstop.Violation) int {
		if c := strings.Compare(a.Field, b.Field); c != 0 {
			return c
		}
		return strings.Compare(a.Constraint, b.Constraint)
	})
	return backstop.NewClientDataValidationError([]any{obj}, violations, v.groups...)
}

func (v *Validator) errorName(field, constraint string) string {
	if name, ok := v.rules[ruleKey(field, constraint)]; ok {
		return name
	}
	if name, ok := v.rules[ruleKey("", constraint)]; ok {
		return name
	}
	return v.fallback
}

// fieldOf returns the dotted path of the offending field. For "required"
// the missing property is appended to the parent's path.
func fieldOf(re gojsonschema.ResultError) string {
	field := re.Field()
	if field == rootField {
		field = ""
	}
	if re.Type() == "required" {
		if p, ok := re.Details()["property"].(string); ok && p != "" {
			if field == "" {
				return p
			}
			return field + "." + p
		}
	}
	return field
}

func ruleKey(field, constraint string) string { return field + "\x00" + constraint }
