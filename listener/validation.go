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

import (
	"log/slog"
	"strings"

	"dirpx.dev/backstop"
	"dirpx.dev/backstop/apierror"
)

// Log pair keys written by the validation listeners.
const (
	KeyConstraintViolations = "constraint_violation_validation_errors"
	KeyValidationGroups     = "validation_groups_considered"
	KeyServersideObject     = "serverside_validation_object"
	KeyServersideViolations = "serverside_validation_errors"
)

// ClientDataValidation claims *backstop.ClientDataValidationError.
//
// Each violation's Message is looked up as a catalog error name. Unknown
// names are a catalog bug: they are logged and reported as the generic
// service error. Violations naming a field decorate their error with a
// "field" metadata entry. A failure without violations becomes the generic
// bad request error.
type ClientDataValidation struct {
	catalog *apierror.Catalog
	logger  *slog.Logger
}

// NewClientDataValidation returns the client data validation listener.
func NewClientDataValidation(cat *apierror.Catalog, opts ...Option) *ClientDataValidation {
	o := buildOptions(opts)
	return &ClientDataValidation{catalog: cat, logger: o.logger}
}

func (*ClientDataValidation) Name() string { return "client_data_validation" }

func (l *ClientDataValidation) ShouldHandle(err error) Result {
	cv, ok := outermost(err).(*backstop.ClientDataValidationError)
	if !ok {
		return Ignore()
	}

	violations := cv.Violations()
	pairs := []backstop.Pair{
		backstop.P(KeyConstraintViolations, joinViolations(violations)),
		backstop.P(KeyValidationGroups, strings.Join(cv.Groups(), ",")),
	}
	if len(violations) == 0 {
		return Handle([]apierror.Error{l.catalog.GenericBadRequest()}, pairs...)
	}

	errs := make([]apierror.Error, 0, len(violations))
	for _, v := range violations {
		e, ok := l.catalog.ByName(v.Message)
		if !ok {
			l.logger.Error("constraint violation message does not name a catalog error",
				slog.String("violation_message", v.Message),
				slog.String("field", v.Field),
				slog.String("constraint", v.Constraint),
			)
			e = l.catalog.GenericServiceError()
		} else if v.Field != "" {
			e = e.WithMetadata(map[string]any{"field": v.Field})
		}
		errs = append(errs, e)
	}
	return Handle(errs, pairs...)
}

// ServersideValidation claims *backstop.ServersideValidationError and
// always reports the catalog's serverside validation error.
type ServersideValidation struct {
	catalog *apierror.Catalog
}

// NewServersideValidation returns the serverside validation listener.
func NewServersideValidation(cat *apierror.Catalog) *ServersideValidation {
	return &ServersideValidation{catalog: cat}
}

func (*ServersideValidation) Name() string { return "serverside_validation" }

func (l *ServersideValidation) ShouldHandle(err error) Result {
	sv, ok := outermost(err).(*backstop.ServersideValidationError)
	if !ok {
		return Ignore()
	}
	return Handle([]apierror.Error{l.catalog.ServersideValidationError()},
		backstop.P(KeyServersideObject, sv.ObjectType()),
		backstop.P(KeyServersideViolations, joinViolations(sv.Violations())),
	)
}

func joinViolations(vs []backstop.Violation) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return strings.Join(parts, "; ")
}
