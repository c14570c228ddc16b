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

// Package catalogfile loads error catalogs from YAML.
//
// A catalog file lists the project errors, the project code range and,
// optionally, overrides for core hooks and the status priority order:
//
//	range:
//	  name: billing
//	  min: 99000
//	  max: 99999
//	status_priority: [403, 401, 405, 406, 415, 429, 400, 402, 404, 503, 500]
//	core:
//	  not_found:
//	    name: NOT_FOUND
//	    code: "404"
//	    message: Nothing here
//	    status: 404
//	errors:
//	  - name: CARD_DECLINED
//	    code: "99001"
//	    message: The card was declined
//	    status: 402
//	    metadata:
//	      retryable: false
//	  - name: BILLING_NOT_FOUND
//	    wraps: NOT_FOUND
//
// "wraps" builds a wrapper record around a core error, as overridden by the
// file's core section. Project errors cannot be wrapped. "range: {allow_all: true}" disables range checks.
package catalogfile

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"dirpx.dev/backstop/apierror"
	"dirpx.dev/backstop/code"
)

// ErrInvalidFile is matched by every error Load reports about the file's
// content, as opposed to I/O failures.
var ErrInvalidFile = errors.New("catalogfile: invalid catalog file")

// File is the YAML document.
type File struct {
	Range          *Range               `yaml:"range"`
	StatusPriority []int                `yaml:"status_priority,omitempty"`
	Core           map[string]ErrorSpec `yaml:"core,omitempty"`
	Errors         []ErrorSpec          `yaml:"errors"`
}

// Range selects the project code range.
type Range struct {
	Name     string `yaml:"name,omitempty"`
	AllowAll bool   `yaml:"allow_all,omitempty"`
	Min      int64  `yaml:"min,omitempty"`
	Max      int64  `yaml:"max,omitempty"`
}

// ErrorSpec describes one catalog error, or a wrapper when Wraps is set.
type ErrorSpec struct {
	Name     string         `yaml:"name"`
	Wraps    string         `yaml:"wraps,omitempty"`
	Code     string         `yaml:"code,omitempty"`
	Message  string         `yaml:"message,omitempty"`
	Status   int            `yaml:"status,omitempty"`
	Metadata map[string]any `yaml:"metadata,omitempty"`
}

// coreHooks maps the keys accepted under "core" to CoreErrors fields.
var coreHooks = map[string]func(*apierror.CoreErrors) *apierror.Error{
	"generic_service_error":                  func(c *apierror.CoreErrors) *apierror.Error { return &c.GenericServiceError },
	"outside_dependency_unrecoverable_error": func(c *apierror.CoreErrors) *apierror.Error { return &c.OutsideDependencyUnrecoverableError },
	"serverside_validation_error":            func(c *apierror.CoreErrors) *apierror.Error { return &c.ServersideValidationError },
	"temporary_service_problem":              func(c *apierror.CoreErrors) *apierror.Error { return &c.TemporaryServiceProblem },
	"outside_dependency_temporary_error":     func(c *apierror.CoreErrors) *apierror.Error { return &c.OutsideDependencyTemporaryError },
	"generic_bad_request":                    func(c *apierror.CoreErrors) *apierror.Error { return &c.GenericBadRequest },
	"missing_expected_content":               func(c *apierror.CoreErrors) *apierror.Error { return &c.MissingExpectedContent },
	"type_conversion_error":                  func(c *apierror.CoreErrors) *apierror.Error { return &c.TypeConversionError },
	"malformed_request":                      func(c *apierror.CoreErrors) *apierror.Error { return &c.MalformedRequest },
	"unauthorized":                           func(c *apierror.CoreErrors) *apierror.Error { return &c.Unauthorized },
	"forbidden":                              func(c *apierror.CoreErrors) *apierror.Error { return &c.Forbidden },
	"not_found":                              func(c *apierror.CoreErrors) *apierror.Error { return &c.NotFound },
	"method_not_allowed":                     func(c *apierror.CoreErrors) *apierror.Error { return &c.MethodNotAllowed },
	"no_acceptable_representation":           func(c *apierror.CoreErrors) *apierror.Error { return &c.NoAcceptableRepresentation },
	"unsupported_media_type":                 func(c *apierror.CoreErrors) *apierror.Error { return &c.UnsupportedMediaType },
	"too_many_requests":                      func(c *apierror.CoreErrors) *apierror.Error { return &c.TooManyRequests },
}

// Load decodes a catalog file into an apierror.Config. Unknown keys are
// rejected. The result is not validated; pass it to apierror.NewCatalog.
func Load(r io.Reader) (apierror.Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		return apierror.Config{}, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}
	return f.Config()
}

// LoadFile is Load for a path.
func LoadFile(path string) (apierror.Config, error) {
	fh, err := os.Open(path)
	if err != nil {
		return apierror.Config{}, fmt.Errorf("catalogfile: %w", err)
	}
	defer fh.Close()

	cfg, err := Load(fh)
	if err != nil {
		return apierror.Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadCatalog loads and validates the catalog at path.
func LoadCatalog(path string) (*apierror.Catalog, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	cat, err := apierror.NewCatalog(cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cat, nil
}

// Config converts the document into an apierror.Config, reporting every
// malformed entry at once.
func (f File) Config() (apierror.Config, error) {
	var problems []error

	core := apierror.DefaultCoreErrors()
	for _, key := range slices.Sorted(maps.Keys(f.Core)) {
		spec := f.Core[key]
		field, ok := coreHooks[key]
		if !ok {
			problems = append(problems, fmt.Errorf("core: unknown hook %q", key))
			continue
		}
		if spec.Wraps != "" {
			problems = append(problems, fmt.Errorf("core: hook %q cannot be a wrapper", key))
			continue
		}
		*field(&core) = spec.plain()
	}

	wrappable := make(map[string]apierror.Error)
	for _, e := range core.List() {
		wrappable[e.Name()] = e
	}

	project := make([]apierror.Error, 0, len(f.Errors))
	for i, spec := range f.Errors {
		e, err := spec.build(wrappable)
		if err != nil {
			problems = append(problems, fmt.Errorf("errors[%d]: %w", i, err))
			continue
		}
		project = append(project, e)
	}

	rng, err := f.Range.codeRange()
	if err != nil {
		problems = append(problems, err)
	}

	if len(problems) > 0 {
		return apierror.Config{}, fmt.Errorf("%w: %w", ErrInvalidFile, errors.Join(problems...))
	}
	return apierror.Config{
		Core:           core,
		Project:        project,
		Range:          rng,
		StatusPriority: f.StatusPriority,
	}, nil
}

func (s ErrorSpec) plain() apierror.Error {
	return apierror.New(s.Name, code.Code(s.Code), s.Message, s.Status,
		apierror.WithMetadataMapOption(s.Metadata))
}

func (s ErrorSpec) build(core map[string]apierror.Error) (apierror.Error, error) {
	if s.Name == "" {
		return apierror.Error{}, errors.New("name is required")
	}
	if s.Wraps == "" {
		return s.plain(), nil
	}
	if s.Code != "" || s.Message != "" || s.Status != 0 || len(s.Metadata) > 0 {
		return apierror.Error{}, fmt.Errorf("%s: a wrapper takes only name and wraps", s.Name)
	}
	base, ok := core[s.Wraps]
	if !ok {
		return apierror.Error{}, fmt.Errorf("%s: wraps %q, which is not a core error", s.Name, s.Wraps)
	}
	return apierror.Wrap(s.Name, base), nil
}

// codeRange returns nil for a missing range so that catalog validation
// reports it.
func (r *Range) codeRange() (apierror.CodeRange, error) {
	switch {
	case r == nil:
		return nil, nil
	case r.AllowAll:
		return apierror.AllowAllCodes, nil
	case r.Min > r.Max:
		return nil, fmt.Errorf("range: min %d is greater than max %d", r.Min, r.Max)
	}
	return apierror.IntegerRange(r.Name, r.Min, r.Max), nil
}
