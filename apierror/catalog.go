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
	"slices"
)

var (
	// ErrCatalogMisconfigured is the root of every catalog configuration
	// failure, whether detected at construction or while resolving a status.
	ErrCatalogMisconfigured = errors.New("backstop: error catalog misconfigured")

	// ErrNoErrors is returned by HighestPriorityStatus for an empty input.
	ErrNoErrors = errors.New("backstop: no errors to prioritize")
)

// StatusNotPrioritizedError reports that none of the statuses used by a set
// of errors appear in the catalog's priority order. It only happens when a
// caller hands the catalog errors it was never configured with.
type StatusNotPrioritizedError struct {
	Statuses []int
	Priority []int
}

func (e *StatusNotPrioritizedError) Error() string {
	return fmt.Sprintf("backstop: none of the statuses %v appear in the status priority order %v", e.Statuses, e.Priority)
}

// Unwrap makes errors.Is(err, ErrCatalogMisconfigured) hold.
func (e *StatusNotPrioritizedError) Unwrap() error { return ErrCatalogMisconfigured }

// Config describes a catalog. The zero value of each field has a default:
// Core falls back to DefaultCoreErrors and StatusPriority to
// DefaultStatusPriority. Range must be set; use AllowAllCodes to opt out of
// range checking.
type Config struct {
	Core           CoreErrors
	Project        []Error
	Range          CodeRange
	StatusPriority []int
}

// Validate checks the configuration without building a catalog.
func (c Config) Validate() error {
	_, err := NewCatalog(c)
	return err
}

// Catalog is the project-wide, immutable error catalog: the core errors the
// framework depends on plus project-specific errors, together with the
// status priority order used to pick one status when a failure carries
// errors of several statuses.
//
// A Catalog is safe for concurrent use.
type Catalog struct {
	core     CoreErrors
	coreList []Error
	project  []Error
	all      []Error
	byName   map[string]Error
	rng      CodeRange
	priority []int
	rank     map[int]int
}

// NewCatalog validates cfg and freezes it into a Catalog. On failure the
// returned error is a *ValidationError listing every problem found; it
// matches ErrCatalogMisconfigured under errors.Is.
func NewCatalog(cfg Config) (*Catalog, error) {
	core := cfg.Core
	if core.isZero() {
		core = DefaultCoreErrors()
	}
	priority := cfg.StatusPriority
	if len(priority) == 0 {
		priority = defaultStatusPriority
	}

	c := &Catalog{
		core:     core,
		coreList: core.List(),
		project:  slices.Clone(cfg.Project),
		rng:      cfg.Range,
		priority: slices.Clone(priority),
	}

	if problems := validate(c); len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	c.all = dedupe(append(slices.Clone(c.coreList), c.project...))
	c.byName = make(map[string]Error, len(c.all))
	for _, e := range c.all {
		c.byName[e.name] = e
	}
	c.rank = make(map[int]int, len(c.priority))
	for i, s := range c.priority {
		c.rank[s] = i
	}
	return c, nil
}

// MustNewCatalog is like NewCatalog but panics on error. Intended for
// package-level catalog variables.
func MustNewCatalog(cfg Config) *Catalog {
	c, err := NewCatalog(cfg)
	if err != nil {
		panic(err)
	}
	return c
}

// All returns core and project errors, in that order, without duplicates.
func (c *Catalog) All() []Error { return slices.Clone(c.all) }

// CoreErrors returns the core hooks the catalog was built with.
func (c *Catalog) CoreErrors() CoreErrors {
	out := c.core
	out.Extra = slices.Clone(c.core.Extra)
	return out
}

// ProjectErrors returns the project-specific errors.
func (c *Catalog) ProjectErrors() []Error { return slices.Clone(c.project) }

// CodeRange returns the range project errors were validated against.
func (c *Catalog) CodeRange() CodeRange { return c.rng }

// StatusPriority returns a copy of the status priority order, most
// important first.
func (c *Catalog) StatusPriority() []int { return slices.Clone(c.priority) }

// ByName looks up an error by name.
func (c *Catalog) ByName(name string) (Error, bool) {
	e, ok := c.byName[name]
	return e, ok
}

// ConvertName returns the error called name, or fallback when the catalog
// has no such error.
func (c *Catalog) ConvertName(name string, fallback Error) Error {
	if e, ok := c.byName[name]; ok {
		return e
	}
	return fallback
}

// HighestPriorityStatus walks the status priority order and returns the
// first status used by any of errs.
//
// It fails with ErrNoErrors when errs is empty, and with a
// *StatusNotPrioritizedError when none of the statuses in errs is ranked.
// The latter is a configuration bug and must not be swallowed.
func (c *Catalog) HighestPriorityStatus(errs []Error) (int, error) {
	if len(errs) == 0 {
		return 0, ErrNoErrors
	}
	best, bestRank := 0, len(c.priority)
	for _, e := range errs {
		if r, ok := c.rank[e.status]; ok && r < bestRank {
			best, bestRank = e.status, r
		}
	}
	if bestRank == len(c.priority) {
		return 0, &StatusNotPrioritizedError{Statuses: distinctStatuses(errs), Priority: c.StatusPriority()}
	}
	return best, nil
}

// FilterByStatus returns the errors of errs whose HTTP status is status,
// preserving order.
func (c *Catalog) FilterByStatus(errs []Error, status int) []Error {
	var out []Error
	for _, e := range errs {
		if e.status == status {
			out = append(out, e)
		}
	}
	return out
}

// Hook accessors.

func (c *Catalog) GenericServiceError() Error { return c.core.GenericServiceError }
func (c *Catalog) OutsideDependencyUnrecoverableError() Error {
	return c.core.OutsideDependencyUnrecoverableError
}
func (c *Catalog) ServersideValidationError() Error { return c.core.ServersideValidationError }
func (c *Catalog) TemporaryServiceProblem() Error   { return c.core.TemporaryServiceProblem }
func (c *Catalog) OutsideDependencyTemporaryError() Error {
	return c.core.OutsideDependencyTemporaryError
}
func (c *Catalog) GenericBadRequest() Error          { return c.core.GenericBadRequest }
func (c *Catalog) MissingExpectedContent() Error     { return c.core.MissingExpectedContent }
func (c *Catalog) TypeConversionError() Error        { return c.core.TypeConversionError }
func (c *Catalog) MalformedRequest() Error           { return c.core.MalformedRequest }
func (c *Catalog) Unauthorized() Error               { return c.core.Unauthorized }
func (c *Catalog) Forbidden() Error                  { return c.core.Forbidden }
func (c *Catalog) NotFound() Error                   { return c.core.NotFound }
func (c *Catalog) MethodNotAllowed() Error           { return c.core.MethodNotAllowed }
func (c *Catalog) NoAcceptableRepresentation() Error { return c.core.NoAcceptableRepresentation }
func (c *Catalog) UnsupportedMediaType() Error       { return c.core.UnsupportedMediaType }
func (c *Catalog) TooManyRequests() Error            { return c.core.TooManyRequests }

func dedupe(errs []Error) []Error {
	out := make([]Error, 0, len(errs))
	for _, e := range errs {
		if !containsEqual(out, e) {
			out = append(out, e)
		}
	}
	return out
}

func distinctStatuses(errs []Error) []int {
	var out []int
	for _, e := range errs {
		if !slices.Contains(out, e.status) {
			out = append(out, e.status)
		}
	}
	slices.Sort(out)
	return out
}
