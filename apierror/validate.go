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
	"fmt"
	"slices"
	"sort"
	"strings"

	"dirpx.dev/backstop/code"
)

// ValidationError aggregates every problem found while building a catalog.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "backstop: error catalog has %d problem(s):", len(e.Problems))
	for _, p := range e.Problems {
		b.WriteString("\n  - ")
		b.WriteString(p)
	}
	return b.String()
}

// Unwrap makes errors.Is(err, ErrCatalogMisconfigured) hold.
func (e *ValidationError) Unwrap() error { return ErrCatalogMisconfigured }

// validate runs every construction-time check and returns the problems in a
// stable order.
func validate(c *Catalog) []string {
	var problems []string
	add := func(format string, args ...any) { problems = append(problems, fmt.Sprintf(format, args...)) }

	for _, h := range c.core.hooks() {
		if h.err.IsZero() {
			add("core hook %s is not set", h.field)
		}
	}
	if c.rng == nil {
		add("code range is not set (use AllowAllCodes to accept every code)")
	}

	all := append(slices.Clone(c.coreList), c.project...)

	for _, e := range all {
		if err := ValidateName(e.name); err != nil {
			add("error name %q is invalid", e.name)
		}
		if err := code.Validate(e.code); err != nil {
			add("error %s has invalid code %q", e.name, e.code)
		}
		if e.status < 100 || e.status > 599 {
			add("error %s has invalid HTTP status %d", e.name, e.status)
		}
	}

	// Same name, different content.
	byName := make(map[string][]Error)
	for _, e := range all {
		byName[e.name] = append(byName[e.name], e)
	}
	for _, name := range sortedKeys(byName) {
		group := byName[name]
		if len(dedupe(group)) > 1 {
			add("name %s is used by %d errors that are not identical", name, len(group))
		}
	}

	// Same code, different names. Project wrappers legitimately share their
	// core error's code.
	byCode := make(map[code.Code][]string)
	for i, e := range all {
		if i >= len(c.coreList) && IsWrapperAroundCoreError(e, c.coreList) {
			continue
		}
		if !slices.Contains(byCode[e.code], e.name) {
			byCode[e.code] = append(byCode[e.code], e.name)
		}
	}
	codes := make([]code.Code, 0, len(byCode))
	for k := range byCode {
		codes = append(codes, k)
	}
	slices.SortFunc(codes, code.Compare)
	for _, k := range codes {
		if names := byCode[k]; len(names) > 1 {
			sort.Strings(names)
			add("code %s is shared by %d names: %s", k, len(names), strings.Join(names, ", "))
		}
	}

	if c.rng != nil {
		for _, e := range c.project {
			if !IsWrapperAroundCoreError(e, c.coreList) && !c.rng.InRange(e) {
				add("project error %s (code %s) is neither a core wrapper nor in range %s", e.name, e.code, c.rng.Name())
			}
		}
	}

	seen := make(map[int]bool, len(c.priority))
	for _, s := range c.priority {
		if seen[s] {
			add("status %d appears more than once in the status priority order", s)
		}
		seen[s] = true
	}
	var missing []int
	for _, e := range all {
		if !seen[e.status] && !slices.Contains(missing, e.status) {
			missing = append(missing, e.status)
		}
	}
	slices.Sort(missing)
	for _, s := range missing {
		add("status %d is used by the catalog but missing from the status priority order", s)
	}

	return problems
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
