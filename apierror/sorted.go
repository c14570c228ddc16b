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
	"iter"
	"sort"
	"strings"
)

// SortedSet is an ordered, deduplicated, immutable collection of Errors.
//
// It is the currency passed between listeners and the handler. Entries are
// deduplicated by full-value equality (Equal), never by code alone: two
// different entries sharing a code are a catalog bug, and collapsing them
// here would hide it. Iteration follows Compare, so the same logical input
// always yields identically ordered output.
//
// The zero SortedSet is empty and ready to use.
type SortedSet struct {
	errs []Error
}

// NewSortedSet builds a set from errs. The input slice is copied and never
// retained.
func NewSortedSet(errs ...Error) SortedSet {
	if len(errs) == 0 {
		return SortedSet{}
	}
	out := make([]Error, 0, len(errs))
	for _, e := range errs {
		if !containsEqual(out, e) {
			out = append(out, e)
		}
	}
	// Stable so that entries whose canonical forms collide keep input order.
	sort.SliceStable(out, func(i, j int) bool { return Compare(out[i], out[j]) < 0 })
	return SortedSet{errs: out}
}

// Singleton returns a set holding exactly e.
func Singleton(e Error) SortedSet {
	return SortedSet{errs: []Error{e}}
}

// Len returns the number of entries.
func (s SortedSet) Len() int { return len(s.errs) }

// IsEmpty reports whether the set has no entries.
func (s SortedSet) IsEmpty() bool { return len(s.errs) == 0 }

// All returns the entries in order. The returned slice is a copy.
func (s SortedSet) All() []Error {
	if len(s.errs) == 0 {
		return nil
	}
	out := make([]Error, len(s.errs))
	copy(out, s.errs)
	return out
}

// Each yields the entries in order.
func (s SortedSet) Each() iter.Seq[Error] {
	return func(yield func(Error) bool) {
		for _, e := range s.errs {
			if !yield(e) {
				return
			}
		}
	}
}

// At returns the i-th entry in order.
func (s SortedSet) At(i int) Error { return s.errs[i] }

// Contains reports whether an Equal entry is present.
func (s SortedSet) Contains(e Error) bool { return containsEqual(s.errs, e) }

// Union returns a new set with the entries of s and o.
func (s SortedSet) Union(o SortedSet) SortedSet {
	all := make([]Error, 0, len(s.errs)+len(o.errs))
	all = append(all, s.errs...)
	all = append(all, o.errs...)
	return NewSortedSet(all...)
}

// Names returns the entry names in order.
func (s SortedSet) Names() []string {
	out := make([]string, len(s.errs))
	for i, e := range s.errs {
		out[i] = e.name
	}
	return out
}

// String renders the set for logs, e.g. `[NOT_FOUND, GENERIC_SERVICE_ERROR]`.
func (s SortedSet) String() string {
	return "[" + strings.Join(s.Names(), ", ") + "]"
}

func containsEqual(errs []Error, e Error) bool {
	for _, x := range errs {
		if x.Equal(e) {
			return true
		}
	}
	return false
}
