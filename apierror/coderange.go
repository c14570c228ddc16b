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

import "fmt"

// CodeRange is the policy that decides which codes a project may use for
// its own (non-wrapper) errors.
type CodeRange interface {
	// Name identifies the range in validation messages.
	Name() string
	// InRange reports whether e's code belongs to the range.
	InRange(e Error) bool
}

// AllowAllCodes is the reserved range that accepts every code.
var AllowAllCodes CodeRange = allowAll{}

type allowAll struct{}

func (allowAll) Name() string       { return "ALLOW_ALL_ERROR_CODES" }
func (allowAll) InRange(Error) bool { return true }

// IntegerRange returns a range accepting integer codes in [lo, hi].
// Non-integer codes are never in an IntegerRange.
func IntegerRange(name string, lo, hi int64) CodeRange {
	if lo > hi {
		lo, hi = hi, lo
	}
	return integerRange{name: name, lo: lo, hi: hi}
}

type integerRange struct {
	name   string
	lo, hi int64
}

func (r integerRange) Name() string {
	if r.name != "" {
		return r.name
	}
	return fmt.Sprintf("[%d..%d]", r.lo, r.hi)
}

func (r integerRange) InRange(e Error) bool {
	n, ok := e.code.Int()
	return ok && n >= r.lo && n <= r.hi
}
