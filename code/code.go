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

package code

import (
	"bytes"
	"encoding"
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// Code is the canonical representation of an API error code.
//
// Codes are strings on the wire contract, but in practice most projects use
// integer codes ("10", "99001"). The helpers in this package treat integer
// codes specially when ordering and rendering, while still accepting
// arbitrary identifiers such as "E-AUTH-1".
//
// IMPORTANT: Empty codes ("") are NOT allowed. Every catalog error MUST have a
// non-empty code.
type Code string

// MaxLength is the maximum length for a valid code.
const MaxLength = 64

const (
	// codeFmt is the canonical regular expression used to validate codes.
	//
	// Pattern breakdown:
	//
	//	^ - start of string;
	//	[A-Za-z0-9] - first character must be an ASCII letter or digit;
	//	[A-Za-z0-9_.:-]{0,63} - the rest may add '_', '.', ':' and '-';
	//	$ - end of string;
	//
	// IMPORTANT: the quantifier {0,63} is tied to MaxLength above.
	codeFmt = `^[A-Za-z0-9][A-Za-z0-9_.:\-]{0,63}$`
)

var codeRe = regexp.MustCompile(codeFmt)

var (
	// ErrCodeInvalid is returned when a value cannot be parsed or validated
	// as an error code.
	ErrCodeInvalid = errors.New("backstop: invalid error code")
)

var (
	_ encoding.TextMarshaler   = (*Code)(nil)
	_ encoding.TextUnmarshaler = (*Code)(nil)
)

// Empty is the zero-value code.
var Empty Code = ""

// Parse normalizes and validates s.
func Parse(s string) (Code, error) {
	s = Normalize(s)
	if err := validate(s); err != nil {
		return Empty, err
	}
	return Code(s), nil
}

// MustParse is the panic-on-error variant of Parse. It is useful for
// declaring package-level catalogs in var blocks.
func MustParse(s string) Code {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Normalize trims surrounding spaces. Case is preserved: unlike names,
// codes are opaque to the engine and may be mixed-case by project choice.
func Normalize(s string) string {
	return strings.TrimSpace(s)
}

// Validate checks whether the provided Code is valid.
// The empty code ("") is considered invalid.
func Validate(c Code) error {
	return validate(string(c))
}

// String returns the canonical string representation of the code.
func (c Code) String() string {
	return string(c)
}

// Int reports the integer value of c when c is a canonical base-10 integer
// ("42", "-7"). Values with leading zeros or a '+' sign are not canonical,
// because rendering them as JSON numbers would change their text.
func (c Code) Int() (int64, bool) {
	s := string(c)
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	if strconv.FormatInt(n, 10) != s {
		return 0, false
	}
	return n, true
}

// IsInteger reports whether c is a canonical base-10 integer.
func (c Code) IsInteger() bool {
	_, ok := c.Int()
	return ok
}

// Compare orders codes deterministically:
//
//   - two integer codes compare numerically ("9" < "10");
//   - integer codes sort before non-integer codes;
//   - everything else compares lexically.
//
// It returns -1, 0 or +1.
func Compare(a, b Code) int {
	ai, aok := a.Int()
	bi, bok := b.Int()
	switch {
	case aok && bok:
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		}
		return 0
	case aok:
		return -1
	case bok:
		return 1
	}
	return strings.Compare(string(a), string(b))
}

// MarshalText implements encoding.TextMarshaler.
func (c Code) MarshalText() ([]byte, error) {
	if err := Validate(c); err != nil {
		return nil, err
	}
	return []byte(c), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
//
// It normalizes and validates the provided text before assigning.
func (c *Code) UnmarshalText(text []byte) error {
	s := string(bytes.TrimSpace(text))
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func validate(s string) error {
	if !codeRe.MatchString(s) {
		return ErrCodeInvalid
	}
	return nil
}
