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

package contract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"

	"dirpx.dev/backstop/code"
)

// ErrorContract is the payload sent to clients:
//
//	{
//	  "error_id": "<uuid>",
//	  "errors": [{"code": "...", "message": "...", "metadata": {...}}]
//	}
//
// Field names are snake_case on the wire regardless of Go naming.
type ErrorContract struct {
	ErrorID string
	Errors  []ErrorDTO
}

// ErrorDTO is one entry of ErrorContract.Errors.
type ErrorDTO struct {
	Code     code.Code
	Message  string
	Metadata map[string]any
}

// FallbackTemplate is the last-resort payload used when an ErrorContract
// cannot be serialized. ErrorIDPlaceholder is replaced with the error ID.
const (
	ErrorIDPlaceholder = "{{ERROR_ID}}"
	FallbackTemplate   = `{"error_id":"` + ErrorIDPlaceholder + `","errors":[{"code":"10","message":"An error occurred while fulfilling the request"}]}`
)

// Fallback renders FallbackTemplate for errorID.
func Fallback(errorID string) []byte {
	return []byte(strings.ReplaceAll(FallbackTemplate, ErrorIDPlaceholder, errorID))
}

// Serializer renders ErrorContracts as JSON. The zero Serializer emits codes
// as strings and keeps empty metadata out of the output only when
// OmitEmptyMetadata is set; use DefaultSerializer for the usual settings.
//
// A Serializer is a plain value and safe for concurrent use.
type Serializer struct {
	// CodeAsNumber emits codes that are canonical integers as JSON numbers.
	CodeAsNumber bool
	// OmitEmptyMetadata drops the "metadata" member when an error has none.
	// When false, an empty object is emitted instead.
	OmitEmptyMetadata bool
	// Canonical emits RFC 8785 canonical JSON (sorted members, normalized
	// numbers), which keeps payloads byte-stable for signing and caching.
	Canonical bool
}

// DefaultSerializer returns the settings used when none are configured:
// string codes, empty metadata omitted, non-canonical output.
func DefaultSerializer() Serializer {
	return Serializer{OmitEmptyMetadata: true}
}

type wireContract struct {
	ErrorID string      `json:"error_id"`
	Errors  []wireError `json:"errors"`
}

type wireError struct {
	Code     json.RawMessage `json:"code"`
	Message  string          `json:"message"`
	Metadata *map[string]any `json:"metadata,omitempty"`
}

// Marshal renders c. It fails when metadata holds values encoding/json
// cannot encode.
func (s Serializer) Marshal(c ErrorContract) ([]byte, error) {
	w := wireContract{ErrorID: c.ErrorID, Errors: make([]wireError, len(c.Errors))}
	for i, e := range c.Errors {
		codeJSON, err := s.encodeCode(e.Code)
		if err != nil {
			return nil, err
		}
		we := wireError{Code: codeJSON, Message: e.Message}
		switch {
		case len(e.Metadata) > 0:
			md := e.Metadata
			we.Metadata = &md
		case !s.OmitEmptyMetadata:
			md := map[string]any{}
			we.Metadata = &md
		}
		w.Errors[i] = we
	}

	out, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("contract: marshal error contract %s: %w", c.ErrorID, err)
	}
	if s.Canonical {
		out, err = jsoncanonicalizer.Transform(out)
		if err != nil {
			return nil, fmt.Errorf("contract: canonicalize error contract %s: %w", c.ErrorID, err)
		}
	}
	return out, nil
}

// MarshalOrFallback renders c, substituting Fallback(c.ErrorID) when
// rendering fails. The returned error reports the rendering failure; the
// bytes are always usable.
func (s Serializer) MarshalOrFallback(c ErrorContract) ([]byte, error) {
	out, err := s.Marshal(c)
	if err != nil {
		return Fallback(c.ErrorID), err
	}
	return out, nil
}

func (s Serializer) encodeCode(c code.Code) (json.RawMessage, error) {
	if s.CodeAsNumber && c.IsInteger() {
		return json.RawMessage(c.String()), nil
	}
	return json.Marshal(c.String())
}
