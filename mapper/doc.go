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

// Package mapper turns a resolved error response into a gRPC status code.
//
// The HTTP status chosen by the handler stays the source of truth. A Mapper
// translates it to a gRPC code, optionally refined by rules on the names
// of the errors that made it into the response:
//
//  1. exact name override (WithNameOverride);
//  2. longest name-prefix match (WithNamePrefix), where names are split
//     into segments on '_' and '.' and "*" matches exactly one segment;
//  3. status table (defaults plus WithStatus);
//  4. class fallback for 4xx and 5xx statuses without a rule.
//
// A Mapper is built once and reused:
//
//	m, err := mapper.New(
//	    mapper.WithNamePrefix("OUTSIDE_DEPENDENCY", codes.Unavailable),
//	    mapper.WithStatus(http.StatusConflict, codes.AlreadyExists),
//	)
//
// All inputs are copied during New, so the result is safe to share across
// goroutines. Explain returns a human-readable trace of which tier matched
// and is meant for inspection, not for machine parsing.
package mapper
