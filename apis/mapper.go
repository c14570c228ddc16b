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

package apis

import (
	"google.golang.org/grpc/codes"

	"dirpx.dev/backstop/apierror"
)

// Mapper is an immutable, concurrency-safe view of the rules that turn a
// resolved error response into a gRPC status code.
type Mapper interface {
	// GRPCCode returns the gRPC code for a response with the given HTTP
	// status carrying errs. Rules on error names are consulted first, in
	// the order of errs; the status rules apply when none matches.
	GRPCCode(status int, errs []apierror.Error) codes.Code

	// Explain returns a human-readable description of which rule matched
	// for a single error name and status.
	Explain(status int, name string) string
}
