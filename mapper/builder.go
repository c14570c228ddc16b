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

package mapper

import (
	"google.golang.org/grpc/codes"
)

type prefixRule struct {
	// prefix is the raw name prefix (may contain "*"); validated when the
	// trie is built.
	prefix string
	val    codes.Code
}

type builder struct {
	// statusRules holds HTTP status -> gRPC code rules, seeded with
	// defaultGRPC and adjusted by options.
	statusRules map[int]codes.Code

	// nameOverride holds exact per-name rules (highest precedence).
	nameOverride map[string]codes.Code

	// namePrefixes holds longest-prefix-match rules on error names.
	namePrefixes []prefixRule

	// class fallbacks used when a status has no rule.
	fallbackClient codes.Code
	fallbackServer codes.Code
	fallbackOther  codes.Code
}

func newBuilder() *builder {
	return &builder{
		statusRules:  make(map[int]codes.Code, len(defaultGRPC)),
		nameOverride: make(map[string]codes.Code),

		fallbackClient: codes.FailedPrecondition,
		fallbackServer: codes.Internal,
		fallbackOther:  codes.Unknown,
	}
}
