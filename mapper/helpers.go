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
	"fmt"
	"strings"

	"google.golang.org/grpc/codes"
)

// freezeStatusRules makes an immutable copy of the status rules so later
// changes to the builder cannot affect the mapper.
func freezeStatusRules(src map[int]codes.Code) map[int]codes.Code {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[int]codes.Code, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// freezeNameOverrides makes an immutable copy of the exact name rules.
func freezeNameOverrides(src map[string]codes.Code) map[string]codes.Code {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]codes.Code, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// codeLabel renders a gRPC code as NAME(n), e.g. INVALID_ARGUMENT(3).
func codeLabel(c codes.Code) string {
	return fmt.Sprintf("%s(%d)", toScreamingSnake(c.String()), int(c))
}

// toScreamingSnake turns "InvalidArgument" into "INVALID_ARGUMENT".
func toScreamingSnake(s string) string {
	var b strings.Builder
	var prev rune
	for _, r := range s {
		if r >= 'A' && r <= 'Z' && prev >= 'a' && prev <= 'z' {
			b.WriteByte('_')
		}
		b.WriteRune(r)
		prev = r
	}
	return strings.ToUpper(b.String())
}
