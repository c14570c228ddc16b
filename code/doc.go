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

// Package code provides parsing, validation and ordering for API error codes.
//
// An error code is the machine-readable identifier a client sees in the
// "code" field of the error contract. Codes are meant to be:
//
//   - short and stable;
//   - unique per error name within a catalog;
//   - usually integers, so that project-specific ranges can be reserved.
//
// IMPORTANT: Empty codes ("") are NOT allowed.
//
// The package also declares the codes of the core errors every catalog
// carries (see apierror.DefaultCoreErrors).
package code
