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

// Package apierror defines the error catalog: the named, coded,
// HTTP-status-mapped errors a service may return to its clients.
//
// # Entries
//
// An Error is an immutable value built with New:
//
//	var InvalidRequest = apierror.New("INVALID_REQUEST", "99001", "Invalid request", http.StatusBadRequest)
//
// Wrap derives a wrapper: a new name sharing code, message and status with
// an existing entry, so that logs can tell two situations apart while the
// client sees one contract.
//
// # Catalog
//
// A Catalog combines the core errors (CoreErrors, one entry per hook the
// framework relies on) with project errors and a status priority order:
//
//	cat, err := apierror.NewCatalog(apierror.Config{
//	    Project: []apierror.Error{InvalidRequest},
//	    Range:   apierror.IntegerRange("billing", 99000, 99999),
//	})
//
// NewCatalog validates everything up front and reports every problem at
// once. A built Catalog never changes and is safe for concurrent use.
//
// # Priority
//
// A single failure may carry errors of several HTTP statuses. The catalog
// picks the first status of its priority order used by any of them
// (HighestPriorityStatus); FilterByStatus then keeps only the errors of that
// status. SortedSet gives those errors a deterministic order.
package apierror
