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

// Package apis defines the small, cross-package contracts of backstop.
//
// Listeners classify failures by what those failures expose, not by their
// concrete type: an error that carries catalog errors implements
// APIErrorCarrier, an error describing a failed downstream call implements
// NetworkFailure, and so on. Framework adapters implement RequestInfo over
// their native request type so that handlers can log request context
// without importing net/http or gRPC.
//
// This package must remain lightweight: it only holds interfaces and very
// small value types.
package apis
