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

// Package backstop translates failures raised while serving a request into
// a stable client contract: one HTTP status and a list of catalog errors.
//
// This package holds the failure taxonomy services return:
//
//   - APIException: the service knows which catalog errors apply;
//   - ClientDataValidationError and ServersideValidationError: constraint
//     violations, named after catalog errors;
//   - NetworkError and its timeout, unreachable and HTTP-status variants:
//     failed calls to downstream systems.
//
// The catalog lives in package apierror, classification in package
// listener, and the orchestration in package handler. Packages httpx and
// grpcx adapt the handler to net/http and gRPC servers.
package backstop
