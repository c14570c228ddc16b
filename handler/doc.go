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

// Package handler turns failures into error responses.
//
// A Handler runs an ordered listener chain over a failure. The first
// listener that claims it supplies the catalog errors; the catalog picks
// the highest-priority HTTP status among them and the errors are filtered
// down to that status. The handler then mints an error ID, logs the
// failure, renders the error contract through a PrepareFunc and returns a
// ResponseInfo.
//
// Failures no listener claims, and failures the Handler could not process
// (an *UnexpectedHandlingError), go to an Unhandled handler, which always
// answers with the catalog's generic service error and never fails.
// Respond wires the two together:
//
//	h, _ := handler.New(cat, listener.Defaults(cat), handler.JSON(contract.DefaultSerializer()))
//	u, _ := handler.NewUnhandled(cat, handler.JSON(contract.DefaultSerializer()), handler.JSONLastDitch)
//	resp := handler.Respond(h, u, err, req)
//
// Handlers are immutable after construction and safe for concurrent use.
package handler
