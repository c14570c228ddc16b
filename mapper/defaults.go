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
	"net/http"

	"google.golang.org/grpc/codes"
)

// defaultGRPC maps HTTP statuses to gRPC codes following the HTTP mapping
// documented for google.rpc.Code. Statuses missing here fall through to the
// class fallbacks.
var defaultGRPC = map[int]codes.Code{
	// 4xx
	http.StatusBadRequest:                   codes.InvalidArgument,
	http.StatusUnauthorized:                 codes.Unauthenticated,
	http.StatusForbidden:                    codes.PermissionDenied,
	http.StatusNotFound:                     codes.NotFound,
	http.StatusMethodNotAllowed:             codes.Unimplemented,
	http.StatusNotAcceptable:                codes.InvalidArgument,
	http.StatusRequestTimeout:               codes.DeadlineExceeded,
	http.StatusConflict:                     codes.Aborted,
	http.StatusGone:                         codes.NotFound,
	http.StatusPreconditionFailed:           codes.FailedPrecondition,
	http.StatusRequestEntityTooLarge:        codes.InvalidArgument,
	http.StatusUnsupportedMediaType:         codes.InvalidArgument,
	http.StatusRequestedRangeNotSatisfiable: codes.OutOfRange,
	http.StatusUnprocessableEntity:          codes.InvalidArgument,
	http.StatusTooManyRequests:              codes.ResourceExhausted,
	499:                                     codes.Canceled, // client closed request

	// 5xx
	http.StatusInternalServerError: codes.Internal,
	http.StatusNotImplemented:      codes.Unimplemented,
	http.StatusBadGateway:          codes.Unavailable,
	http.StatusServiceUnavailable:  codes.Unavailable,
	http.StatusGatewayTimeout:      codes.DeadlineExceeded,
}

// DefaultGRPC returns a copy of the built-in status table.
func DefaultGRPC() map[int]codes.Code {
	return freezeStatusRules(defaultGRPC)
}
