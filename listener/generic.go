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

package listener

import (
	"dirpx.dev/backstop"
	"dirpx.dev/backstop/apis"
)

// Generic claims a failure whose chain contains an apis.APIErrorCarrier,
// such as *backstop.APIException, unless a network or validation failure
// wraps it. Logging pairs and response headers are taken from the carrier.
type Generic struct{}

// NewGeneric returns the generic listener.
func NewGeneric() Generic { return Generic{} }

func (Generic) Name() string { return "generic" }

func (Generic) ShouldHandle(err error) Result {
	carrier, ok := outermost(err).(apis.APIErrorCarrier)
	if !ok {
		return Ignore()
	}
	errs := carrier.APIErrors()
	if len(errs) == 0 {
		return Ignore()
	}

	var pairs []backstop.Pair
	if d, ok := carrier.(apis.LoggingDetailer); ok {
		pairs = d.ExtraDetailsForLogging()
	}
	var headers map[string][]string
	if h, ok := carrier.(apis.HeaderCarrier); ok {
		headers = h.ExtraResponseHeaders()
	}
	return HandleWithHeaders(errs, headers, pairs...)
}
