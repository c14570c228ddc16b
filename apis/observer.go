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

import "dirpx.dev/backstop/apierror"

// Observer receives handling outcomes, typically to update metrics.
// Implementations must be safe for concurrent use and must not block.
type Observer interface {
	// Handled is called once per failure a listener claimed, with the
	// resolved status and the errors sent to the client.
	Handled(status int, errs []apierror.Error)
	// Unhandled is called once per failure routed to the fallback handler.
	// lastDitch is true when even the fallback response could not be built.
	Unhandled(lastDitch bool)
	// ListenerFailed is called when a listener panicked.
	ListenerFailed(listener string)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) Handled(int, []apierror.Error) {}
func (NopObserver) Unhandled(bool)                {}
func (NopObserver) ListenerFailed(string)         {}
