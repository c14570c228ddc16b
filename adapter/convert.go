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

package adapter

import (
	"encoding/json"
	"fmt"

	"google.golang.org/genproto/googleapis/rpc/errdetails"

	"dirpx.dev/backstop/apierror"
	"dirpx.dev/backstop/contract"
)

// MetadataCodeKey is the ErrorInfo metadata key carrying the error code.
const MetadataCodeKey = "code"

// ToDTO converts a catalog error into its wire form. The metadata map is a
// private copy.
func ToDTO(e apierror.Error) contract.ErrorDTO {
	return contract.ErrorDTO{
		Code:     e.Code(),
		Message:  e.Message(),
		Metadata: e.Metadata(),
	}
}

// ToContract builds the client payload for errs, keeping their order.
func ToContract(errorID string, errs []apierror.Error) contract.ErrorContract {
	dtos := make([]contract.ErrorDTO, len(errs))
	for i, e := range errs {
		dtos[i] = ToDTO(e)
	}
	return contract.ErrorContract{ErrorID: errorID, Errors: dtos}
}

// ToErrorInfo converts a catalog error into a google.rpc.ErrorInfo detail.
//
// Reason is the error name and Domain the given service domain. Metadata
// holds the code under MetadataCodeKey plus every metadata entry; string
// values are copied as-is and other values are JSON-encoded, since
// ErrorInfo metadata is string-valued.
func ToErrorInfo(e apierror.Error, domain string) *errdetails.ErrorInfo {
	md := make(map[string]string, len(e.Metadata())+1)
	for k, v := range e.Metadata() {
		md[k] = stringify(v)
	}
	md[MetadataCodeKey] = e.Code().String()
	return &errdetails.ErrorInfo{
		Reason:   e.Name(),
		Domain:   domain,
		Metadata: md,
	}
}

// ToRequestInfo converts an error ID into a google.rpc.RequestInfo detail
// so that gRPC clients can quote it to operators.
func ToRequestInfo(errorID string) *errdetails.RequestInfo {
	return &errdetails.RequestInfo{RequestId: errorID}
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
