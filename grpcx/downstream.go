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

package grpcx

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"dirpx.dev/backstop"
	"dirpx.dev/backstop/apierror"
	"dirpx.dev/backstop/listener"
)

// Log pair keys written by DownstreamStatusListener.
const (
	KeyDownstreamTarget  = "downstream_target"
	KeyDownstreamMethod  = "downstream_method"
	KeyDownstreamCode    = "downstream_grpc_code"
	KeyDownstreamMessage = "downstream_grpc_message"
)

// DownstreamStatusError is a failed call to another gRPC service.
//
// It does not implement GRPCStatus, so a server interceptor does not pass
// the downstream status through to its own caller.
type DownstreamStatusError struct {
	target string
	method string
	st     *status.Status
	err    error
}

// NewDownstreamStatusError records that calling method on target failed
// with err.
func NewDownstreamStatusError(target, method string, err error) *DownstreamStatusError {
	return &DownstreamStatusError{target: target, method: method, st: status.Convert(err), err: err}
}

func (e *DownstreamStatusError) Error() string {
	return fmt.Sprintf("grpcx: downstream %s %s: %s: %s", e.target, e.method, e.st.Code(), e.st.Message())
}

func (e *DownstreamStatusError) Unwrap() error { return e.err }

// Target returns the downstream's name or address.
func (e *DownstreamStatusError) Target() string { return e.target }

// Method returns the full method that was called.
func (e *DownstreamStatusError) Method() string { return e.method }

// Code returns the downstream status code.
func (e *DownstreamStatusError) Code() codes.Code { return e.st.Code() }

// UnaryClientInterceptor wraps every failed call on a client connection in
// a DownstreamStatusError for target.
func UnaryClientInterceptor(target string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		err := invoker(ctx, method, req, reply, cc, opts...)
		if err == nil {
			return nil
		}
		return NewDownstreamStatusError(target, method, err)
	}
}

// DownstreamStatusListener claims DownstreamStatusErrors.
//
// DeadlineExceeded is a temporary service problem, like a network timeout.
// Unavailable and ResourceExhausted are temporary outside dependency
// errors, like a downstream 503 or 429. Any other code is an unrecoverable
// outside dependency error.
type DownstreamStatusListener struct {
	catalog *apierror.Catalog
}

// NewDownstreamStatusListener returns the listener for cat.
func NewDownstreamStatusListener(cat *apierror.Catalog) *DownstreamStatusListener {
	return &DownstreamStatusListener{catalog: cat}
}

func (*DownstreamStatusListener) Name() string { return "downstream_grpc_status" }

func (l *DownstreamStatusListener) ShouldHandle(err error) listener.Result {
	var ds *DownstreamStatusError
	if !errors.As(err, &ds) || ds.Code() == codes.OK {
		return listener.Ignore()
	}
	pairs := []backstop.Pair{
		backstop.P(KeyDownstreamTarget, ds.Target()),
		backstop.P(KeyDownstreamMethod, ds.Method()),
		backstop.P(KeyDownstreamCode, ds.Code().String()),
		backstop.P(KeyDownstreamMessage, ds.st.Message()),
	}
	var e apierror.Error
	switch ds.Code() {
	case codes.DeadlineExceeded:
		e = l.catalog.TemporaryServiceProblem()
	case codes.Unavailable, codes.ResourceExhausted:
		e = l.catalog.OutsideDependencyTemporaryError()
	default:
		e = l.catalog.OutsideDependencyUnrecoverableError()
	}
	return listener.Handle([]apierror.Error{e}, pairs...)
}

// Listeners returns listener.Defaults(cat, opts...) followed by the
// downstream gRPC status listener.
func Listeners(cat *apierror.Catalog, opts ...listener.Option) []listener.Listener {
	return append(listener.Defaults(cat, opts...), NewDownstreamStatusListener(cat))
}
