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

// Package grpcx adapts the error handler to gRPC servers.
//
// Handled failures become a status whose code comes from an apis.Mapper and
// whose details carry one google.rpc.ErrorInfo per client-facing error plus
// a google.rpc.RequestInfo holding the error ID:
//
//	h, _ := grpcx.NewDefault(cat, mapper.MustNew(), "billing.example.com")
//	srv := grpc.NewServer(h.ServerOptions(logger)...)
package grpcx

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/protoadapt"

	"dirpx.dev/backstop"
	"dirpx.dev/backstop/adapter"
	"dirpx.dev/backstop/apierror"
	"dirpx.dev/backstop/apis"
	"dirpx.dev/backstop/contract"
	"dirpx.dev/backstop/handler"
)

// lastDitchMessage matches the message of contract.FallbackTemplate.
const lastDitchMessage = "An error occurred while fulfilling the request"

// Handler turns failures into gRPC statuses.
type Handler struct {
	handler   *handler.Handler[*status.Status]
	unhandled *handler.Unhandled[*status.Status]
}

// New returns a Handler over an existing handler pair.
func New(h *handler.Handler[*status.Status], u *handler.Unhandled[*status.Status]) *Handler {
	return &Handler{handler: h, unhandled: u}
}

// NewDefault builds a Handler for cat with Listeners(cat), rendering
// statuses with Prepare(m, domain).
func NewDefault(cat *apierror.Catalog, m apis.Mapper, domain string, opts ...handler.Option) (*Handler, error) {
	prep := Prepare(m, domain)
	h, err := handler.New(cat, Listeners(cat), prep, opts...)
	if err != nil {
		return nil, err
	}
	u, err := handler.NewUnhandled(cat, prep, LastDitch, opts...)
	if err != nil {
		return nil, err
	}
	return New(h, u), nil
}

// Prepare returns a PrepareFunc rendering the errors as a status. The
// status message joins the error messages with "; ". When the details
// cannot be attached the bare status is returned with ErrDegraded.
func Prepare(m apis.Mapper, domain string) handler.PrepareFunc[*status.Status] {
	return func(c contract.ErrorContract, httpStatus int, errs []apierror.Error, _ error, _ apis.RequestInfo) (*status.Status, error) {
		msgs := make([]string, len(errs))
		details := make([]protoadapt.MessageV1, 0, len(errs)+1)
		for i, e := range errs {
			msgs[i] = e.Message()
			details = append(details, adapter.ToErrorInfo(e, domain))
		}
		details = append(details, adapter.ToRequestInfo(c.ErrorID))

		st := status.New(m.GRPCCode(httpStatus, errs), strings.Join(msgs, "; "))
		with, err := st.WithDetails(details...)
		if err != nil {
			return st, fmt.Errorf("%w: %v", handler.ErrDegraded, err)
		}
		return with, nil
	}
}

// LastDitch is the status used when nothing else worked: Internal, with
// the error ID as a RequestInfo detail when it can be attached.
func LastDitch(errorID string) *status.Status {
	st := status.New(codes.Internal, lastDitchMessage)
	if with, err := st.WithDetails(adapter.ToRequestInfo(errorID)); err == nil {
		return with
	}
	return st
}

// Error handles err for the call described by ctx and fullMethod and
// returns the status error to send. Response headers, including the error
// ID, are sent as header metadata when ctx belongs to a server call.
func (h *Handler) Error(ctx context.Context, fullMethod string, req any, err error) error {
	resp := handler.Respond(h.handler, h.unhandled, err, NewRequestInfo(ctx, fullMethod, req))
	if len(resp.Headers) > 0 {
		_ = grpc.SetHeader(ctx, headerMetadata(resp.Headers))
	}
	if resp.Representation == nil {
		return status.Error(codes.Internal, lastDitchMessage)
	}
	return resp.Representation.Err()
}

// UnaryServerInterceptor handles every error returned by a unary handler.
// Errors that already are gRPC statuses are returned unchanged.
func (h *Handler) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		resp, err := next(ctx, req)
		if err == nil || isStatus(err) {
			return resp, err
		}
		return nil, h.Error(ctx, info.FullMethod, req, err)
	}
}

// StreamServerInterceptor is UnaryServerInterceptor for streams. Stream
// failures carry no request message.
func (h *Handler) StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, next grpc.StreamHandler) error {
		err := next(srv, ss)
		if err == nil || isStatus(err) {
			return err
		}
		return h.Error(ss.Context(), info.FullMethod, nil, err)
	}
}

// RecoveryHandler answers a recovered panic with the handler, for use with
// recovery.WithRecoveryHandlerContext.
func (h *Handler) RecoveryHandler() recovery.RecoveryHandlerFuncContext {
	return func(ctx context.Context, p any) error {
		method, _ := grpc.Method(ctx)
		return h.Error(ctx, method, nil, backstop.NewPanicError(p))
	}
}

// ServerOptions chains call logging, panic recovery and the handler's
// interceptors, outermost first.
func (h *Handler) ServerOptions(logger *slog.Logger) []grpc.ServerOption {
	rec := recovery.WithRecoveryHandlerContext(h.RecoveryHandler())
	return []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			logging.UnaryServerInterceptor(InterceptorLogger(logger)),
			recovery.UnaryServerInterceptor(rec),
			h.UnaryServerInterceptor(),
		),
		grpc.ChainStreamInterceptor(
			logging.StreamServerInterceptor(InterceptorLogger(logger)),
			recovery.StreamServerInterceptor(rec),
			h.StreamServerInterceptor(),
		),
	}
}

// InterceptorLogger adapts l to the go-grpc-middleware logging interface.
// A nil l logs to slog.Default().
func InterceptorLogger(l *slog.Logger) logging.Logger {
	return logging.LoggerFunc(func(ctx context.Context, lvl logging.Level, msg string, fields ...any) {
		lg := l
		if lg == nil {
			lg = slog.Default()
		}
		lg.Log(ctx, slog.Level(lvl), msg, fields...)
	})
}

func isStatus(err error) bool {
	_, ok := err.(interface{ GRPCStatus() *status.Status })
	return ok
}

func headerMetadata(h map[string][]string) metadata.MD {
	md := make(metadata.MD, len(h))
	for k, vs := range h {
		md.Append(k, vs...)
	}
	return md
}
