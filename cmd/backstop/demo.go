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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"dirpx.dev/backstop"
	"dirpx.dev/backstop/apierror"
	"dirpx.dev/backstop/grpcx"
	"dirpx.dev/backstop/httpx"
	"dirpx.dev/backstop/jsonschemav"
)

// Failure kinds served under /demo/{kind} and by the gRPC Demo service.
var demoKinds = []string{
	"not_found",
	"rate_limited",
	"invalid_order",
	"downstream_timeout",
	"downstream_status",
	"downstream_grpc",
	"panic",
	"unclassified",
}

var (
	errInvalidQuantity = apierror.New("INVALID_QUANTITY", "99001", "Quantity must be at least 1", http.StatusBadRequest)
	errMissingItem     = apierror.New("MISSING_ITEM", "99002", "An item is required", http.StatusBadRequest)
)

func demoConfig() apierror.Config {
	return apierror.Config{
		Project: []apierror.Error{errInvalidQuantity, errMissingItem},
		Range:   apierror.IntegerRange("demo", 99000, 99999),
	}
}

const orderSchema = `{
  "type": "object",
  "required": ["item"],
  "properties": {
    "item": {"type": "string", "minLength": 1},
    "qty":  {"type": "integer", "minimum": 1}
  }
}`

type order struct {
	Item string `json:"item"`
	Qty  int    `json:"qty"`
}

type demo struct {
	cat    *apierror.Catalog
	orders *jsonschemav.Validator
}

func newDemo(cat *apierror.Catalog) (*demo, error) {
	v, err := jsonschemav.New(orderSchema,
		jsonschemav.WithRule("required", errMissingItem.Name()),
		jsonschemav.WithFieldRule("qty", "number_gte", errInvalidQuantity.Name()),
		jsonschemav.WithGroups("create"),
	)
	if err != nil {
		return nil, err
	}
	return &demo{cat: cat, orders: v}, nil
}

func (d *demo) fail(kind string) error {
	switch kind {
	case "not_found":
		return backstop.MustAPIException(d.cat.NotFound())
	case "rate_limited":
		exc, err := backstop.NewBuilder().
			WithAPIErrors(d.cat.TooManyRequests()).
			WithExtraResponseHeader("Retry-After", "30").
			WithExtraDetailsForLogging(backstop.P("client", "demo")).
			Build()
		if err != nil {
			return err
		}
		return exc
	case "invalid_order":
		return d.orders.ValidateValue(order{Item: "widget", Qty: 0})
	case "downstream_timeout":
		return backstop.NewServerTimeoutError("inventory", context.DeadlineExceeded)
	case "downstream_status":
		return backstop.NewServerHTTPStatusError("payments", http.StatusServiceUnavailable,
			`{"error":"maintenance"}`, map[string][]string{"Retry-After": {"120"}}, nil)
	case "downstream_grpc":
		return grpcx.NewDownstreamStatusError("ledger", "/ledger.v1.Ledger/Post",
			status.Error(codes.FailedPrecondition, "ledger closed"))
	case "panic":
		panic("demo: panic requested")
	default:
		return fmt.Errorf("demo: unclassified failure %q", kind)
	}
}

func (d *demo) createOrder(w http.ResponseWriter, r *http.Request) error {
	if err := httpx.RequireAccept(r); err != nil {
		return err
	}
	var o order
	if err := httpx.DecodeJSON(w, r, &o, 4<<10); err != nil {
		return err
	}
	if err := d.orders.ValidateValue(o); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	return json.NewEncoder(w).Encode(o)
}

func newHTTPHandler(h *httpx.Handler, d *demo, metrics http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /demo/{kind}", h.Wrap(func(_ http.ResponseWriter, r *http.Request) error {
		return d.fail(r.PathValue("kind"))
	}))
	mux.Handle("POST /orders", h.Wrap(d.createOrder))
	mux.Handle("GET /metrics", metrics)
	mux.Handle("/", h.NotFound())
	return h.Middleware(mux)
}

const demoFailMethod = "/backstop.demo.v1.Demo/Fail"

func demoFailHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	call := func(_ context.Context, req any) (any, error) {
		if err := srv.(*demo).fail(req.(*wrapperspb.StringValue).GetValue()); err != nil {
			return nil, err
		}
		return &emptypb.Empty{}, nil
	}
	if interceptor == nil {
		return call(ctx, in)
	}
	return interceptor(ctx, in, &grpc.UnaryServerInfo{Server: srv, FullMethod: demoFailMethod}, call)
}

// demoServiceDesc describes backstop.demo.v1.Demo, whose Fail method takes
// a google.protobuf.StringValue naming the failure kind.
var demoServiceDesc = grpc.ServiceDesc{
	ServiceName: "backstop.demo.v1.Demo",
	HandlerType: (*any)(nil),
	Methods:     []grpc.MethodDesc{{MethodName: "Fail", Handler: demoFailHandler}},
	Metadata:    "backstop/demo/v1/demo.proto",
}
