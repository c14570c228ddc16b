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
	"fmt"
	"slices"

	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"dirpx.dev/backstop/apis"
)

// Request attributes exposed through RequestInfo.Attribute.
const (
	AttributePeer    = "grpc.peer"
	AttributeRequest = "grpc.request"
)

type requestInfo struct {
	ctx    context.Context
	method string
	md     metadata.MD
	req    any
}

// NewRequestInfo exposes an incoming call as an apis.RequestInfo. The full
// method name doubles as URI and method; headers are the incoming metadata.
// Body renders proto requests as JSON and is empty for anything else.
func NewRequestInfo(ctx context.Context, fullMethod string, req any) apis.RequestInfo {
	md, _ := metadata.FromIncomingContext(ctx)
	return &requestInfo{ctx: ctx, method: fullMethod, md: md, req: req}
}

func (r *requestInfo) Context() context.Context { return r.ctx }
func (r *requestInfo) URI() string              { return r.method }
func (r *requestInfo) Method() string           { return r.method }
func (r *requestInfo) QueryString() string      { return "" }

func (r *requestInfo) Headers() map[string][]string { return r.md }

func (r *requestInfo) Header(name string) string {
	if vs := r.md.Get(name); len(vs) > 0 {
		return vs[0]
	}
	return ""
}

func (r *requestInfo) HeaderValues(name string) []string { return slices.Clone(r.md.Get(name)) }

func (r *requestInfo) Attribute(name string) any {
	switch name {
	case AttributePeer:
		if p, ok := peer.FromContext(r.ctx); ok && p.Addr != nil {
			return p.Addr.String()
		}
	case AttributeRequest:
		return r.req
	}
	return nil
}

func (r *requestInfo) Body() (string, error) {
	msg, ok := r.req.(proto.Message)
	if !ok || msg == nil {
		return "", nil
	}
	b, err := protojson.MarshalOptions{UseProtoNames: true}.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apis.ErrBodyUnreadable, err)
	}
	return string(b), nil
}
