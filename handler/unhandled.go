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

package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"dirpx.dev/backstop/adapter"
	"dirpx.dev/backstop/apierror"
	"dirpx.dev/backstop/apis"
)

// ErrNoLastDitchFunc is returned by NewUnhandled without a LastDitchFunc.
var ErrNoLastDitchFunc = errors.New("handler: last-ditch func is required")

// Unhandled answers every failure with the catalog's generic service error.
// It is the end of the line: Handle never fails and never panics.
type Unhandled[T any] struct {
	catalog   *apierror.Catalog
	prepare   PrepareFunc[T]
	lastDitch LastDitchFunc[T]
	opts      options
}

// NewUnhandled returns the fallback handler.
func NewUnhandled[T any](cat *apierror.Catalog, prepare PrepareFunc[T], lastDitch LastDitchFunc[T], opts ...Option) (*Unhandled[T], error) {
	switch {
	case cat == nil:
		return nil, ErrNoCatalog
	case prepare == nil:
		return nil, ErrNoPrepareFunc
	case lastDitch == nil:
		return nil, ErrNoLastDitchFunc
	}
	return &Unhandled[T]{
		catalog:   cat,
		prepare:   prepare,
		lastDitch: lastDitch,
		opts:      buildOptions(opts),
	}, nil
}

// Handle builds the generic service error response for err. When that
// fails the response collapses to the last-ditch representation under a
// fresh error ID.
func (u *Unhandled[T]) Handle(err error, req apis.RequestInfo) (resp ResponseInfo[T]) {
	if req == nil {
		req = apis.NoRequest
	}
	defer func() {
		if r := recover(); r != nil {
			resp = u.lastDitchResponse(req.Context(), err, fmt.Errorf("panic: %v", r))
		}
	}()

	generic := u.catalog.GenericServiceError()
	status := generic.HTTPStatus()
	errs := []apierror.Error{generic}
	id := u.opts.newID()

	attrs := []slog.Attr{
		slog.String(HeaderErrorUID, id),
		slog.Bool(KeyUnhandled, true),
		slog.String(KeyErrorType, typeName(err)),
		slog.Int(KeyStatus, status),
		slog.String(KeyResponseErrors, generic.Name()),
		slog.String(KeyError, errString(err)),
	}
	attrs = append(attrs, requestAttrs(req, u.opts.sensitive)...)
	var ld apis.LoggingDetailer
	if errors.As(err, &ld) {
		attrs = append(attrs, pairAttrs(ld.ExtraDetailsForLogging())...)
	}
	u.opts.logger.LogAttrs(req.Context(), slog.LevelError, "unhandled error", attrs...)

	rep, perr := u.prepare(adapter.ToContract(id, errs), status, errs, err, req)
	if perr != nil {
		if !errors.Is(perr, ErrDegraded) {
			return u.lastDitchResponse(req.Context(), err, perr)
		}
		u.opts.logger.LogAttrs(req.Context(), slog.LevelError, "error response rendering degraded",
			slog.String(HeaderErrorUID, id),
			slog.String(KeyError, perr.Error()),
		)
	}

	u.opts.observer.Unhandled(false)
	return ResponseInfo[T]{
		StatusCode:     status,
		Representation: rep,
		Headers:        map[string][]string{HeaderErrorUID: {id}},
		ErrorID:        id,
	}
}

// lastDitchResponse is the response of last resort. Every step is guarded
// so that it returns even if the logger or the LastDitchFunc misbehave.
func (u *Unhandled[T]) lastDitchResponse(ctx context.Context, err, cause error) ResponseInfo[T] {
	id := u.safeID()
	resp := ResponseInfo[T]{
		StatusCode: http.StatusInternalServerError,
		Headers:    map[string][]string{HeaderErrorUID: {id}},
		ErrorID:    id,
	}
	func() {
		defer func() { _ = recover() }()
		u.opts.logger.LogAttrs(ctx, slog.LevelError+4, "last-ditch error response; the failure could not be handled",
			slog.String(HeaderErrorUID, id),
			slog.Bool(KeyUnhandled, true),
			slog.String(KeyErrorType, typeName(err)),
			slog.String(KeyError, errString(err)),
			slog.String("handling_error", cause.Error()),
		)
	}()
	func() {
		defer func() { _ = recover() }()
		u.opts.observer.Unhandled(true)
	}()
	func() {
		defer func() { _ = recover() }()
		resp.Representation = u.lastDitch(id)
	}()
	return resp
}

func (u *Unhandled[T]) safeID() (id string) {
	defer func() {
		if recover() != nil || id == "" {
			id = "00000000-0000-0000-0000-000000000000"
		}
	}()
	return u.opts.newID()
}
