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
	"slices"

	"dirpx.dev/backstop/adapter"
	"dirpx.dev/backstop/apierror"
	"dirpx.dev/backstop/apis"
	"dirpx.dev/backstop/listener"
)

// ErrNoCatalog and ErrNoPrepareFunc are returned by the constructors when a
// required collaborator is missing.
var (
	ErrNoCatalog     = errors.New("handler: catalog is required")
	ErrNoPrepareFunc = errors.New("handler: prepare func is required")
)

// Handler classifies failures through a listener chain and builds the
// response for the ones a listener claims.
type Handler[T any] struct {
	catalog   *apierror.Catalog
	listeners []listener.Listener
	prepare   PrepareFunc[T]
	opts      options
}

// New returns a Handler running listeners in the given order.
func New[T any](cat *apierror.Catalog, listeners []listener.Listener, prepare PrepareFunc[T], opts ...Option) (*Handler[T], error) {
	if cat == nil {
		return nil, ErrNoCatalog
	}
	if prepare == nil {
		return nil, ErrNoPrepareFunc
	}
	return &Handler[T]{
		catalog:   cat,
		listeners: slices.Clone(listeners),
		prepare:   prepare,
		opts:      buildOptions(opts),
	}, nil
}

// Listeners returns the chain in evaluation order.
func (h *Handler[T]) Listeners() []listener.Listener { return slices.Clone(h.listeners) }

// MaybeHandle classifies err and builds its response.
//
// It returns (nil, nil) when no listener claims err; the caller must then
// use an Unhandled handler. It returns an *UnexpectedHandlingError when the
// handling itself failed. MaybeHandle never panics.
func (h *Handler[T]) MaybeHandle(err error, req apis.RequestInfo) (resp *ResponseInfo[T], herr error) {
	if req == nil {
		req = apis.NoRequest
	}
	defer func() {
		if r := recover(); r != nil {
			resp, herr = nil, h.unexpected(req.Context(), err, fmt.Errorf("panic: %v", r))
		}
	}()

	res, ok := h.classify(req.Context(), err)
	if !ok {
		return nil, nil
	}

	all := res.Errors.All()
	status, serr := h.catalog.HighestPriorityStatus(all)
	if serr != nil {
		return nil, h.unexpected(req.Context(), err, serr)
	}
	filtered := h.catalog.FilterByStatus(all, status)

	id := h.opts.newID()
	h.log(req, err, id, status, all, filtered, res.ExtraDetailsForLogging)

	rep, perr := h.prepare(adapter.ToContract(id, filtered), status, filtered, err, req)
	if perr != nil {
		if !errors.Is(perr, ErrDegraded) {
			return nil, h.unexpected(req.Context(), err, perr)
		}
		h.opts.logger.LogAttrs(req.Context(), slog.LevelError, "error response rendering degraded",
			slog.String(HeaderErrorUID, id),
			slog.String(KeyError, perr.Error()),
		)
	}

	headers := make(map[string][]string, len(res.ExtraResponseHeaders)+1)
	for k, v := range res.ExtraResponseHeaders {
		headers[k] = slices.Clone(v)
	}
	headers[HeaderErrorUID] = []string{id}

	h.opts.observer.Handled(status, filtered)
	return &ResponseInfo[T]{
		StatusCode:     status,
		Representation: rep,
		Headers:        headers,
		ErrorID:        id,
	}, nil
}

// classify returns the result of the first listener that claims err.
func (h *Handler[T]) classify(ctx context.Context, err error) (listener.Result, bool) {
	for _, l := range h.listeners {
		if res, ok := h.ask(ctx, l, err); ok && res.ShouldHandle {
			return res, true
		}
	}
	return listener.Result{}, false
}

// ask runs one listener, turning a panic into a deferral.
func (h *Handler[T]) ask(ctx context.Context, l listener.Listener, err error) (res listener.Result, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			name := listener.NameOf(l)
			h.opts.logger.LogAttrs(ctx, slog.LevelError, "listener panicked; trying the next one",
				slog.String("listener", name),
				slog.Any("panic", r),
				slog.String(KeyErrorType, typeName(err)),
			)
			h.opts.observer.ListenerFailed(name)
			res, ok = listener.Result{}, false
		}
	}()
	return l.ShouldHandle(err), true
}

func (h *Handler[T]) log(req apis.RequestInfo, err error, id string, status int, all, filtered []apierror.Error, pairs []apis.Pair) {
	attrs := []slog.Attr{
		slog.String(HeaderErrorUID, id),
		slog.String(KeyErrorType, typeName(err)),
		slog.Int(KeyStatus, status),
		slog.String(KeyContributingErrors, errorNames(all)),
		slog.String(KeyResponseErrors, errorNames(filtered)),
	}
	attrs = append(attrs, requestAttrs(req, h.opts.sensitive)...)
	attrs = append(attrs, pairAttrs(pairs)...)
	if logDetail(err, status) {
		attrs = append(attrs, slog.String(KeyError, errString(err)))
	}
	h.opts.logger.LogAttrs(req.Context(), levelFor(status), "api error response", attrs...)
}

func (h *Handler[T]) unexpected(ctx context.Context, original, cause error) error {
	h.opts.logger.LogAttrs(ctx, slog.LevelError, "unexpected error while handling a failure",
		slog.String(KeyErrorType, typeName(original)),
		slog.String("original_error", errString(original)),
		slog.String("handling_error", cause.Error()),
	)
	return &UnexpectedHandlingError{Original: original, Err: cause}
}
