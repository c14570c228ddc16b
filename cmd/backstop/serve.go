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
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"dirpx.dev/backstop/apierror"
	"dirpx.dev/backstop/contract"
	"dirpx.dev/backstop/grpcx"
	"dirpx.dev/backstop/handler"
	"dirpx.dev/backstop/httpx"
	"dirpx.dev/backstop/mapper"
	"dirpx.dev/backstop/metrics"
)

type serveOptions struct {
	httpAddr string
	grpcAddr string
	domain   string
}

func newServeCmd(o *rootOptions) *cobra.Command {
	so := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve demo endpoints over HTTP and gRPC",
		Long: `Serve answers GET /demo/{kind} and the gRPC method backstop.demo.v1.Demo/Fail
with the error response for each failure kind, accepts POST /orders and
exposes Prometheus metrics on GET /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			cat, err := o.loadCatalog()
			if err != nil {
				return err
			}
			return serve(ctx, o.logger, cat, so)
		},
	}
	cmd.Flags().StringVar(&so.httpAddr, "http", ":8080", "HTTP listen address")
	cmd.Flags().StringVar(&so.grpcAddr, "grpc", ":9090", "gRPC listen address")
	cmd.Flags().StringVar(&so.domain, "domain", "backstop.demo", "ErrorInfo domain of gRPC errors")
	return cmd
}

// servers holds everything serve runs, so tests can exercise it without
// listening.
type servers struct {
	http *http.Server
	grpc *grpc.Server
}

func newServers(logger *slog.Logger, cat *apierror.Catalog, so *serveOptions) (*servers, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	obs, err := metrics.New(reg)
	if err != nil {
		return nil, err
	}
	opts := []handler.Option{handler.WithLogger(logger), handler.WithObserver(obs)}

	d, err := newDemo(cat)
	if err != nil {
		return nil, err
	}
	hh, err := newHTTPErrorHandler(cat, opts)
	if err != nil {
		return nil, err
	}
	gh, err := grpcx.NewDefault(cat, mapper.MustNew(), so.domain, opts...)
	if err != nil {
		return nil, err
	}

	gs := grpc.NewServer(gh.ServerOptions(logger)...)
	gs.RegisterService(&demoServiceDesc, d)
	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(gs, hs)
	hs.SetServingStatus(demoServiceDesc.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	return &servers{
		http: &http.Server{
			Addr:              so.httpAddr,
			Handler:           newHTTPHandler(hh, d, promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
			ReadHeaderTimeout: 10 * time.Second,
			ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
		},
		grpc: gs,
	}, nil
}

// newHTTPErrorHandler is httpx.NewDefault plus the downstream gRPC status
// listener, since demo endpoints also call gRPC dependencies.
func newHTTPErrorHandler(cat *apierror.Catalog, opts []handler.Option) (*httpx.Handler, error) {
	prep := handler.JSON(contract.DefaultSerializer())
	listeners := append(httpx.Listeners(cat), grpcx.NewDownstreamStatusListener(cat))
	h, err := handler.New(cat, listeners, prep, opts...)
	if err != nil {
		return nil, err
	}
	u, err := handler.NewUnhandled(cat, prep, handler.JSONLastDitch, opts...)
	if err != nil {
		return nil, err
	}
	return httpx.New(h, u), nil
}

func serve(ctx context.Context, logger *slog.Logger, cat *apierror.Catalog, so *serveOptions) error {
	s, err := newServers(logger, cat, so)
	if err != nil {
		return err
	}
	lis, err := net.Listen("tcp", so.grpcAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", so.grpcAddr, err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("gRPC server listening", "addr", lis.Addr().String())
		return s.grpc.Serve(lis)
	})
	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", so.httpAddr)
		if err := s.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.grpc.GracefulStop()
		return s.http.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
