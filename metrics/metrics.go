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

// Package metrics exports handling outcomes as Prometheus metrics.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"dirpx.dev/backstop/apierror"
	"dirpx.dev/backstop/apis"
)

const namespace = "backstop"

// Observer is an apis.Observer backed by Prometheus counters.
type Observer struct {
	responsesTotal   *prometheus.CounterVec
	apiErrorsTotal   *prometheus.CounterVec
	unhandledTotal   *prometheus.CounterVec
	listenerFailures *prometheus.CounterVec
}

var _ apis.Observer = (*Observer)(nil)

// New creates the collectors and registers them with reg. A nil reg skips
// registration, which is handy in tests.
func New(reg prometheus.Registerer) (*Observer, error) {
	o := &Observer{
		// responsesTotal counts handled failures by resolved HTTP status.
		responsesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "handled_errors_total",
				Help:      "Failures claimed by a listener, by resolved HTTP status",
			},
			[]string{"status"},
		),
		// apiErrorsTotal counts catalog errors sent to clients.
		apiErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_errors_total",
				Help:      "Catalog errors sent to clients, by name and code",
			},
			[]string{"name", "code"},
		),
		unhandledTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "unhandled_errors_total",
				Help:      "Failures no listener claimed",
			},
			[]string{"last_ditch"}, // "true" when even the fallback response failed
		),
		listenerFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "listener_failures_total",
				Help:      "Listener panics recovered by the handler",
			},
			[]string{"listener"},
		),
	}
	if reg != nil {
		for _, c := range o.collectors() {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return o, nil
}

// MustNew is New that panics on registration errors.
func MustNew(reg prometheus.Registerer) *Observer {
	o, err := New(reg)
	if err != nil {
		panic(err)
	}
	return o
}

func (o *Observer) collectors() []prometheus.Collector {
	return []prometheus.Collector{o.responsesTotal, o.apiErrorsTotal, o.unhandledTotal, o.listenerFailures}
}

// Handled implements apis.Observer.
func (o *Observer) Handled(status int, errs []apierror.Error) {
	o.responsesTotal.WithLabelValues(strconv.Itoa(status)).Inc()
	for _, e := range errs {
		o.apiErrorsTotal.WithLabelValues(e.Name(), e.Code().String()).Inc()
	}
}

// Unhandled implements apis.Observer.
func (o *Observer) Unhandled(lastDitch bool) {
	o.unhandledTotal.WithLabelValues(strconv.FormatBool(lastDitch)).Inc()
}

// ListenerFailed implements apis.Observer.
func (o *Observer) ListenerFailed(listener string) {
	o.listenerFailures.WithLabelValues(listener).Inc()
}
