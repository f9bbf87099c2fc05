// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/holomush/holoauth/internal/auth"
)

// OutcomeOK labels successful operations.
const OutcomeOK = "ok"

// Metrics holds the holoauth Prometheus collectors. It implements
// auth.Recorder.
type Metrics struct {
	AuthAttempts *prometheus.CounterVec
	SweptRows    *prometheus.CounterVec
}

// NewMetrics creates the holoauth collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AuthAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "holoauth_auth_attempts_total",
				Help: "Auth operations by method and outcome",
			},
			[]string{"method", "outcome"},
		),
		SweptRows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "holoauth_expired_rows_deleted_total",
				Help: "Expired rows removed by the janitor, by table",
			},
			[]string{"table"},
		),
	}

	reg.MustRegister(m.AuthAttempts, m.SweptRows)
	return m
}

// RecordOutcome counts one auth operation. Failures are labelled with the
// error kind, so storage faults show up as "internal".
func (m *Metrics) RecordOutcome(method string, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = auth.KindOf(err).String()
	}
	m.AuthAttempts.WithLabelValues(method, outcome).Inc()
}

// RecordSweep counts rows deleted by one janitor pass.
func (m *Metrics) RecordSweep(sessions, refreshTokens int64) {
	m.SweptRows.WithLabelValues("user_sessions").Add(float64(sessions))
	m.SweptRows.WithLabelValues("refresh_tokens").Add(float64(refreshTokens))
}

var (
	_ auth.Recorder      = (*Metrics)(nil)
	_ auth.SweepRecorder = (*Metrics)(nil)
)
