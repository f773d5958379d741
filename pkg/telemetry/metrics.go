// SPDX-License-Identifier: Apache-2.0
// Package telemetry provides observability for HRBot exchanges.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ExchangeMetrics tracks exchange volume, operation outcomes, and LLM
// round latency for production monitoring.
type ExchangeMetrics struct {
	// exchangeCounter tracks completed exchanges by outcome
	exchangeCounter metric.Int64Counter

	// operationCounter tracks executed operations by name and outcome
	operationCounter metric.Int64Counter

	// roundLatency tracks LLM round latency in milliseconds
	roundLatency metric.Float64Histogram
}

// NewExchangeMetrics creates an exchange metrics tracker with OTel meters.
func NewExchangeMetrics() (*ExchangeMetrics, error) {
	meter := otel.Meter("hrbot/agent")

	exchangeCounter, err := meter.Int64Counter(
		"hrbot.exchanges.total",
		metric.WithDescription("Completed exchanges by outcome"),
	)
	if err != nil {
		return nil, err
	}

	operationCounter, err := meter.Int64Counter(
		"hrbot.operations.total",
		metric.WithDescription("Executed operations by name and outcome"),
	)
	if err != nil {
		return nil, err
	}

	roundLatency, err := meter.Float64Histogram(
		"hrbot.llm.round.latency",
		metric.WithDescription("LLM round latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &ExchangeMetrics{
		exchangeCounter:  exchangeCounter,
		operationCounter: operationCounter,
		roundLatency:     roundLatency,
	}, nil
}

// RecordExchange increments the exchange counter for the given outcome.
func (em *ExchangeMetrics) RecordExchange(ctx context.Context, outcome string) {
	if em == nil {
		return
	}
	em.exchangeCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

// RecordOperation increments the operation counter for one invocation.
func (em *ExchangeMetrics) RecordOperation(ctx context.Context, name string, failed bool) {
	if em == nil {
		return
	}
	outcome := "ok"
	if failed {
		outcome = "error"
	}
	em.operationCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", name),
		attribute.String("outcome", outcome),
	))
}

// RecordRound records the latency of one LLM round.
func (em *ExchangeMetrics) RecordRound(ctx context.Context, round int, elapsed time.Duration) {
	if em == nil {
		return
	}
	em.roundLatency.Record(ctx, float64(elapsed.Milliseconds()), metric.WithAttributes(
		attribute.Int("round", round),
	))
}
