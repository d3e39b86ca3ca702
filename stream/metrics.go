// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xmidt-org/touchstone"
	"go.uber.org/fx"
)

// Names
const (
	RecordsCounter    = "records_constructed_total"
	RejectionsCounter = "record_rejections_total"
)

// Labels
const (
	KindLabel    = "kind"
	OutcomeLabel = "outcome"
	FieldLabel   = "field"
)

// Label Values
const (
	AcceptedOutcome = "accepted"
	RejectedOutcome = "rejected"

	// UnknownField labels rejections that were not caused by a validation rule.
	UnknownField = "unknown"
)

// ProvideMetrics returns the Metrics relevant to this package
func ProvideMetrics() fx.Option {
	return fx.Options(
		touchstone.CounterVec(
			prometheus.CounterOpts{
				Name: RecordsCounter,
				Help: "Counter for the number of records constructed, by kind and outcome.",
			},
			KindLabel,
			OutcomeLabel,
		),
		touchstone.CounterVec(
			prometheus.CounterOpts{
				Name: RejectionsCounter,
				Help: "Counter for the number of rejected records, by kind and offending field.",
			},
			KindLabel,
			FieldLabel,
		),
	)
}

type Measures struct {
	fx.In
	Records    *prometheus.CounterVec `name:"records_constructed_total"`
	Rejections *prometheus.CounterVec `name:"record_rejections_total"`
}
