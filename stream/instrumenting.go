// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/xmidt-org/edgestream/model"
)

type instrumentingBuilder struct {
	Builder
	measures Measures
}

// NewInstrumentingBuilder counts every construction attempt made through b.
func NewInstrumentingBuilder(measures Measures, b Builder) Builder {
	return &instrumentingBuilder{measures: measures, Builder: b}
}

func (ib *instrumentingBuilder) NewDataStream(f DataStreamFields) (model.DataStream, error) {
	r, err := ib.Builder.NewDataStream(f)
	ib.observe(KindDataStream, err)
	return r, err
}

func (ib *instrumentingBuilder) NewEdgeProcessed(f EdgeProcessedFields) (model.EdgeProcessed, error) {
	r, err := ib.Builder.NewEdgeProcessed(f)
	ib.observe(KindEdgeProcessed, err)
	return r, err
}

func (ib *instrumentingBuilder) NewFused(f FusedFields) (model.Fused, error) {
	r, err := ib.Builder.NewFused(f)
	ib.observe(KindFused, err)
	return r, err
}

func (ib *instrumentingBuilder) observe(kind string, err error) {
	if err == nil {
		ib.measures.Records.With(prometheus.Labels{KindLabel: kind, OutcomeLabel: AcceptedOutcome}).Inc()
		return
	}

	field := UnknownField
	var ve *ValidationErr
	if errors.As(err, &ve) {
		field = ve.Field
	}
	ib.measures.Records.With(prometheus.Labels{KindLabel: kind, OutcomeLabel: RejectedOutcome}).Inc()
	ib.measures.Rejections.With(prometheus.Labels{KindLabel: kind, FieldLabel: field}).Inc()
}
