// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"github.com/xmidt-org/edgestream/model"
	"go.uber.org/zap"
)

type loggingBuilder struct {
	Builder
	logger *zap.Logger
}

// NewLoggingBuilder logs accepted records at debug level and rejected ones at info.
func NewLoggingBuilder(logger *zap.Logger, b Builder) Builder {
	return &loggingBuilder{Builder: b, logger: logger}
}

func (lb *loggingBuilder) NewDataStream(f DataStreamFields) (r model.DataStream, err error) {
	defer func() {
		lb.log(KindDataStream, r.StreamID, err, zap.String("source_type", f.SourceType), zap.String("source_id", f.SourceID))
	}()
	r, err = lb.Builder.NewDataStream(f)
	return
}

func (lb *loggingBuilder) NewEdgeProcessed(f EdgeProcessedFields) (r model.EdgeProcessed, err error) {
	defer func() {
		lb.log(KindEdgeProcessed, r.StreamID, err, zap.String("source_type", f.SourceType), zap.String("edge_node_id", f.EdgeNodeID))
	}()
	r, err = lb.Builder.NewEdgeProcessed(f)
	return
}

func (lb *loggingBuilder) NewFused(f FusedFields) (r model.Fused, err error) {
	defer func() {
		lb.log(KindFused, r.FusionID, err, zap.Int("source_streams", len(f.SourceStreams)))
	}()
	r, err = lb.Builder.NewFused(f)
	return
}

func (lb *loggingBuilder) log(kind, id string, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("kind", kind))
	if err != nil {
		lb.logger.Info("record rejected", append(fields, zap.Error(err))...)
		return
	}
	lb.logger.Debug("record accepted", append(fields, zap.String("id", id))...)
}
