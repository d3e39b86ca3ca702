// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"crypto/rand"
	"encoding/hex"
	"io"
	"maps"
	"slices"
	"time"

	"emperror.dev/emperror"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/xmidt-org/edgestream/model"
)

// Prefixes of generated identifiers.
const (
	StreamIDPrefix = "stream_"
	FusionIDPrefix = "fusion_"
)

// DefaultConfidenceScore is used when a candidate does not carry a score.
const DefaultConfidenceScore = 1.0

// Builder constructs validated records. A record is either fully valid or not
// returned at all.
type Builder interface {
	NewDataStream(f DataStreamFields) (model.DataStream, error)
	NewEdgeProcessed(f EdgeProcessedFields) (model.EdgeProcessed, error)
	NewFused(f FusedFields) (model.Fused, error)
}

// DataStreamFields is a candidate data stream. Zero values mean "not supplied".
type DataStreamFields struct {
	StreamID        string
	SourceType      string
	SourceID        string
	Timestamp       time.Time
	Payload         map[string]interface{}
	Metadata        map[string]interface{}
	ConfidenceScore *float64
}

// EdgeProcessedFields is a candidate edge processed record.
type EdgeProcessedFields struct {
	DataStreamFields

	EdgeNodeID        string
	ProcessingTimeMS  *float64
	FeaturesExtracted []string
	AnomalyScore      *float64
	CompressionRatio  *float64
}

// FusedFields is a candidate fused record.
type FusedFields struct {
	FusionID         string
	SourceStreams    []string
	Timestamp        time.Time
	FusedPayload     map[string]interface{}
	FusionConfidence *float64
}

// Option configures a Factory.
type Option func(*Factory)

// WithClock sets the source of default timestamps. Results are converted to UTC.
func WithClock(now func() time.Time) Option {
	return func(f *Factory) {
		if now != nil {
			f.now = now
		}
	}
}

// WithRandom sets the source of randomness for generated identifiers. The reader
// must be safe for concurrent use if the Factory is shared.
func WithRandom(r io.Reader) Option {
	return func(f *Factory) {
		if r != nil {
			f.random = r
		}
	}
}

// Factory is the default Builder. It holds no mutable state and can be shared.
type Factory struct {
	now      func() time.Time
	random   io.Reader
	validate *validator.Validate
}

var _ Builder = (*Factory)(nil)

func NewFactory(opts ...Option) *Factory {
	f := &Factory{
		now:      time.Now,
		random:   rand.Reader,
		validate: validator.New(),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// NewDataStream validates the candidate and fills in the stream id, timestamp,
// metadata and confidence score defaults.
func (f *Factory) NewDataStream(in DataStreamFields) (model.DataStream, error) {
	if err := validateDataStreamFields(f.validate, in); err != nil {
		return model.DataStream{}, err
	}
	return f.dataStream(in)
}

// NewEdgeProcessed applies every data stream rule plus the edge node ones.
func (f *Factory) NewEdgeProcessed(in EdgeProcessedFields) (model.EdgeProcessed, error) {
	if err := validateEdgeProcessedFields(f.validate, in); err != nil {
		return model.EdgeProcessed{}, err
	}

	ds, err := f.dataStream(in.DataStreamFields)
	if err != nil {
		return model.EdgeProcessed{}, err
	}

	features := slices.Clone(in.FeaturesExtracted)
	if features == nil {
		features = []string{}
	}

	return model.EdgeProcessed{
		DataStream:        ds,
		EdgeNodeID:        in.EdgeNodeID,
		ProcessingTimeMS:  *in.ProcessingTimeMS,
		FeaturesExtracted: features,
		AnomalyScore:      copyFloat(in.AnomalyScore),
		CompressionRatio:  copyFloat(in.CompressionRatio),
	}, nil
}

func (f *Factory) NewFused(in FusedFields) (model.Fused, error) {
	if err := validateFusedFields(f.validate, in); err != nil {
		return model.Fused{}, err
	}

	id := in.FusionID
	if len(id) == 0 {
		var err error
		if id, err = f.newID(FusionIDPrefix); err != nil {
			return model.Fused{}, err
		}
	}

	return model.Fused{
		FusionID:         id,
		SourceStreams:    slices.Clone(in.SourceStreams),
		Timestamp:        f.timestamp(in.Timestamp),
		FusedPayload:     maps.Clone(in.FusedPayload),
		FusionConfidence: *in.FusionConfidence,
	}, nil
}

// dataStream assumes in has already been validated.
func (f *Factory) dataStream(in DataStreamFields) (model.DataStream, error) {
	id := in.StreamID
	if len(id) == 0 {
		var err error
		if id, err = f.newID(StreamIDPrefix); err != nil {
			return model.DataStream{}, err
		}
	}

	metadata := maps.Clone(in.Metadata)
	if metadata == nil {
		metadata = map[string]interface{}{}
	}

	score := DefaultConfidenceScore
	if in.ConfidenceScore != nil {
		score = *in.ConfidenceScore
	}

	return model.DataStream{
		StreamID:        id,
		SourceType:      in.SourceType,
		SourceID:        in.SourceID,
		Timestamp:       f.timestamp(in.Timestamp),
		Payload:         maps.Clone(in.Payload),
		Metadata:        metadata,
		ConfidenceScore: score,
	}, nil
}

func (f *Factory) timestamp(t time.Time) time.Time {
	if t.IsZero() {
		return f.now().UTC()
	}
	return t
}

// newID returns prefix followed by the first 8 lowercase hex characters of a random uuid.
func (f *Factory) newID(prefix string) (string, error) {
	u, err := uuid.NewRandomFromReader(f.random)
	if err != nil {
		return "", emperror.Wrap(err, "failed to generate record id")
	}
	return prefix + hex.EncodeToString(u[:4]), nil
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
