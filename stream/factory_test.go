// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"bytes"
	"errors"
	"math"
	"regexp"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xmidt-org/edgestream/model"
)

var (
	fixedNow       = time.Date(2024, time.March, 1, 12, 30, 0, 0, time.FixedZone("CET", 3600))
	streamIDFormat = regexp.MustCompile(`^stream_[0-9a-f]{8}$`)
	fusionIDFormat = regexp.MustCompile(`^fusion_[0-9a-f]{8}$`)
)

func float(f float64) *float64 {
	return &f
}

func newFixedFactory() *Factory {
	return NewFactory(
		WithClock(func() time.Time { return fixedNow }),
		WithRandom(bytes.NewReader(bytes.Repeat([]byte{0xab}, 64))),
	)
}

func validDataStreamFields() DataStreamFields {
	return DataStreamFields{
		SourceType: model.SourceSensor,
		SourceID:   "s1",
		Payload:    map[string]interface{}{},
	}
}

func TestNewDataStreamDefaults(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	r, err := newFixedFactory().NewDataStream(validDataStreamFields())
	require.NoError(err)

	assert.Equal("stream_abababab", r.StreamID)
	assert.Equal(model.SourceSensor, r.SourceType)
	assert.Equal("s1", r.SourceID)
	assert.Equal(fixedNow.UTC(), r.Timestamp)
	assert.Equal(time.UTC, r.Timestamp.Location())
	assert.NotNil(r.Payload)
	assert.Empty(r.Payload)
	assert.NotNil(r.Metadata)
	assert.Empty(r.Metadata)
	assert.Equal(1.0, r.ConfidenceScore)
}

func TestNewDataStreamKeepsSuppliedValues(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ts := time.Date(2023, time.July, 4, 8, 0, 0, 0, time.UTC)

	r, err := newFixedFactory().NewDataStream(DataStreamFields{
		StreamID:        "stream_custom",
		SourceType:      model.SourceAPI,
		SourceID:        "weather-api",
		Timestamp:       ts,
		Payload:         map[string]interface{}{"temp": 21.5},
		Metadata:        map[string]interface{}{"region": "eu"},
		ConfidenceScore: float(0.25),
	})
	require.NoError(err)

	assert.Equal(model.DataStream{
		StreamID:        "stream_custom",
		SourceType:      model.SourceAPI,
		SourceID:        "weather-api",
		Timestamp:       ts,
		Payload:         map[string]interface{}{"temp": 21.5},
		Metadata:        map[string]interface{}{"region": "eu"},
		ConfidenceScore: 0.25,
	}, r)
}

func TestNewDataStreamCopiesMaps(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	f := validDataStreamFields()
	f.Payload = map[string]interface{}{"a": 1}
	f.Metadata = map[string]interface{}{"b": 2}

	r, err := newFixedFactory().NewDataStream(f)
	require.NoError(err)

	f.Payload["a"] = 100
	f.Metadata["c"] = 3
	assert.Equal(map[string]interface{}{"a": 1}, r.Payload)
	assert.Equal(map[string]interface{}{"b": 2}, r.Metadata)
}

func TestNewDataStreamSourceType(t *testing.T) {
	factory := NewFactory()

	for _, st := range model.SourceTypes {
		t.Run(st, func(t *testing.T) {
			f := validDataStreamFields()
			f.SourceType = st
			_, err := factory.NewDataStream(f)
			assert.NoError(t, err)
		})
	}

	for _, st := range []string{"weather", "", "Sensor", "sensor ", "iot,api"} {
		t.Run("Invalid "+st, func(t *testing.T) {
			assert := assert.New(t)
			f := validDataStreamFields()
			f.SourceType = st

			r, err := factory.NewDataStream(f)
			assert.Equal(model.DataStream{}, r)
			assert.True(errors.Is(err, ErrInvalidRecord))

			var ve *ValidationErr
			if assert.True(errors.As(err, &ve)) {
				assert.Equal("source_type", ve.Field)
			}
			assert.Contains(err.Error(), `"`+st+`"`)
			for _, allowed := range model.SourceTypes {
				assert.Contains(err.Error(), allowed)
			}
		})
	}
}

func TestNewDataStreamConfidenceScore(t *testing.T) {
	tcs := []struct {
		Score    float64
		Succeeds bool
	}{
		{Score: 0, Succeeds: true},
		{Score: 0.5, Succeeds: true},
		{Score: 1, Succeeds: true},
		{Score: -0.0001},
		{Score: 1.0001},
		{Score: -1},
		{Score: 42},
		{Score: math.Inf(1)},
		{Score: math.NaN()},
	}

	factory := NewFactory()
	for _, tc := range tcs {
		f := validDataStreamFields()
		f.ConfidenceScore = float(tc.Score)

		r, err := factory.NewDataStream(f)
		if tc.Succeeds {
			assert.NoError(t, err, "score %v", tc.Score)
			assert.Equal(t, tc.Score, r.ConfidenceScore)
			continue
		}

		var ve *ValidationErr
		if assert.True(t, errors.As(err, &ve), "score %v", tc.Score) {
			assert.Equal(t, "confidence_score", ve.Field)
		}
		assert.Equal(t, model.DataStream{}, r)
	}
}

func TestNewDataStreamMissingFields(t *testing.T) {
	tcs := []struct {
		Description string
		Mutate      func(*DataStreamFields)
		Field       string
	}{
		{
			Description: "No source id",
			Mutate:      func(f *DataStreamFields) { f.SourceID = "" },
			Field:       "source_id",
		},
		{
			Description: "No payload",
			Mutate:      func(f *DataStreamFields) { f.Payload = nil },
			Field:       "payload",
		},
	}

	for _, tc := range tcs {
		t.Run(tc.Description, func(t *testing.T) {
			assert := assert.New(t)
			f := validDataStreamFields()
			tc.Mutate(&f)

			_, err := NewFactory().NewDataStream(f)
			var ve *ValidationErr
			if assert.True(errors.As(err, &ve)) {
				assert.Equal(tc.Field, ve.Field)
				assert.Nil(ve.Value)
			}
		})
	}
}

func TestGeneratedStreamIDs(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	factory := NewFactory()

	a, err := factory.NewDataStream(validDataStreamFields())
	require.NoError(err)
	b, err := factory.NewDataStream(validDataStreamFields())
	require.NoError(err)

	assert.Regexp(streamIDFormat, a.StreamID)
	assert.Regexp(streamIDFormat, b.StreamID)
	assert.NotEqual(a.StreamID, b.StreamID)
}

func TestRandomFailure(t *testing.T) {
	assert := assert.New(t)
	broken := errors.New("entropy exhausted")
	factory := NewFactory(WithRandom(iotest.ErrReader(broken)))

	r, err := factory.NewDataStream(validDataStreamFields())
	assert.Error(err)
	assert.False(errors.Is(err, ErrInvalidRecord))
	assert.Equal(model.DataStream{}, r)

	f := validDataStreamFields()
	f.StreamID = "stream_given"
	_, err = factory.NewDataStream(f)
	assert.NoError(err)
}

func validEdgeProcessedFields() EdgeProcessedFields {
	return EdgeProcessedFields{
		DataStreamFields: validDataStreamFields(),
		EdgeNodeID:       "edge_01",
		ProcessingTimeMS: float(12.5),
	}
}

func TestNewEdgeProcessed(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		assert := assert.New(t)
		require := require.New(t)

		r, err := newFixedFactory().NewEdgeProcessed(validEdgeProcessedFields())
		require.NoError(err)

		assert.Equal("stream_abababab", r.StreamID)
		assert.Equal(1.0, r.ConfidenceScore)
		assert.Equal("edge_01", r.EdgeNodeID)
		assert.Equal(12.5, r.ProcessingTimeMS)
		assert.NotNil(r.FeaturesExtracted)
		assert.Empty(r.FeaturesExtracted)
		assert.Nil(r.AnomalyScore)
		assert.Nil(r.CompressionRatio)
	})

	t.Run("Optional values", func(t *testing.T) {
		assert := assert.New(t)
		require := require.New(t)
		f := validEdgeProcessedFields()
		f.ProcessingTimeMS = float(0)
		f.FeaturesExtracted = []string{"mean", "variance"}
		f.AnomalyScore = float(0.9)
		f.CompressionRatio = float(3.2)

		r, err := newFixedFactory().NewEdgeProcessed(f)
		require.NoError(err)

		*f.AnomalyScore = 0
		f.FeaturesExtracted[0] = "changed"
		assert.Equal(0.0, r.ProcessingTimeMS)
		assert.Equal([]string{"mean", "variance"}, r.FeaturesExtracted)
		if assert.NotNil(r.AnomalyScore) {
			assert.Equal(0.9, *r.AnomalyScore)
		}
		if assert.NotNil(r.CompressionRatio) {
			assert.Equal(3.2, *r.CompressionRatio)
		}
	})

	tcs := []struct {
		Description string
		Mutate      func(*EdgeProcessedFields)
		Field       string
	}{
		{
			Description: "Base rules apply",
			Mutate:      func(f *EdgeProcessedFields) { f.SourceType = "weather" },
			Field:       "source_type",
		},
		{
			Description: "Base score rule applies",
			Mutate:      func(f *EdgeProcessedFields) { f.ConfidenceScore = float(2) },
			Field:       "confidence_score",
		},
		{
			Description: "No edge node id",
			Mutate:      func(f *EdgeProcessedFields) { f.EdgeNodeID = "" },
			Field:       "edge_node_id",
		},
		{
			Description: "No processing time",
			Mutate:      func(f *EdgeProcessedFields) { f.ProcessingTimeMS = nil },
			Field:       "processing_time_ms",
		},
	}

	for _, tc := range tcs {
		t.Run(tc.Description, func(t *testing.T) {
			assert := assert.New(t)
			f := validEdgeProcessedFields()
			tc.Mutate(&f)

			r, err := NewFactory().NewEdgeProcessed(f)
			assert.Equal(model.EdgeProcessed{}, r)
			var ve *ValidationErr
			if assert.True(errors.As(err, &ve)) {
				assert.Equal(tc.Field, ve.Field)
			}
		})
	}
}

func validFusedFields() FusedFields {
	return FusedFields{
		SourceStreams:    []string{"stream_00000001", "stream_00000002"},
		FusedPayload:     map[string]interface{}{"temp": 20.0},
		FusionConfidence: float(0.8),
	}
}

func TestNewFused(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		assert := assert.New(t)
		require := require.New(t)

		r, err := newFixedFactory().NewFused(validFusedFields())
		require.NoError(err)

		assert.Equal("fusion_abababab", r.FusionID)
		assert.Equal(fixedNow.UTC(), r.Timestamp)
		assert.Equal([]string{"stream_00000001", "stream_00000002"}, r.SourceStreams)
		assert.Equal(0.8, r.FusionConfidence)
	})

	t.Run("Generated id format", func(t *testing.T) {
		r, err := NewFactory().NewFused(validFusedFields())
		require.NoError(t, err)
		assert.Regexp(t, fusionIDFormat, r.FusionID)
	})

	tcs := []struct {
		Description string
		Mutate      func(*FusedFields)
		Field       string
	}{
		{
			Description: "No source streams",
			Mutate:      func(f *FusedFields) { f.SourceStreams = nil },
			Field:       "source_streams",
		},
		{
			Description: "Empty source stream id",
			Mutate:      func(f *FusedFields) { f.SourceStreams = []string{"stream_00000001", ""} },
			Field:       "source_streams",
		},
		{
			Description: "No fused payload",
			Mutate:      func(f *FusedFields) { f.FusedPayload = nil },
			Field:       "fused_payload",
		},
		{
			Description: "No fusion confidence",
			Mutate:      func(f *FusedFields) { f.FusionConfidence = nil },
			Field:       "fusion_confidence",
		},
		{
			Description: "Fusion confidence out of range",
			Mutate:      func(f *FusedFields) { f.FusionConfidence = float(1.5) },
			Field:       "fusion_confidence",
		},
	}

	for _, tc := range tcs {
		t.Run(tc.Description, func(t *testing.T) {
			assert := assert.New(t)
			f := validFusedFields()
			tc.Mutate(&f)

			r, err := NewFactory().NewFused(f)
			assert.Equal(model.Fused{}, r)
			var ve *ValidationErr
			if assert.True(errors.As(err, &ve)) {
				assert.Equal(tc.Field, ve.Field)
			}
		})
	}
}
