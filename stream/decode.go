// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"encoding/json"
	"time"

	"emperror.dev/emperror"
)

// Record kinds, also used as metric label values.
const (
	KindDataStream    = "data_stream"
	KindEdgeProcessed = "edge_processed"
	KindFused         = "fused"
)

// Record is a decoded and validated record of any kind.
type Record struct {
	Kind string

	// ID is the stream id, or the fusion id for fused records.
	ID string

	// Value is a model.DataStream, model.EdgeProcessed or model.Fused.
	Value interface{}
}

// wireRecord accepts the union of every record kind so the kind can be told apart
// by which fields are present.
type wireRecord struct {
	StreamID        string                 `json:"stream_id"`
	SourceType      string                 `json:"source_type"`
	SourceID        string                 `json:"source_id"`
	Timestamp       *time.Time             `json:"timestamp"`
	Payload         map[string]interface{} `json:"payload"`
	Metadata        map[string]interface{} `json:"metadata"`
	ConfidenceScore *float64               `json:"confidence_score"`

	EdgeNodeID        *string  `json:"edge_node_id"`
	ProcessingTimeMS  *float64 `json:"processing_time_ms"`
	FeaturesExtracted []string `json:"features_extracted"`
	AnomalyScore      *float64 `json:"anomaly_score"`
	CompressionRatio  *float64 `json:"compression_ratio"`

	FusionID         *string                `json:"fusion_id"`
	SourceStreams    []string               `json:"source_streams"`
	FusedPayload     map[string]interface{} `json:"fused_payload"`
	FusionConfidence *float64               `json:"fusion_confidence"`
}

func (w wireRecord) kind() string {
	switch {
	case w.FusionID != nil || w.SourceStreams != nil || w.FusedPayload != nil:
		return KindFused
	case w.EdgeNodeID != nil || w.ProcessingTimeMS != nil || w.FeaturesExtracted != nil ||
		w.AnomalyScore != nil || w.CompressionRatio != nil:
		return KindEdgeProcessed
	default:
		return KindDataStream
	}
}

func (w wireRecord) dataStreamFields() DataStreamFields {
	f := DataStreamFields{
		StreamID:        w.StreamID,
		SourceType:      w.SourceType,
		SourceID:        w.SourceID,
		Payload:         w.Payload,
		Metadata:        w.Metadata,
		ConfidenceScore: w.ConfidenceScore,
	}
	if w.Timestamp != nil {
		f.Timestamp = *w.Timestamp
	}
	return f
}

// Decode unmarshals a single json record, picks its kind and builds it through b.
// Fused records are recognized by fusion fields, edge processed records by any edge
// field; anything else is treated as a data stream. A record carrying only optional edge
// fields is therefore rejected for its missing edge node id rather than losing them.
func Decode(b Builder, data []byte) (Record, error) {
	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return Record{}, emperror.Wrap(err, "failed to decode record")
	}

	switch w.kind() {
	case KindFused:
		f := FusedFields{
			SourceStreams:    w.SourceStreams,
			FusedPayload:     w.FusedPayload,
			FusionConfidence: w.FusionConfidence,
		}
		if w.FusionID != nil {
			f.FusionID = *w.FusionID
		}
		if w.Timestamp != nil {
			f.Timestamp = *w.Timestamp
		}
		r, err := b.NewFused(f)
		if err != nil {
			return Record{}, err
		}
		return Record{Kind: KindFused, ID: r.FusionID, Value: r}, nil

	case KindEdgeProcessed:
		f := EdgeProcessedFields{
			DataStreamFields:  w.dataStreamFields(),
			ProcessingTimeMS:  w.ProcessingTimeMS,
			FeaturesExtracted: w.FeaturesExtracted,
			AnomalyScore:      w.AnomalyScore,
			CompressionRatio:  w.CompressionRatio,
		}
		if w.EdgeNodeID != nil {
			f.EdgeNodeID = *w.EdgeNodeID
		}
		r, err := b.NewEdgeProcessed(f)
		if err != nil {
			return Record{}, err
		}
		return Record{Kind: KindEdgeProcessed, ID: r.StreamID, Value: r}, nil

	default:
		r, err := b.NewDataStream(w.dataStreamFields())
		if err != nil {
			return Record{}, err
		}
		return Record{Kind: KindDataStream, ID: r.StreamID, Value: r}, nil
	}
}
