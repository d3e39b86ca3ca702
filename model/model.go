// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package model

import "time"

// Source types a data stream may originate from.
const (
	SourceSensor      = "sensor"
	SourceAPI         = "api"
	SourceLog         = "log"
	SourceTransaction = "transaction"
	SourceSocial      = "social"
	SourceIoT         = "iot"
)

// SourceTypes lists every accepted source type, in a stable order.
var SourceTypes = []string{
	SourceSensor,
	SourceAPI,
	SourceLog,
	SourceTransaction,
	SourceSocial,
	SourceIoT,
}

// DataStream is a single timestamped unit of ingested data.
type DataStream struct {
	// StreamID identifies the record. Generated as stream_ plus 8 hex characters when absent.
	StreamID string `json:"stream_id"`

	// SourceType is the category of the producer, one of SourceTypes.
	SourceType string `json:"source_type"`

	// SourceID identifies the producer within its category.
	SourceID string `json:"source_id"`

	// Timestamp is when the record was observed, in UTC.
	Timestamp time.Time `json:"timestamp"`

	// Payload is the abstract json object carried by the record.
	Payload map[string]interface{} `json:"payload"`

	Metadata map[string]interface{} `json:"metadata"`

	// ConfidenceScore is within [0, 1].
	ConfidenceScore float64 `json:"confidence_score"`
}

// EdgeProcessed is a DataStream after it went through an edge node.
type EdgeProcessed struct {
	DataStream

	EdgeNodeID        string   `json:"edge_node_id"`
	ProcessingTimeMS  float64  `json:"processing_time_ms"`
	FeaturesExtracted []string `json:"features_extracted"`

	// AnomalyScore and CompressionRatio are nil unless the edge node computed them.
	AnomalyScore     *float64 `json:"anomaly_score,omitempty"`
	CompressionRatio *float64 `json:"compression_ratio,omitempty"`
}

// Fused combines several data streams into one record.
type Fused struct {
	FusionID         string                 `json:"fusion_id"`
	SourceStreams    []string               `json:"source_streams"`
	Timestamp        time.Time              `json:"timestamp"`
	FusedPayload     map[string]interface{} `json:"fused_payload"`
	FusionConfidence float64                `json:"fusion_confidence"`
}
