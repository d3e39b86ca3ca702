// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xmidt-org/edgestream/model"
)

// default rule sources, checked with validator.Var.
var (
	SourceTypeRuleSource = "oneof=" + strings.Join(model.SourceTypes, " ")
	ScoreRuleSource      = "gte=0,lte=1"
)

// Json names of the validated fields.
const (
	sourceTypeField       = "source_type"
	sourceIDField         = "source_id"
	payloadField          = "payload"
	confidenceScoreField  = "confidence_score"
	edgeNodeIDField       = "edge_node_id"
	processingTimeField   = "processing_time_ms"
	sourceStreamsField    = "source_streams"
	fusedPayloadField     = "fused_payload"
	fusionConfidenceField = "fusion_confidence"
)

// isSourceTypeValid returns true if and only if sourceType is one of model.SourceTypes.
func isSourceTypeValid(v *validator.Validate, sourceType string) bool {
	return v.Var(sourceType, SourceTypeRuleSource) == nil
}

// isScoreValid returns true if the score lies within [0, 1]. NaN is never valid.
func isScoreValid(v *validator.Validate, score float64) bool {
	return v.Var(score, ScoreRuleSource) == nil
}

// validateDataStreamFields returns the first rule the candidate violates, nil otherwise.
func validateDataStreamFields(v *validator.Validate, f DataStreamFields) error {
	if !isSourceTypeValid(v, f.SourceType) {
		return &ValidationErr{
			Field:   sourceTypeField,
			Value:   fmt.Sprintf("%q", f.SourceType),
			Message: fmt.Sprintf("source_type must be one of %v", model.SourceTypes),
		}
	}

	if len(f.SourceID) == 0 {
		return missingField(sourceIDField)
	}

	if f.Payload == nil {
		return missingField(payloadField)
	}

	if f.ConfidenceScore != nil && !isScoreValid(v, *f.ConfidenceScore) {
		return &ValidationErr{
			Field:   confidenceScoreField,
			Value:   *f.ConfidenceScore,
			Message: "confidence_score must be within [0.0, 1.0]",
		}
	}

	return nil
}

func validateEdgeProcessedFields(v *validator.Validate, f EdgeProcessedFields) error {
	if err := validateDataStreamFields(v, f.DataStreamFields); err != nil {
		return err
	}

	if len(f.EdgeNodeID) == 0 {
		return missingField(edgeNodeIDField)
	}

	if f.ProcessingTimeMS == nil {
		return missingField(processingTimeField)
	}

	return nil
}

func validateFusedFields(v *validator.Validate, f FusedFields) error {
	if len(f.SourceStreams) == 0 {
		return &ValidationErr{Field: sourceStreamsField, Message: "at least one source stream is required"}
	}

	for _, id := range f.SourceStreams {
		if len(id) == 0 {
			return &ValidationErr{Field: sourceStreamsField, Value: `""`, Message: "source stream ids must not be empty"}
		}
	}

	if f.FusedPayload == nil {
		return missingField(fusedPayloadField)
	}

	if f.FusionConfidence == nil {
		return missingField(fusionConfidenceField)
	}

	if !isScoreValid(v, *f.FusionConfidence) {
		return &ValidationErr{
			Field:   fusionConfidenceField,
			Value:   *f.FusionConfidence,
			Message: "fusion_confidence must be within [0.0, 1.0]",
		}
	}

	return nil
}
