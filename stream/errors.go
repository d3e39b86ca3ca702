// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"errors"
	"fmt"
)

// ErrInvalidRecord is matched by every ValidationErr.
var ErrInvalidRecord = errors.New("invalid record")

// ValidationErr describes the rule a candidate record violated.
type ValidationErr struct {
	// Field is the json name of the offending field.
	Field string

	// Value is the rejected value, nil when the field was missing.
	Value interface{}

	Message string
}

func (ve *ValidationErr) Error() string {
	if ve.Value == nil {
		return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
	}
	return fmt.Sprintf("%s: %s, got %v", ve.Field, ve.Message, ve.Value)
}

func (ve *ValidationErr) Unwrap() error {
	return ErrInvalidRecord
}

func missingField(field string) *ValidationErr {
	return &ValidationErr{Field: field, Message: "field is required"}
}
