package schema

import "errors"

var (
	// ErrUnknownCollection indicates a logical type name has no binding in
	// the organization's schema. The workflow assuming it cannot run.
	ErrUnknownCollection = errors.New("collection not bound for organization")
	// ErrUnknownProperty indicates a logical property name has no binding.
	ErrUnknownProperty = errors.New("property not bound for organization")
	// ErrUnknownPropertyID indicates a store property identifier has no
	// logical name in the organization's schema.
	ErrUnknownPropertyID = errors.New("property id not bound for organization")
	// ErrInvalidDocument indicates a schema document failed validation.
	ErrInvalidDocument = errors.New("invalid schema document")
)
