package contract

import "errors"

var (
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrUnknownAgent    = errors.New("agent is not registered")
	ErrValidation      = errors.New("validation failed")
)
