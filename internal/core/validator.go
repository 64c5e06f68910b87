package core

import (
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"focusflow/internal/types"
)

// Validator wraps go-playground/validator and translates its errors into the
// API error envelope.
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewValidator creates a Validator.
func NewValidator(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{
		validate: validator.New(),
		logger:   logger,
	}
}

// ValidateStruct validates the tagged fields of v. On failure it returns a
// *types.AppError with code "validation_missing_required_field" carrying a
// per-field breakdown in Details.
func (vd *Validator) ValidateStruct(v interface{}) error {
	err := vd.validate.Struct(v)
	if err == nil {
		return nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "validation failed", err)
	}

	fields := make(map[string]any, len(validationErrs))
	for _, fe := range validationErrs {
		fields[strings.ToLower(fe.Field())] = fe.Tag()
	}

	return types.NewAppErrorWithDetails(
		types.ErrCodeValidationMissingField,
		"request validation failed",
		err,
		fields,
	)
}
