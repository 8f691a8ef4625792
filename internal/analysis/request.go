package analysis

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Analysis modes accepted by the service.
const (
	ModeComprehensive = "comprehensive"
	ModeQuick         = "quick"
	ModeDetailed      = "detailed"
)

// TextRequest is the JSON payload for POST /api/analyze/text.
type TextRequest struct {
	Text   string `json:"text" validate:"required"`
	ChatID string `json:"chatId" validate:"required"`
	Mode   string `json:"analysisMode" validate:"required,oneof=comprehensive quick detailed"`
}

// FileRequest describes the multipart payload for POST /api/analyze/file.
// AdditionalText is sent only when non-empty.
type FileRequest struct {
	Path           string `validate:"required,file"`
	ChatID         string `validate:"required"`
	Mode           string `validate:"required,oneof=comprehensive quick detailed"`
	AdditionalText string
}

var validate = validator.New()

// normalize applies the default analysis mode.
func (r *TextRequest) normalize() {
	if r.Mode == "" {
		r.Mode = ModeComprehensive
	}
}

func (r *FileRequest) normalize() {
	if r.Mode == "" {
		r.Mode = ModeComprehensive
	}
}

// Validate checks the request shape, returning a *ValidationError for the
// first violated field. Validation never mutates the request.
func (r TextRequest) Validate() error {
	return firstViolation(validate.Struct(r))
}

// Validate checks the request shape, returning a *ValidationError for the
// first violated field.
func (r FileRequest) Validate() error {
	return firstViolation(validate.Struct(r))
}

func firstViolation(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &ValidationError{Field: fe.Field(), Message: violationMessage(fe)}
	}
	return &ValidationError{Field: "request", Message: err.Error()}
}

func violationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "file":
		return fmt.Sprintf("%s must point to an existing file", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
