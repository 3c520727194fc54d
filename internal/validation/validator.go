package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"cbt-question-gen/internal/config"
	"cbt-question-gen/internal/domain"
	"cbt-question-gen/internal/dto"
)

const (
	// DefaultMaxQuestionCount caps how many questions one request may ask
	// for when no limit is configured.
	DefaultMaxQuestionCount = 50
	// DefaultMaxFieldLength caps exam and subject length in characters.
	DefaultMaxFieldLength = 100
)

// Validator provides request validation functionality. A zero limit
// disables that check.
type Validator struct {
	maxQuestionCount int
	maxFieldLength   int
}

// Option customizes a Validator.
type Option func(*Validator)

// WithMaxQuestionCount overrides the request count ceiling.
func WithMaxQuestionCount(n int) Option {
	return func(v *Validator) { v.maxQuestionCount = n }
}

// WithMaxFieldLength overrides the exam and subject length ceiling.
func WithMaxFieldLength(n int) Option {
	return func(v *Validator) { v.maxFieldLength = n }
}

// NewValidator creates a new validator instance
func NewValidator(opts ...Option) *Validator {
	v := &Validator{
		maxQuestionCount: DefaultMaxQuestionCount,
		maxFieldLength:   DefaultMaxFieldLength,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// NewFromConfig builds a validator from the configured request limits.
func NewFromConfig(cfg config.LimitsConfig) *Validator {
	return NewValidator(
		WithMaxQuestionCount(cfg.MaxQuestionCount),
		WithMaxFieldLength(cfg.MaxFieldLength),
	)
}

// ValidateGenerateQuestionsRequest validates the body of a generation request
func (v *Validator) ValidateGenerateQuestionsRequest(req *dto.GenerateQuestionsRequest) domain.ValidationErrors {
	if req == nil {
		return domain.ValidationErrors{
			domain.NewMissingFieldError("exam"),
			domain.NewMissingFieldError("subject"),
			domain.NewMissingFieldError("count"),
		}
	}

	var errors domain.ValidationErrors
	errors = append(errors, v.validateText("exam", req.Exam)...)
	errors = append(errors, v.validateText("subject", req.Subject)...)

	switch {
	case !req.Count.Present:
		errors = append(errors, domain.NewMissingFieldError("count"))
	case !req.Count.Valid:
		errors = append(errors, domain.NewInvalidFormatError("count", req.Count.Raw))
	default:
		errors = append(errors, v.validateCount(req.Count.Value)...)
	}

	return errors
}

// ValidateGenerationRequest checks an already converted request. The
// pipeline calls it again so no generation call is made on bad input.
func (v *Validator) ValidateGenerationRequest(req domain.GenerationRequest) domain.ValidationErrors {
	var errors domain.ValidationErrors
	errors = append(errors, v.validateText("exam", req.Exam)...)
	errors = append(errors, v.validateText("subject", req.Subject)...)
	errors = append(errors, v.validateCount(req.Count)...)
	return errors
}

func (v *Validator) validateText(field, value string) domain.ValidationErrors {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return domain.ValidationErrors{domain.NewMissingFieldError(field)}
	}
	if n := utf8.RuneCountInString(trimmed); v.maxFieldLength > 0 && n > v.maxFieldLength {
		return domain.ValidationErrors{domain.NewOutOfRangeError(field+" length", n, 1, v.maxFieldLength)}
	}
	return nil
}

func (v *Validator) validateCount(count int) domain.ValidationErrors {
	if v.maxQuestionCount > 0 && (count <= 0 || count > v.maxQuestionCount) {
		return domain.ValidationErrors{domain.NewOutOfRangeError("count", count, 1, v.maxQuestionCount)}
	}
	if count <= 0 {
		return domain.ValidationErrors{{Field: "count", Message: fmt.Sprintf("must be a positive integer, got %d", count)}}
	}
	return nil
}
