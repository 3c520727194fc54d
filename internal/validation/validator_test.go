package validation

import (
	"strings"
	"testing"

	"cbt-question-gen/internal/config"
	"cbt-question-gen/internal/domain"
	"cbt-question-gen/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func count(n int) dto.FlexibleInt {
	return dto.FlexibleInt{Value: n, Present: true, Valid: true}
}

func TestValidateGenerateQuestionsRequest(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name       string
		req        *dto.GenerateQuestionsRequest
		wantFields []string
	}{
		{"valid", &dto.GenerateQuestionsRequest{Exam: "JAMB", Subject: "Physics", Count: count(3)}, nil},
		{"nil request", nil, []string{"exam", "subject", "count"}},
		{"missing exam", &dto.GenerateQuestionsRequest{Subject: "Physics", Count: count(3)}, []string{"exam"}},
		{"blank subject", &dto.GenerateQuestionsRequest{Exam: "JAMB", Subject: "   ", Count: count(3)}, []string{"subject"}},
		{"missing count", &dto.GenerateQuestionsRequest{Exam: "JAMB", Subject: "Physics"}, []string{"count"}},
		{"zero count", &dto.GenerateQuestionsRequest{Exam: "JAMB", Subject: "Physics", Count: count(0)}, []string{"count"}},
		{"too many", &dto.GenerateQuestionsRequest{Exam: "JAMB", Subject: "Physics", Count: count(DefaultMaxQuestionCount + 1)}, []string{"count"}},
		{"invalid count", &dto.GenerateQuestionsRequest{Exam: "JAMB", Subject: "Physics", Count: dto.FlexibleInt{Present: true, Raw: "ten"}}, []string{"count"}},
		{"long exam", &dto.GenerateQuestionsRequest{Exam: strings.Repeat("x", 101), Subject: "Physics", Count: count(1)}, []string{"exam length"}},
		{"everything missing", &dto.GenerateQuestionsRequest{}, []string{"exam", "subject", "count"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.ValidateGenerateQuestionsRequest(tt.req)
			if tt.wantFields == nil {
				assert.Empty(t, errs)
				return
			}
			require.Len(t, errs, len(tt.wantFields))
			for i, field := range tt.wantFields {
				assert.Equal(t, field, errs[i].Field)
			}
		})
	}
}

func TestValidateGenerationRequest(t *testing.T) {
	v := NewValidator()

	assert.Empty(t, v.ValidateGenerationRequest(domain.GenerationRequest{Exam: "WAEC", Subject: "Chemistry", Count: DefaultMaxQuestionCount}))

	errs := v.ValidateGenerationRequest(domain.GenerationRequest{Exam: "WAEC", Count: -1})
	require.Len(t, errs, 2)
	assert.Equal(t, "subject", errs[0].Field)
	assert.Equal(t, "count", errs[1].Field)
}

func TestValidator_ConfiguredLimits(t *testing.T) {
	tests := []struct {
		name       string
		validator  *Validator
		req        domain.GenerationRequest
		wantFields []string
	}{
		{
			name:      "count within lowered ceiling",
			validator: NewValidator(WithMaxQuestionCount(10)),
			req:       domain.GenerationRequest{Exam: "JAMB", Subject: "Physics", Count: 10},
		},
		{
			name:       "count above lowered ceiling",
			validator:  NewValidator(WithMaxQuestionCount(10)),
			req:        domain.GenerationRequest{Exam: "JAMB", Subject: "Physics", Count: 11},
			wantFields: []string{"count"},
		},
		{
			name:      "raised ceiling",
			validator: NewFromConfig(config.LimitsConfig{MaxQuestionCount: 200, MaxFieldLength: 100}),
			req:       domain.GenerationRequest{Exam: "JAMB", Subject: "Physics", Count: 150},
		},
		{
			name:      "unbounded count",
			validator: NewValidator(WithMaxQuestionCount(0)),
			req:       domain.GenerationRequest{Exam: "JAMB", Subject: "Physics", Count: 1000},
		},
		{
			name:       "unbounded count still rejects zero",
			validator:  NewValidator(WithMaxQuestionCount(0)),
			req:        domain.GenerationRequest{Exam: "JAMB", Subject: "Physics", Count: 0},
			wantFields: []string{"count"},
		},
		{
			name:       "short field ceiling",
			validator:  NewValidator(WithMaxFieldLength(4)),
			req:        domain.GenerationRequest{Exam: "JAMB", Subject: "Physics", Count: 1},
			wantFields: []string{"subject length"},
		},
		{
			name:      "unbounded field length",
			validator: NewValidator(WithMaxFieldLength(0)),
			req:       domain.GenerationRequest{Exam: strings.Repeat("x", 500), Subject: "Physics", Count: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := tt.validator.ValidateGenerationRequest(tt.req)
			if tt.wantFields == nil {
				assert.Empty(t, errs)
				return
			}
			require.Len(t, errs, len(tt.wantFields))
			for i, field := range tt.wantFields {
				assert.Equal(t, field, errs[i].Field)
			}
		})
	}
}
