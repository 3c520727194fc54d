package dto

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	"cbt-question-gen/internal/domain"

	"github.com/bytedance/sonic"
)

// FlexibleInt accepts a JSON number or a numeric string. Values that cannot
// be read as a whole number are kept as invalid instead of failing the
// whole body parse, so the validator can report them per field.
type FlexibleInt struct {
	Value   int
	Present bool
	Valid   bool
	Raw     string
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexibleInt) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	*f = FlexibleInt{Raw: raw}
	if raw == "" || raw == "null" {
		return nil
	}
	f.Present = true

	if bytes.HasPrefix(data, []byte(`"`)) {
		var s string
		if err := sonic.Unmarshal(data, &s); err != nil {
			return nil
		}
		s = strings.TrimSpace(s)
		f.Raw = s
		if s == "" {
			f.Present = false
			return nil
		}
		if n, err := strconv.Atoi(s); err == nil {
			f.Value, f.Valid = n, true
		}
		return nil
	}

	var n float64
	if err := sonic.Unmarshal(data, &n); err != nil {
		return nil
	}
	if n == math.Trunc(n) && math.Abs(n) <= math.MaxInt32 {
		f.Value, f.Valid = int(n), true
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (f FlexibleInt) MarshalJSON() ([]byte, error) {
	if !f.Present || !f.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(f.Value)), nil
}

// GenerateQuestionsRequest is the body of POST /api/generate-questions
// @Description Exam, subject and number of questions to generate
type GenerateQuestionsRequest struct {
	Exam    string      `json:"exam" example:"JAMB"`
	Subject string      `json:"subject" example:"Physics"`
	Count   FlexibleInt `json:"count" swaggertype:"integer" example:"10"`
}

// ToDomain converts the request to a GenerationRequest. Call it only after
// validation.
func (r *GenerateQuestionsRequest) ToDomain() domain.GenerationRequest {
	return domain.GenerationRequest{
		Exam:    strings.TrimSpace(r.Exam),
		Subject: strings.TrimSpace(r.Subject),
		Count:   r.Count.Value,
	}
}

// QuestionResponse is a single generated question
type QuestionResponse struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Answer      int      `json:"answer"`
	Explanation string   `json:"explanation"`
}

// GenerateQuestionsResponse is the success payload of POST /api/generate-questions
type GenerateQuestionsResponse struct {
	Questions []QuestionResponse `json:"questions"`
}

// NewGenerateQuestionsResponse copies a QuestionSet into the response shape,
// keeping the generated order.
func NewGenerateQuestionsResponse(set *domain.QuestionSet) GenerateQuestionsResponse {
	resp := GenerateQuestionsResponse{Questions: []QuestionResponse{}}
	if set == nil {
		return resp
	}
	for _, q := range set.Questions {
		resp.Questions = append(resp.Questions, QuestionResponse{
			Question:    q.Question,
			Options:     append([]string(nil), q.Options...),
			Answer:      q.Answer,
			Explanation: q.Explanation,
		})
	}
	return resp
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status  string `json:"status" example:"ok"`
	Message string `json:"message" example:"Server is alive and well!"`
}

// ErrorResponse represents an error in the API response
type ErrorResponse struct {
	Code    string                   `json:"code,omitempty"`
	Message string                   `json:"message"`
	Errors  []domain.ValidationError `json:"errors,omitempty"`
}
