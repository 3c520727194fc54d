package domain

import "context"

// OptionCount is the number of choices every multiple-choice question carries.
const OptionCount = 4

// GenerationRequest holds the validated parameters of one generation call.
type GenerationRequest struct {
	Exam    string
	Subject string
	Count   int
}

// QuestionRecord is a single multiple-choice question. Answer is a zero-based
// index into Options.
type QuestionRecord struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Answer      int      `json:"answer"`
	Explanation string   `json:"explanation"`
}

// Validate checks the record invariants that must hold before it is returned.
func (q *QuestionRecord) Validate() error {
	if q.Question == "" {
		return NewUnexpectedSchemaError("question text is empty")
	}
	if len(q.Options) != OptionCount {
		return NewUnexpectedSchemaError("expected %d options, got %d", OptionCount, len(q.Options))
	}
	if q.Answer < 0 || q.Answer >= len(q.Options) {
		return NewUnexpectedSchemaError("answer index %d out of range", q.Answer)
	}
	return nil
}

// QuestionSet is the ordered list of generated questions, kept in the order
// the generation service produced them.
type QuestionSet struct {
	Questions []QuestionRecord `json:"questions"`
}

// TextGenerator is the capability the pipeline needs from a generation
// service: send a prompt, get back the raw text of the top completion.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
