// Package prompt renders the instruction sent to the generation service.
package prompt

import (
	"fmt"
	"strings"
)

const questionTemplate = `You are an expert examiner preparing CBT (Computer-Based Test) practice questions.

Generate exactly %d multiple-choice questions for the exam "%s" on the subject "%s".
This is a Nigerian exam. Follow the Nigerian curriculum and match the style, syllabus and difficulty of real %s %s questions.

Rules:
1. Every question has exactly 4 options.
2. Exactly one option is correct.
3. "answer" is the zero-based index of the correct option in "options" (0, 1, 2 or 3), written as a JSON integer, not a letter.
4. "explanation" briefly states why the correct option is right.
5. Do not number the options or prefix them with letters.

Respond with ONLY a single JSON object, with no markdown and no text before or after it, in this format:
{
  "questions": [
    {
      "question": "string",
      "options": ["string", "string", "string", "string"],
      "answer": 0,
      "explanation": "string"
    }
  ]
}

Example of one question object:
{
  "question": "What is the SI unit of electric current?",
  "options": ["Volt", "Ampere", "Ohm", "Coulomb"],
  "answer": 1,
  "explanation": "The ampere is the SI base unit of electric current."
}

The "questions" array must contain exactly %d objects.`

// Build renders the generation prompt. It is a pure function of its inputs.
func Build(exam, subject string, count int) string {
	exam = sanitize(exam)
	subject = sanitize(subject)
	return fmt.Sprintf(questionTemplate, count, exam, subject, exam, subject, count)
}

// sanitize keeps caller text on one line and stops it from closing the
// surrounding quotes.
func sanitize(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.ReplaceAll(s, `"`, `'`)
}
