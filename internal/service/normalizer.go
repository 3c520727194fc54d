package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"cbt-question-gen/internal/domain"

	"github.com/bytedance/sonic"
)

var (
	thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)
	// Accepts "B", "b", "(B)", "B)", "B.", "Option B", "Answer: B".
	answerLetter = regexp.MustCompile(`(?i)^(?:option\s+|answer\s*:?\s*)?\(?([a-z])\)?[.):]?$`)
	answerPrefix = regexp.MustCompile(`(?i)^(?:option|answer)\s*:?\s*(.+)$`)
	optionKeys   = []string{"A", "B", "C", "D"}
)

// NormalizeQuestionSet parses the raw completion and returns a QuestionSet
// whose records all satisfy domain.QuestionRecord.Validate. Any failure
// rejects the whole set.
func NormalizeQuestionSet(raw string) (*domain.QuestionSet, error) {
	cleaned := cleanCompletion(raw)
	if cleaned == "" {
		return nil, domain.NewMalformedUpstreamResponseError(errors.New("completion is empty"))
	}
	var doc interface{}
	if err := sonic.UnmarshalString(cleaned, &doc); err != nil {
		return nil, domain.NewMalformedUpstreamResponseError(err)
	}

	obj, ok := doc.(map[string]interface{})
	if !ok {
		return nil, domain.NewUnexpectedSchemaError("top-level value is %s, expected an object", kindOf(doc))
	}
	field, ok := obj["questions"]
	if !ok {
		return nil, domain.NewUnexpectedSchemaError(`missing "questions" field`)
	}
	items, ok := field.([]interface{})
	if !ok {
		return nil, domain.NewUnexpectedSchemaError(`"questions" is %s, expected a list`, kindOf(field))
	}

	set := &domain.QuestionSet{Questions: make([]domain.QuestionRecord, 0, len(items))}
	for i, item := range items {
		record, err := normalizeRecord(item)
		if err != nil {
			return nil, domain.NewUnexpectedSchemaError("question %d: %v", i, err)
		}
		set.Questions = append(set.Questions, record)
	}
	return set, nil
}

// cleanCompletion drops reasoning blocks and a markdown code fence some
// models wrap around JSON even in JSON mode.
func cleanCompletion(raw string) string {
	s := strings.TrimSpace(thinkBlock.ReplaceAllString(raw, ""))
	if strings.HasPrefix(s, "```") {
		if nl := strings.IndexByte(s, '\n'); nl != -1 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
		s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
	}
	return s
}

func normalizeRecord(item interface{}) (domain.QuestionRecord, error) {
	m, ok := item.(map[string]interface{})
	if !ok {
		return domain.QuestionRecord{}, fmt.Errorf("record is %s, expected an object", kindOf(item))
	}

	question, ok := m["question"].(string)
	if !ok || strings.TrimSpace(question) == "" {
		return domain.QuestionRecord{}, fmt.Errorf(`"question" must be a non-empty string`)
	}

	options, err := normalizeOptions(m["options"])
	if err != nil {
		return domain.QuestionRecord{}, err
	}

	answer, err := NormalizeAnswer(m["answer"], options)
	if err != nil {
		return domain.QuestionRecord{}, err
	}

	var explanation string
	switch v := m["explanation"].(type) {
	case nil:
	case string:
		explanation = strings.TrimSpace(v)
	default:
		return domain.QuestionRecord{}, fmt.Errorf(`"explanation" is %s, expected a string`, kindOf(v))
	}

	record := domain.QuestionRecord{
		Question:    strings.TrimSpace(question),
		Options:     options,
		Answer:      answer,
		Explanation: explanation,
	}
	if err := record.Validate(); err != nil {
		return domain.QuestionRecord{}, err
	}
	return record, nil
}

// normalizeOptions accepts a list of four values or an object keyed A..D.
func normalizeOptions(v interface{}) ([]string, error) {
	var values []interface{}
	switch o := v.(type) {
	case []interface{}:
		values = o
	case map[string]interface{}:
		if len(o) != domain.OptionCount {
			return nil, fmt.Errorf(`"options" has %d keys, expected %d`, len(o), domain.OptionCount)
		}
		byKey := make(map[string]interface{}, len(o))
		for k, val := range o {
			byKey[strings.ToUpper(strings.TrimSpace(k))] = val
		}
		for _, k := range optionKeys {
			val, ok := byKey[k]
			if !ok {
				return nil, fmt.Errorf(`"options" object is missing key %q`, k)
			}
			values = append(values, val)
		}
	case nil:
		return nil, fmt.Errorf(`missing "options" field`)
	default:
		return nil, fmt.Errorf(`"options" is %s, expected a list`, kindOf(v))
	}

	if len(values) != domain.OptionCount {
		return nil, fmt.Errorf(`"options" has %d entries, expected %d`, len(values), domain.OptionCount)
	}
	options := make([]string, 0, len(values))
	for i, val := range values {
		var text string
		switch x := val.(type) {
		case string:
			text = strings.TrimSpace(x)
		case float64:
			text = strconv.FormatFloat(x, 'f', -1, 64)
		default:
			return nil, fmt.Errorf("option %d is %s, expected a string", i, kindOf(val))
		}
		if text == "" {
			return nil, fmt.Errorf("option %d is empty", i)
		}
		options = append(options, text)
	}
	return options, nil
}

// NormalizeAnswer converts an upstream answer value to a zero-based index
// into options. Integers pass through; numeric strings are read as indexes;
// letters map A=0, B=1 and so on; a string equal to an option's text maps
// to that option.
func NormalizeAnswer(v interface{}, options []string) (int, error) {
	idx, err := answerIndex(v, options)
	if err != nil {
		return 0, err
	}
	if idx < 0 || idx >= len(options) {
		return 0, fmt.Errorf(`"answer" %d is not a valid index into %d options`, idx, len(options))
	}
	return idx, nil
}

func answerIndex(v interface{}, options []string) (int, error) {
	switch a := v.(type) {
	case nil:
		return 0, fmt.Errorf(`missing "answer" field`)
	case int:
		return numericAnswer(a, strconv.Itoa(a), options), nil
	case int64:
		return numericAnswer(int(a), strconv.FormatInt(a, 10), options), nil
	case float64:
		if a != math.Trunc(a) || math.IsInf(a, 0) {
			return 0, fmt.Errorf(`"answer" %v is not a whole number`, a)
		}
		return numericAnswer(int(a), strconv.FormatFloat(a, 'f', -1, 64), options), nil
	case json.Number:
		n, err := a.Int64()
		if err != nil {
			return 0, fmt.Errorf(`"answer" %q is not a whole number`, a.String())
		}
		return numericAnswer(int(n), a.String(), options), nil
	case string:
		return stringAnswer(strings.TrimSpace(a), options)
	default:
		return 0, fmt.Errorf(`"answer" is %s, expected an integer`, kindOf(v))
	}
}

// numericAnswer treats n as an index unless it falls outside the options and
// one of them reads exactly as text, as in options ["10","20","30","40"].
func numericAnswer(n int, text string, options []string) int {
	if n >= 0 && n < len(options) {
		return n
	}
	if i, ok := matchOption(text, options); ok {
		return i
	}
	return n
}

// stringAnswer resolves a textual answer. An exact option match wins over
// reading the string as an index or a letter.
func stringAnswer(s string, options []string) (int, error) {
	if i, ok := matchOption(s, options); ok {
		return i, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	if m := answerLetter.FindStringSubmatch(s); m != nil {
		return int(strings.ToUpper(m[1])[0] - 'A'), nil
	}
	if m := answerPrefix.FindStringSubmatch(s); m != nil {
		rest := strings.TrimSpace(m[1])
		if i, ok := matchOption(rest, options); ok {
			return i, nil
		}
		if n, err := strconv.Atoi(rest); err == nil {
			return n, nil
		}
	}
	return 0, fmt.Errorf(`"answer" %q cannot be mapped to an option`, s)
}

func matchOption(s string, options []string) (int, bool) {
	for i, opt := range options {
		if strings.EqualFold(strings.TrimSpace(opt), s) {
			return i, true
		}
	}
	return 0, false
}

func kindOf(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]interface{}:
		return "an object"
	case []interface{}:
		return "a list"
	case string:
		return "a string"
	case float64, json.Number:
		return "a number"
	case bool:
		return "a boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
