package service

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"cbt-question-gen/internal/domain"
	"cbt-question-gen/internal/logger"
	"cbt-question-gen/internal/prompt"
	"cbt-question-gen/internal/validation"

	"go.uber.org/zap"
)

// maxLoggedResponse bounds how much of a bad completion goes into the logs.
const maxLoggedResponse = 4096

// Stage names one step of a generation request.
type Stage string

const (
	StageValidating         Stage = "validating"
	StagePrompting          Stage = "prompting"
	StageAwaitingGeneration Stage = "awaiting_generation"
	StageNormalizing        Stage = "normalizing"
	StageSucceeded          Stage = "succeeded"
	StageFailed             Stage = "failed"
)

// QuestionService turns a generation request into a validated QuestionSet.
type QuestionService interface {
	GenerateQuestions(ctx context.Context, req domain.GenerationRequest) (*domain.QuestionSet, error)
}

type questionService struct {
	generator domain.TextGenerator
	validator *validation.Validator
}

// NewQuestionService creates a new QuestionService. A nil validator uses the
// default request limits.
func NewQuestionService(generator domain.TextGenerator, validator *validation.Validator) QuestionService {
	if validator == nil {
		validator = validation.NewValidator()
	}
	return &questionService{
		generator: generator,
		validator: validator,
	}
}

// GenerateQuestions runs validate, prompt, generate and normalize in order.
// Stages only move forward and nothing is retried.
func (s *questionService) GenerateQuestions(ctx context.Context, req domain.GenerationRequest) (*domain.QuestionSet, error) {
	start := time.Now()
	l := logger.FromContext(ctx).With(
		zap.String("exam", req.Exam),
		zap.String("subject", req.Subject),
		zap.Int("count", req.Count),
	)

	enter(l, StageValidating)
	if errs := s.validator.ValidateGenerationRequest(req); len(errs) > 0 {
		return nil, fail(l, StageValidating, errs)
	}

	enter(l, StagePrompting)
	p := prompt.Build(req.Exam, req.Subject, req.Count)

	enter(l, StageAwaitingGeneration)
	raw, err := s.generator.Generate(ctx, p)
	if err != nil {
		if !errors.Is(err, domain.ErrUpstreamFailure) {
			err = domain.NewUpstreamFailureError(err)
		}
		return nil, fail(l, StageAwaitingGeneration, err)
	}

	enter(l, StageNormalizing)
	set, err := NormalizeQuestionSet(raw)
	if err != nil {
		if errors.Is(err, domain.ErrMalformedUpstreamResponse) || errors.Is(err, domain.ErrUnexpectedSchema) {
			l = l.With(zap.String("raw_response", truncate(raw, maxLoggedResponse)))
		}
		return nil, fail(l, StageNormalizing, err)
	}

	if len(set.Questions) != req.Count {
		l.Warn("Generation service returned a different number of questions",
			zap.Int("requested", req.Count),
			zap.Int("received", len(set.Questions)),
		)
	}

	l.Info("Questions generated",
		zap.String("stage", string(StageSucceeded)),
		zap.Int("received", len(set.Questions)),
		zap.Duration("duration", time.Since(start)),
	)
	return set, nil
}

func enter(l *zap.Logger, stage Stage) {
	l.Debug("Pipeline stage", zap.String("stage", string(stage)))
}

func fail(l *zap.Logger, stage Stage, err error) error {
	fields := []zap.Field{
		zap.String("stage", string(StageFailed)),
		zap.String("failed_at", string(stage)),
		zap.String("kind", string(domain.CodeOf(err))),
		zap.Error(err),
	}
	if stage == StageValidating {
		l.Warn("Question generation rejected", fields...)
	} else {
		l.Error("Question generation failed", fields...)
	}
	return err
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "...(truncated)"
}
