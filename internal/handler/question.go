package handler

import (
	"cbt-question-gen/internal/domain"
	"cbt-question-gen/internal/dto"
	"cbt-question-gen/internal/logger"
	"cbt-question-gen/internal/service"
	"cbt-question-gen/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// QuestionHandler handles question generation HTTP requests
type QuestionHandler struct {
	service   service.QuestionService
	validator *validation.Validator
}

// NewQuestionHandler creates a new QuestionHandler instance
func NewQuestionHandler(service service.QuestionService, validator *validation.Validator) *QuestionHandler {
	if validator == nil {
		validator = validation.NewValidator()
	}
	return &QuestionHandler{
		service:   service,
		validator: validator,
	}
}

// GenerateQuestions godoc
// @Summary Generate multiple-choice questions
// @Description Generates CBT practice questions for an exam and subject using the configured LLM
// @Tags questions
// @Accept json
// @Produce json
// @Param request body dto.GenerateQuestionsRequest true "Exam, subject and count"
// @Success 200 {object} dto.GenerateQuestionsResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/generate-questions [post]
func (h *QuestionHandler) GenerateQuestions(c *fiber.Ctx) error {
	var req dto.GenerateQuestionsRequest
	if err := c.BodyParser(&req); err != nil {
		logger.FromContext(c.UserContext()).Warn("Failed to parse request body", zap.Error(err))
		return domain.ValidationErrors{domain.NewInvalidFormatError("body", "expected a JSON object")}
	}

	if errs := h.validator.ValidateGenerateQuestionsRequest(&req); len(errs) > 0 {
		return errs
	}

	set, err := h.service.GenerateQuestions(c.UserContext(), req.ToDomain())
	if err != nil {
		return err
	}

	return c.JSON(dto.NewGenerateQuestionsResponse(set))
}
