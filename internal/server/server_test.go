package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"cbt-question-gen/internal/config"
	"cbt-question-gen/internal/domain"
	"cbt-question-gen/internal/dto"
	"cbt-question-gen/internal/server"
	"cbt-question-gen/internal/service"
	"cbt-question-gen/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubGenerator returns a canned completion and counts calls.
type stubGenerator struct {
	calls    atomic.Int32
	response string
	err      error
}

func (s *stubGenerator) Generate(_ context.Context, _ string) (string, error) {
	s.calls.Add(1)
	return s.response, s.err
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:         3000,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
			IdleTimeout:  5 * time.Second,
			BodyLimit:    1024 * 1024,
		},
		CORS:   config.CORSConfig{AllowOrigins: "*"},
		Limits: config.LimitsConfig{MaxQuestionCount: 5, MaxFieldLength: 100},
	}
}

func newApp(gen domain.TextGenerator) *fiber.App {
	cfg := testConfig()
	return server.New(cfg, service.NewQuestionService(gen, validation.NewFromConfig(cfg.Limits)))
}

func postJSON(t *testing.T, app *fiber.App, body string) (*http.Response, []byte) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/generate-questions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, b
}

func threeQuestions() string {
	var parts []string
	answers := []string{`"A"`, `2`, `"d"`}
	for i, a := range answers {
		parts = append(parts, fmt.Sprintf(`{"question":"Physics Q%d","options":["a","b","c","d"],"answer":%s,"explanation":"e%d"}`, i, a, i))
	}
	return `{"questions":[` + strings.Join(parts, ",") + `]}`
}

func TestHealth(t *testing.T) {
	app := newApp(&stubGenerator{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var body dto.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.NotEmpty(t, body.Message)
}

func TestGenerateQuestions_EndToEnd(t *testing.T) {
	gen := &stubGenerator{response: threeQuestions()}
	app := newApp(gen)

	resp, b := postJSON(t, app, `{"exam":"JAMB","subject":"Physics","count":3}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(b))

	var body dto.GenerateQuestionsResponse
	require.NoError(t, json.Unmarshal(b, &body))
	require.Len(t, body.Questions, 3)
	for _, q := range body.Questions {
		assert.Len(t, q.Options, 4)
		assert.GreaterOrEqual(t, q.Answer, 0)
		assert.LessOrEqual(t, q.Answer, 3)
	}
	assert.Equal(t, []int{0, 2, 3}, []int{body.Questions[0].Answer, body.Questions[1].Answer, body.Questions[2].Answer})
	assert.Equal(t, int32(1), gen.calls.Load())
}

func TestGenerateQuestions_CountAsString(t *testing.T) {
	gen := &stubGenerator{response: threeQuestions()}
	resp, b := postJSON(t, newApp(gen), `{"exam":"JAMB","subject":"Physics","count":"3"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode, string(b))
}

func TestGenerateQuestions_InvalidRequest(t *testing.T) {
	bodies := []string{
		`{"subject":"Physics","count":3}`,
		`{"exam":"JAMB","count":3}`,
		`{"exam":"JAMB","subject":"Physics"}`,
		`{"exam":"","subject":"Physics","count":3}`,
		`{"exam":"JAMB","subject":"Physics","count":0}`,
		`{"exam":"JAMB","subject":"Physics","count":6}`,
		`{"exam":"JAMB","subject":"Physics","count":"many"}`,
		`not json`,
		``,
	}

	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			gen := &stubGenerator{response: threeQuestions()}
			resp, b := postJSON(t, newApp(gen), body)

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			var errResp dto.ErrorResponse
			require.NoError(t, json.Unmarshal(b, &errResp))
			assert.NotEmpty(t, errResp.Message)
			assert.Equal(t, string(domain.CodeInvalidRequest), errResp.Code)
			assert.Equal(t, int32(0), gen.calls.Load())
		})
	}
}

func TestGenerateQuestions_UpstreamProblemsAre500(t *testing.T) {
	tests := []struct {
		name     string
		gen      *stubGenerator
		wantCode domain.ErrorCode
	}{
		{"upstream failure", &stubGenerator{err: domain.NewUpstreamFailureError(errors.New("401 invalid api key"))}, domain.CodeUpstreamFailure},
		{"plain upstream error", &stubGenerator{err: errors.New("connection reset")}, domain.CodeUpstreamFailure},
		{"malformed", &stubGenerator{response: "not json"}, domain.CodeMalformedUpstreamResponse},
		{"missing questions", &stubGenerator{response: "{}"}, domain.CodeUnexpectedSchema},
		{"bad answer", &stubGenerator{response: `{"questions":[{"question":"Q","options":["a","b","c","d"],"answer":"Z"}]}`}, domain.CodeUnexpectedSchema},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp(tt.gen)
			resp, b := postJSON(t, app, `{"exam":"JAMB","subject":"Physics","count":1}`)

			assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
			var errResp dto.ErrorResponse
			require.NoError(t, json.Unmarshal(b, &errResp))
			assert.Equal(t, domain.GenerationFailedMessage, errResp.Message)
			assert.Equal(t, string(tt.wantCode), errResp.Code)
			assert.NotContains(t, string(b), "not json")
			assert.NotContains(t, string(b), "api key")

			// The server keeps serving after a failed request.
			health, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, health.StatusCode)
		})
	}
}

func TestGenerateQuestions_PanicIsRecovered(t *testing.T) {
	app := server.New(testConfig(), panicService{})

	resp, _ := postJSON(t, app, `{"exam":"JAMB","subject":"Physics","count":1}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	health, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, health.StatusCode)
}

type panicService struct{}

func (panicService) GenerateQuestions(context.Context, domain.GenerationRequest) (*domain.QuestionSet, error) {
	panic("boom")
}

func TestCORSPreflight(t *testing.T) {
	app := newApp(&stubGenerator{})

	req := httptest.NewRequest(http.MethodOptions, "/api/generate-questions", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestUnknownRouteIs404(t *testing.T) {
	resp, err := newApp(&stubGenerator{}).Test(httptest.NewRequest(http.MethodGet, "/nope", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
