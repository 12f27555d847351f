package contract_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/lumen-edu/lumen-api/internal/dto"
	"github.com/lumen-edu/lumen-api/internal/handler"
)

type stubGradingService struct {
	result dto.GradeResult
}

func (s stubGradingService) GradeCode(context.Context, uint, dto.CodeGradeRequest) (dto.GradeResult, error) {
	return s.result, nil
}

func (s stubGradingService) GradePoll(context.Context, uint, dto.PollGradeRequest) (dto.GradeResult, error) {
	return s.result, nil
}

func (s stubGradingService) GradeTextInput(context.Context, uint, dto.TextInputGradeRequest) (dto.GradeResult, error) {
	return s.result, nil
}

func TestGradeResultContract(t *testing.T) {
	schemaPath, err := filepath.Abs(filepath.Join("..", "contracts", "grade_result.schema.json"))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile("file://" + schemaPath)
	require.NoError(t, err)

	cases := []struct {
		name   string
		path   string
		body   string
		result dto.GradeResult
	}{
		{
			name: "correct code verdict",
			path: "/api/v1/grade/code",
			body: `{"task_id":7,"source":"return a + b"}`,
			result: dto.GradeResult{
				TaskKind:          "code",
				IsCorrect:         true,
				AttemptNumber:     1,
				AttemptsRemaining: 2,
				FailedTestIndex:   -1,
			},
		},
		{
			name: "incorrect code verdict with failing test",
			path: "/api/v1/grade/code",
			body: `{"task_id":7,"source":"return 5"}`,
			result: dto.GradeResult{
				TaskKind:          "code",
				IsCorrect:         false,
				AttemptNumber:     2,
				AttemptsRemaining: 1,
				FailedTestIndex:   2,
				FailedTestOutput:  "expected 4, got 5",
			},
		},
		{
			name: "poll verdict without limit",
			path: "/api/v1/grade/poll",
			body: `{"task_id":3,"option_id":31}`,
			result: dto.GradeResult{
				TaskKind:          "poll",
				IsCorrect:         true,
				AttemptNumber:     4,
				AttemptsRemaining: dto.UnlimitedAttempts,
				FailedTestIndex:   -1,
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gradingHandler := handler.NewGradingHandler(stubGradingService{result: tc.result}, zerolog.Nop())

			app := fiber.New()
			group := app.Group("/api/v1/grade", func(c *fiber.Ctx) error {
				c.Locals("user_id", uint(1))
				c.Locals("user_role", "student")
				return c.Next()
			})
			gradingHandler.Register(group)

			req := httptest.NewRequest(http.MethodPost, tc.path, strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			resp.Body.Close()

			var payload interface{}
			require.NoError(t, json.Unmarshal(body, &payload))
			require.NoError(t, schema.Validate(payload))
		})
	}
}
