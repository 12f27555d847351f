package utils_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/lumen-edu/lumen-api/internal/utils"
)

func performRequest(t *testing.T, app *fiber.App, path string) *http.Response {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}

func TestOKDefaultsMessageAndCarriesMeta(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		courses := []string{"Python Basics"}
		return utils.OK(c, courses, "", fiber.Map{"total": 1, "offset": 0})
	})

	resp := performRequest(t, app, "/")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		Success bool                   `json:"success"`
		Message string                 `json:"message"`
		Data    []string               `json:"data"`
		Meta    map[string]interface{} `json:"meta"`
	}
	decodeBody(t, resp, &payload)

	require.True(t, payload.Success)
	require.Equal(t, "success", payload.Message)
	require.Equal(t, []string{"Python Basics"}, payload.Data)
	require.Equal(t, float64(1), payload.Meta["total"])
}

func TestFailCarriesDetails(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return utils.Fail(c, fiber.StatusUnprocessableEntity, "code execution timed out", fiber.Map{
			"timed_out": true,
			"stderr":    "",
		})
	})

	resp := performRequest(t, app, "/")
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	var payload struct {
		Success bool                   `json:"success"`
		Message string                 `json:"message"`
		Details map[string]interface{} `json:"details"`
		Data    interface{}            `json:"data"`
	}
	decodeBody(t, resp, &payload)

	require.False(t, payload.Success)
	require.Equal(t, "code execution timed out", payload.Message)
	require.Equal(t, true, payload.Details["timed_out"])
	require.Nil(t, payload.Data)
}

func TestSendErrorEnvelope(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return utils.SendError(c, fiber.StatusNotFound, "task not found")
	})

	resp := performRequest(t, app, "/")
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var payload struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	decodeBody(t, resp, &payload)

	require.False(t, payload.Success)
	require.Equal(t, "task not found", payload.Message)
}
