package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"epsylon/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- humanizeParam (pure function, no HTTP) ---

func TestHumanizeParam(t *testing.T) {
	tests := []struct {
		param    string
		expected string
	}{
		{"id", "ID"},
		{"userId", "user ID"},
		{"roomId", "room ID"},
		{"chatRoomId", "chat room ID"},
		{"something", "something"},
	}
	for _, tt := range tests {
		t.Run(tt.param, func(t *testing.T) {
			assert.Equal(t, tt.expected, humanizeParam(tt.param))
		})
	}
}

// --- parsePagination ---

func paginationApp(defaultLimit int) *fiber.App {
	app := fiber.New()
	app.Get("/items", func(c *fiber.Ctx) error {
		p := parsePagination(c, defaultLimit)
		return c.JSON(fiber.Map{"limit": p.Limit, "offset": p.Offset})
	})
	return app
}

func paginationResult(t *testing.T, app *fiber.App, url string) (int, int) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var body map[string]int
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body["limit"], body["offset"]
}

func TestParsePagination_Defaults(t *testing.T) {
	limit, offset := paginationResult(t, paginationApp(25), "/items")
	assert.Equal(t, 25, limit)
	assert.Equal(t, 0, offset)
}

func TestParsePagination_Custom(t *testing.T) {
	limit, offset := paginationResult(t, paginationApp(25), "/items?limit=10&offset=30")
	assert.Equal(t, 10, limit)
	assert.Equal(t, 30, offset)
}

func TestParsePagination_CapsAndFloors(t *testing.T) {
	limit, offset := paginationResult(t, paginationApp(25), "/items?limit=5000&offset=-3")
	assert.Equal(t, maxPaginationLimit, limit)
	assert.Equal(t, 0, offset)

	limit, _ = paginationResult(t, paginationApp(25), "/items?limit=-1")
	assert.Equal(t, 25, limit)
}

// --- parseID ---

func TestParseID(t *testing.T) {
	s := &Server{}
	app := fiber.New()
	app.Get("/things/:id", func(c *fiber.Ctx) error {
		id, err := s.parseID(c, "id")
		if err != nil {
			return nil
		}
		return c.JSON(fiber.Map{"id": id})
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/things/42", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	for _, bad := range []string{"abc", "0", "-5"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/things/"+bad, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, "param %q", bad)
	}
}

// --- respondServiceError status mapping ---

func TestRespondServiceError_StatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"not found", models.NewNotFoundError("Post", 1), fiber.StatusNotFound},
		{"validation", models.NewValidationError("bad input"), fiber.StatusBadRequest},
		{"unauthorized", models.NewUnauthorizedError("no session"), fiber.StatusUnauthorized},
		{"forbidden", models.NewForbiddenError("not yours"), fiber.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/boom", func(c *fiber.Ctx) error {
				return respondServiceError(c, tt.err)
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, resp.StatusCode)
		})
	}
}
